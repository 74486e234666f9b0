package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/KaramelBytes/casedash/internal/analysis"
	"github.com/KaramelBytes/casedash/internal/dataset"
	"github.com/KaramelBytes/casedash/internal/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DataDir          string        `mapstructure:"data_dir" yaml:"data_dir"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	Delimiter        string        `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator string        `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	DateLayouts      []string      `mapstructure:"date_layouts" yaml:"date_layouts"`
	MissingLabel     string        `mapstructure:"missing_label" yaml:"missing_label"`
	SampleSeed       uint64        `mapstructure:"sample_seed" yaml:"sample_seed"`

	// Dashboard layout
	TopN         int    `mapstructure:"top_n" yaml:"top_n"`
	OthersLabel  string `mapstructure:"others_label" yaml:"others_label"`
	ChartColumns int    `mapstructure:"chart_columns" yaml:"chart_columns"`
	UpcomingDays int    `mapstructure:"upcoming_days" yaml:"upcoming_days"`
	ModeMaxLen   int    `mapstructure:"mode_max_len" yaml:"mode_max_len"`

	// Server and logging
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
}

// Keys lists the settable configuration keys.
var Keys = []string{
	"data_dir", "cache_ttl", "delimiter", "decimal_separator", "date_layouts",
	"missing_label", "sample_seed", "top_n", "others_label", "chart_columns",
	"upcoming_days", "mode_max_len", "listen_addr", "log_level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")
	v.SetDefault("cache_ttl", time.Hour)
	v.SetDefault("delimiter", ";")
	v.SetDefault("decimal_separator", ".")
	v.SetDefault("date_layouts", dataset.DefaultDateLayouts)
	v.SetDefault("missing_label", dataset.DefaultMissingLabel)
	v.SetDefault("sample_seed", 0)
	v.SetDefault("top_n", analysis.DefaultTopN)
	v.SetDefault("others_label", analysis.OthersLabel)
	v.SetDefault("chart_columns", 4)
	v.SetDefault("upcoming_days", 30)
	v.SetDefault("mode_max_len", 20)
	v.SetDefault("listen_addr", ":8501")
	v.SetDefault("log_level", "warn")
}

// DefaultPath is ~/.casedash/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".casedash", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.casedash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	return utils.SafeWriteFile(path, b)
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CASEDASH")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing default file is fine; an explicit or broken one is not.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks values that would otherwise fail deep inside a pipeline pass.
func (c *Global) Validate() error {
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("invalid delimiter %q: must be a single character", c.Delimiter)
	}
	switch c.DecimalSeparator {
	case ".", ",":
	default:
		return fmt.Errorf("invalid decimal_separator %q (use '.' or ',')", c.DecimalSeparator)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid cache_ttl %s: must not be negative", c.CacheTTL)
	}
	if c.TopN < 1 {
		return fmt.Errorf("invalid top_n %d: must be at least 1", c.TopN)
	}
	if c.ChartColumns < 1 {
		return fmt.Errorf("invalid chart_columns %d: must be at least 1", c.ChartColumns)
	}
	if c.UpcomingDays < 1 {
		return fmt.Errorf("invalid upcoming_days %d: must be at least 1", c.UpcomingDays)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	return nil
}

// DatasetOptions maps the configuration onto loader options.
func (c *Global) DatasetOptions() dataset.Options {
	delim, _ := utf8.DecodeRuneInString(c.Delimiter)
	dec, _ := utf8.DecodeRuneInString(c.DecimalSeparator)
	return dataset.Options{
		Dir:              c.DataDir,
		Delimiter:        delim,
		DecimalSeparator: dec,
		DateLayouts:      c.DateLayouts,
		MissingLabel:     c.MissingLabel,
		SampleSeed:       c.SampleSeed,
	}
}

// AnalysisOptions maps the configuration onto KPI and chart options.
func (c *Global) AnalysisOptions() analysis.Options {
	return analysis.Options{
		Now:          time.Now,
		UpcomingDays: c.UpcomingDays,
		ModeMaxLen:   c.ModeMaxLen,
		TopN:         c.TopN,
		OthersLabel:  c.OthersLabel,
		ChartColumns: c.ChartColumns,
		MissingLabel: c.MissingLabel,
	}
}

// Set assigns one key from its string form, as typed on the command line.
func (c *Global) Set(key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	switch key {
	case "data_dir":
		c.DataDir = val
	case "cache_ttl":
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration for cache_ttl: %w", err)
		}
		c.CacheTTL = d
	case "delimiter":
		if val == "tab" || val == `\t` {
			val = "\t"
		}
		c.Delimiter = val
	case "decimal_separator":
		switch strings.ToLower(val) {
		case ",", "comma":
			c.DecimalSeparator = ","
		case ".", "dot":
			c.DecimalSeparator = "."
		default:
			return fmt.Errorf("invalid decimal_separator: %s (use '.'|'comma')", val)
		}
	case "date_layouts":
		var layouts []string
		for _, l := range strings.Split(val, ",") {
			if l = strings.TrimSpace(l); l != "" {
				layouts = append(layouts, l)
			}
		}
		if len(layouts) == 0 {
			return fmt.Errorf("date_layouts must list at least one layout")
		}
		c.DateLayouts = layouts
	case "missing_label":
		c.MissingLabel = val
	case "sample_seed":
		u, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid uint for sample_seed: %v", val)
		}
		c.SampleSeed = u
	case "top_n":
		i, err := atoi()
		if err != nil {
			return err
		}
		c.TopN = i
	case "others_label":
		c.OthersLabel = val
	case "chart_columns":
		i, err := atoi()
		if err != nil {
			return err
		}
		c.ChartColumns = i
	case "upcoming_days":
		i, err := atoi()
		if err != nil {
			return err
		}
		c.UpcomingDays = i
	case "mode_max_len":
		i, err := atoi()
		if err != nil {
			return err
		}
		c.ModeMaxLen = i
	case "listen_addr":
		c.ListenAddr = val
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return c.Validate()
}
