package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// runCmd is a helper to execute the root command with args and capture stdout.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Reset sticky flags that may persist Changed state across invocations
	for _, fs := range []*pflag.FlagSet{
		rootCmd.PersistentFlags(), dashboardCmd.Flags(), kpisCmd.Flags(), topCmd.Flags(), serveCmd.Flags(),
	} {
		resetFlags(fs)
	}
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(fl *pflag.Flag) {
		if fl.Name == "help" {
			return
		}
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	})
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeCasesCSV(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	soon := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	later := time.Now().AddDate(0, 0, 90).Format("2006-01-02")
	csv := strings.Join([]string{
		"Actuación;Duración;Fecha Límite;Juzgado",
		"Demanda;10;" + later + ";Civil 1",
		"Recurso;20;" + soon + ";Civil 2",
		"Demanda;30;" + soon + ";",
	}, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, "casos.csv"), []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
}

func TestCLI_DashboardJSONToFile(t *testing.T) {
	home := isolateHome(t)
	dataDir := filepath.Join(home, "data")
	writeCasesCSV(t, dataDir)
	outPath := filepath.Join(home, "snap.json")

	out := runCmd(t, "dashboard", "--data-dir", dataDir, "--json", "-o", outPath)
	if !strings.Contains(out, "Wrote dashboard") {
		t.Fatalf("expected confirmation, got %q", out)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var snap struct {
		Source struct {
			Kind string `json:"kind"`
		} `json:"source"`
		Rows int `json:"rows"`
		KPIs []struct {
			Title string `json:"title"`
			Value any    `json:"value"`
		} `json:"kpis"`
		Charts []struct {
			Column string `json:"column"`
			Kind   string `json:"kind"`
		} `json:"charts"`
	}
	if err := json.Unmarshal(b, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Source.Kind != "csv" || snap.Rows != 3 {
		t.Fatalf("unexpected source/rows: %+v", snap)
	}
	if len(snap.KPIs) != 4 {
		t.Fatalf("expected 4 KPIs, got %d", len(snap.KPIs))
	}
	if snap.KPIs[0].Value != float64(3) {
		t.Fatalf("total cases = %v, want 3", snap.KPIs[0].Value)
	}
	if snap.KPIs[2].Value != float64(2) {
		t.Fatalf("upcoming = %v, want 2", snap.KPIs[2].Value)
	}
	if len(snap.Charts) != 2 || snap.Charts[0].Column != "Actuación" || snap.Charts[1].Kind != "pie" {
		t.Fatalf("unexpected charts: %+v", snap.Charts)
	}
}

func TestCLI_DashboardMarkdownFallsBackToSample(t *testing.T) {
	home := isolateHome(t)
	out := runCmd(t, "dashboard", "--data-dir", filepath.Join(home, "missing"))
	for _, want := range []string{"# Dashboard de Casos", "Source: sample", "Rows: 365", "Total de Casos"} {
		if !strings.Contains(out, want) {
			t.Fatalf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_TopAndKPIs(t *testing.T) {
	home := isolateHome(t)
	dataDir := filepath.Join(home, "data")
	writeCasesCSV(t, dataDir)

	out := runCmd(t, "top", "Actuación", "-n", "1", "--data-dir", dataDir, "--json")
	var counts []struct {
		Label string `json:"label"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &counts); err != nil {
		t.Fatalf("decode counts: %v\n%s", err, out)
	}
	if len(counts) != 2 || counts[0].Label != "Demanda" || counts[0].Count != 2 || counts[1].Label != "Others" || counts[1].Count != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	if _, err := execCmd(t, "top", "Nope", "--data-dir", dataDir); err == nil {
		t.Fatalf("expected error for unknown column")
	}

	out = runCmd(t, "kpis", "--data-dir", dataDir)
	if !strings.Contains(out, "Actuación más Común") || !strings.Contains(out, "Demanda") {
		t.Fatalf("kpi table missing mode card:\n%s", out)
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolateHome(t)
	runCmd(t, "config", "set", "top_n", "3")
	if _, err := os.Stat(filepath.Join(home, ".casedash", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "top_n: 3") {
		t.Fatalf("expected saved top_n, got:\n%s", out)
	}
	if _, err := execCmd(t, "config", "set", "top_n", "zero"); err == nil {
		t.Fatalf("expected error for invalid top_n")
	}
}

func TestCLI_ConfigSetIgnoresDataDirFlag(t *testing.T) {
	home := isolateHome(t)
	runCmd(t, "--data-dir", filepath.Join(home, "one-off"), "config", "set", "top_n", "4")
	b, err := os.ReadFile(filepath.Join(home, ".casedash", "config.yaml"))
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	saved := string(b)
	if !strings.Contains(saved, "top_n: 4") {
		t.Fatalf("expected top_n in saved config, got:\n%s", saved)
	}
	if strings.Contains(saved, "one-off") {
		t.Fatalf("--data-dir leaked into saved config:\n%s", saved)
	}
	if !strings.Contains(saved, "data_dir: data") {
		t.Fatalf("expected default data_dir, got:\n%s", saved)
	}
}
