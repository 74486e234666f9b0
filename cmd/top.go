package cmd

import (
	"fmt"

	"github.com/KaramelBytes/casedash/internal/analysis"
	"github.com/KaramelBytes/casedash/internal/dashboard"
	"github.com/KaramelBytes/casedash/internal/utils"
	"github.com/spf13/cobra"
)

var (
	topN    int
	topJSON bool
)

var topCmd = &cobra.Command{
	Use:   "top <column>",
	Short: "Show the most frequent values of a column, the rest grouped as Others",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if topN < 1 {
			return fmt.Errorf("invalid --limit %d: must be at least 1", topN)
		}
		svc, _, err := newService()
		if err != nil {
			return err
		}
		counts, err := svc.Top(cmd.Context(), args[0], topN)
		if err != nil {
			return err
		}
		if topJSON {
			b, err := utils.PrettyJSON(counts)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(b, '\n'))
			return err
		}
		dashboard.WriteCounts(cmd.OutOrStdout(), args[0], counts)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(topCmd)
	topCmd.Flags().IntVarP(&topN, "limit", "n", analysis.DefaultTopN, "number of values kept before grouping the rest")
	topCmd.Flags().BoolVar(&topJSON, "json", false, "emit the counts as JSON")
}
