package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/casedash/internal/utils"
	"github.com/spf13/cobra"
)

var (
	dashJSON   bool
	dashOutput string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Load the dataset and render the full dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService()
		if err != nil {
			return err
		}
		snap, err := svc.Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		var out []byte
		if dashJSON {
			out, err = utils.PrettyJSON(snap)
			if err != nil {
				return err
			}
			out = append(out, '\n')
		} else {
			out = []byte(snap.Markdown())
		}
		for _, d := range snap.Diagnostics {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %s: %s\n", d.Stage, d.Message)
		}
		if dashOutput != "" {
			if err := utils.SafeWriteFile(dashOutput, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote dashboard to %s\n", dashOutput)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().BoolVar(&dashJSON, "json", false, "emit the snapshot as JSON")
	dashboardCmd.Flags().StringVarP(&dashOutput, "output", "o", "", "write the report to a file instead of stdout")
}
