package cmd

import (
	"github.com/KaramelBytes/casedash/internal/dashboard"
	"github.com/KaramelBytes/casedash/internal/utils"
	"github.com/spf13/cobra"
)

var kpisJSON bool

var kpisCmd = &cobra.Command{
	Use:   "kpis",
	Short: "Show the key metric cards only",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService()
		if err != nil {
			return err
		}
		kpis, err := svc.KPIs(cmd.Context())
		if err != nil {
			return err
		}
		if kpisJSON {
			b, err := utils.PrettyJSON(kpis)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(b, '\n'))
			return err
		}
		dashboard.WriteKPIs(cmd.OutOrStdout(), kpis)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kpisCmd)
	kpisCmd.Flags().BoolVar(&kpisJSON, "json", false, "emit the cards as JSON")
}
