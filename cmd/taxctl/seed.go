package main

import (
	"fmt"

	"github.com/mestresdocafe/backend/internal/infrastructure/seed"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func seedCmd(opts *options) *cobra.Command {
	var file string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load state rates and NCM codes from a YAML tax table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			if file == "" {
				cfg, err := opts.config()
				if err != nil {
					return err
				}
				file = cfg.Tax.TablesFile
			}

			table, err := seed.LoadFile(file)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d state rates, %d NCM codes\n",
					file, len(table.StateRates), len(table.NCMCodes))
				return nil
			}

			return withServices(cmd.Context(), opts, func(svc *services, log *zap.Logger) error {
				result, err := svc.seed.Apply(cmd.Context(), tenantID, table)
				if err != nil {
					log.Error("Seed stopped", zap.Error(err),
						zap.Int("ncm_codes", result.NCMCodes),
						zap.Int("state_rates", result.StateRates),
					)
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "tax table YAML (default: tax.tables_file from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and validate the file without writing")
	return cmd
}
