// Command taxctl operates the fiscal engine from the command line.
//
//	taxctl seed --tenant ID [--file configs/tax_tables.yaml]
//	taxctl quote --tenant ID --ncm 09012100 --price 39.90 --quantity 2 --to RJ
//	taxctl compliance --tenant ID ORDER_ID
//	taxctl token issue --tenant ID --scope fiscal:write
//	taxctl token revoke --jti JTI | --tenant ID
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/infrastructure/config"
	"github.com/mestresdocafe/backend/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	configFile string
	logLevel   string
	tenant     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "taxctl",
		Short:         "Operate the Mestres do Café fiscal engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: ./config.toml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.tenant, "tenant", "", "tenant id")

	rootCmd.AddCommand(
		seedCmd(opts),
		quoteCmd(opts),
		complianceCmd(opts),
		tokenCmd(opts),
	)
	return rootCmd
}

func (o *options) logger() (*zap.Logger, error) {
	return logger.New(config.LogConfig{Level: o.logLevel, Format: "console", Output: "stderr"})
}

func (o *options) config() (*config.Config, error) {
	cfg, err := config.LoadFile(o.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func (o *options) tenantID() (uuid.UUID, error) {
	if o.tenant == "" {
		return uuid.Nil, fmt.Errorf("--tenant is required")
	}
	id, err := uuid.Parse(o.tenant)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --tenant %q: %w", o.tenant, err)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
