package cli

import (
	"fmt"

	"github.com/Ergy12/caldeco/internal/server"
	"github.com/Ergy12/caldeco/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve <catalog file>",
	Short: "Start HTTP server for catalog calculations",
	Long: `Start an HTTP server that evaluates the formulas of a catalog via REST API.

The server provides:
- REST API for reading the catalog and running calculations
- WebSocket streaming of calculation events
- Prometheus metrics endpoint
- Parallel evaluation of the formulas of each calculation`,
	Example: `
  caldeco serve payroll.calc.yaml                      # Serve a catalog
  caldeco serve --port 9090 --host 0.0.0.0 a.calc.yaml # Custom host and port
  caldeco serve --concurrency 8 payroll.calc.yaml      # Evaluate 8 formulas at once`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := serveConfig(args[0])

		srv, err := server.New(config, nil)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		if !viper.GetBool("quiet") {
			w := cmd.OutOrStdout()
			style.Success(w, fmt.Sprintf("caldeco server starting at http://%s", srv.GetAddr()))
			fmt.Fprintf(w, "  Catalog: %s\n", style.FormatFilePath(config.CatalogFile))
			fmt.Fprintf(w, "  API:     http://%s/api/v1/calculate\n", srv.GetAddr())
			fmt.Fprintf(w, "  Stream:  ws://%s/api/v1/stream\n", srv.GetAddr())
			if config.EnableMetrics {
				fmt.Fprintf(w, "  Metrics: http://%s/metrics\n", srv.GetAddr())
			}
		}

		return srv.StartWithGracefulShutdown()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	defaults := server.DefaultConfig()

	serveCmd.Flags().IntP("port", "p", defaults.Port, "server port")
	serveCmd.Flags().String("host", defaults.Host, "server host")
	serveCmd.Flags().Int("concurrency", defaults.Concurrency, "maximum formulas evaluated at once per calculation")
	serveCmd.Flags().Duration("timeout", defaults.CalculationTimeout, "calculation timeout")
	serveCmd.Flags().Bool("metrics", defaults.EnableMetrics, "enable Prometheus metrics endpoint")
	serveCmd.Flags().Bool("cors", defaults.EnableCORS, "enable CORS headers")

	for _, name := range []string{"port", "host", "concurrency", "timeout", "metrics", "cors"} {
		_ = viper.BindPFlag("serve."+name, serveCmd.Flags().Lookup(name))
	}
}

// serveConfig builds the server configuration from flags, the config file
// and CALDECO_SERVE_* environment variables
func serveConfig(catalogFile string) *server.Config {
	config := server.DefaultConfig()
	config.CatalogFile = catalogFile
	config.Host = viper.GetString("serve.host")
	config.Port = viper.GetInt("serve.port")
	config.Concurrency = viper.GetInt("serve.concurrency")
	config.EnableMetrics = viper.GetBool("serve.metrics")
	config.EnableCORS = viper.GetBool("serve.cors")
	if timeout := viper.GetDuration("serve.timeout"); timeout > 0 {
		config.CalculationTimeout = timeout
	}
	return config
}
