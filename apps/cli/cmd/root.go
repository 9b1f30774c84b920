package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/abdul-hamid-achik/easyhttp/packages/core/config"
	"github.com/abdul-hamid-achik/easyhttp/packages/output"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configPath string
	noColor    bool
	output     string
	history    string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "easyhttp",
		Short: "Fluent HTTP requests from the command line.",
		Long: `easyhttp builds a single HTTP request from a base URI, path, query and
positional parameters, sends it without following redirects and fails
unless the response is a success or was explicitly accepted.

Examples:
  easyhttp get http://api.test/items/{id} -p 42
  easyhttp get /items --base http://api.test --ok 404
  easyhttp post http://api.test/upload -f name=foo -F file=@photo.png
  easyhttp head http://api.test/old --ok redirection -v`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", getEnvString("EASYHTTP_CONFIG", ""), "Path to config file (env: EASYHTTP_CONFIG)")
	flags.BoolVar(&opts.noColor, "no-color", getEnvBool("EASYHTTP_NO_COLOR", false), "Disable colored output (env: EASYHTTP_NO_COLOR)")
	flags.StringVarP(&opts.output, "output", "o", getEnvString("EASYHTTP_OUTPUT", "console"), "Output format: console, json (env: EASYHTTP_OUTPUT)")
	flags.StringVar(&opts.history, "history", getEnvString("EASYHTTP_HISTORY", ""), "SQLite file recording executed requests (env: EASYHTTP_HISTORY)")

	for _, method := range []string{"GET", "HEAD", "POST", "PUT", "DELETE"} {
		rootCmd.AddCommand(newRequestCmd(method, opts))
	}
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

// loadConfig reads the config file and applies the global flag overrides
func (o *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, &exitError{code: ExitConfigError, err: fmt.Errorf("failed to load config: %w", err)}
	}

	override := &config.Config{History: o.history}
	if cmd.Flags().Changed("no-color") || o.noColor {
		override.NoColor = config.BoolPtr(o.noColor)
	}
	return cfg.Merge(override), nil
}

func (o *globalOptions) formatter(cmd *cobra.Command, cfg *config.Config, verbose bool) (output.Formatter, error) {
	switch o.output {
	case "", "console":
		return output.NewConsoleFormatter(
			output.WithWriter(cmd.OutOrStdout()),
			output.WithVerbose(verbose),
			output.WithNoColor(cfg.GetNoColor()),
		), nil
	case "json":
		return output.NewJSONFormatter(output.WithJSONWriter(cmd.OutOrStdout())), nil
	default:
		return nil, usageError(fmt.Errorf("unknown output format %q (use console or json)", o.output))
	}
}

func Execute(v, bt string) {
	version = v
	buildTime = bt

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	code := ExitUsageError
	ee, ok := err.(*exitError)
	if ok {
		code = ee.code
	}
	if !ok || !ee.reported {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	stop()
	os.Exit(code)
}
