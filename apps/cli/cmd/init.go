package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/easyhttp/packages/core/config"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var (
		force   bool
		asYAML  bool
		baseURI string
		proxy   string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an easyhttp config file",
		Long: `Create an easyhttp config file in the current directory.

An existing config file is left alone unless it only holds default values
or --force is given.

Examples:
  easyhttp init
  easyhttp init --yaml --base https://api.example.com
  easyhttp init --force --proxy proxy.internal:3128`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			existing, path, err := findConfigFile(cwd)
			if err != nil {
				return &exitError{code: ExitConfigError, err: err}
			}
			if existing != nil && !existing.IsDefault() && !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Config already exists: %s (use --force to overwrite)\n", path)
				return nil
			}

			if path == "" {
				name := config.ConfigFilenames[0]
				if asYAML {
					name = ".easyhttp.yaml"
				}
				path = filepath.Join(cwd, name)
			}

			cfg := config.DefaultConfig().Merge(&config.Config{BaseURI: baseURI, Proxy: proxy})
			if err := cfg.SaveConfig(path); err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Write .easyhttp.yaml instead of .easyhttp.json")
	cmd.Flags().StringVar(&baseURI, "base", "", "Base URI to store in the config")
	cmd.Flags().StringVar(&proxy, "proxy", "", "Proxy 'host:port' to store in the config")
	return cmd
}

// findConfigFile returns the first config file found in dir, or a nil config
// and empty path when there is none
func findConfigFile(dir string) (*config.Config, string, error) {
	for _, name := range config.ConfigFilenames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return nil, path, err
		}
		return cfg, path, nil
	}
	return nil, "", nil
}
