package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sanix-darker/quorum/internal/config"
)

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage quorum configuration",
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigValidateCmd())
	rootCmd.AddCommand(configCmd)
}

const defaultConfigYAML = `# quorum configuration
strictness: standard
focus_areas:
  - security
  - quality
  - performance
weights:
  security: 1.0
  quality: 1.0
  performance: 1.0
coaching: true
learning_mode: false
concurrency: 3
max_retries: 2

provider: openai
providers:
  openai:
    api_key: ""
    model: gpt-4o
  anthropic:
    api_key: ""
    model: claude-sonnet-4-20250514

vcs:
  platform: github
  token: ""
  repo: ""

lint:
  command: ""

project:
  name: ""
  critical_paths: []
`

func configFilePath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, config.ConfigDirName, config.ConfigFileName), nil
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default config file at ~/.config/quorum/config.yml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := configFilePath()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
				return err
			}

			// Don't overwrite an existing config.
			if _, err := os.Stat(cfgPath); err == nil {
				fmt.Printf("Config file already exists at %s\n", cfgPath)
				return nil
			}

			if err := os.WriteFile(cfgPath, []byte(defaultConfigYAML), 0o600); err != nil {
				return err
			}
			fmt.Printf("Config file created at %s\n", cfgPath)
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(map[string]interface{}{
				"strictness":    string(cfg.Strictness),
				"focus_areas":   cfg.FocusAreas,
				"weights":       cfg.Weights,
				"coaching":      cfg.CoachingEnabled,
				"learning_mode": cfg.LearningMode,
				"concurrency":   cfg.Concurrency,
				"max_retries":   cfg.MaxRetries,
				"provider":      cfg.Provider,
				"vcs_platform":  cfg.VCSPlatform,
				"lint_command":  cfg.LintCommand,
			})
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(); err != nil {
				return err
			}
			fmt.Println("Configuration is valid.")
			return nil
		},
	}
}
