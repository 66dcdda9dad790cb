// Command antennadesk is the command-line client for the antennadesk API.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sliea/antennadesk/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:3030"

var (
	apiClient   *client.Client
	flagURL     string
	flagToken   string
	flagFmt     string
	flagProfile string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("antennadesk version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("antennadesk version %s-dev", version)
}

type configFile struct {
	// Flat format
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
	// Profile format
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

type configProfile struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "antennadesk",
		Short:   "antennadesk CLI: antenna service requests and notifications",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			var opts []client.Option
			if flagToken != "" {
				opts = append(opts, client.WithToken(flagToken))
			}
			apiClient = client.New(flagURL, opts...)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "Server URL (env: ANTENNADESK_URL)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Bearer token (env: ANTENNADESK_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "Config profile (default: active_profile)")

	tokenCmd := newTokenCmd()
	tokenCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // no server involved

	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newRequestCmd())
	rootCmd.AddCommand(newEquipmentCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newWatchCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfig() {
	// Flag takes precedence, then env, then config file.
	if flagURL == defaultURL {
		if v := os.Getenv("ANTENNADESK_URL"); v != "" {
			flagURL = v
		}
	}
	if flagToken == "" {
		flagToken = os.Getenv("ANTENNADESK_TOKEN")
	}

	cfg, err := loadConfigFile()
	if err != nil {
		return
	}

	// Resolve from profiles if available, fall back to flat format
	resolvedURL := cfg.URL
	resolvedToken := cfg.Token
	if cfg.Profiles != nil {
		profileName := flagProfile
		if profileName == "" {
			profileName = cfg.ActiveProfile
		}
		if profileName == "" {
			profileName = "default"
		}
		if p, ok := cfg.Profiles[profileName]; ok {
			if p.URL != "" {
				resolvedURL = p.URL
			}
			if p.Token != "" {
				resolvedToken = p.Token
			}
		}
	}
	if flagURL == defaultURL && resolvedURL != "" {
		flagURL = resolvedURL
	}
	if flagToken == "" && resolvedToken != "" {
		flagToken = resolvedToken
	}
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".antennadesk", "config.yaml"), nil
}

func loadConfigFile() (*configFile, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}

// showGroupHelp runs command groups invoked without a subcommand. Unknown
// subcommands never reach it: cobra.NoArgs rejects them first.
func showGroupHelp(cmd *cobra.Command, _ []string) error {
	return cmd.Help()
}
