package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/lockbox-storage/lockbox/clientcli"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	endpoint   string
	token      string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "lockbox-cli",
	Version: version,
	Short:   "Client for the lockbox file gateway",
	Long: `lockbox-cli - Client for the lockbox file gateway

Every command acts on the files owned by the token's user:
  - upload:   store local files
  - download: fetch a file by its storage key
  - list:     show your files
  - search:   find your files by name
  - delete:   remove files by id`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.lockbox/config.yaml, env: LOCKBOX_CLIENT_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile name (env: LOCKBOX_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:8080, env: LOCKBOX_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "bearer token (env: LOCKBOX_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		code := 1
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			code = exitErr.code
		} else {
			_ = getFormatter().FormatError(os.Stderr, err)
		}
		os.Exit(code)
	}
}

// getConfigPath returns the config file path from flag, env or default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ReadEnv().ConfigPath; p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges config from profile, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config
	env := clientcli.ReadEnv()

	profileName := profile
	if profileName == "" {
		profileName = env.Profile
	}

	explicit := cfgFile != "" || env.ConfigPath != "" || profileName != ""
	if configPath := getConfigPath(); configPath != "" {
		fileCfg, err := clientcli.LoadProfileConfig(configPath, profileName)
		switch {
		case err == nil:
			configs = append(configs, fileCfg)
		case explicit:
			return nil, err
		}
	}

	configs = append(configs,
		env.Config(),
		&clientcli.Config{Endpoint: endpoint, Token: token},
	)

	cfg := clientcli.MergeConfig(configs...)
	if err := cfg.ValidateWithAuth(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}

// exitError is returned when results were already printed and the
// process only needs a non-zero exit code.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}
