package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadwire/outbound/internal/config"
)

// newConfigCmd creates the config command with subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect service configuration",
		Long: `Inspect the effective outbound service configuration.

Configuration is loaded from an optional YAML file and overridden by
environment variables. Use subcommands to show or check the result.`,
	}

	// Add subcommands
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigCheckCmd())

	return cmd
}

// newConfigShowCmd creates the config show subcommand.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the effective configuration after applying defaults, the
config file, and environment variable overrides.

Secrets are redacted in the output.`,
		Args: cobra.NoArgs,
		Example: `  outbound config show
  outbound config show --config /etc/outbound/config.yaml
  outbound config show --output json`,
		RunE: runConfigShow,
	}

	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	view := redactedView(cfg)

	switch outputFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(view)
	default:
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Server:      %s\n", cfg.Server.Addr())
		fmt.Fprintf(out, "Database:    %s (%s:%d/%s)\n", cfg.Database.Type, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
		fmt.Fprintf(out, "Redis:       %s\n", cfg.Redis.Addr)
		fmt.Fprintf(out, "Tracking:    %s\n", orUnset(cfg.Tracking.BaseURL))
		fmt.Fprintf(out, "Auth secret: %s\n", redact(cfg.Auth.Secret))
		fmt.Fprintf(out, "Rate limit:  enabled=%t limit=%d window=%s\n", cfg.RateLimit.Enabled, cfg.RateLimit.Limit, cfg.RateLimit.Window())
		fmt.Fprintf(out, "Logging:     level=%s format=%s\n", cfg.Logging.Level, cfg.Logging.Format)
		return nil
	}
}

// newConfigCheckCmd creates the config check subcommand.
func newConfigCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Check a configuration file",
		Long:  `Load a YAML configuration file and report whether it is usable.`,
		Args:  cobra.ExactArgs(1),
		Example: `  outbound config check config.yaml
  outbound config check --output json config.yaml`,
		RunE: runConfigCheck,
	}

	return cmd
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	filename := args[0]

	printVerbose(cmd, "Checking config file: %s\n", filename)

	if _, err := config.LoadFromFile(filename); err != nil {
		return fmt.Errorf("config check failed: %w", err)
	}

	result := map[string]interface{}{
		"file":  filename,
		"valid": true,
	}

	switch outputFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Config file is valid: %s\n", filename)
	}

	return nil
}

// loadConfig loads configuration honoring the global --config flag.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	return config.Load()
}

// redactedView builds a JSON-safe view of the configuration with secrets masked.
func redactedView(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"server": map[string]interface{}{
			"addr": cfg.Server.Addr(),
		},
		"database": map[string]interface{}{
			"type":     cfg.Database.Type,
			"host":     cfg.Database.Host,
			"port":     cfg.Database.Port,
			"name":     cfg.Database.Name,
			"user":     cfg.Database.User,
			"password": redact(cfg.Database.Password),
			"sslMode":  cfg.Database.SSLMode,
		},
		"redis": map[string]interface{}{
			"addr":     cfg.Redis.Addr,
			"password": redact(cfg.Redis.Password),
			"db":       cfg.Redis.DB,
		},
		"auth": map[string]interface{}{
			"secret":      redact(cfg.Auth.Secret),
			"issuer":      cfg.Auth.Issuer,
			"audience":    cfg.Auth.Audience,
			"jwksUrl":     cfg.Auth.JWKSURL,
			"tenantClaim": cfg.Auth.TenantClaim,
		},
		"tracking": map[string]interface{}{
			"baseUrl": cfg.Tracking.BaseURL,
		},
		"rateLimit": map[string]interface{}{
			"enabled":       cfg.RateLimit.Enabled,
			"limit":         cfg.RateLimit.Limit,
			"windowSeconds": cfg.RateLimit.WindowSeconds,
		},
		"logging": map[string]interface{}{
			"level":  cfg.Logging.Level,
			"format": cfg.Logging.Format,
		},
	}
}

func redact(s string) string {
	if s == "" {
		return "(unset)"
	}
	return "********"
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
