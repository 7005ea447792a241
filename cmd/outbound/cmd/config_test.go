package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitest "github.com/leadwire/outbound/cmd/outbound/testing"
)

func TestConfigShowCommand(t *testing.T) {
	t.Run("shows effective configuration", func(t *testing.T) {
		rootCmd := NewRootCmd()
		output, err := clitest.ExecuteCommand(rootCmd, "config", "show")

		require.NoError(t, err)
		assert.Contains(t, output, "Server:")
		assert.Contains(t, output, "Database:")
		assert.Contains(t, output, "Rate limit:")
	})

	t.Run("redacts secrets", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "super-secret-value")

		rootCmd := NewRootCmd()
		output, err := clitest.ExecuteCommand(rootCmd, "config", "show")

		require.NoError(t, err)
		assert.NotContains(t, output, "super-secret-value")
		assert.Contains(t, output, "********")
	})

	t.Run("JSON output format", func(t *testing.T) {
		rootCmd := NewRootCmd()
		output, err := clitest.ExecuteCommand(rootCmd, "config", "show", "--output", "json")
		defer func() { outputFormat = "plain" }()

		require.NoError(t, err)
		assert.Contains(t, output, `"server"`)
		assert.Contains(t, output, `"rateLimit"`)
	})

	t.Run("reads config file via global flag", func(t *testing.T) {
		path := clitest.CreateTempFile(t, "server:\n  port: 9191\n")
		defer os.Remove(path)
		defer func() { cfgFile = "" }()

		rootCmd := NewRootCmd()
		output, err := clitest.ExecuteCommand(rootCmd, "--config", path, "config", "show")

		require.NoError(t, err)
		assert.Contains(t, output, "9191")
	})
}

func TestConfigCheckCommand(t *testing.T) {
	t.Run("accepts a valid file", func(t *testing.T) {
		path := clitest.CreateTempFile(t, "server:\n  host: 0.0.0.0\n  port: 8080\n")
		defer os.Remove(path)

		rootCmd := NewRootCmd()
		output, err := clitest.ExecuteCommand(rootCmd, "config", "check", path)

		require.NoError(t, err)
		assert.Contains(t, output, "valid")
	})

	t.Run("rejects malformed YAML", func(t *testing.T) {
		path := clitest.CreateTempFile(t, "server: [not: closed\n")
		defer os.Remove(path)

		rootCmd := NewRootCmd()
		_, err := clitest.ExecuteCommand(rootCmd, "config", "check", path)

		assert.Error(t, err)
	})

	t.Run("rejects missing file", func(t *testing.T) {
		rootCmd := NewRootCmd()
		_, err := clitest.ExecuteCommand(rootCmd, "config", "check", "/nonexistent/config.yaml")

		assert.Error(t, err)
	})

	t.Run("requires a file argument", func(t *testing.T) {
		rootCmd := NewRootCmd()
		_, err := clitest.ExecuteCommand(rootCmd, "config", "check")

		assert.Error(t, err)
	})
}
