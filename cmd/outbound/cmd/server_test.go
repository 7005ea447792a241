package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitest "github.com/leadwire/outbound/cmd/outbound/testing"
)

func TestServerCommand(t *testing.T) {
	t.Run("shows subcommands", func(t *testing.T) {
		rootCmd := NewRootCmd()
		output, err := clitest.ExecuteCommand(rootCmd, "server", "--help")

		require.NoError(t, err)
		assert.Contains(t, output, "start")
		assert.Contains(t, output, "migrate")
	})

	t.Run("start has host and port flags", func(t *testing.T) {
		rootCmd := NewRootCmd()
		output, err := clitest.ExecuteCommand(rootCmd, "server", "start", "--help")

		require.NoError(t, err)
		assert.Contains(t, output, "--host")
		assert.Contains(t, output, "--port")
	})

	t.Run("migrate has dry-run flag", func(t *testing.T) {
		rootCmd := NewRootCmd()
		output, err := clitest.ExecuteCommand(rootCmd, "server", "migrate", "--help")

		require.NoError(t, err)
		assert.Contains(t, output, "--dry-run")
	})

	t.Run("migrate rejects mongodb backend", func(t *testing.T) {
		t.Setenv("DATABASE_TYPE", "mongodb")

		rootCmd := NewRootCmd()
		_, err := clitest.ExecuteCommand(rootCmd, "server", "migrate")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "postgres")
	})
}
