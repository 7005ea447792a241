package cmd

import (
	"github.com/spf13/cobra"
)

// newCompletionCmd creates the completion command.
func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion scripts for outbound.

To load completions:

Bash:
  $ source <(outbound completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ outbound completion bash > /etc/bash_completion.d/outbound
  # macOS:
  $ outbound completion bash > /usr/local/etc/bash_completion.d/outbound

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ outbound completion zsh > "${fpath[1]}/_outbound"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ outbound completion fish | source

  # To load completions for each session, execute once:
  $ outbound completion fish > ~/.config/fish/completions/outbound.fish

PowerShell:
  PS> outbound completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> outbound completion powershell > outbound.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}
