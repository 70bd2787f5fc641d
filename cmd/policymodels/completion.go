package main

import (
	"io"

	"github.com/spf13/cobra"
)

var completionShells = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
}

var completionCmd = &cobra.Command{
	Use:   "completion bash|zsh|fish|powershell",
	Short: "Generate a shell completion script",
	Long: `Generate a shell completion script for policymodels, e.g.

  source <(policymodels completion bash)
  policymodels completion fish > ~/.config/fish/completions/policymodels.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return completionShells[args[0]](rootCmd, cmd.OutOrStdout())
	},
}

func init() {
	skipSetup(completionCmd)
	rootCmd.AddCommand(completionCmd)
}
