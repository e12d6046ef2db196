package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// detectShell guesses the current shell from $SHELL, defaulting to bash.
func detectShell() string {
	shell := strings.ToLower(os.Getenv("SHELL"))
	for _, name := range []string{"fish", "zsh", "powershell"} {
		if strings.Contains(shell, name) {
			return name
		}
	}
	if strings.Contains(shell, "pwsh") {
		return "powershell"
	}
	return "bash"
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a shell completion script for sbatcher.

If no shell is specified, the shell is auto-detected from $SHELL.

Bash:
  $ source <(sbatcher completion bash)

Zsh:
  $ sbatcher completion zsh > "${fpath[1]}/_sbatcher"

Fish:
  $ sbatcher completion fish > ~/.config/fish/completions/sbatcher.fish
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		shell := detectShell()
		if len(args) > 0 {
			shell = args[0]
		}

		// Completions list only long options; shorthands are noise there.
		restore := hideFlagShorthands(cmd.Root())
		defer restore()

		switch shell {
		case "bash":
			return cmd.Root().GenBashCompletionV2(os.Stdout, true)
		case "zsh":
			return cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			return cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// hideFlagShorthands clears every flag shorthand in the command tree and
// returns a function restoring them.
func hideFlagShorthands(root *cobra.Command) func() {
	saved := make(map[*pflag.Flag]string)

	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Shorthand != "" {
				saved[f] = f.Shorthand
				f.Shorthand = ""
			}
		})
		for _, child := range c.Commands() {
			walk(child)
		}
	}
	walk(root)

	return func() {
		for f, shorthand := range saved {
			f.Shorthand = shorthand
		}
	}
}
