package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/billmal071/novelapi/internal/config"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for novelapi.

To load completions:

Bash:
  $ source <(novelapi completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ novelapi completion bash > /etc/bash_completion.d/novelapi
  # macOS:
  $ novelapi completion bash > /usr/local/etc/bash_completion.d/novelapi

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ novelapi completion zsh > "${fpath[1]}/_novelapi"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ novelapi completion fish | source

  # To load completions for each session, execute once:
  $ novelapi completion fish > ~/.config/fish/completions/novelapi.fish

PowerShell:
  PS> novelapi completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> novelapi completion powershell > novelapi.ps1
  # and source this file from your PowerShell profile.`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.ExactValidArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

func init() {
	_ = searchCmd.RegisterFlagCompletionFunc("site", completeSites)
	configGetCmd.ValidArgsFunction = completeConfigKeys
	configSetCmd.ValidArgsFunction = completeConfigKeys
}

// completeSites offers the searchable sites with their hosts
func completeSites(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg := config.Default()
	sites := []string{
		siteBqxs520 + "\t" + cfg.Bqxs520.BaseURL,
		siteHsz69 + "\t" + cfg.Hsz69.BaseURL,
	}

	var completions []string
	for _, s := range sites {
		if strings.HasPrefix(s, toComplete) {
			completions = append(completions, s)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeConfigKeys completes the key argument of config get/set from the
// known defaults
func completeConfigKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	v := viper.New()
	config.SetDefaults(v)
	keys := v.AllKeys()
	sort.Strings(keys)

	var completions []string
	for _, k := range keys {
		if strings.HasPrefix(k, toComplete) {
			completions = append(completions, fmt.Sprintf("%s\tdefault: %v", k, v.Get(k)))
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
