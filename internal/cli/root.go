package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/billmal071/novelapi/internal/config"
	"github.com/billmal071/novelapi/internal/logger"
	"github.com/billmal071/novelapi/internal/tui"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "novelapi",
	Short: "Novel site scraping API and tools",
	Long: `novelapi serves a small HTTP API that scrapes novel sites, converts AVIF
images to PNG, extracts chapter fonts and uploads book sources to GitHub.

The same operations are available as commands.

Examples:
  novelapi serve                          Start the HTTP API
  novelapi search "斗破苍穹"               Search bqxs520 interactively
  novelapi search --site 69hsz "诡秘之主"  Search 69hsz
  novelapi detail 12_345_6789             Show a book detail page
  novelapi convert -o cover.png URL       Convert an AVIF image
  novelapi font 123_456                   Extract a chapter font`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(cfgFile); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		cfg := config.Get()
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		logger.Setup(logger.Config{
			Format:    cfg.Log.Format,
			Level:     level,
			AddSource: verbose,
		})
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		Errorf("%v", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.config/novelapi/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(detailCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(fontCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

// Verbose returns whether verbose mode is enabled
func Verbose() bool {
	return verbose
}

// Printf prints if verbose mode is enabled
func Printf(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format, args...)
	}
}

// Errorf prints an error message to stderr
func Errorf(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, tui.ErrorStyle.Render(fmt.Sprintf("Error: "+format, args...)))
}

// Successf prints a success message
func Successf(format string, args ...interface{}) {
	fmt.Println(tui.SuccessStyle.Render(fmt.Sprintf("✓ "+format, args...)))
}

// Warnf prints a warning message to stderr
func Warnf(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, tui.WarningStyle.Render(fmt.Sprintf("! "+format, args...)))
}
