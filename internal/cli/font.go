package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/billmal071/novelapi/internal/assets"
	"github.com/billmal071/novelapi/internal/config"
	"github.com/billmal071/novelapi/internal/font"
	"github.com/billmal071/novelapi/internal/tui"
)

var fontCmd = &cobra.Command{
	Use:   "font [chapter]",
	Short: "Extract the obfuscation font of a chapter",
	Long: `Fetch a chapter page, follow its stylesheet and save the embedded
WOFF2 font into the asset directory.

Examples:
  novelapi font 123_456`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		svc, err := buildServices(cfg, slog.Default())
		if err != nil {
			return err
		}

		res, err := svc.fonts.Extract(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("font extraction failed: %w", err)
		}
		Successf("%s", res.Message)
		fmt.Printf("Path: %s\n", res.Path)
		fmt.Printf("Dir:  %s\n", svc.store.Root())
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired assets",
	Long: `Remove saved fonts older than assets.max_age (or --max-age).

Examples:
  novelapi sweep
  novelapi sweep --max-age 0s --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		maxAge := cfg.Assets.MaxAge
		if cmd.Flags().Changed("max-age") {
			maxAge, _ = cmd.Flags().GetDuration("max-age")
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		store, err := assets.NewStore(cfg.Assets.Dir)
		if err != nil {
			return fmt.Errorf("failed to open asset directory: %w", err)
		}

		if dryRun {
			entries, err := store.List(font.Dir)
			if err != nil {
				return err
			}
			now := time.Now()
			for _, e := range entries {
				if e.Age(now) > maxAge {
					fmt.Printf("%s  %s\n", e.Path, tui.DimStyle.Render(tui.FormatSize(e.Size)))
				}
			}
			return nil
		}

		removed, err := assets.NewSweeper(store, font.Dir, maxAge, 0, slog.Default()).SweepOnce()
		if err != nil {
			return err
		}
		Successf("Removed %d file(s)", removed)
		return nil
	},
}

func init() {
	sweepCmd.Flags().Duration("max-age", 0, "remove files older than this")
	sweepCmd.Flags().Bool("dry-run", false, "list expired files without removing them")
}
