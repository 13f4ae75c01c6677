package cli

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/billmal071/novelapi/internal/config"
	"github.com/billmal071/novelapi/internal/fetch"
	"github.com/billmal071/novelapi/internal/tui"
)

var convertCmd = &cobra.Command{
	Use:   "convert [url]",
	Short: "Convert an AVIF image to PNG",
	Long: `Download an AVIF image and convert it to PNG with ffmpeg.

--options takes the same JSON (or JSON5) header object as the /to endpoint.

Examples:
  novelapi convert -o cover.png https://example.com/cover.avif
  novelapi convert -o cover.png --options '{Referer: "https://example.com/"}' URL`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringP("output", "o", "", "output file (required)")
	convertCmd.Flags().String("options", "", "header overrides as a JSON object")
	_ = convertCmd.MarkFlagRequired("output")
}

func runConvert(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	blob, _ := cmd.Flags().GetString("options")

	overrides, err := fetch.ParseHeaderOverrides(blob)
	if err != nil {
		return err
	}
	if len(overrides.Ignored) > 0 {
		Warnf("ignored header options: %v", overrides.Ignored)
	}

	svc, err := buildServices(config.Get(), slog.Default())
	if err != nil {
		return err
	}

	png, err := svc.images.Convert(cmd.Context(), args[0], overrides.Header)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer file.Close()

	bar := progressbar.DefaultBytes(int64(len(png)), "Writing")
	if _, err := io.Copy(io.MultiWriter(file, bar), bytes.NewReader(png)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	Successf("Saved %s (%s)", output, tui.FormatSize(int64(len(png))))
	return nil
}
