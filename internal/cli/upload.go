package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/billmal071/novelapi/internal/config"
	"github.com/billmal071/novelapi/internal/github"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a book source file to GitHub",
	Long: `Upload a file to a GitHub repository through the contents API.

The stored name is built from the file's bookSourceName, four random
letters and a timestamp. The token may also come from GITHUB_TOKEN.

Examples:
  novelapi upload --repo user/sources --token ghp_xxx source.json
  novelapi upload --repo user/sources/dir --branch dev source.json`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().String("repo", "", "target repository as owner/repo[/dir] (required)")
	uploadCmd.Flags().String("branch", "main", "target branch")
	uploadCmd.Flags().StringP("message", "m", "upload book source", "commit message")
	uploadCmd.Flags().String("token", "", "GitHub access token (default $GITHUB_TOKEN)")
	_ = uploadCmd.MarkFlagRequired("repo")
}

func runUpload(cmd *cobra.Command, args []string) error {
	repo, _ := cmd.Flags().GetString("repo")
	branch, _ := cmd.Flags().GetString("branch")
	message, _ := cmd.Flags().GetString("message")
	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return fmt.Errorf("no access token: use --token or set GITHUB_TOKEN")
	}

	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	uploader := github.NewUploader(github.Options{
		APIBaseURL:        config.Get().Upload.APIBaseURL,
		RawBaseURL:        config.Get().Upload.RawBaseURL,
		RequireSourceName: config.Get().Upload.RequireSourceName,
	}, slog.Default())

	res, err := uploader.Upload(cmd.Context(), github.UploadRequest{
		Repository:    repo,
		Branch:        branch,
		CommitMessage: message,
		AccessToken:   token,
		Filename:      filepath.Base(args[0]),
		Content:       content,
	})
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	Successf("Uploaded %s", filepath.Base(args[0]))
	fmt.Println(res.DownloadURL)
	return nil
}
