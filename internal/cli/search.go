package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/billmal071/novelapi/internal/bqxs520"
	"github.com/billmal071/novelapi/internal/config"
	"github.com/billmal071/novelapi/internal/hsz69"
	"github.com/billmal071/novelapi/internal/tui"
)

const (
	siteBqxs520 = "bqxs520"
	siteHsz69   = "69hsz"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for books",
	Long: `Search a novel site for books matching the query.

On bqxs520 an interactive selector is shown by default; picking a result
fetches and prints its detail page. 69hsz results are always printed.

Examples:
  novelapi search "斗破苍穹"
  novelapi search --no-interactive "斗破苍穹"
  novelapi search --json "斗破苍穹"
  novelapi search --site 69hsz "诡秘之主"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var detailCmd = &cobra.Command{
	Use:   "detail [book_id]",
	Short: "Show a bqxs520 book detail page",
	Long: `Fetch and print a bqxs520 book detail page.

The book id has the form N_N_N as returned by search.

Examples:
  novelapi detail 12_345_6789
  novelapi detail --json 12_345_6789`,
	Args: cobra.ExactArgs(1),
	RunE: runDetail,
}

func init() {
	searchCmd.Flags().String("site", siteBqxs520, "site to search (bqxs520, 69hsz)")
	searchCmd.Flags().Bool("no-interactive", false, "disable interactive mode, just print results")
	searchCmd.Flags().Bool("json", false, "print results as JSON")
	searchCmd.Flags().String("user-agent", "", "User-Agent sent upstream")

	detailCmd.Flags().Bool("json", false, "print the detail as JSON")
	detailCmd.Flags().String("user-agent", "", "User-Agent sent upstream")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	site, _ := cmd.Flags().GetString("site")
	noInteractive, _ := cmd.Flags().GetBool("no-interactive")
	asJSON, _ := cmd.Flags().GetBool("json")
	ua, _ := cmd.Flags().GetString("user-agent")

	svc, err := buildServices(config.Get(), slog.Default())
	if err != nil {
		return err
	}

	Printf("Searching %s for: %s\n", site, query)

	switch site {
	case siteHsz69:
		novels, err := svc.novels.Search(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if asJSON {
			return printJSON(novels)
		}
		printNovels(novels)
		return nil
	case siteBqxs520:
	default:
		return fmt.Errorf("unknown site: %s (use %s or %s)", site, siteBqxs520, siteHsz69)
	}

	results, err := svc.books.Search(cmd.Context(), query, ua)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if asJSON {
		return printJSON(results)
	}
	if len(results) == 0 {
		fmt.Println("No books found matching your query.")
		return nil
	}

	Printf("Found %d result(s)\n\n", len(results))

	if noInteractive {
		printResults(results)
		return nil
	}

	selected, err := tui.RunSelector(results)
	if err != nil {
		return fmt.Errorf("selection failed: %w", err)
	}
	if selected == nil {
		return nil // User cancelled
	}
	if selected.ID.BookID == nil {
		Warnf("%s has no book id", selected.Title())
		return nil
	}

	detail, err := svc.books.Detail(cmd.Context(), *selected.ID.BookID, ua)
	if err != nil {
		return fmt.Errorf("detail failed: %w", err)
	}
	fmt.Println()
	fmt.Println(tui.RenderDetail(detail))
	return nil
}

func runDetail(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	ua, _ := cmd.Flags().GetString("user-agent")

	svc, err := buildServices(config.Get(), slog.Default())
	if err != nil {
		return err
	}

	detail, err := svc.books.Detail(cmd.Context(), args[0], ua)
	if err != nil {
		return fmt.Errorf("detail failed: %w", err)
	}
	if asJSON {
		return printJSON(detail)
	}
	fmt.Println(tui.RenderDetail(detail))
	return nil
}

func printResults(results []bqxs520.SearchResult) {
	for i, r := range results {
		id := "-"
		if r.ID.BookID != nil {
			id = *r.ID.BookID
		}
		fmt.Printf("%d. %s\n", i+1, tui.TitleStyle.UnsetMarginBottom().Render(r.Title()))
		fmt.Printf("   %s\n", tui.DimStyle.Render(fmt.Sprintf("ID: %s | %s", id, r.Tags)))
		if r.Description != "" {
			fmt.Printf("   %s\n", tui.Truncate(r.Description, 60))
		}
		fmt.Println()
	}
}

func printNovels(novels []hsz69.Novel) {
	if len(novels) == 0 {
		fmt.Println("No books found matching your query.")
		return
	}
	for i, n := range novels {
		fmt.Printf("%d. %s\n", i+1, tui.TitleStyle.UnsetMarginBottom().Render(n.Name))
		fmt.Printf("   %s\n", tui.DimStyle.Render(fmt.Sprintf("ID: %s | %s | %s", n.ID, n.Author, n.WordCount)))
		if n.Intro != "" {
			fmt.Printf("   %s\n", tui.Truncate(n.Intro, 60))
		}
		fmt.Println()
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
