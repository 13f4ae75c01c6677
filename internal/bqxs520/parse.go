package bqxs520

import (
	"log/slog"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/billmal071/novelapi/internal/extract"
)

const (
	listingSelector     = "dd ul li"
	protagonistXPath    = "//div[@class='info']/p[1]/span"
	protagonistFallback = "p:nth-child(3) > span:nth-child(n+1)"
)

// metaProperties maps property keys to their og:* meta names.
var metaProperties = []struct{ key, property string }{
	{"book_name", "og:novel:book_name"},
	{"author", "og:novel:author"},
	{"description", "og:description"},
	{"category", "og:novel:category"},
	{"status", "og:novel:status"},
	{"lastest_chapter_name", "og:novel:lastest_chapter_name"},
	{"update_time", "og:novel:update_time"},
}

var readPattern = regexp.MustCompile(`read\((\d+)\)`)

// ParseSearch turns a search page into one result per listing entry.
func ParseSearch(doc *extract.Doc, defaultImage string, logger *slog.Logger) []SearchResult {
	if defaultImage == "" {
		defaultImage = DefaultImage
	}
	fields := extract.Fields{Logger: logger, Source: "bqxs520.search"}

	entries, err := extract.Find(doc.Selection(), listingSelector)
	if err != nil {
		fields.List("entries", nil, err)
		return []SearchResult{}
	}

	results := make([]SearchResult, 0, entries.Length())
	entries.Each(func(_ int, entry *goquery.Selection) {
		results = append(results, parseEntry(entry, defaultImage, fields))
	})
	return results
}

func parseEntry(entry *goquery.Selection, defaultImage string, fields extract.Fields) SearchResult {
	var result SearchResult

	title, _, err := extract.AttrOf(entry, "span", "title")
	result.BookName = fields.Optional("book_name", title, err)

	href, _, err := extract.AttrOf(entry, "a", "href")
	result.SourceURL = fields.Optional("url", href, err)
	if result.SourceURL != nil {
		result.ID = extract.SplitCompositeID(*result.SourceURL)
	}

	src, _, err := extract.AttrOf(entry, "img", "src")
	result.ImageURL = fields.String("img", src, err, defaultImage)

	// an empty .desc stays empty; only a missing one gets the placeholder
	desc, ok, err := extract.TextOf(entry, ".desc")
	if ok {
		result.Description = desc
	} else {
		result.Description = fields.String("text", "", err, NoDescription)
	}

	tags, err := extract.TextsOf(entry, ".tags > span > a")
	result.Tags = extract.JoinTags(fields.List("itag", tags, err))

	return result
}

// ParseDetail turns a book page into a BookDetail. id is the already
// validated composite id of the page.
func ParseDetail(doc *extract.Doc, id extract.CompositeID, logger *slog.Logger) *BookDetail {
	fields := extract.Fields{Logger: logger, Source: "bqxs520.detail"}

	detail := &BookDetail{ID: id, Meta: make(map[string]*string, len(metaProperties))}

	text := func(field, expr string) *string {
		v, err := doc.Text(expr)
		return fields.Optional(field, v, err)
	}

	// only the first text node; nested markup such as badges is skipped
	detail.BookName = text("bookname", "//h1/span/text()")
	detail.Author = text("author", "//div[@class='title']/span/a/text()")
	detail.UpdateTime = text("update_time", "//p[3]/text()")
	detail.LatestChapterName = text("lastest_chapter_name", "//p[4]/text()")

	p5, err := doc.Text("//p[5]")
	first := fields.String("description", p5, err, "")
	p6, err := doc.Text("//p[6]")
	second := fields.String("description", p6, err, "")
	detail.Description = extract.JoinDescription(first, second)

	img, err := doc.Attr("//img", "src")
	detail.ImageURL = fields.Optional("img", img, err)

	for _, m := range metaProperties {
		v, err := doc.Attr("//meta[@property='"+m.property+"']", "content")
		detail.Meta[m.key] = fields.Optional("property."+m.key, v, err)
	}

	tags, err := doc.TextsXPath("//p[@class='itag']/a")
	detail.Tags = extract.JoinTags(fields.List("itag", tags, err))

	protagonists, err := extract.FirstOf(
		func() ([]string, error) { return doc.TextsXPath(protagonistXPath) },
		func() ([]string, error) { return doc.TextsCSS(protagonistFallback) },
	)
	detail.Protagonists = extract.JoinTags(fields.List("protagonist", protagonists, err))

	onclick, err := doc.Attr(`//div[@class="chapterlist"]/a`, "onclick")
	if v := fields.Optional("list_id", onclick, err); v != nil {
		if m := readPattern.FindStringSubmatch(*v); m != nil {
			detail.FirstChapterID = m[1]
		}
	}

	return detail
}
