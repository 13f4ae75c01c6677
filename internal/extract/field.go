package extract

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fields turns per-field query results into record values, logging and
// dropping failures.
type Fields struct {
	Logger *slog.Logger
	Source string
}

func (f Fields) logFailure(field string, err error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("field extraction failed", "source", f.Source, "field", field, "err", err)
}

// Optional returns nil for a failed or blank field.
func (f Fields) Optional(field, value string, err error) *string {
	if err != nil {
		f.logFailure(field, err)
		return nil
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// String returns fallback for a failed or blank field.
func (f Fields) String(field, value string, err error, fallback string) string {
	if v := f.Optional(field, value, err); v != nil {
		return *v
	}
	return fallback
}

// List returns nil for a failed field.
func (f Fields) List(field string, values []string, err error) []string {
	if err != nil {
		f.logFailure(field, err)
		return nil
	}
	return values
}

// AttrOf reads attr from the first element matching selector below sel.
// ok is false when there is no such element or attribute.
func AttrOf(sel *goquery.Selection, selector, attr string) (value string, ok bool, err error) {
	found, err := Find(sel, selector)
	if err != nil {
		return "", false, err
	}
	value, ok = found.First().Attr(attr)
	return strings.TrimSpace(value), ok, nil
}

// TextOf reads the squashed text of the first element matching selector
// below sel. ok is false when nothing matches.
func TextOf(sel *goquery.Selection, selector string) (value string, ok bool, err error) {
	found, err := Find(sel, selector)
	if err != nil {
		return "", false, err
	}
	if found.Length() == 0 {
		return "", false, nil
	}
	return Squash(found.First().Text()), true, nil
}

// TextsOf reads the squashed, non-empty texts of every element matching
// selector below sel.
func TextsOf(sel *goquery.Selection, selector string) ([]string, error) {
	found, err := Find(sel, selector)
	if err != nil {
		return nil, err
	}
	var texts []string
	found.Each(func(_ int, s *goquery.Selection) {
		if t := Squash(s.Text()); t != "" {
			texts = append(texts, t)
		}
	})
	return texts, nil
}
