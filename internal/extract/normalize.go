package extract

import (
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// Squash collapses whitespace runs to a single space and trims the ends.
func Squash(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// CompositeID is the three part book identifier used in bqxs520 URLs.
type CompositeID struct {
	ID1    *string `json:"id1"`
	ID2    *string `json:"id2"`
	ID3    *string `json:"id3"`
	BookID *string `json:"book_id"`
}

var (
	compositeIDPattern = regexp.MustCompile(`/book/(\d+)_(\d+)_(\d+)\.shtml`)
	bookIDPattern      = regexp.MustCompile(`^(\d+)_(\d+)_(\d+)$`)
)

// SplitCompositeID extracts the id parts from a book page path. Every part
// is nil when the path does not match.
func SplitCompositeID(path string) CompositeID {
	m := compositeIDPattern.FindStringSubmatch(path)
	if m == nil {
		return CompositeID{}
	}
	return newCompositeID(m[1], m[2], m[3])
}

// ParseBookID parses a bare "N_N_N" book id.
func ParseBookID(id string) (CompositeID, bool) {
	m := bookIDPattern.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return CompositeID{}, false
	}
	return newCompositeID(m[1], m[2], m[3]), true
}

func newCompositeID(a, b, c string) CompositeID {
	bookID := a + "_" + b + "_" + c
	return CompositeID{ID1: &a, ID2: &b, ID3: &c, BookID: &bookID}
}

// JoinDescription joins two description fragments with a newline.
func JoinDescription(first, second string) string {
	if first == "" && second == "" {
		return ""
	}
	return first + "\n" + second
}

const tagSeparator = ", "

// JoinTags joins the trimmed, non-empty tags with ", ".
func JoinTags(tags []string) string {
	kept := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = Squash(t); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, tagSeparator)
}

// SplitTags is the inverse of JoinTags.
func SplitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
