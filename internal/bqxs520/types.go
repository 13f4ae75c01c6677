// Package bqxs520 scrapes search listings and book detail pages from bqxs520.
package bqxs520

import "github.com/billmal071/novelapi/internal/extract"

// SearchResult is one entry of a search listing.
type SearchResult struct {
	BookName    *string             `json:"book_name"`
	ImageURL    string              `json:"img"`
	Description string              `json:"text"`
	Tags        string              `json:"itag"`
	ID          extract.CompositeID `json:"id"`
	SourceURL   *string             `json:"url"`
}

// Title returns the book name or a placeholder.
func (r SearchResult) Title() string {
	if r.BookName == nil {
		return "(untitled)"
	}
	return *r.BookName
}

// BookDetail is a normalized book page.
type BookDetail struct {
	ID                extract.CompositeID `json:"id"`
	BookName          *string             `json:"bookname"`
	Author            *string             `json:"author"`
	UpdateTime        *string             `json:"update_time"`
	LatestChapterName *string             `json:"lastest_chapter_name"`
	Description       string              `json:"description"`
	ImageURL          *string             `json:"img"`
	Meta              map[string]*string  `json:"property"`
	Tags              string              `json:"itag"`
	Protagonists      string              `json:"protagonist"`
	FirstChapterID    string              `json:"list_id"`
}

const (
	// DefaultImage is used when a listing entry has no cover.
	DefaultImage = "https://s2.loli.net/2024/11/10/RFcln7Wz2Y145VZ.jpg"
	// NoDescription is used when a listing entry has no blurb.
	NoDescription = "暂无简介"
)
