// Package extract evaluates XPath and CSS queries against a parsed page.
// Every query runs inside its own failure boundary so a broken expression
// or an evaluation panic only loses that one field.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/billmal071/novelapi/internal/apperr"
)

// EvalError reports a query that could not be evaluated. A query that
// simply matches nothing is not an error.
type EvalError struct {
	Query string
	Err   error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %q: %v", e.Query, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// Is makes EvalError match apperr.ErrExtraction.
func (e *EvalError) Is(target error) bool {
	return errors.Is(apperr.ErrExtraction, target)
}

// Doc is a page parsed once and queried many times.
type Doc struct {
	root  *html.Node
	query *goquery.Document
}

// Parse parses an HTML body. Bodies that are not valid UTF-8 are decoded
// using the content type, a BOM or a <meta charset> declaration.
func Parse(body []byte, contentType string) (*Doc, error) {
	var r io.Reader = bytes.NewReader(body)
	if !utf8.Valid(body) {
		decoded, err := charset.NewReader(r, contentType)
		if err != nil {
			return nil, fmt.Errorf("extract: decode charset: %w", err)
		}
		r = decoded
	}

	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}
	return &Doc{root: root, query: goquery.NewDocumentFromNode(root)}, nil
}

// ParseString parses an already decoded HTML string.
func ParseString(s string) (*Doc, error) {
	return Parse([]byte(s), "text/html; charset=utf-8")
}

// Selection exposes the goquery document for record-oriented listings.
func (d *Doc) Selection() *goquery.Selection {
	return d.query.Selection
}

// guard converts a panic inside fn into an EvalError for query.
func guard(query string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &EvalError{Query: query, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return fn()
}

// XPathNodes returns every node matching expr.
func (d *Doc) XPathNodes(expr string) ([]*html.Node, error) {
	var nodes []*html.Node
	err := guard(expr, func() error {
		if _, err := xpath.Compile(expr); err != nil {
			return &EvalError{Query: expr, Err: err}
		}
		found, err := htmlquery.QueryAll(d.root, expr)
		if err != nil {
			return &EvalError{Query: expr, Err: err}
		}
		nodes = found
		return nil
	})
	return nodes, err
}

// Text returns the squashed text of the first node matching expr.
func (d *Doc) Text(expr string) (string, error) {
	nodes, err := d.XPathNodes(expr)
	if err != nil || len(nodes) == 0 {
		return "", err
	}
	var text string
	err = guard(expr, func() error {
		text = Squash(htmlquery.InnerText(nodes[0]))
		return nil
	})
	return text, err
}

// Attr returns attribute name of the first node matching expr.
func (d *Doc) Attr(expr, name string) (string, error) {
	nodes, err := d.XPathNodes(expr)
	if err != nil || len(nodes) == 0 {
		return "", err
	}
	return strings.TrimSpace(htmlquery.SelectAttr(nodes[0], name)), nil
}

// TextsXPath returns the squashed, non-empty texts of all nodes matching expr.
func (d *Doc) TextsXPath(expr string) ([]string, error) {
	nodes, err := d.XPathNodes(expr)
	if err != nil {
		return nil, err
	}
	var texts []string
	err = guard(expr, func() error {
		for _, n := range nodes {
			if t := Squash(htmlquery.InnerText(n)); t != "" {
				texts = append(texts, t)
			}
		}
		return nil
	})
	return texts, err
}

// TextsCSS returns the squashed, non-empty texts of all elements matching selector.
func (d *Doc) TextsCSS(selector string) ([]string, error) {
	sel, err := Find(d.query.Selection, selector)
	if err != nil {
		return nil, err
	}
	var texts []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := Squash(s.Text()); t != "" {
			texts = append(texts, t)
		}
	})
	return texts, nil
}

// Find evaluates a CSS selector below sel. Unlike goquery's Find, an invalid
// selector is reported instead of silently matching nothing.
func Find(sel *goquery.Selection, selector string) (*goquery.Selection, error) {
	var found *goquery.Selection
	err := guard(selector, func() error {
		if _, err := cascadia.Compile(selector); err != nil {
			return &EvalError{Query: selector, Err: err}
		}
		found = sel.Find(selector)
		return nil
	})
	return found, err
}

// FirstOf evaluates primary and falls back only when primary could not be
// evaluated at all.
func FirstOf[T any](primary, fallback func() (T, error)) (T, error) {
	v, err := primary()
	var evalErr *EvalError
	if err == nil || fallback == nil || !errors.As(err, &evalErr) {
		return v, err
	}
	return fallback()
}
