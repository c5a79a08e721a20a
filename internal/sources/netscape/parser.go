// Package netscape reads and writes the browser "Netscape bookmark file" HTML dialect.
package netscape

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
)

// Result is the outcome of parsing a file.
type Result struct {
	Entries []domain.ImportEntry
	// Skipped counts anchors without a usable href.
	Skipped int
}

var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
	"file":  true,
}

// Parse walks every <a> element of r. The anchor text becomes the title, href
// the url and add_date (Unix seconds) the creation time. Anchors whose add_date
// is absent or invalid get now. Anchors without a usable href are skipped.
func Parse(r io.Reader, now time.Time) (Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse bookmark html: %w", err)
	}

	var res Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if e, ok := entryFromAnchor(n, now); ok {
				res.Entries = append(res.Entries, e)
			} else {
				res.Skipped++
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return res, nil
}

func entryFromAnchor(n *html.Node, now time.Time) (domain.ImportEntry, bool) {
	var href, addDate string
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "href":
			href = strings.TrimSpace(attr.Val)
		case "add_date":
			addDate = strings.TrimSpace(attr.Val)
		}
	}

	if !usableHref(href) {
		return domain.ImportEntry{}, false
	}

	created := now
	if secs, err := strconv.ParseInt(addDate, 10, 64); err == nil && secs > 0 {
		created = time.Unix(secs, 0).UTC()
	}

	title := strings.TrimSpace(textContent(n))
	if title == "" {
		title = href
	}

	return domain.ImportEntry{Title: title, URL: href, CreatedAt: created}, true
}

func usableHref(href string) bool {
	if href == "" {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return allowedSchemes[strings.ToLower(u.Scheme)]
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}
