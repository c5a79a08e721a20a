package netscape

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
)

const header = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file.
     It will be read and overwritten.
     DO NOT EDIT! -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3>BookmarkHub Exports</H3>
    <DL><p>
`

const footer = `
    </DL><p>
</DL><p>
`

// Export writes bookmarks as a Netscape bookmark file, one anchor per line,
// ADD_DATE in Unix seconds from the creation time.
func Export(w io.Writer, bookmarks []domain.Bookmark) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(header); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}
	for i, b := range bookmarks {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return fmt.Errorf("failed to write export entry: %w", err)
			}
		}
		if _, err := fmt.Fprintf(bw, `        <DT><A HREF="%s" ADD_DATE="%d">%s</A>`,
			html.EscapeString(b.URL), b.CreatedAt.Unix(), html.EscapeString(b.Title)); err != nil {
			return fmt.Errorf("failed to write export entry: %w", err)
		}
	}
	if _, err := bw.WriteString(footer); err != nil {
		return fmt.Errorf("failed to write export footer: %w", err)
	}
	return bw.Flush()
}

// Filename is the download name used for an export taken at t.
func Filename(t time.Time) string {
	return "bookmarks_" + t.Format("2006-01-02") + ".html"
}
