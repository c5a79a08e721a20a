package netscape

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
)

const sample = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3 ADD_DATE="1700000000">Dev</H3>
    <DL><p>
        <DT><A HREF="https://go.dev/" ADD_DATE="1700000000">The <b>Go</b> site</A>
        <DT><A HREF="https://pkg.go.dev/" ADD_DATE="not-a-number">Packages</A>
        <DT><A ADD_DATE="1700000000">No href</A>
        <DT><A HREF="javascript:alert(1)">Bookmarklet</A>
        <DT><A HREF="   ">Blank</A>
        <DT><A HREF="https://example.com/untitled"></A>
    </DL><p>
</DL><p>
`

func TestParse(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	res, err := Parse(strings.NewReader(sample), now)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []domain.ImportEntry{
		{Title: "The Go site", URL: "https://go.dev/", CreatedAt: time.Unix(1700000000, 0).UTC()},
		{Title: "Packages", URL: "https://pkg.go.dev/", CreatedAt: now},
		{Title: "https://example.com/untitled", URL: "https://example.com/untitled", CreatedAt: now},
	}
	if diff := cmp.Diff(want, res.Entries); diff != "" {
		t.Errorf("Parse() entries mismatch (-want +got):\n%s", diff)
	}
	if res.Skipped != 3 {
		t.Errorf("Parse() skipped = %d, want 3", res.Skipped)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	res, err := Parse(strings.NewReader(""), time.Now())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(res.Entries) != 0 || res.Skipped != 0 {
		t.Errorf("Parse(\"\") = %+v, want empty result", res)
	}
}

func TestExport(t *testing.T) {
	created := time.Unix(1700000000, 0).UTC()
	bookmarks := []domain.Bookmark{
		{Title: "Go", URL: "https://go.dev/", CreatedAt: created},
		{Title: "Q&A <fast>", URL: "https://example.com/?a=1&b=2", CreatedAt: created.Add(time.Second)},
	}

	var buf bytes.Buffer
	if err := Export(&buf, bookmarks); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "<!DOCTYPE NETSCAPE-Bookmark-file-1>\n") {
		t.Errorf("Export() missing doctype, got %q", out[:40])
	}
	wantLines := []string{
		`        <DT><A HREF="https://go.dev/" ADD_DATE="1700000000">Go</A>`,
		`        <DT><A HREF="https://example.com/?a=1&amp;b=2" ADD_DATE="1700000001">Q&amp;A &lt;fast&gt;</A>`,
	}
	for _, l := range wantLines {
		if !strings.Contains(out, l+"\n") {
			t.Errorf("Export() missing line %q in\n%s", l, out)
		}
	}
	if !strings.HasSuffix(out, "    </DL><p>\n</DL><p>\n") {
		t.Errorf("Export() missing footer")
	}
}

func TestExportParseRoundTrip(t *testing.T) {
	created := time.Unix(1690000000, 0).UTC()
	in := []domain.Bookmark{
		{Title: "One", URL: "https://one.example/", CreatedAt: created},
		{Title: "Two & more", URL: "https://two.example/?x=1&y=2", CreatedAt: created},
	}

	var buf bytes.Buffer
	if err := Export(&buf, in); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	res, err := Parse(&buf, time.Now())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []domain.ImportEntry{
		{Title: "One", URL: "https://one.example/", CreatedAt: created},
		{Title: "Two & more", URL: "https://two.example/?x=1&y=2", CreatedAt: created},
	}
	if diff := cmp.Diff(want, res.Entries); diff != "" {
		t.Errorf("Parse(Export(x)) mismatch (-want +got):\n%s", diff)
	}
}

func TestFilename(t *testing.T) {
	got := Filename(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC))
	if got != "bookmarks_2024-05-06.html" {
		t.Errorf("Filename() = %q, want bookmarks_2024-05-06.html", got)
	}
}
