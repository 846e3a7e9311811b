package ingest

import (
	"strings"
	"testing"

	"github.com/tsawler/docforge/model"
)

const sampleHTML = `<!doctype html>
<html>
<head><title>Sample Manual</title></head>
<body>
<h1>Chapter 1 Basics</h1>
<p>The first paragraph of body text.</p>
<ul><li>alpha</li><li>beta</li></ul>
<ol><li>one</li><li>two</li></ol>
<pre>func main() {
}</pre>
<img src="diagram.png" alt="Overview diagram">
<h2>1.1 Details</h2>
<p>More text with <code>inline()</code> in it.</p>
</body>
</html>`

func loadSample(t *testing.T) *Result {
	t.Helper()
	res, err := LoadHTML(strings.NewReader(sampleHTML))
	if err != nil {
		t.Fatalf("LoadHTML: %v", err)
	}
	return res
}

func TestHTMLTitleAndGeometry(t *testing.T) {
	res := loadSample(t)

	if res.Title != "Sample Manual" {
		t.Errorf("title = %q", res.Title)
	}
	if len(res.Pages) != 1 || res.Pages[0].Height <= 0 {
		t.Fatalf("pages = %+v", res.Pages)
	}
	if !model.SpansInOrder(res.Spans) {
		t.Error("order indices not strictly increasing")
	}
}

func TestHTMLHeadingSizes(t *testing.T) {
	res := loadSample(t)

	var h1, h2, body *model.Span
	for i := range res.Spans {
		s := &res.Spans[i]
		switch s.Text {
		case "Chapter 1 Basics":
			h1 = s
		case "1.1 Details":
			h2 = s
		case "The first paragraph of body text.":
			body = s
		}
	}
	if h1 == nil || h2 == nil || body == nil {
		t.Fatalf("expected spans missing: %+v", res.Spans)
	}
	if !(h1.FontSize > h2.FontSize && h2.FontSize > body.FontSize) {
		t.Errorf("sizes h1=%v h2=%v body=%v, want descending", h1.FontSize, h2.FontSize, body.FontSize)
	}
	if !h1.Style.Bold {
		t.Error("heading span not bold")
	}
}

func TestHTMLListMarkers(t *testing.T) {
	res := loadSample(t)

	var texts []string
	for _, s := range res.Spans {
		texts = append(texts, s.Text)
	}
	joined := strings.Join(texts, "|")
	for _, want := range []string{"• alpha", "• beta", "1. one", "2. two"} {
		if !strings.Contains(joined, want) {
			t.Errorf("marker %q missing in %q", want, joined)
		}
	}
}

func TestHTMLMonospacePre(t *testing.T) {
	res := loadSample(t)

	found := false
	for _, s := range res.Spans {
		if strings.HasPrefix(s.Text, "func main()") {
			found = true
			if !s.Style.Mono {
				t.Error("pre content not monospaced")
			}
		}
	}
	if !found {
		t.Error("pre content missing")
	}
}

func TestHTMLFigureDetected(t *testing.T) {
	res := loadSample(t)

	if len(res.Figures) != 1 {
		t.Fatalf("figures = %d, want 1", len(res.Figures))
	}
	f := res.Figures[0]
	if f.ID != "fig-001" || f.Page != 1 {
		t.Errorf("figure = %+v", f)
	}
	// The alt text follows the figure as a caption candidate span.
	foundAlt := false
	for _, s := range res.Spans {
		if s.Text == "Overview diagram" {
			foundAlt = true
		}
	}
	if !foundAlt {
		t.Error("alt text span missing")
	}
}
