package ingest

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsawler/docforge/fault"
	"github.com/tsawler/docforge/model"
)

// Synthetic layout constants for HTML, which carries no geometry of its
// own. One long flowing page keeps band heuristics out of the way.
const (
	htmlPageWidth  = 612.0
	htmlLeftMargin = 50.0
	htmlLineStep   = 14.0
	htmlIndentStep = 24.0
)

var headingSizes = map[string]float64{
	"h1": 28, "h2": 22, "h3": 18, "h4": 15, "h5": 13, "h6": 12,
}

// LoadHTML extracts spans from an HTML document, synthesizing geometry:
// block elements advance a vertical cursor on a single page, headings get
// tag-derived font sizes, and list items keep their markers so assembly
// can classify them.
func LoadHTML(r io.Reader) (*Result, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fault.IOErr(fault.CodeInputUnreadable,
			"cannot parse html", map[string]any{"cause": err.Error()})
	}

	w := &htmlWalker{acc: &accumulator{}, y: htmlLineStep}
	w.walk(root)
	w.result.Spans = w.acc.spans
	w.result.Pages = []model.PageGeometry{{
		Page:   1,
		Width:  htmlPageWidth,
		Height: w.y + htmlLineStep,
	}}
	return &w.result, nil
}

type htmlWalker struct {
	result  Result
	acc     *accumulator
	y       float64
	indent  int
	bold    int
	italic  int
	mono    int
	ordered []int // open list counters; -1 marks an unordered level
}

func (w *htmlWalker) walk(n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		w.element(n)
		return
	case html.TextNode:
		w.text(n.Data, 10, "")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *htmlWalker) element(n *html.Node) {
	switch n.Data {
	case "script", "style", "head":
		if n.Data == "head" {
			w.captureTitle(n)
		}
		return

	case "h1", "h2", "h3", "h4", "h5", "h6":
		w.gap()
		w.emitText(collectText(n), headingSizes[n.Data], "heading")
		w.gap()
		return

	case "p":
		w.gap()

	case "pre":
		w.gap()
		for _, line := range strings.Split(collectText(n), "\n") {
			w.mono++
			w.emitText(line, 10, "pre")
			w.mono--
		}
		w.gap()
		return

	case "code":
		w.mono++
		defer func() { w.mono-- }()

	case "b", "strong":
		w.bold++
		defer func() { w.bold-- }()

	case "i", "em":
		w.italic++
		defer func() { w.italic-- }()

	case "ul":
		w.ordered = append(w.ordered, -1)
		w.indent++
		defer func() {
			w.ordered = w.ordered[:len(w.ordered)-1]
			w.indent--
		}()

	case "ol":
		w.ordered = append(w.ordered, 0)
		w.indent++
		defer func() {
			w.ordered = w.ordered[:len(w.ordered)-1]
			w.indent--
		}()

	case "li":
		marker := "• "
		if len(w.ordered) > 0 && w.ordered[len(w.ordered)-1] >= 0 {
			w.ordered[len(w.ordered)-1]++
			marker = fmt.Sprintf("%d. ", w.ordered[len(w.ordered)-1])
		}
		w.emitText(marker+collectText(n), 10, "li")
		return

	case "img":
		w.figure(n)
		return

	case "br":
		w.y += htmlLineStep
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *htmlWalker) captureTitle(head *html.Node) {
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "title" {
			w.result.Title = strings.TrimSpace(collectText(c))
		}
	}
}

func (w *htmlWalker) text(data string, size float64, kind string) {
	w.emitText(data, size, kind)
}

func (w *htmlWalker) emitText(data string, size float64, kind string) {
	text := strings.TrimSpace(strings.Join(strings.Fields(data), " "))
	if text == "" {
		return
	}
	font := "sans"
	if w.mono > 0 {
		font = "monospace"
	}
	x := htmlLeftMargin + float64(w.indent)*htmlIndentStep
	w.acc.add(model.Span{
		Text:     text,
		BBox:     model.NewBBox(x, w.y, float64(len(text))*size*0.5, size*1.2),
		FontName: font,
		FontSize: size,
		Style: model.StyleFlags{
			Bold:   w.bold > 0 || kind == "heading",
			Italic: w.italic > 0,
			Mono:   w.mono > 0,
		},
		Page: 1,
	})
	w.y += size * 1.4
}

// gap opens vertical space so assembly starts a new block.
func (w *htmlWalker) gap() {
	w.y += htmlLineStep
}

func (w *htmlWalker) figure(n *html.Node) {
	w.gap()
	id := figureID(len(w.result.Figures) + 1)
	w.result.Figures = append(w.result.Figures, &model.Figure{
		ID:   id,
		Page: 1,
		BBox: model.NewBBox(htmlLeftMargin, w.y, htmlPageWidth-2*htmlLeftMargin, 120),
	})
	w.y += 120 + htmlLineStep

	if alt := attr(n, "alt"); alt != "" {
		w.emitText(alt, 9, "caption")
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func collectText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			if node.Data != "" && !strings.HasSuffix(node.Data, " ") {
				b.WriteString(" ")
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
