package ingest

import (
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/tsawler/docforge/fault"
	"github.com/tsawler/docforge/model"
)

// Keyed by normalized style name (lowercase, spaces stripped) so both
// "Heading1" and "heading 1" variants resolve.
var docxHeadingSizes = map[string]float64{
	"heading1": 28, "heading2": 22, "heading3": 18,
	"heading4": 15, "heading5": 13, "heading6": 12,
	"title": 32,
}

// LoadDOCX extracts spans from a Word document. DOCX carries no page
// geometry in its flow content, so the loader synthesizes a single page
// the way the HTML loader does, deriving font sizes from paragraph styles.
func LoadDOCX(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.IOErr(fault.CodeInputUnreadable,
			"cannot open docx", map[string]any{"path": path, "cause": err.Error()})
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fault.IOErr(fault.CodeInputUnreadable,
			"cannot stat docx", map[string]any{"path": path, "cause": err.Error()})
	}
	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fault.IOErr(fault.CodeInputUnreadable,
			"cannot parse docx", map[string]any{"path": path, "cause": err.Error()})
	}

	res := &Result{}
	acc := &accumulator{}
	y := htmlLineStep

	for _, item := range doc.Document.Body.Items {
		p, ok := item.(*docx.Paragraph)
		if ok {
			y = emitDocxParagraph(acc, res, p, y)
		}
	}

	res.Spans = acc.spans
	res.Pages = []model.PageGeometry{{
		Page:   1,
		Width:  htmlPageWidth,
		Height: y + htmlLineStep,
	}}
	return res, nil
}

func emitDocxParagraph(acc *accumulator, res *Result, p *docx.Paragraph, y float64) float64 {
	size, isHeading := docxParagraphSize(p)
	text := docxParagraphText(p)
	if text == "" {
		return y + htmlLineStep
	}

	if isHeading && res.Title == "" && size >= docxHeadingSizes["title"] {
		res.Title = text
	}

	y += htmlLineStep
	acc.add(model.Span{
		Text:     text,
		BBox:     model.NewBBox(htmlLeftMargin, y, float64(len(text))*size*0.5, size*1.2),
		FontName: "docx",
		FontSize: size,
		Style:    model.StyleFlags{Bold: isHeading},
		Page:     1,
	})
	return y + size*1.4
}

func docxParagraphSize(p *docx.Paragraph) (size float64, isHeading bool) {
	if p.Properties != nil && p.Properties.Style != nil {
		style := strings.ReplaceAll(strings.ToLower(p.Properties.Style.Val), " ", "")
		if s, ok := docxHeadingSizes[style]; ok {
			return s, true
		}
	}
	return 10, false
}

// docxParagraphText flattens the paragraph's runs.
func docxParagraphText(p *docx.Paragraph) string {
	var b strings.Builder
	for _, child := range p.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				b.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
