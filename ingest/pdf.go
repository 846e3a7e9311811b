package ingest

import (
	"math"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/tsawler/docforge/fault"
	"github.com/tsawler/docforge/model"
)

// Letter-size fallback when a page carries no usable MediaBox.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// LoadPDF extracts spans from a PDF file. The extractor reports glyph runs
// in bottom-up page coordinates; they are flipped to the top-left origin
// here, and adjacent same-style runs on a line are merged into spans.
func LoadPDF(path string) (*Result, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fault.IOErr(fault.CodeInputUnreadable,
			"cannot open pdf", map[string]any{"path": path, "cause": err.Error()})
	}
	defer f.Close()

	res := &Result{}
	acc := &accumulator{}

	total := reader.NumPage()
	for pageNum := 1; pageNum <= total; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		width, height := pageSize(page)
		res.Pages = append(res.Pages, model.PageGeometry{
			Page:   pageNum,
			Width:  width,
			Height: height,
		})

		mergeRuns(acc, page.Content().Text, pageNum, height)
	}

	res.Spans = acc.spans
	return res, nil
}

func pageSize(page pdflib.Page) (width, height float64) {
	box := page.V.Key("MediaBox")
	if box.IsNull() || box.Len() < 4 {
		return defaultPageWidth, defaultPageHeight
	}
	width = box.Index(2).Float64() - box.Index(0).Float64()
	height = box.Index(3).Float64() - box.Index(1).Float64()
	if width <= 0 || height <= 0 {
		return defaultPageWidth, defaultPageHeight
	}
	return width, height
}

// mergeRuns folds the extractor's glyph runs into spans: a run continues
// the current span when font, size, and baseline match and the horizontal
// gap is small.
func mergeRuns(acc *accumulator, runs []pdflib.Text, page int, pageHeight float64) {
	var cur *model.Span
	var right float64
	var baseline float64

	flush := func() {
		if cur != nil {
			acc.add(*cur)
			cur = nil
		}
	}

	for _, t := range runs {
		if t.S == "" {
			continue
		}
		yTop := pageHeight - t.Y - t.FontSize

		continues := cur != nil &&
			cur.FontName == t.Font &&
			cur.FontSize == t.FontSize &&
			math.Abs(baseline-t.Y) < 0.2 &&
			t.X-right <= t.FontSize*0.35 &&
			t.X >= right-0.5

		if continues {
			gap := t.X - right
			if gap > t.FontSize*0.12 {
				cur.Text += " "
			}
			cur.Text += t.S
			right = t.X + t.W
			cur.BBox.Width = right - cur.BBox.X
			continue
		}

		flush()
		cur = &model.Span{
			Text:     t.S,
			BBox:     model.NewBBox(t.X, yTop, t.W, t.FontSize*1.2),
			FontName: t.Font,
			FontSize: t.FontSize,
			Style:    styleFromFontName(t.Font),
			Page:     page,
		}
		right = t.X + t.W
		baseline = t.Y
	}
	flush()
}
