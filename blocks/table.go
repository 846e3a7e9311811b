package blocks

import (
	"math"
	"sort"

	"github.com/tsawler/docforge/model"
)

// isTableRow reports whether a line splits into two or more cells separated
// by clear horizontal gaps.
func (a *Assembler) isTableRow(ln *line) bool {
	return len(a.splitCells(ln)) >= 2
}

// cell is one table cell candidate on a line.
type cell struct {
	text string
	x    float64
}

// splitCells partitions the line's spans into cells at horizontal gaps
// wider than the configured cell gap.
func (a *Assembler) splitCells(ln *line) []cell {
	spans := make([]model.Span, len(ln.spans))
	copy(spans, ln.spans)
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].BBox.X < spans[j].BBox.X
	})

	var cells []cell
	var texts []string
	start := 0.0
	right := 0.0
	for i, s := range spans {
		if i > 0 && s.BBox.Left()-right > a.config.TableCellGap {
			cells = append(cells, cell{text: joinWords(texts), x: start})
			texts = texts[:0]
		}
		if len(texts) == 0 {
			start = s.BBox.Left()
		}
		texts = append(texts, s.Text)
		if s.BBox.Right() > right {
			right = s.BBox.Right()
		}
	}
	if len(texts) > 0 {
		cells = append(cells, cell{text: joinWords(texts), x: start})
	}
	return cells
}

func joinWords(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}

// assembleTable builds a table block from a run of multi-cell lines. Cells
// are bucketed into columns by X alignment; the share of rows whose cell
// count disagrees with the modal count drives the confidence score. Tables
// with more than 30% inconsistent rows are capped below 0.5 so rendering
// falls back to preformatted text.
func (a *Assembler) assembleTable(lines []*line) *model.Block {
	b := newBlockFromLines(model.BlockTable, lines)

	rows := make([][]cell, 0, len(lines))
	for _, ln := range lines {
		rows = append(rows, a.splitCells(ln))
	}

	columns := a.bucketColumns(rows)
	grid := make([][]string, 0, len(rows))
	counts := make(map[int]int)
	for _, row := range rows {
		cells := make([]string, len(columns))
		for _, c := range row {
			cells[nearestColumn(columns, c.x)] = c.text
		}
		grid = append(grid, cells)
		counts[len(row)]++
	}

	modal, modalCount := 0, -1
	for n, count := range counts {
		if count > modalCount || (count == modalCount && n > modal) {
			modal, modalCount = n, count
		}
	}
	inconsistent := 0
	for _, row := range rows {
		if len(row) != modal {
			inconsistent++
		}
	}

	ratio := float64(inconsistent) / float64(len(rows))
	confidence := math.Round((1-ratio)*1000) / 1000
	if ratio > 0.3 {
		confidence = math.Min(confidence, 0.45)
		a.log.Info("table_low_confidence",
			"rows", len(rows),
			"inconsistent", inconsistent,
			"confidence", confidence)
	}

	b.Meta[model.MetaTableRows] = grid
	b.Meta[model.MetaTableConfidence] = confidence
	return b
}

// bucketColumns clusters cell X positions across rows into column anchors.
func (a *Assembler) bucketColumns(rows [][]cell) []float64 {
	var xs []float64
	for _, row := range rows {
		for _, c := range row {
			xs = append(xs, c.x)
		}
	}
	sort.Float64s(xs)

	var columns []float64
	for _, x := range xs {
		if len(columns) == 0 || x-columns[len(columns)-1] > a.config.TableColumnTolerance {
			columns = append(columns, x)
		}
	}
	return columns
}

func nearestColumn(columns []float64, x float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, cx := range columns {
		if d := math.Abs(cx - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
