package blocks

import (
	"regexp"

	"github.com/tsawler/docforge/model"
)

// listMarker describes a recognized list item lead-in.
type listMarker struct {
	marker  string
	ordered bool
}

var (
	bulletMarkerRe = regexp.MustCompile(`^\s*([•\-\*‣◦])\s+`)
	numberMarkerRe = regexp.MustCompile(`^\s*(\d{1,3}[.)])\s+`)
	letterMarkerRe = regexp.MustCompile(`^\s*([a-z][.)])\s+`)
	romanMarkerRe  = regexp.MustCompile(`^\s*(\((?:i|ii|iii|iv|v|vi|vii|viii|ix|x)\))\s+`)
	parenNumberRe  = regexp.MustCompile(`^\s*(\(\d{1,3}\))\s+`)
)

var markerMatchers = []struct {
	re      *regexp.Regexp
	ordered bool
}{
	{bulletMarkerRe, false},
	{numberMarkerRe, true},
	{letterMarkerRe, true},
	{romanMarkerRe, true},
	{parenNumberRe, true},
}

// parseListMarker returns the marker at the start of the line text, or nil
// when the line does not open a list item.
func parseListMarker(text string) *listMarker {
	for _, m := range markerMatchers {
		if match := m.re.FindStringSubmatch(text); match != nil {
			return &listMarker{marker: match[1], ordered: m.ordered}
		}
	}
	return nil
}

// listLevel tracks one open nesting level while a list is assembled.
type listLevel struct {
	indent    float64
	container *model.Block
}

// assembleList consumes a run of list-item and continuation lines starting
// at lines[0] and returns the List container block plus the number of lines
// consumed. Nesting follows indentation: a deeper marker opens a child
// level, a shallower one pops back to the nearest enclosing level.
func (a *Assembler) assembleList(lines []*line) (*model.Block, int) {
	root := model.NewBlock(model.BlockList)
	first := parseListMarker(lines[0].text)
	root.Meta[model.MetaListOrdered] = first.ordered

	stack := []listLevel{{indent: lines[0].indent, container: root}}
	var currentItem *model.Block
	var prevLine *line

	consumed := 0
	for _, ln := range lines {
		marker := (*listMarker)(nil)
		if ln.kind == lineListItem {
			marker = parseListMarker(ln.text)
		}

		switch {
		case marker != nil:
			top := &stack[len(stack)-1]
			if ln.indent > top.indent+a.config.ListIndentTolerance && currentItem != nil {
				// Deeper marker: open a nested list under the current item.
				child := model.NewBlock(model.BlockList)
				child.Meta[model.MetaListOrdered] = marker.ordered
				_ = currentItem.AppendItem(child)
				stack = append(stack, listLevel{indent: ln.indent, container: child})
			} else {
				for len(stack) > 1 && ln.indent < stack[len(stack)-1].indent-a.config.ListIndentTolerance {
					stack = stack[:len(stack)-1]
				}
			}

			item := model.NewBlock(model.BlockListItem)
			item.Meta[model.MetaListMarker] = marker.marker
			item.Meta[model.MetaListLevel] = len(stack)
			for _, s := range ln.spans {
				_ = item.AppendSpan(s)
			}
			_ = stack[len(stack)-1].container.AppendItem(item)
			currentItem = item

		case ln.kind == lineNormal && currentItem != nil && a.continuesItem(ln, prevLine, stack):
			// Wrapped continuation of the current item.
			for _, s := range ln.spans {
				_ = currentItem.AppendSpan(s)
			}

		default:
			return root, consumed
		}
		prevLine = ln
		consumed++
	}
	return root, consumed
}

// continuesItem reports whether a plain line is a wrapped continuation of
// the open list item rather than the start of following body text. A
// continuation sits directly under the previous line at item indentation.
func (a *Assembler) continuesItem(ln, prev *line, stack []listLevel) bool {
	if prev == nil || prev.page != ln.page {
		return false
	}
	if prev.bbox.VerticalGap(ln.bbox) > a.config.ParagraphGap {
		return false
	}
	top := stack[len(stack)-1]
	return ln.indent >= top.indent-a.config.ListIndentTolerance
}
