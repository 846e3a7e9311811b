package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Verify parses every emitted file and checks that intra-corpus Markdown
// links point at files present in the corpus. External links and image
// paths are left alone. It returns an error naming the first broken link
// in lexical file order.
func Verify(files map[string][]byte) error {
	md := goldmark.New()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		source := files[name]
		root := md.Parser().Parse(text.NewReader(source))

		var broken string
		err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering || broken != "" {
				return ast.WalkContinue, nil
			}
			link, ok := n.(*ast.Link)
			if !ok {
				return ast.WalkContinue, nil
			}
			dest := string(link.Destination)
			if !strings.HasSuffix(dest, ".md") || strings.Contains(dest, "://") {
				return ast.WalkContinue, nil
			}
			if _, exists := files[dest]; !exists {
				broken = dest
			}
			return ast.WalkContinue, nil
		})
		if err != nil {
			return err
		}
		if broken != "" {
			return fmt.Errorf("broken link in %s: %s", name, broken)
		}
	}
	return nil
}
