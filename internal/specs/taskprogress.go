// Task-list progress parsing for tasks.md documents, walking goldmark's GFM
// AST rather than scanning lines with a regular expression.
package specs

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var taskMD = goldmark.New(goldmark.WithExtensions(extension.GFM))

// TaskProgress reports the number of completed and total GFM task-list
// items ("- [ ]" / "- [x]") found in a tasks.md document.
func TaskProgress(markdown []byte) (completed, total int) {
	reader := text.NewReader(markdown)
	doc := taskMD.Parser().Parse(reader)

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if box, ok := n.(*extast.TaskCheckBox); ok {
			total++
			if box.IsChecked {
				completed++
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return 0, 0
	}
	return completed, total
}
