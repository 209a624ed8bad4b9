package preview

import (
	"fmt"
	"strings"

	"dashgrid/internal/layout"
)

// Outline renders the saved structure of a layout as a tree.
func Outline(kind layout.Kind, nodes []layout.OutlineNode) string {
	var b strings.Builder
	b.WriteString(string(kind))
	b.WriteByte('\n')
	writeNodes(&b, nodes, "")
	return b.String()
}

func writeNodes(b *strings.Builder, nodes []layout.OutlineNode, prefix string) {
	for i, n := range nodes {
		branch, next := "├── ", "│   "
		if i == len(nodes)-1 {
			branch, next = "└── ", "    "
		}
		b.WriteString(prefix + branch + describe(n) + "\n")
		writeNodes(b, n.Children, prefix+next)
	}
}

func describe(n layout.OutlineNode) string {
	parts := []string{n.Key}
	if n.Title != "" {
		parts = append(parts, fmt.Sprintf("%q", n.Title))
	}
	if n.Panel != nil && n.Panel.VizType != "" {
		parts = append(parts, n.Panel.VizType)
	}
	if n.Cell != nil {
		parts = append(parts, n.Cell.String())
	}
	if n.Layout != "" {
		parts = append(parts, "["+string(n.Layout)+"]")
	}
	if n.Collapsed {
		parts = append(parts, "collapsed")
	}
	if r := n.Repeat; r != nil {
		s := "repeat=" + r.Variable
		if r.Direction != "" {
			s += fmt.Sprintf(" (%s", r.Direction)
			if r.MaxPerRow > 0 {
				s += fmt.Sprintf(", max %d", r.MaxPerRow)
			}
			s += ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}
