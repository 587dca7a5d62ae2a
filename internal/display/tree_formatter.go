package display

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/greaper/internal/archive"
)

// TreeNode is one segment of an archive listing. Nested archives carry the
// members found inside them as children.
type TreeNode struct {
	Name     string
	Nested   bool
	Depth    int
	Children []*TreeNode
}

// BuildArchiveTree arranges a flat listing of archivePath into a tree
// keyed by virtual path segment
func BuildArchiveTree(archivePath string, entries []archive.Entry) *TreeNode {
	root := &TreeNode{Name: archivePath, Nested: true}
	nodes := map[string]*TreeNode{archivePath: root}

	var nodeFor func(vp archive.VirtualPath) *TreeNode
	nodeFor = func(vp archive.VirtualPath) *TreeNode {
		key := vp.String()
		if n, ok := nodes[key]; ok {
			return n
		}
		parent := nodeFor(vp.Parent())
		n := &TreeNode{Name: vp.Name(), Depth: vp.Depth()}
		parent.Children = append(parent.Children, n)
		nodes[key] = n
		return n
	}

	for _, e := range entries {
		if !e.Path.IsNested() {
			continue
		}
		n := nodeFor(e.Path)
		if e.IsNestedArchive {
			n.Nested = true
		}
	}
	return root
}

// TreeFormatter formats archive trees for display
type TreeFormatter struct {
	options FormatterOptions
}

// FormatterOptions controls tree formatting
type FormatterOptions struct {
	Format   string // "text", "compact"
	MaxDepth int    // Maximum depth to display, 0 for all
	Indent   string // Indentation string
}

// NewTreeFormatter creates a new tree formatter
func NewTreeFormatter(options FormatterOptions) *TreeFormatter {
	if options.Indent == "" {
		options.Indent = "   "
	}
	return &TreeFormatter{options: options}
}

// Format formats an archive tree for display
func (tf *TreeFormatter) Format(tree *TreeNode) string {
	if tree == nil {
		return "No archive data available"
	}

	switch tf.options.Format {
	case "compact":
		return tf.formatCompact(tree)
	default:
		return tf.formatText(tree)
	}
}

// formatText formats the tree as ASCII art
func (tf *TreeFormatter) formatText(tree *TreeNode) string {
	var sb strings.Builder
	sb.WriteString(tree.Name)
	sb.WriteString("\n")

	for i, child := range tree.Children {
		tf.formatNode(&sb, child, "", i == len(tree.Children)-1)
	}
	return sb.String()
}

// formatNode recursively formats a tree node
func (tf *TreeFormatter) formatNode(sb *strings.Builder, node *TreeNode, prefix string, isLast bool) {
	if tf.options.MaxDepth > 0 && node.Depth > tf.options.MaxDepth {
		return
	}

	branch := "├─ "
	if isLast {
		branch = "└─ "
	}

	sb.WriteString(prefix)
	sb.WriteString(branch)
	sb.WriteString(node.Name)
	if node.Nested {
		sb.WriteString(fmt.Sprintf(" [archive, %d members]", len(node.Children)))
	}
	sb.WriteString("\n")

	childPrefix := prefix + "│" + tf.options.Indent[1:]
	if isLast {
		childPrefix = prefix + tf.options.Indent
	}
	for i, child := range node.Children {
		tf.formatNode(sb, child, childPrefix, i == len(node.Children)-1)
	}
}

// formatCompact summarises the tree on a single line
func (tf *TreeFormatter) formatCompact(tree *TreeNode) string {
	var files, nested, depth int
	var walk func(n *TreeNode)
	walk = func(n *TreeNode) {
		for _, c := range n.Children {
			if c.Nested {
				nested++
			} else {
				files++
			}
			depth = max(depth, c.Depth)
			walk(c)
		}
	}
	walk(tree)
	return fmt.Sprintf("%s: %d files, %d nested archives, depth %d", tree.Name, files, nested, depth)
}
