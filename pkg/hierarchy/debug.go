package hierarchy

import (
	"fmt"
	"strings"
)

// DebugString renders the subtree under n as a human-readable indented
// tree. The exact layout is diagnostic output, not a compatibility surface.
func (n *Node) DebugString() string {
	var b strings.Builder
	n.writeDebug(&b)
	return b.String()
}

// DebugString renders both the attached and offscreen hierarchies.
func (b *Builder) DebugString() string {
	var sb strings.Builder
	b.Hierarchy().writeDebug(&sb)
	b.OffscreenHierarchy().writeDebug(&sb)
	return sb.String()
}

func (n *Node) writeDebug(sb *strings.Builder) {
	if n.layer == nil {
		sb.WriteString(n.name)
	} else {
		fmt.Fprintf(sb, "%s z=%d", n.id, n.layer.Z)
	}
	sb.WriteByte('\n')
	n.writeDebugChildren(sb, "", RootPath())
}

func (n *Node) writeDebugChildren(sb *strings.Builder, prefix string, path TraversalPath) {
	for i, e := range n.children {
		last := i == len(n.children)-1
		branch, indent := "├─ ", "│  "
		if last {
			branch, indent = "└─ ", "   "
		}
		fmt.Fprintf(sb, "%s%s%s z=%d", prefix, branch, e.Node.id, e.Node.layer.Z)
		if e.Variant != VariantAttached {
			fmt.Fprintf(sb, " (%s)", e.Variant)
		}
		childPath := path.child(e.Node.id, e.Variant)
		if childPath.HasRelZLoop() && path.HasRelZLoop() {
			sb.WriteString(" ...\n")
			continue
		}
		sb.WriteByte('\n')
		e.Node.writeDebugChildren(sb, prefix+indent, childPath)
	}
}
