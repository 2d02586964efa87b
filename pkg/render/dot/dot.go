// Package dot renders layer hierarchies as Graphviz diagrams.
//
// Structural parent edges are drawn solid, relative z-parent edges dashed,
// and mirror edges dotted. Because every layer has exactly one structural
// parent, walking structural edges visits each node once even when the
// hierarchy carries mirrors or relative z-order loops.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/lumenwm/lumen/pkg/hierarchy"
)

// Options configures hierarchy diagram rendering.
type Options struct {
	// ShowZ includes each layer's z value in its node label.
	ShowZ bool

	// Offscreen includes the offscreen hierarchy as a separate grey cluster.
	Offscreen bool
}

// ToDOT converts a builder's hierarchies to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
func ToDOT(b *hierarchy.Builder, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph hierarchy {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	writeSubtree(&buf, b.Hierarchy(), opts, "  ")

	if opts.Offscreen && b.OffscreenHierarchy().ChildCount() > 0 {
		buf.WriteString("\n  subgraph cluster_offscreen {\n")
		buf.WriteString("    label=\"offscreen\";\n")
		buf.WriteString("    style=dashed;\n")
		buf.WriteString("    color=grey;\n")
		writeSubtree(&buf, b.OffscreenHierarchy(), opts, "    ")
		buf.WriteString("  }\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

// writeSubtree emits nodes and edges for one structural tree. Only Attached
// and Detached edges are descended; Relative and Mirror edges are emitted as
// styled links without recursing, so cycles cannot occur here.
func writeSubtree(buf *bytes.Buffer, root *hierarchy.Node, opts Options, indent string) {
	var walk func(n *hierarchy.Node)
	walk = func(n *hierarchy.Node) {
		if !n.Synthetic() {
			fmt.Fprintf(buf, "%s%q [label=%q];\n", indent, n.ID().String(), nodeLabel(n, opts))
		}
		for _, e := range n.Children() {
			switch e.Variant {
			case hierarchy.VariantAttached, hierarchy.VariantDetached:
				if !n.Synthetic() {
					fmt.Fprintf(buf, "%s%q -> %q%s;\n",
						indent, n.ID().String(), e.Node.ID().String(), edgeAttrs(e.Variant))
				}
				walk(e.Node)
			default:
				fmt.Fprintf(buf, "%s%q -> %q%s;\n",
					indent, n.ID().String(), e.Node.ID().String(), edgeAttrs(e.Variant))
			}
		}
	}
	walk(root)
}

func nodeLabel(n *hierarchy.Node, opts Options) string {
	if opts.ShowZ {
		return fmt.Sprintf("%s\nz=%d", n.ID(), n.Layer().Z)
	}
	return n.ID().String()
}

func edgeAttrs(v hierarchy.Variant) string {
	switch v {
	case hierarchy.VariantDetached:
		return " [color=grey]"
	case hierarchy.VariantRelative:
		return " [style=dashed, label=\"rel\"]"
	case hierarchy.VariantMirror:
		return " [style=dotted, label=\"mirror\"]"
	default:
		return ""
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return render(dot, graphviz.SVG, normalizeViewBox)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG, nil)
}

func render(dot string, format graphviz.Format, post func([]byte) []byte) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if post != nil {
		return post(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
