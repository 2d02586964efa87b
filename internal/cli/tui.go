package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lumenwm/lumen/pkg/hierarchy"
	"github.com/lumenwm/lumen/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// tuiCommand creates the tui command for interactive hierarchy browsing.
func (c *CLI) tuiCommand() *cobra.Command {
	var frames int

	cmd := &cobra.Command{
		Use:   "tui [scene]",
		Short: "Browse the layer hierarchy interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(true)
			if err != nil {
				return err
			}

			result, err := runner.Execute(cmd.Context(), pipeline.Options{
				ScenePath: args[0],
				Frames:    frames,
				Formats:   []string{pipeline.FormatTree},
				Logger:    loggerFromContext(cmd.Context()),
			})
			if err != nil {
				return err
			}

			model := NewHierarchyModel(result.Builder)
			_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}

	cmd.Flags().IntVar(&frames, "frames", pipeline.AllFrames, "number of transaction frames to replay (-1 for all)")

	return cmd
}

// =============================================================================
// HierarchyModel - Interactive hierarchy browser
// =============================================================================

// hierarchyRow is one visible line of the browser: a node reached through a
// specific edge, at a structural depth.
type hierarchyRow struct {
	depth     int
	node      *hierarchy.Node
	variant   hierarchy.Variant
	offscreen bool
}

// HierarchyModel is the bubbletea model for hierarchy browsing.
type HierarchyModel struct {
	Rows   []hierarchyRow
	Cursor int
	Height int
	Offset int
}

// NewHierarchyModel creates a browser model from a built hierarchy.
func NewHierarchyModel(b *hierarchy.Builder) HierarchyModel {
	return HierarchyModel{
		Rows:   collectRows(b),
		Cursor: 0,
		Height: 15,
		Offset: 0,
	}
}

// collectRows flattens both hierarchies into display rows. Structural edges
// are descended; relative and mirror edges appear as annotated rows without
// recursion, so loops cannot recurse here.
func collectRows(b *hierarchy.Builder) []hierarchyRow {
	var rows []hierarchyRow
	var walk func(n *hierarchy.Node, depth int, offscreen bool)
	walk = func(n *hierarchy.Node, depth int, offscreen bool) {
		for _, e := range n.Children() {
			rows = append(rows, hierarchyRow{depth, e.Node, e.Variant, offscreen})
			if e.Variant == hierarchy.VariantAttached || e.Variant == hierarchy.VariantDetached {
				walk(e.Node, depth+1, offscreen)
			}
		}
	}
	walk(b.Hierarchy(), 0, false)
	walk(b.OffscreenHierarchy(), 0, true)
	return rows
}

func (m HierarchyModel) Init() tea.Cmd {
	return nil
}

func (m HierarchyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "g":
			m.Cursor = 0
			m.Offset = 0
		case "G":
			m.Cursor = len(m.Rows) - 1
			if m.Cursor >= m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m HierarchyModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Layer Hierarchy"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G top/bottom  q quit"))
	b.WriteString("\n\n")

	if len(m.Rows) == 0 {
		b.WriteString(listDimStyle.Render("  (empty scene)"))
		b.WriteString("\n")
		return b.String()
	}

	end := m.Offset + m.Height
	if end > len(m.Rows) {
		end = len(m.Rows)
	}

	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]

		cursor := "  "
		style := listNormalStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}

		b.WriteString(cursor)
		b.WriteString(style.Render(rowLabel(r)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(rowDetail(m.Rows[m.Cursor]))
	return b.String()
}

// rowLabel renders one tree line: indentation, id, z, and edge annotation.
func rowLabel(r hierarchyRow) string {
	label := fmt.Sprintf("%s%s z=%d", strings.Repeat("  ", r.depth), r.node.ID(), r.node.Layer().Z)
	if r.variant != hierarchy.VariantAttached {
		label += listDimStyle.Render(fmt.Sprintf(" (%s)", r.variant))
	}
	if r.offscreen {
		label += listDimStyle.Render(" [offscreen]")
	}
	return label
}

// rowDetail renders the selected layer's record fields.
func rowDetail(r hierarchyRow) string {
	l := r.node.Layer()
	var parts []string
	parts = append(parts, fmt.Sprintf("layer %s", l.ID))
	parts = append(parts, fmt.Sprintf("z %d", l.Z))
	if l.HasParent() {
		parts = append(parts, fmt.Sprintf("parent %s", l.ParentID))
	}
	if l.HasRelativeParent() {
		parts = append(parts, fmt.Sprintf("relative parent %s", l.RelativeParentID))
	}
	if l.HasMirrorSource() {
		parts = append(parts, fmt.Sprintf("mirrors %s", l.MirrorFromID))
	}
	return StyleDim.Render("  " + strings.Join(parts, " · "))
}
