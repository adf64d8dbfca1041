package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/genregraph/pkg/graph"
	"github.com/matzehuels/genregraph/pkg/shell"
	"github.com/matzehuels/genregraph/pkg/truncate"
	"github.com/matzehuels/genregraph/pkg/visual"
	"github.com/matzehuels/genregraph/pkg/wikitext"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	panelStyle   = lipgloss.NewStyle().PaddingLeft(2)
	bannerStyle  = StyleError.Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(colorRed)
	filterStyle  = lipgloss.NewStyle().Foreground(colorCyan)
)

const (
	minListHeight = 5
	minPanelWidth = 30
)

// =============================================================================
// BrowseModel - Interactive genre browser
// =============================================================================

// ShellFactory creates an unloaded shell. The browser calls it on reload.
type ShellFactory func() *shell.Shell

// shellLoadedMsg carries a shell whose Load has returned.
type shellLoadedMsg struct {
	shell *shell.Shell
}

// BrowseModel is the bubbletea model for the genre browser. The left side
// lists genres; the right side shows the selected genre's description,
// collapsed at its first boundary until toggled.
type BrowseModel struct {
	Shell      *shell.Shell
	Factory    ShellFactory
	Expandable bool

	// Order holds node indices sorted by label; Visible is Order after the
	// filter is applied.
	Order   []int
	Visible []int
	Cursor  int
	Offset  int
	Height  int
	Width   int

	Filter    string
	Filtering bool
	Reloading bool

	// ReloadErr is the last failed reload; the previous dataset stays.
	ReloadErr error

	states *truncate.Arena
}

// NewBrowseModel creates a browser over a loaded shell.
func NewBrowseModel(sh *shell.Shell, factory ShellFactory, expandable bool) BrowseModel {
	m := BrowseModel{
		Factory:    factory,
		Expandable: expandable,
		Height:     15,
		Width:      100,
		states:     truncate.NewArena(),
	}
	m.setShell(sh)
	return m
}

func (m *BrowseModel) setShell(sh *shell.Shell) {
	m.Shell = sh
	m.states.Reset()

	nodes := sh.Dataset().Nodes
	m.Order = make([]int, len(nodes))
	for i := range nodes {
		m.Order[i] = i
	}
	sort.SliceStable(m.Order, func(a, b int) bool {
		return strings.ToLower(nodes[m.Order[a]].DisplayLabel()) < strings.ToLower(nodes[m.Order[b]].DisplayLabel())
	})
	m.applyFilter()
}

func (m *BrowseModel) applyFilter() {
	nodes := m.Shell.Dataset().Nodes
	q := strings.ToLower(m.Filter)
	visible := make([]int, 0, len(m.Order))
	for _, i := range m.Order {
		if q == "" || strings.Contains(strings.ToLower(nodes[i].DisplayLabel()), q) {
			visible = append(visible, i)
		}
	}
	m.Visible = visible
	m.Cursor, m.Offset = 0, 0
}

// Selected returns the node under the cursor, or nil if the list is empty.
func (m BrowseModel) Selected() *graph.Node {
	if m.Cursor < 0 || m.Cursor >= len(m.Visible) {
		return nil
	}
	return &m.Shell.Dataset().Nodes[m.Visible[m.Cursor]]
}

// State returns the truncation state of the selected node's description.
func (m BrowseModel) State() truncate.State {
	n := m.Selected()
	if n == nil {
		return truncate.State{}
	}
	return m.states.Get(m.Shell.DocID(n.ID))
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Filtering {
			return m.updateFilter(msg), nil
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.Height)
		case "pgdown":
			m.move(m.Height)
		case " ", "enter":
			m.toggle()
		case "/":
			m.Filtering = true
		case "r":
			if m.Factory != nil && !m.Reloading {
				m.Reloading = true
				return m, reloadCmd(m.Factory)
			}
		}
	case shellLoadedMsg:
		m.Reloading = false
		m.ReloadErr = msg.shell.LoadError()
		if m.ReloadErr != nil && m.Shell.LoadError() == nil {
			break
		}
		m.setShell(msg.shell)
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, minListHeight)
		m.Width = msg.Width
	}
	return m, nil
}

func (m BrowseModel) updateFilter(msg tea.KeyMsg) BrowseModel {
	switch msg.Type {
	case tea.KeyEsc:
		m.Filtering = false
		m.Filter = ""
		m.applyFilter()
	case tea.KeyEnter:
		m.Filtering = false
	case tea.KeyBackspace:
		if r := []rune(m.Filter); len(r) > 0 {
			m.Filter = string(r[:len(r)-1])
			m.applyFilter()
		}
	case tea.KeySpace:
		m.Filter += " "
		m.applyFilter()
	case tea.KeyRunes:
		m.Filter += string(msg.Runes)
		m.applyFilter()
	}
	return m
}

func (m *BrowseModel) move(delta int) {
	if len(m.Visible) == 0 {
		return
	}
	m.Cursor = min(max(m.Cursor+delta, 0), len(m.Visible)-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// toggle flips the selected description if it has a boundary to toggle at.
func (m *BrowseModel) toggle() {
	n := m.Selected()
	if n == nil {
		return
	}
	id := m.Shell.DocID(n.ID)
	seq, err := m.Shell.Description(n.ID)
	if err != nil {
		return
	}
	if truncate.Toggleable(truncate.ComputeView(seq, m.states.Get(id)), m.Expandable) {
		m.states.Toggle(id)
	}
}

func reloadCmd(factory ShellFactory) tea.Cmd {
	return func() tea.Msg {
		sh := factory()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		_ = sh.Load(ctx)
		return shellLoadedMsg{shell: sh}
	}
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Music Genres"))
	if dd := m.Shell.Dataset().DumpDate; dd != "" {
		b.WriteString(listDimStyle.Render("  dump " + dd))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ␣ show more/less  / filter  r reload  q quit"))
	b.WriteString("\n\n")

	if err := m.Shell.LoadError(); err != nil {
		b.WriteString(bannerStyle.Render("Dataset unavailable: " + err.Error()))
		b.WriteString("\n")
		if m.Reloading {
			b.WriteString(listDimStyle.Render("  reloading..."))
		}
		return b.String()
	}

	if m.Filtering || m.Filter != "" {
		b.WriteString(filterStyle.Render("/" + m.Filter))
		if m.Filtering {
			b.WriteString(filterStyle.Render("▏"))
		}
		b.WriteString("\n")
	}

	listWidth := max(m.Width/3, 24)
	list := m.listView()
	detail := lipgloss.NewStyle().Width(max(m.Width-listWidth-4, minPanelWidth)).Render(m.detailView())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, panelStyle.Render(detail)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Visible)), len(m.Visible))))
	if m.Reloading {
		b.WriteString(listDimStyle.Render("  reloading..."))
	} else if m.ReloadErr != nil {
		b.WriteString(StyleWarning.Render("  reload failed: " + m.ReloadErr.Error()))
	}
	return b.String()
}

func (m BrowseModel) listView() string {
	nodes := m.Shell.Dataset().Nodes
	end := min(m.Offset+m.Height, len(m.Visible))

	rows := [][]string{}
	for pos := m.Offset; pos < end; pos++ {
		n := nodes[m.Visible[pos]]
		cursor := "  "
		if pos == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor + swatch(visual.NodeColor(n.ID)), n.DisplayLabel(), strconv.Itoa(n.Degree)})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Genre", "Links").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			if col == 2 {
				return listDimStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

func (m BrowseModel) detailView() string {
	n := m.Selected()
	if n == nil {
		return listDimStyle.Render("No genres match.")
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render(n.DisplayLabel()))
	b.WriteString("\n")
	if n.LastRevisionDate != nil {
		b.WriteString(listDimStyle.Render("revised " + n.LastRevisionDate.Format("2006-01-02")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	view, err := m.Shell.Describe(n.ID, m.State(), m.Expandable)
	switch {
	case err != nil:
		b.WriteString(StyleError.Render(err.Error()))
	case len(view.Visible) == 0:
		b.WriteString(listDimStyle.Render("(no description)"))
	default:
		b.WriteString(wikitext.InnerText(view.Visible))
	}
	if view.ToggleLabel != "" {
		b.WriteString("\n")
		b.WriteString(styleToggle.Render(view.ToggleLabel))
	}

	b.WriteString("\n\n")
	b.WriteString(m.linksView(n))
	return b.String()
}

// linksView lists the selected genre's relationships, coloured by type.
func (m BrowseModel) linksView(n *graph.Node) string {
	ds := m.Shell.Dataset()
	out, in := ds.LinksOf(n.ID)
	if len(out)+len(in) == 0 {
		return ""
	}
	label := func(id string) string {
		if other, err := m.Shell.Node(id); err == nil {
			return other.DisplayLabel()
		}
		return id
	}

	var lines []string
	for _, l := range in {
		lines = append(lines, swatch(visual.EdgeColor(l.Type))+" "+label(l.Source)+listDimStyle.Render(" → "+l.Type.Label()))
	}
	for _, l := range out {
		lines = append(lines, swatch(visual.EdgeColor(l.Type))+" "+listDimStyle.Render(l.Type.Label()+" → ")+label(l.Target))
	}
	return strings.Join(lines, "\n")
}
