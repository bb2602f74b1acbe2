package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"blockgraph/internal/blockgraph/styles"
	"blockgraph/internal/export"
	"blockgraph/internal/graph"
	"blockgraph/internal/pipeline"
	"blockgraph/internal/ui/colorize"
)

type viewMode int

const (
	viewSummary viewMode = iota
	viewFunctions
	viewBlocks
)

type functionItem struct {
	rec *graph.FunctionRecord
}

func (i functionItem) FilterValue() string { return i.rec.Name }

// functionDelegate renders one function per line with its sizes.
type functionDelegate struct{}

func (d functionDelegate) Height() int                               { return 1 }
func (d functionDelegate) Spacing() int                              { return 0 }
func (d functionDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d functionDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(functionItem)
	if !ok {
		return
	}

	indicator, nameStyle := " ", styles.Unselected
	if index == m.Index() {
		indicator, nameStyle = ">", styles.Selected
	}
	sizes := fmt.Sprintf("%d blocks %d edges", len(i.rec.Blocks), i.rec.EdgeCount())
	fmt.Fprintf(w, " %s  %s  %s", indicator, nameStyle.Render(i.rec.Name), styles.Counts.Render(sizes))
}

type model struct {
	viewport  viewport.Model
	functions list.Model
	spinner   spinner.Model
	mode      viewMode
	path      string
	records   []*graph.FunctionRecord
	stats     pipeline.Stats
	loading   bool
	err       error
	width     int
	height    int
}

type documentMsg struct {
	records []*graph.FunctionRecord
	err     error
}

func readDocumentCmd(path string) tea.Cmd {
	return func() tea.Msg {
		recs, err := export.ReadFile(path)
		return documentMsg{records: recs, err: err}
	}
}

func newModel(path string) model {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	functions := list.New([]list.Item{}, functionDelegate{}, 80, 24)
	functions.SetShowStatusBar(false)
	functions.SetFilteringEnabled(true)
	functions.Title = "Functions"
	functions.Styles.Title = styles.Title
	functions.SetShowHelp(true)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Selected

	m := model{
		viewport:  vp,
		functions: functions,
		spinner:   s,
		mode:      viewSummary,
		path:      path,
		loading:   true,
		width:     80,
		height:    24,
	}
	m.updateSummary()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		readDocumentCmd(m.path),
		m.spinner.Tick,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case documentMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.setRecords(msg.records)
		}
		m.updateSummary()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		m.updateSummary()
		return m, cmd

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if m.mode == viewFunctions && m.functions.FilterState() == list.Filtering {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			m.mode = viewSummary
			m.updateSummary()
			return m, nil
		case "f", "tab":
			if len(m.records) > 0 {
				m.mode = viewFunctions
			}
			return m, nil
		case "esc", "backspace":
			if m.mode == viewBlocks {
				m.mode = viewFunctions
				return m, nil
			}
		case "enter":
			if m.mode == viewFunctions {
				if item, ok := m.functions.SelectedItem().(functionItem); ok {
					m.showFunction(item.rec)
				}
				return m, nil
			}
		}
	}

	switch m.mode {
	case viewFunctions:
		m.functions, cmd = m.functions.Update(msg)
	default:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	var content, menu string
	switch m.mode {
	case viewFunctions:
		content = m.functions.View()
		menu = " Enter: blocks • /: filter • S: summary • Q: quit "
	case viewBlocks:
		content = m.viewport.View()
		menu = " Esc: functions • S: summary • Q: quit "
	default:
		content = m.viewport.View()
		if len(m.records) > 0 {
			menu = " F: functions • Q: quit "
		} else {
			menu = " Q: quit "
		}
	}
	return content + "\n" + styles.Menu.Width(m.width).Render(menu)
}

func (m *model) resize(width, height int) {
	if width == m.width && height == m.height {
		return
	}
	m.width, m.height = width, height
	m.viewport.SetWidth(width)
	m.viewport.SetHeight(height - 2)
	m.functions.SetWidth(width)
	m.functions.SetHeight(height - 2)
	if m.mode == viewSummary {
		m.updateSummary()
	}
}

func (m *model) setRecords(recs []*graph.FunctionRecord) {
	m.records = recs
	m.stats = pipeline.Summarize(recs)
	items := make([]list.Item, len(recs))
	for i, rec := range recs {
		items[i] = functionItem{rec: rec}
	}
	m.functions.SetItems(items)
}

func (m *model) updateSummary() {
	var markdown string
	switch {
	case m.loading:
		markdown = fmt.Sprintf("# %s\n\n%s Loading document...", filepath.Base(m.path), m.spinner.View())
	case m.err != nil:
		markdown = fmt.Sprintf("# %s\n\n%v", filepath.Base(m.path), m.err)
	default:
		markdown = statsMarkdown(filepath.Base(m.path), m.stats, 10)
	}

	width := m.width
	if width == 0 {
		width = 80
	}
	renderer := styles.GetReportRenderer(width-2, colorize.Enabled())
	rendered, err := renderer.Render(markdown)
	if err != nil {
		rendered = markdown
	}
	m.viewport.SetContent(strings.TrimSuffix(rendered, "\n"))
	m.viewport.GotoTop()
}

func (m *model) showFunction(rec *graph.FunctionRecord) {
	var b strings.Builder
	writeListing(&b, rec)
	m.viewport.SetContent(colorize.ColorizeInstruction(b.String()))
	m.viewport.GotoTop()
	m.mode = viewBlocks
}

var browseCmd = &cobra.Command{
	Use:   "browse <document>",
	Short: "Browse an extracted document interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(os.Stdout.Fd()) {
			return fmt.Errorf("browse needs a terminal; use show or stats when piping")
		}

		program := tea.NewProgram(
			newModel(args[0]),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	},
}
