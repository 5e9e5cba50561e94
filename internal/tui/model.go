// Package tui is the terminal client for the customer list. It is a thin
// adapter: list behavior lives in listview.State and fetch sequencing in
// fetch.Loader; the model translates key presses into state transitions and
// renders snapshots.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/retainhq/retain/internal/domain"
	"github.com/retainhq/retain/internal/export"
	"github.com/retainhq/retain/internal/fetch"
	"github.com/retainhq/retain/internal/listview"
)

// pageSizeStep is how much +/- grows or shrinks the page.
const pageSizeStep = 5

// sortKeys maps the number row onto the table columns, in display order.
var sortKeys = map[string]domain.SortField{
	"1": domain.SortByName,
	"2": domain.SortByIndustry,
	"3": domain.SortByHealth,
	"4": domain.SortByARR,
	"5": domain.SortByRenewal,
	"6": domain.SortByStatus,
}

type mode int

const (
	modeBrowse mode = iota
	modeSearch
)

// loaderChangedMsg signals that the loader state moved; the model re-reads
// it and re-arms the wait command.
type loaderChangedMsg struct{}

// exportDoneMsg reports the outcome of a selection export.
type exportDoneMsg struct {
	path string
	rows int
	err  error
}

// Options configure the terminal client.
type Options struct {
	// PageSize is the initial page size; 0 uses the listview default.
	PageSize int
	// ExportDir receives CSV files written by the export key. Empty means
	// the current directory.
	ExportDir string
}

// Model is the bubbletea model for the customer list.
type Model struct {
	list   *listview.State
	loader *fetch.Loader

	search textinput.Model
	mode   mode

	cursor    int
	width     int
	height    int
	status    string
	exportDir string
	quitting  bool
}

// NewModel creates the list model. The loader must be owned by the caller,
// which closes it after the program exits.
func NewModel(loader *fetch.Loader, opts Options) Model {
	search := textinput.New()
	search.Placeholder = "name or industry"
	search.CharLimit = 80
	search.Width = 40

	return Model{
		list:      listview.NewState(opts.PageSize),
		loader:    loader,
		search:    search,
		exportDir: opts.ExportDir,
	}
}

// Init issues the initial fetch of the whole collection. Filtering, sorting,
// and paging happen locally, so the query stays unconstrained.
func (m Model) Init() tea.Cmd {
	m.loader.Fetch(context.Background(), domain.Query{})
	return waitForChange(m.loader)
}

// waitForChange blocks until the loader state moves again.
func waitForChange(l *fetch.Loader) tea.Cmd {
	return func() tea.Msg {
		<-l.Changes()
		return loaderChangedMsg{}
	}
}

// Update handles messages and returns the next model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loaderChangedMsg:
		st := m.loader.State()
		if st.Phase == fetch.PhaseReady && st.Revision != m.list.Revision() {
			m.list.SetRecords(st.Records, st.Revision)
			m.clampCursor()
		}
		return m, waitForChange(m.loader)

	case exportDoneMsg:
		if msg.err != nil {
			m.status = "export failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("exported %d rows to %s", msg.rows, msg.path)
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeSearch {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

// updateSearch handles keys while the search input is focused. The filter is
// applied live on every keystroke.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = modeBrowse
		m.search.Blur()
		return m, nil
	case "esc":
		m.mode = modeBrowse
		m.search.Blur()
		m.search.SetValue("")
		m.list.SetSearch("")
		m.clampCursor()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.list.SetSearch(m.search.Value())
	m.clampCursor()
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	key := msg.String()
	if field, ok := sortKeys[key]; ok {
		_ = m.list.SetSort(field)
		m.clampCursor()
		return m, nil
	}

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "/":
		m.mode = modeSearch
		m.search.Focus()
		return m, textinput.Blink

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		m.cursor++
		m.clampCursor()
		return m, nil

	case "[":
		m.list.PrevPage()
		m.cursor = 0
		return m, nil

	case "]":
		m.list.NextPage()
		m.cursor = 0
		return m, nil

	case "+", "=":
		_ = m.list.SetPageSize(m.list.PageSize() + pageSizeStep)
		m.clampCursor()
		return m, nil

	case "-", "_":
		next := m.list.PageSize() - pageSizeStep
		if next < 1 {
			next = 1
		}
		_ = m.list.SetPageSize(next)
		m.clampCursor()
		return m, nil

	case " ":
		if c, ok := m.recordUnderCursor(); ok {
			m.list.ToggleSelect(c.ID)
		}
		return m, nil

	case "a":
		m.list.SelectAll()
		return m, nil

	case "c":
		m.list.ClearSelection()
		return m, nil

	case "e":
		return m.startExport()

	case "r":
		m.loader.Refetch(context.Background())
		return m, nil

	case "x":
		m.loader.Dismiss()
		return m, nil
	}
	return m, nil
}

// startExport snapshots the selected rows now, then writes the file in a
// command so slow disks cannot block the event loop.
func (m Model) startExport() (tea.Model, tea.Cmd) {
	if m.list.SelectedCount() == 0 {
		m.status = "nothing selected"
		return m, nil
	}
	header, rows, err := m.list.ExportRows(listview.ScopeSelection, nil)
	if err != nil {
		m.status = "export failed: " + err.Error()
		return m, nil
	}
	return m, writeExportFile(m.exportDir, header, rows)
}

func writeExportFile(dir string, header []string, rows [][]string) tea.Cmd {
	return func() tea.Msg {
		data, err := export.CSV(header, rows)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		name := fmt.Sprintf("customers-%s.csv", time.Now().Format("20060102-150405"))
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: path, rows: len(rows)}
	}
}

// recordUnderCursor returns the record the cursor points at on the current
// page.
func (m Model) recordUnderCursor() (domain.Customer, bool) {
	page := m.list.Compute().Page
	if m.cursor < 0 || m.cursor >= len(page) {
		return domain.Customer{}, false
	}
	return page[m.cursor], true
}

func (m *Model) clampCursor() {
	page := m.list.Compute().Page
	if m.cursor >= len(page) {
		m.cursor = len(page) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Run starts the terminal client over the given source and blocks until the
// user quits or ctx is canceled.
func Run(ctx context.Context, source fetch.Source, opts Options) error {
	loader := fetch.NewLoader(source)
	defer loader.Close()

	p := tea.NewProgram(NewModel(loader, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
