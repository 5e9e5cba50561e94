package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/retainhq/retain/internal/domain"
	"github.com/retainhq/retain/internal/fetch"
	"github.com/retainhq/retain/internal/listview"
)

// Column widths for the customer table.
const (
	nameWidth     = 26
	industryWidth = 14
	healthWidth   = 6
	arrWidth      = 12
	renewalWidth  = 11
	statusWidth   = 8
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	cursorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("238"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	faintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
)

// tableColumns drives both the header and the sort-key help, in key order
// 1 through 6.
var tableColumns = []struct {
	field domain.SortField
	label string
	width int
}{
	{domain.SortByName, "NAME", nameWidth},
	{domain.SortByIndustry, "INDUSTRY", industryWidth},
	{domain.SortByHealth, "HEALTH", healthWidth},
	{domain.SortByARR, "ARR", arrWidth},
	{domain.SortByRenewal, "RENEWAL", renewalWidth},
	{domain.SortByStatus, "STATUS", statusWidth},
}

// View renders the whole screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.list.Compute()
	st := m.loader.State()

	var b strings.Builder
	b.WriteString(titleStyle.Render("retain"))
	b.WriteString("  ")
	b.WriteString(faintStyle.Render("customer renewals"))
	b.WriteString("\n\n")

	if m.mode == modeSearch {
		b.WriteString("search: " + m.search.View() + "\n\n")
	} else if desc := describeFilter(m.list.Filter()); desc != "" {
		b.WriteString(faintStyle.Render(desc) + "\n\n")
	}

	b.WriteString(m.tableHeader() + "\n")
	m.writeRows(&b, snap.Page, st)

	b.WriteString("\n")
	b.WriteString(m.summaryLine(snap.Summary, st))
	b.WriteString("\n")
	b.WriteString(m.statusLine(st))
	b.WriteString(m.helpLine())
	return b.String()
}

func (m Model) tableHeader() string {
	sort := m.list.Sort()
	parts := make([]string, 0, len(tableColumns))
	for _, col := range tableColumns {
		label := col.label
		if sort.Field == col.field {
			if sort.Direction == domain.Ascending {
				label += " ▲"
			} else {
				label += " ▼"
			}
		}
		parts = append(parts, fmt.Sprintf("%-*s", col.width, truncate(label, col.width)))
	}
	return headerStyle.Render("  " + strings.Join(parts, "  "))
}

func (m Model) writeRows(b *strings.Builder, page []domain.Customer, st fetch.State) {
	if len(page) == 0 {
		switch {
		case st.Phase == fetch.PhaseLoading || st.Phase == fetch.PhaseIdle:
			b.WriteString(faintStyle.Render("  loading customers...") + "\n")
		case m.list.Compute().Summary.TotalCount == 0:
			b.WriteString(faintStyle.Render("  no customers") + "\n")
		default:
			b.WriteString(faintStyle.Render("  no customers match the current filters") + "\n")
		}
		return
	}

	for i, c := range page {
		b.WriteString(m.tableRow(c, i == m.cursor) + "\n")
	}
}

func (m Model) tableRow(c domain.Customer, underCursor bool) string {
	marker := " "
	if m.list.IsSelected(c.ID) {
		marker = "●"
	}
	renewal := c.RenewalDate
	if renewal == "" {
		renewal = "-"
	}

	row := fmt.Sprintf("%s %-*s  %-*s  %*d  %*s  %-*s  %-*s",
		marker,
		nameWidth, truncate(c.Name, nameWidth),
		industryWidth, truncate(c.Industry, industryWidth),
		healthWidth, c.HealthScore,
		arrWidth, fmt.Sprintf("$%.0f", c.ARR),
		renewalWidth, renewal,
		statusWidth, c.Status,
	)

	switch {
	case underCursor:
		return cursorStyle.Render(row)
	case m.list.IsSelected(c.ID):
		return selectedStyle.Render(row)
	default:
		return row
	}
}

func (m Model) summaryLine(s listview.Summary, st fetch.State) string {
	line := fmt.Sprintf("page %d/%d  %d of %d customers  %d selected",
		s.CurrentPage, s.TotalPages, s.FilteredCount, s.TotalCount, s.SelectedCount)
	if st.Phase == fetch.PhaseLoading {
		line += "  refreshing..."
	}
	return faintStyle.Render(line)
}

func (m Model) statusLine(st fetch.State) string {
	if st.Phase == fetch.PhaseFailed && st.Err != nil {
		return errorStyle.Render("fetch failed: "+st.Err.Error()) +
			faintStyle.Render("  (x dismiss, r retry)") + "\n"
	}
	if m.status != "" {
		return statusStyle.Render(m.status) + "\n"
	}
	return ""
}

func (m Model) helpLine() string {
	if m.mode == modeSearch {
		return faintStyle.Render("enter apply   esc clear")
	}
	return faintStyle.Render("/ search   1-6 sort   [ ] page   + - size   space select   a all   c none   e export   r reload   q quit")
}

// describeFilter summarizes the active filter dimensions for the bar above
// the table, or returns "" when nothing is filtered.
func describeFilter(f domain.Filter) string {
	if f.Empty() {
		return ""
	}
	var parts []string
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", f.Search))
	}
	if len(f.Industries) > 0 {
		parts = append(parts, "industries "+strings.Join(f.Industries, ","))
	}
	if f.HealthMin != nil || f.HealthMax != nil {
		parts = append(parts, "health "+rangeLabel(intLabel(f.HealthMin), intLabel(f.HealthMax)))
	}
	if f.ARRMin != nil || f.ARRMax != nil {
		parts = append(parts, "arr "+rangeLabel(floatLabel(f.ARRMin), floatLabel(f.ARRMax)))
	}
	return "filters: " + strings.Join(parts, "  ")
}

func rangeLabel(lo, hi string) string {
	return lo + ".." + hi
}

func intLabel(v *int) string {
	if v == nil {
		return "*"
	}
	return fmt.Sprintf("%d", *v)
}

func floatLabel(v *float64) string {
	if v == nil {
		return "*"
	}
	return fmt.Sprintf("%.0f", *v)
}

// truncate shortens s to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
