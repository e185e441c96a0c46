package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitlit/internal/calendar"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/theme"
)

const monthsPerRow = 3

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateAddHabit, StateConfirmArchive:
		content = m.form.View()
		if m.formError != "" {
			content = lipgloss.JoinVertical(lipgloss.Left, content, dangerStyle.Render(m.formError))
		}
	default:
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.viewFilter(), m.viewCalendar())
	}

	return docStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		content,
		m.status,
		m.help.View(m.keys),
	))
}

func (m Model) viewHeader() string {
	year := m.pipeline.Anchor().Year()
	return titleStyle.Render(fmt.Sprintf("habitlit · %d", year)) + "\n"
}

func (m Model) viewFilter() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Filter") + "\n")
	for i, opt := range m.catalog {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		check := "[ ]"
		if opt.Selected {
			check = "[x]"
		}
		title := opt.Title
		if h, ok := m.habitByID(opt.ID); ok {
			title = m.palette.PillStyle(h.Priority).Render("● ") + title
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, check, title)
	}
	return sidebarStyle.Render(b.String())
}

func (m Model) viewCalendar() string {
	if !m.ready {
		return mutedStyle.Render("Loading…")
	}
	if len(m.result.Sections) == 0 {
		return mutedStyle.Render(fmt.Sprintf("No statistics for %d yet.", m.result.Anchor.Year()))
	}

	symbols := calendar.WeekdayHeader(m.cfg)
	for i, sym := range symbols {
		if r := []rune(sym); len(r) > 3 {
			sym = string(r[:3])
		}
		symbols[i] = fmt.Sprintf("%3s", sym)
	}
	header := strings.Join(symbols, " ")
	var rows []string
	var row []string
	for _, section := range m.result.Sections {
		row = append(row, monthStyle.Render(renderMonth(section, header)))
		if len(row) == monthsPerRow {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderMonth(section calendar.MonthSection, header string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(section.DisplayTitle) + "\n")
	b.WriteString(mutedStyle.Render(header) + "\n")
	for _, week := range section.Weeks() {
		cells := make([]string, len(week))
		for i, cell := range week {
			cells[i] = renderCell(cell)
		}
		b.WriteString(strings.Join(cells, " ") + "\n")
	}
	return b.String()
}

// renderCell colours a day with the first visible habit completed on it.
func renderCell(cell calendar.DayCell) string {
	if cell.IsBlank {
		return "   "
	}
	day := fmt.Sprintf("%3d", cell.Date.Day())
	style := mutedStyle
	if len(cell.Pills) > 0 {
		style = theme.ColorStyle(cell.Pills[0].Color).Bold(true)
	}
	if cell.IsToday {
		style = style.Inherit(todayStyle)
	}
	return style.Render(day)
}

func (m Model) habitByID(id string) (models.Habit, bool) {
	for _, h := range m.habits {
		if h.ID == id {
			return h, true
		}
	}
	return models.Habit{}, false
}
