package preview

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/amishk599/odishajobs/internal/model"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tableBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	tableFooterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

const maxTitleWidth = 60

// RenderTable formats candidates as a bordered table with a count footer.
func RenderTable(sourceName string, candidates []model.Candidate) string {
	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		pdf := "-"
		if c.PDFURL != "" {
			pdf = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			ellipsize(c.Title, maxTitleWidth),
			string(c.Category),
			pdf,
			c.NotificationURL,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		Headers("#", "TITLE", "CATEGORY", "PDF", "URL").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})

	footer := tableFooterStyle.Render(fmt.Sprintf("%d candidate(s) from %s (dry run, nothing stored)", len(candidates), sourceName))
	return t.String() + "\n" + footer + "\n"
}

func ellipsize(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
