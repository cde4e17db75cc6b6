package components

import (
	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/abhisek/examcoach/internal/ui/theme"
)

// CellStyle lets a caller colour individual cells. It returns false to
// keep the default style.
type CellStyle func(row, col int) (lipgloss.Style, bool)

// Table renders rows under headers with the theme's borders.
func Table(headers []string, rows [][]string, cell CellStyle) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(theme.TableBorder).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeader
			}
			if cell != nil {
				if s, ok := cell(row, col); ok {
					return s.Padding(0, 1)
				}
			}
			return theme.TableCell
		})
	return t.String()
}
