package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/klauern/tasksync/internal/model"
	"github.com/klauern/tasksync/internal/sync"
)

// Styles used for boxed result output.
var (
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var titleCaser = cases.Title(language.English)

// Label turns an identifier such as "status_priority" into "Status Priority".
func Label(id string) string {
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}

// RenderVersion formats one task version as aligned key/value lines.
func RenderVersion(v *model.TaskVersion) string {
	if v == nil {
		return Dim("(deleted)")
	}

	lines := [][2]string{
		{"content", v.Content},
		{"status", TaskStatus(v.Status)},
	}
	if v.ActiveForm != "" {
		lines = append(lines, [2]string{"activeForm", v.ActiveForm})
	}
	if !v.UpdatedAt.IsZero() {
		lines = append(lines, [2]string{"updatedAt", v.UpdatedAt.UTC().Format(time.RFC3339)})
	}
	if v.Platform != "" {
		lines = append(lines, [2]string{"platform", v.Platform.String()})
	}
	if v.HasClock() {
		lines = append(lines, [2]string{"clock", v.VectorClock.String()})
	}
	if len(v.Metadata) > 0 {
		lines = append(lines, [2]string{"metadata", fmt.Sprintf("%v", v.Metadata)})
	}

	var b strings.Builder
	for i, kv := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(labelStyle.Render(runewidth.FillRight(kv[0]+":", 12)))
		b.WriteString(kv[1])
	}
	return b.String()
}

// RenderResult draws a merge result inside a rounded box.
func RenderResult(r sync.Result) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Merge result"))
	b.WriteString("\n")
	b.WriteString(Conflict(r))
	b.WriteString(Dim(" via " + Label(string(r.Strategy))))

	switch r.Merged.Kind() {
	case sync.MergedEmpty:
		b.WriteString("\n\n")
		b.WriteString(Dim("task deleted on both sides"))
	case sync.MergedSingle:
		v, _ := r.Merged.Single()
		b.WriteString("\n\n")
		b.WriteString(RenderVersion(v))
	case sync.MergedPair:
		local, remote, _ := r.Merged.Pair()
		b.WriteString("\n\n")
		b.WriteString(Bold("Local copy"))
		b.WriteString("\n")
		b.WriteString(RenderVersion(local))
		b.WriteString("\n\n")
		b.WriteString(Bold("Remote copy"))
		b.WriteString("\n")
		b.WriteString(RenderVersion(remote))
	}

	return boxStyle.Render(b.String())
}

// RenderReport writes a batch report as a table followed by its counts.
func RenderReport(w io.Writer, rep *sync.Report) error {
	t := NewTable("ID", "OUTCOME", "STRATEGY", "RESULT")
	for _, item := range rep.Items {
		outcome := "clean"
		if item.Result.Conflict {
			outcome = item.Result.ConflictType.String()
		}
		t.AddRow(item.ID, outcome, string(item.Result.Strategy), item.Result.Merged.Kind().String())
	}
	if err := t.Render(w); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n", rep.Summary())
	return err
}

// Table renders aligned columns. Widths are measured in terminal cells so
// wide characters line up.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow appends a row. Missing cells render empty; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the table to w.
func (t *Table) Render(w io.Writer) error {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	header := make([]string, len(t.headers))
	for i, h := range t.headers {
		header[i] = Header(pad(h, widths[i], i == len(t.headers)-1))
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, "  ")); err != nil {
		return err
	}

	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = pad(cell, widths[i], i == len(row)-1)
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "  ")); err != nil {
			return err
		}
	}
	return nil
}

// pad fills s to width cells. The last column is left unpadded so lines carry
// no trailing spaces.
func pad(s string, width int, last bool) string {
	if last {
		return s
	}
	return runewidth.FillRight(s, width)
}
