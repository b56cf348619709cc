package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/ShayCichocki/tracker/pkg/models"
)

var itemHeaders = []string{"ID", "KIND", "TITLE", "STATUS", "EPIC", "START", "DURATION", "END"}

const (
	colStatus = 3
	emptyCell = "-"
)

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle       = lipgloss.NewStyle().Padding(0, 1)
	statusNewStyle  = cellStyle.Foreground(lipgloss.Color("12"))
	statusWIPStyle  = cellStyle.Foreground(lipgloss.Color("11"))
	statusDoneStyle = cellStyle.Foreground(lipgloss.Color("10"))
	borderStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// printer renders entities for the terminal.
type printer struct {
	w      io.Writer
	layout string
	color  bool
}

func (a *app) printer(w io.Writer) *printer {
	return &printer{w: w, layout: a.cfg.Display.TimeLayout, color: a.cfg.Display.Color}
}

// items renders entities as a table, or a short note when there are none.
func (p *printer) items(entities []models.Entity, empty string) {
	if len(entities) == 0 {
		fmt.Fprintln(p.w, empty)
		return
	}

	rows := make([][]string, 0, len(entities))
	statuses := make([]models.Status, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, p.row(e))
		statuses = append(statuses, e.Base().Status)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(itemHeaders...).
		Rows(rows...)

	if p.color {
		t = t.BorderStyle(borderStyle).StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == colStatus:
				return statusStyle(statuses[row])
			default:
				return cellStyle
			}
		})
	} else {
		t = t.StyleFunc(func(row, col int) lipgloss.Style {
			return cellStyle
		})
	}

	fmt.Fprintln(p.w, t.Render())
}

// row formats the table cells for one entity.
func (p *printer) row(e models.Entity) []string {
	t := e.Base()

	epic := emptyCell
	switch v := e.(type) {
	case *models.Subtask:
		epic = strconv.FormatInt(v.EpicID, 10)
	case *models.Epic:
		epic = subtaskCount(len(v.SubtaskIDs))
	}

	return []string{
		strconv.FormatInt(t.ID, 10),
		string(e.Kind()),
		t.Title,
		string(t.Status),
		epic,
		formatTime(t.StartTime, p.layout),
		formatDuration(t.Duration),
		formatTime(e.EndTime(), p.layout),
	}
}

// detail prints one entity as labelled lines, including its description.
func (p *printer) detail(e models.Entity) {
	t := e.Base()
	label := color.New(color.Bold)

	line := func(name, value string) {
		fmt.Fprintf(p.w, "%s %s\n", label.Sprintf("%-12s", name+":"), value)
	}

	line("ID", strconv.FormatInt(t.ID, 10))
	line("Kind", string(e.Kind()))
	line("Title", t.Title)
	line("Status", string(t.Status))
	if t.Description != "" {
		line("Description", t.Description)
	}
	switch v := e.(type) {
	case *models.Subtask:
		line("Epic", strconv.FormatInt(v.EpicID, 10))
	case *models.Epic:
		ids := make([]string, len(v.SubtaskIDs))
		for i, id := range v.SubtaskIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		line("Subtasks", orEmpty(strings.Join(ids, ", ")))
	}
	line("Start", formatTime(t.StartTime, p.layout))
	line("Duration", formatDuration(t.Duration))
	line("End", formatTime(e.EndTime(), p.layout))
}

func statusStyle(s models.Status) lipgloss.Style {
	switch s {
	case models.StatusInProgress:
		return statusWIPStyle
	case models.StatusDone:
		return statusDoneStyle
	default:
		return statusNewStyle
	}
}

func subtaskCount(n int) string {
	if n == 1 {
		return "1 subtask"
	}
	return strconv.Itoa(n) + " subtasks"
}

func formatTime(t *time.Time, layout string) string {
	if t == nil {
		return emptyCell
	}
	return t.Local().Format(layout)
}

// formatDuration prints whole-minute durations without the trailing "0s".
func formatDuration(d *time.Duration) string {
	if d == nil {
		return emptyCell
	}
	if *d == 0 {
		return "0m"
	}
	s := d.String()
	if *d%time.Minute == 0 {
		s = strings.TrimSuffix(s, "0s")
		if *d%time.Hour == 0 {
			s = strings.TrimSuffix(s, "0m")
		}
	}
	return s
}

func orEmpty(s string) string {
	if s == "" {
		return emptyCell
	}
	return s
}

// printStatus prints a status line with color
func printStatus(w io.Writer, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), message)
}

func printOK(w io.Writer, format string, args ...any) {
	printStatus(w, "✓", fmt.Sprintf(format, args...), color.FgGreen)
}

func printWarn(w io.Writer, format string, args ...any) {
	printStatus(w, "⚠", fmt.Sprintf(format, args...), color.FgYellow)
}

// entities converts typed slices for the table printer.
func entities[T models.Entity](items []T) []models.Entity {
	out := make([]models.Entity, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}
