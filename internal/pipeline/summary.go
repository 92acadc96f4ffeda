package pipeline

import (
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const summaryNoteWidth = 60

// RenderSummary renders the stage records of a run as a table.
func RenderSummary(records []StageRecord) string {
	if len(records) == 0 {
		return ""
	}
	caser := cases.Title(language.English)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Stage", "Status", "Duration", "Note"})
	for _, rec := range records {
		tw.AppendRow(table.Row{
			strings.Repeat("  ", rec.Depth) + rec.Title,
			caser.String(string(rec.Status)),
			formatDuration(rec),
			truncate(firstLine(rec.Note), summaryNoteWidth),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func formatDuration(rec StageRecord) string {
	if rec.Status == StatusSkipped && rec.Duration == 0 {
		return "-"
	}
	return rec.Duration.Round(10 * time.Millisecond).String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
