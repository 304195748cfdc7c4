package audit

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTable writes a human-readable end-of-run summary to w: a totals
// table (frames, kept/dropped objects by kind, bytes processed) followed by
// a per-language breakdown table, in the style of a terminal report.
func RenderTable(w io.Writer, s Summary) error {
	fmt.Fprintf(w, "%s\n\n", color.New(color.Bold).Sprint("gitfilter run summary"))

	totals := table.NewWriter()
	totals.SetOutputMirror(w)
	totals.SetStyle(table.StyleLight)
	totals.AppendHeader(table.Row{"Metric", "Value"})
	totals.AppendRow(table.Row{"Frames read", humanize.Comma(s.FramesRead)})
	totals.AppendRow(table.Row{"Bytes processed", humanize.Bytes(uint64(max64(s.BytesProcessed, 0)))})

	for _, kind := range []string{"commit", "blob"} {
		kept := s.ObjectsKept[kind]
		dropped := s.ObjectsDropped[kind]
		totals.AppendRow(table.Row{
			fmt.Sprintf("%s kept", kind),
			color.GreenString(humanize.Comma(kept)),
		})
		totals.AppendRow(table.Row{
			fmt.Sprintf("%s dropped", kind),
			color.RedString(humanize.Comma(dropped)),
		})
	}

	totals.Render()

	if len(s.Languages) == 0 {
		return nil
	}

	fmt.Fprintln(w)

	langs := table.NewWriter()
	langs.SetOutputMirror(w)
	langs.SetStyle(table.StyleLight)
	langs.AppendHeader(table.Row{"Language", "Files touched"})

	for _, entry := range s.Languages {
		langs.AppendRow(table.Row{entry.Language, humanize.Comma(int64(entry.Count))})
	}

	langs.Render()

	return nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}

	return b
}
