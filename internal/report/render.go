package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Render formats a run report for the console: a summary block, the
// per-stage metrics table, and per-source counts.
func Render(rep *RunReport, pretty bool) string {
	printer := message.NewPrinter(language.English)
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s  [%s]\n", rep.RunID, strings.ToUpper(rep.State))
	if rep.FailureReason != "" {
		fmt.Fprintf(&b, "Failure: %s\n", rep.FailureReason)
	}
	printer.Fprintf(&b, "Records: %d total, %d loaded, %d rejected\n",
		rep.TotalRecords, rep.LoadedRecords, rep.RejectedRecords)
	fmt.Fprintf(&b, "Quality score: %.3f\n", rep.QualityScore)
	fmt.Fprintf(&b, "Elapsed: %dms (%.0f records/sec)\n", rep.ElapsedMillis, rep.RecordsPerSecond)
	b.WriteString("\n")

	b.WriteString(renderStageTable(rep.Stages, pretty))
	b.WriteString("\n")

	b.WriteString(renderSourceCounts(rep, printer))

	if len(rep.SourceFailures) > 0 {
		b.WriteString("\nSource failures:\n")
		for _, failure := range rep.SourceFailures {
			fmt.Fprintf(&b, "  %s: %s\n", failure.Type, failure.Error)
		}
	}
	if len(rep.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, recommendation := range rep.Recommendations {
			fmt.Fprintf(&b, "  - %s\n", recommendation)
		}
	}
	return b.String()
}

func renderStageTable(stages []StageMetrics, pretty bool) string {
	tw := table.NewWriter()
	if pretty {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}
	tw.AppendHeader(table.Row{"Stage", "In", "Out", "Rejected", "Elapsed (ms)", "Rec/s"})
	for _, stage := range stages {
		tw.AppendRow(table.Row{
			stage.Stage,
			stage.RecordsIn,
			stage.RecordsOut,
			stage.RecordsRejected,
			stage.ElapsedMillis,
			fmt.Sprintf("%.0f", stage.Throughput),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	return tw.Render()
}

func renderSourceCounts(rep *RunReport, printer *message.Printer) string {
	if len(rep.SourceCounts) == 0 {
		return "No source records extracted.\n"
	}
	keys := make([]string, 0, len(rep.SourceCounts))
	for key := range rep.SourceCounts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Records by source:\n")
	for _, key := range keys {
		printer.Fprintf(&b, "  %-7s %d\n", key, rep.SourceCounts[key])
	}
	return b.String()
}
