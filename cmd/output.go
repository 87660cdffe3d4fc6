package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/archivooor/archivooor/internal/spn"
)

const (
	outputText  = "text"
	outputTable = "table"

	errorColumnWidth = 60
)

func validateOutput(format string) error {
	switch format {
	case outputText, outputTable:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want %s or %s)", format, outputText, outputTable)
	}
}

func printResults(w io.Writer, results []spn.Result, format string, verbose bool) {
	if format == outputTable {
		renderResultsTable(w, results)
		return
	}
	for i, r := range results {
		if i > 0 && verbose {
			fmt.Fprintln(w)
		}
		if verbose {
			printFields(w, r.Fields())
			continue
		}
		printFields(w, summaryFields(r))
	}
}

func summaryFields(r spn.Result) []spn.Field {
	switch {
	case r.Err != nil:
		return []spn.Field{{Key: "url", Value: r.URL}, {Key: "error", Value: r.Err.Error()}}
	case r.StatusCode != 0:
		return []spn.Field{{Key: "url", Value: r.URL}, {Key: "status_code", Value: r.StatusCode}}
	default:
		return []spn.Field{{Key: "status", Value: r.Status}, {Key: "job_id", Value: r.JobID}}
	}
}

func renderResultsTable(w io.Writer, results []spn.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "ERROR", WidthMax: errorColumnWidth},
	})
	t.AppendHeader(table.Row{"#", "URL", "STATUS", "JOB ID", "CODE", "ATTEMPTS", "ERROR"})

	accepted := 0
	for i, r := range results {
		code := ""
		if r.StatusCode != 0 {
			code = fmt.Sprint(r.StatusCode)
		}
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		if r.Accepted() {
			accepted++
		}
		t.AppendRow(table.Row{i + 1, r.URL, r.Status, r.JobID, code, r.Attempts, errText})
	}
	t.AppendFooter(table.Row{"Total", len(results), fmt.Sprintf("accepted: %d", accepted)})
	t.Render()
}

func printJob(w io.Writer, status spn.JobStatus, verbose bool) {
	if verbose || status.Payload == nil {
		printFields(w, status.Fields())
		return
	}
	printFields(w, []spn.Field{
		{Key: "status", Value: status.Status()},
		{Key: "original_url", Value: status.OriginalURL()},
		{Key: "outlinks_saved", Value: status.OutlinksSaved()},
	})
}

func printFields(w io.Writer, fields []spn.Field) {
	for _, f := range fields {
		fmt.Fprintf(w, "%s: %s\n", f.Key, formatValue(f.Value))
	}
}

// formatValue renders nested JSON values as compact JSON.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	default:
		return fmt.Sprint(val)
	}
}
