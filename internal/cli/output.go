package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pfrederiksen/fake-localstorage/internal/event"
	"github.com/pfrederiksen/fake-localstorage/internal/storage"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Step is the outcome of one script call
type Step struct {
	Line   int                   `json:"line"`
	Call   string                `json:"call"`
	Result interface{}           `json:"result"`
	Error  string                `json:"error,omitempty"`
	Events []*event.StorageEvent `json:"events"`
}

// OutputResult contains data to be output
type OutputResult struct {
	RanAt      time.Time       `json:"ran_at"`
	URL        string          `json:"url"`
	Steps      []*Step         `json:"steps"`
	EventCount int             `json:"event_count"`
	ErrorCount int             `json:"error_count"`
	Contents   []storage.Entry `json:"contents"`
	// Metrics is the process metrics snapshot taken after the run
	Metrics map[string]interface{} `json:"metrics,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	for _, step := range result.Steps {
		if verbose {
			fmt.Fprintf(w, "%4d > %s\n", step.Line, step.Call)
		} else {
			fmt.Fprintf(w, "> %s\n", step.Call)
		}

		if step.Error != "" {
			fmt.Fprintf(w, "  ! TypeError: %s\n", step.Error)
			continue
		}
		if step.Result != nil {
			fmt.Fprintf(w, "  = %s\n", formatResult(step.Result))
		}
		for _, evt := range step.Events {
			fmt.Fprintf(w, "  %s\n", evt)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d calls, %d %s, %d %s\n",
		len(result.Steps),
		result.EventCount, plural(result.EventCount, "event", "events"),
		result.ErrorCount, plural(result.ErrorCount, "error", "errors"))

	if len(result.Contents) == 0 {
		fmt.Fprintln(w, "Storage is empty.")
	} else {
		fmt.Fprintf(w, "Contents (%d %s):\n", len(result.Contents), plural(len(result.Contents), "key", "keys"))
		for _, e := range result.Contents {
			fmt.Fprintf(w, "  %q = %q\n", e.Key, e.Value)
		}
	}

	if verbose && result.Metrics != nil {
		writeMetrics(w, result.Metrics)
	}
	return nil
}

// writeMetrics prints the counters, gauges and timings of a snapshot in name order
func writeMetrics(w io.Writer, snapshot map[string]interface{}) {
	fmt.Fprintln(w, "\nMetrics:")

	if counters, ok := snapshot["counters"].(map[string]int64); ok {
		for _, name := range sortedKeys(counters) {
			fmt.Fprintf(w, "  %s = %d\n", name, counters[name])
		}
	}
	if gauges, ok := snapshot["gauges"].(map[string]float64); ok {
		for _, name := range sortedKeys(gauges) {
			fmt.Fprintf(w, "  %s = %g\n", name, gauges[name])
		}
	}
	if timings, ok := snapshot["timings"].(map[string]map[string]interface{}); ok {
		for _, name := range sortedKeys(timings) {
			t := timings[name]
			fmt.Fprintf(w, "  %s: count=%v avg=%v min=%v max=%v\n",
				name, t["count"], t["average"], t["min"], t["max"])
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatResult(v interface{}) string {
	switch r := v.(type) {
	case string:
		return fmt.Sprintf("%q", r)
	case json.RawMessage:
		return string(r)
	default:
		return fmt.Sprint(r)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
