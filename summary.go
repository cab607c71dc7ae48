package chartdeck

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/raykavin/chartdeck/metric"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
)

// Summary writes a report of the session's indicator state: one table row
// per indicator plus a distribution profile and histogram for every
// oscillator line
func (s *Session) Summary(w io.Writer) {
	statuses := s.registry.Status()

	s.mu.Lock()
	candleCount := len(s.candles)
	s.mu.Unlock()

	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader([]string{"Indicator", "Kind", "Class", "Pane", "Visible", "Last"})

	for _, status := range statuses {
		class := "oscillator"
		if status.Kind.Overlay() {
			class = "overlay"
		}
		table.Append([]string{
			status.Name,
			status.Kind.String(),
			class,
			strconv.Itoa(status.Pane),
			strconv.FormatBool(status.Visible),
			formatLastValues(status.Last),
		})
	}
	table.Render()

	fmt.Fprintf(w, "%s / %s: %d candles, %d indicators\n\n",
		s.settings.Pair, s.settings.Timeframe, candleCount, len(statuses))
	fmt.Fprint(w, buffer.String())

	s.summarizeOscillators(w)
}

// summarizeOscillators prints distribution statistics and a histogram for
// every oscillator line with enough points to profile
func (s *Session) summarizeOscillators(w io.Writer) {
	for _, instance := range s.registry.List() {
		if instance.Overlay() {
			continue
		}

		for _, line := range instance.Lines() {
			values := make([]float64, len(line.Points))
			for i, point := range line.Points {
				values[i] = point.Value
			}

			summary := metric.Describe(values)
			if summary.Count < 2 {
				continue
			}

			fmt.Fprintf(w, "\n------ %s / %s -------\n", instance.Name(), line.Name)
			fmt.Fprintf(w, "COUNT:  %d\n", summary.Count)
			fmt.Fprintf(w, "RANGE:  %.4f ~ %.4f\n", summary.Min, summary.Max)
			fmt.Fprintf(w, "MEAN:   %.4f (σ %.4f)\n", summary.Mean, summary.StdDev)
			fmt.Fprintf(w, "QUART:  %.4f | %.4f | %.4f\n", summary.P25, summary.Median, summary.P75)
			fmt.Fprintf(w, "LAST:   %.4f\n", summary.Last)

			hist := histogram.Hist(10, values)
			if err := histogram.Fprint(w, hist, histogram.Linear(10)); err != nil {
				s.log.Warnf("chartdeck: histogram render fail: %v", err)
			}
		}
	}
}

// formatLastValues renders the per-line last values in a stable line order
func formatLastValues(last map[string]float64) string {
	if len(last) == 0 {
		return "-"
	}

	names := make([]string, 0, len(last))
	for name := range last {
		names = append(names, name)
	}
	sort.Strings(names)

	out := ""
	for i, name := range names {
		if i > 0 {
			out += "  "
		}
		if len(names) == 1 {
			out += fmt.Sprintf("%.4f", last[name])
			continue
		}
		out += fmt.Sprintf("%s=%.4f", name, last[name])
	}
	return out
}
