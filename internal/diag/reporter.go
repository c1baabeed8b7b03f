package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Reporter renders fatal diagnostics and declines for a human, the way a
// source-level error reporter renders compiler errors with colored
// severity tags. There is no source text to annotate here — the unit of
// location is a block/statement/local id rather than a line/column — so
// the layout is flatter, but the same coloring convention (bold level
// tag, dim rule, colored help line) carries over.
type Reporter struct {
	out *strings.Builder
}

func NewReporter() *Reporter {
	return &Reporter{out: &strings.Builder{}}
}

// FormatFatal renders a FatalError as a crash report naming the violated
// invariant, the pass, and the dump id a caller can use to correlate this
// failure with a persisted artifact.
func (r *Reporter) FormatFatal(err *FatalError) string {
	bold := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]: %s\n", bold("fatal"), err.Code, Description(err.Code))
	fmt.Fprintf(&b, "%s pass %q, %s #%d\n", dim("-->"), err.Pass, err.NodeKind, err.NodeID)
	if err.Detail != "" {
		fmt.Fprintf(&b, "  %s %s\n", dim("note:"), err.Detail)
	}
	fmt.Fprintf(&b, "  %s %s\n", dim("dump:"), err.DumpID.String())
	return b.String()
}

// FormatDecline renders a Decline as a single informational line; declines
// are never errors so they get a calmer color than FormatFatal.
func (r *Reporter) FormatDecline(d Decline) string {
	yellow := color.New(color.FgYellow).SprintFunc()
	return fmt.Sprintf("%s %s\n", yellow("note:"), d.String())
}

// FormatSummary renders every decline in sink, grouped by pass, so a
// dumper run reports everything that was skipped and why rather than
// silently producing a smaller optimized program.
func (r *Reporter) FormatSummary(sink *Sink) string {
	if sink == nil || len(sink.All()) == 0 {
		return color.New(color.FgGreen).Sprint("no optimizations declined\n")
	}
	var b strings.Builder
	byPass := map[string][]Decline{}
	order := []string{}
	for _, d := range sink.All() {
		if _, ok := byPass[d.Pass]; !ok {
			order = append(order, d.Pass)
		}
		byPass[d.Pass] = append(byPass[d.Pass], d)
	}
	for _, pass := range order {
		fmt.Fprintf(&b, "%s:\n", color.New(color.Bold).Sprint(pass))
		for _, d := range byPass[pass] {
			b.WriteString("  " + r.FormatDecline(d))
		}
	}
	return b.String()
}
