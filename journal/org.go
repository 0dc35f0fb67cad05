package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatRunOrg renders a run and its per-portfolio summaries as an org-mode entry.
func FormatRunOrg(r RunRecord, summaries []SummaryRecord) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("** Run: %s (%s)\n", r.Scenario, shortID(r.RunID)))
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", r.RunID))
	b.WriteString(fmt.Sprintf(":ID: %s\n", r.RunID))
	b.WriteString(fmt.Sprintf(":CREATED: %s\n", r.Created.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":PORTFOLIOS: %s\n", strings.Join(r.Portfolios, " ")))
	b.WriteString(fmt.Sprintf(":TRIALS: %d\n", r.Trials))
	b.WriteString(fmt.Sprintf(":SEED: %d\n", r.Seed))
	b.WriteString(fmt.Sprintf(":YEAR_LENGTH: %g\n", r.YearLength))
	b.WriteString(":END:\n")

	for _, s := range summaries {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("*** %s\n", s.Portfolio))
		b.WriteString(fmt.Sprintf("- trials: %d\n", s.Trials))
		b.WriteString(fmt.Sprintf("- mean: %.2f\n", s.Mean))
		b.WriteString(fmt.Sprintf("- p5: %.2f\n", s.P5))
		b.WriteString(fmt.Sprintf("- p50: %.2f\n", s.P50))
		b.WriteString(fmt.Sprintf("- p95: %.2f\n", s.P95))
	}

	b.WriteString("\n*** Review\n- \n")
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
