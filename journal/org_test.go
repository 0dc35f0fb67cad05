package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRunOrg(t *testing.T) {
	t.Parallel()

	run := RunRecord{
		RunID:      "01HXYZABCDEF",
		Created:    time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC),
		Scenario:   "retire",
		Portfolios: []string{"rent", "buy"},
		Trials:     500,
		Seed:       7,
		YearLength: 365,
	}
	summaries := []SummaryRecord{
		{Portfolio: "rent", Trials: 500, Mean: 1234.5, P5: 100, P50: 1200, P95: 2000.126},
	}

	result := FormatRunOrg(run, summaries)

	assert.Contains(t, result, "** Run: retire (01HXYZAB)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":RUN_ID: 01HXYZABCDEF")
	assert.Contains(t, result, ":CREATED: 2024-03-15T10:30:45Z")
	assert.Contains(t, result, ":PORTFOLIOS: rent buy")
	assert.Contains(t, result, ":TRIALS: 500")
	assert.Contains(t, result, ":SEED: 7")
	assert.Contains(t, result, ":YEAR_LENGTH: 365")
	assert.Contains(t, result, ":END:")
	assert.Contains(t, result, "*** rent")
	assert.Contains(t, result, "- mean: 1234.50")
	assert.Contains(t, result, "- p95: 2000.13")
	assert.Contains(t, result, "*** Review")
}

func TestFormatRunOrgShortID(t *testing.T) {
	t.Parallel()

	result := FormatRunOrg(RunRecord{RunID: "short", Scenario: "s"}, nil)
	assert.Contains(t, result, "** Run: s (short)")
}
