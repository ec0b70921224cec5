package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmcp-sl/supervise/gateway"
	"github.com/nmcp-sl/supervise/model"
)

func row(kv ...string) gateway.Row {
	r := gateway.Row{}
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i]] = kv[i+1]
	}
	return r
}

func TestFiltersApply(t *testing.T) {
	rows := []gateway.Row{
		row("region", "Northern", "district", "Bombali", "supervision_date", "2025-01-10"),
		row("region", "Northern", "district", "Koinadugu", "supervision_date", "2025-02-20"),
		row("region", "Southern", "district", "Bo", "supervision_date", "2025-03-05"),
	}

	assert.Len(t, Filters{}.Apply(rows), 3)
	assert.Len(t, Filters{Region: "Northern"}.Apply(rows), 2)
	assert.Len(t, Filters{Region: "Northern", District: "Bombali"}.Apply(rows), 1)

	// date bounds are inclusive
	got := Filters{StartDate: "2025-02-20", EndDate: "2025-03-05"}.Apply(rows)
	require.Len(t, got, 2)
	assert.Equal(t, "Koinadugu", got[0]["district"])
}

func TestSummarize(t *testing.T) {
	rows := []gateway.Row{
		row("supervision_date", "2025-02-20", "region", "Northern", "district", "Bombali",
			"readiness_quality", "Excellent", "clinical_quality", "Needs Improvement",
			"gap_1_description", "No RDTs in stock", "strength_1", "Trained staff"),
		row("supervision_date", "2025-01-10", "region", "Northern",
			"readiness_quality", "Acceptable",
			"gap_1_description", "No RDTs in stock", "weakness_1", "Stockouts"),
	}

	summary := Summarize(rows)
	assert.Equal(t, 2, summary.TotalRecords)
	assert.Equal(t, "2025-01-10", summary.DateRange.Earliest)
	assert.Equal(t, "2025-02-20", summary.DateRange.Latest)
	assert.Equal(t, 2, summary.Regions["Northern"])
	assert.Equal(t, 1, summary.Districts["Bombali"])
	assert.Equal(t, 1, summary.Quality.Readiness.Excellent)
	assert.Equal(t, 1, summary.Quality.Readiness.Acceptable)
	assert.Equal(t, 1, summary.Quality.Clinical.NeedsImprovement)
	require.NotEmpty(t, summary.CommonGaps)
	assert.Equal(t, Counted{"No RDTs in stock", 2}, summary.CommonGaps[0])
}

func TestBuildPrompt(t *testing.T) {
	summary := Summarize([]gateway.Row{row("region", "Northern")})

	prompt, err := BuildPrompt("regional", summary)
	require.NoError(t, err)
	assert.Contains(t, prompt, "public health expert")
	assert.Contains(t, prompt, "Regional Overview")
	assert.Contains(t, prompt, `"Northern": 1`)

	// unknown types fall back to the summary report
	prompt, err = BuildPrompt("bogus", summary)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Executive Summary")
}

func TestCalculateStats(t *testing.T) {
	rows := []gateway.Row{
		row("facility_name", "Makeni CHC", "region", "Northern", "district", "Bombali",
			"supervision_date", "2025-01-10", "readiness_quality", "Excellent"),
		row("facility_name", "Makeni CHC", "region", "Northern", "district", "Bombali",
			"supervision_date", "2025-02-12", "readiness_quality", "Needs Improvement"),
		row("facility_name", "Bo Gov Hosp", "supervision_date", "2025-02-28",
			"readiness_quality", "Acceptable"),
	}

	stats := CalculateStats(rows)
	assert.Equal(t, 3, stats.TotalSupervisions)
	assert.Equal(t, 2, stats.FacilitiesVisited)
	assert.Equal(t, 2, stats.ByRegion["Northern"])
	assert.Equal(t, 1, stats.ByRegion["Unknown"])
	assert.Equal(t, 2, stats.ByMonth["2025-02"])
	assert.Equal(t, 1, stats.QualityBreakdown.Excellent)
	assert.Equal(t, 1, stats.QualityBreakdown.Acceptable)
	assert.Equal(t, 1, stats.QualityBreakdown.NeedsImprovement)
}

type fakeSource struct {
	configured bool
	rows       []gateway.Row
	err        error
}

func (s fakeSource) Configured() bool { return s.configured }
func (s fakeSource) FetchRows(context.Context) ([]gateway.Row, error) {
	return s.rows, s.err
}

type fakeCompleter struct {
	lastPrompt string
}

func (c *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.lastPrompt = prompt
	return "GENERATED REPORT", nil
}

func emptyArchive(context.Context) ([]model.Submission, error) {
	return nil, nil
}

func TestGenerate(t *testing.T) {
	src := fakeSource{configured: true, rows: []gateway.Row{
		row("region", "Northern", "supervision_date", "2025-01-10"),
		row("region", "Southern", "supervision_date", "2025-02-10"),
	}}
	llm := &fakeCompleter{}
	svc := NewService(src, llm, emptyArchive)

	text, err := svc.Generate(context.Background(), "summary", Filters{Region: "Northern"})
	require.NoError(t, err)
	assert.Equal(t, "GENERATED REPORT", text)
	assert.Contains(t, llm.lastPrompt, `"totalRecords": 1`)
}

func TestGenerateNoData(t *testing.T) {
	svc := NewService(fakeSource{configured: true}, &fakeCompleter{}, emptyArchive)

	_, err := svc.Generate(context.Background(), "summary", Filters{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRowsFallsBackToLocalArchive(t *testing.T) {
	archive := func(context.Context) ([]model.Submission, error) {
		return []model.Submission{{
			Timestamp:   "2025-01-10T09:00:00Z",
			SubmittedBy: "jkamara",
			Fields:      model.Fields{"region": "Northern"},
		}}, nil
	}

	for _, src := range []fakeSource{
		{configured: false},
		{configured: true, err: errors.New("unreachable")},
	} {
		svc := NewService(src, &fakeCompleter{}, archive)

		rows, err := svc.Rows(context.Background())
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Northern", rows[0]["region"])
		assert.Equal(t, "jkamara", rows[0]["submitted_by"])
	}
}

func TestPromptBodiesAllHaveDataSlot(t *testing.T) {
	for name, body := range promptBodies {
		assert.True(t, strings.Contains(body, "%s"), name)
	}
}
