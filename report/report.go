// Package report turns stored supervision rows into dashboard statistics and
// AI-generated narrative reports. The completion call is treated as an
// opaque string-in/string-out exchange: no retry, no backoff.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nmcp-sl/supervise/gateway"
	"github.com/nmcp-sl/supervise/model"
)

// Source reads supervision rows back from the remote store.
type Source interface {
	Configured() bool
	FetchRows(ctx context.Context) ([]gateway.Row, error)
}

// Completer generates the narrative text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LocalArchive is the fallback row source when the gateway is unreachable
// or unconfigured.
type LocalArchive func(ctx context.Context) ([]model.Submission, error)

type Service struct {
	source  Source
	llm     Completer
	archive LocalArchive
}

func NewService(source Source, llm Completer, archive LocalArchive) *Service {
	return &Service{source: source, llm: llm, archive: archive}
}

// Filters narrows the rows a report is built from. Date bounds are
// inclusive and compare as ISO dates (string order).
type Filters struct {
	Region    string `json:"region"`
	District  string `json:"district"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (f Filters) Apply(rows []gateway.Row) []gateway.Row {
	filtered := make([]gateway.Row, 0, len(rows))
	for _, row := range rows {
		if f.Region != "" && row["region"] != f.Region {
			continue
		}
		if f.District != "" && row["district"] != f.District {
			continue
		}
		if f.StartDate != "" && row["supervision_date"] < f.StartDate {
			continue
		}
		if f.EndDate != "" && row["supervision_date"] > f.EndDate {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

var ErrNoData = errors.New("no supervision data available")

// Rows fetches from the remote store when possible and falls back to the
// local archive, reshaped into the same lower_underscore row form.
func (s *Service) Rows(ctx context.Context) ([]gateway.Row, error) {
	if s.source.Configured() {
		rows, err := s.source.FetchRows(ctx)
		if err == nil {
			return rows, nil
		}
	}

	local, err := s.archive(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]gateway.Row, len(local))
	for i, rec := range local {
		row := gateway.Row{
			"timestamp":    rec.Timestamp,
			"submitted_by": rec.SubmittedBy,
		}
		for name, value := range rec.Fields {
			row[name] = value
		}
		rows[i] = row
	}
	return rows, nil
}

// Generate builds and runs one narrative report.
func (s *Service) Generate(ctx context.Context, reportType string, filters Filters) (string, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return "", err
	}

	rows = filters.Apply(rows)
	if len(rows) == 0 {
		return "", ErrNoData
	}

	prompt, err := BuildPrompt(reportType, Summarize(rows))
	if err != nil {
		return "", err
	}
	return s.llm.Complete(ctx, prompt)
}

// Stats serves the dashboard rollup.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.Rows(ctx)
	if err != nil {
		return Stats{}, err
	}
	return CalculateStats(rows), nil
}

// Summary is the condensed view of the filtered rows embedded in prompts,
// bounded so large datasets do not blow up the token budget.
type Summary struct {
	TotalRecords int            `json:"totalRecords"`
	DateRange    DateRange      `json:"dateRange"`
	Regions      map[string]int `json:"regions"`
	Districts    map[string]int `json:"districts"`
	Quality      QualitySummary `json:"qualityAssessments"`
	CommonGaps   []Counted      `json:"commonGaps"`
	Strengths    []Counted      `json:"strengths"`
	Weaknesses   []Counted      `json:"weaknesses"`
}

type DateRange struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
}

type QualitySummary struct {
	Readiness   QualityBreakdown `json:"readiness"`
	Clinical    QualityBreakdown `json:"clinical"`
	DataQuality QualityBreakdown `json:"dataQuality"`
}

type Counted struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

func Summarize(rows []gateway.Row) Summary {
	summary := Summary{
		TotalRecords: len(rows),
		Regions:      map[string]int{},
		Districts:    map[string]int{},
	}

	gaps := map[string]int{}
	strengths := map[string]int{}
	weaknesses := map[string]int{}

	for _, row := range rows {
		if date := row["supervision_date"]; date != "" {
			if summary.DateRange.Earliest == "" || date < summary.DateRange.Earliest {
				summary.DateRange.Earliest = date
			}
			if date > summary.DateRange.Latest {
				summary.DateRange.Latest = date
			}
		}

		if region := row["region"]; region != "" {
			summary.Regions[region]++
		}
		if district := row["district"]; district != "" {
			summary.Districts[district]++
		}

		summary.Quality.Readiness.count(row["readiness_quality"])
		summary.Quality.Clinical.count(row["clinical_quality"])
		summary.Quality.DataQuality.count(row["data_quality"])

		for i := 1; i <= 3; i++ {
			if gap := row[fmt.Sprintf("gap_%d_description", i)]; gap != "" {
				gaps[gap]++
			}
			if s := row[fmt.Sprintf("strength_%d", i)]; s != "" {
				strengths[s]++
			}
			if w := row[fmt.Sprintf("weakness_%d", i)]; w != "" {
				weaknesses[w]++
			}
		}
	}

	summary.CommonGaps = topCounted(gaps, 10)
	summary.Strengths = topCounted(strengths, 5)
	summary.Weaknesses = topCounted(weaknesses, 5)
	return summary
}

func topCounted(counts map[string]int, limit int) []Counted {
	out := make([]Counted, 0, len(counts))
	for text, count := range counts {
		out = append(out, Counted{text, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Text < out[j].Text
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

const promptPreamble = "You are a public health expert analyzing malaria supervision data from Sierra Leone.\n\n"

var promptBodies = map[string]string{
	"summary": `Based on the following supervision data summary, generate a comprehensive summary report:

DATA SUMMARY:
%s

Please provide:
1. Executive Summary (2-3 paragraphs)
2. Key Findings
3. Health Facility Readiness Assessment
4. Clinical Competency Overview
5. Data Quality Assessment
6. Recommendations for Improvement
7. Priority Actions

Format the report professionally with clear headers and bullet points where appropriate.`,

	"regional": `Generate a regional analysis report based on this data:

DATA SUMMARY:
%s

Please provide:
1. Regional Overview
2. Performance Comparison by Region
3. Top Performing Districts
4. Districts Needing Attention
5. Regional Recommendations
6. Resource Allocation Suggestions`,

	"facility": `Generate a facility-level analysis report based on this data:

DATA SUMMARY:
%s

Please provide:
1. Facility Performance Overview
2. Facilities with Excellent Ratings (highlight best practices)
3. Facilities Needing Improvement (specific action items)
4. Common Gaps Across Facilities
5. Training Recommendations
6. Follow-up Priorities`,

	"trends": `Generate a trends analysis report based on this data:

DATA SUMMARY:
%s

Please provide:
1. Overall Trends Summary
2. Quality Improvement Trends
3. Areas of Consistent Concern
4. Seasonal Patterns (if applicable)
5. Year-over-Year Comparison (if applicable)
6. Predictive Insights
7. Strategic Recommendations`,

	"gaps": `Generate a gap analysis report based on this data:

DATA SUMMARY:
%s

Please provide:
1. Critical Gaps Summary
2. Systemic Issues Identified
3. Training Gaps
4. Supply Chain Issues
5. Data Quality Gaps
6. Infrastructure Challenges
7. Prioritized Action Plan
8. Resource Requirements`,
}

// BuildPrompt renders the prompt for a report type. Unknown types fall back
// to the summary report.
func BuildPrompt(reportType string, summary Summary) (string, error) {
	body, ok := promptBodies[strings.ToLower(reportType)]
	if !ok {
		body = promptBodies["summary"]
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", err
	}
	return promptPreamble + fmt.Sprintf(body, data), nil
}
