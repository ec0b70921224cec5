package report

import (
	"strings"

	"github.com/nmcp-sl/supervise/gateway"
)

// Stats is the dashboard rollup over supervision rows.
type Stats struct {
	TotalSupervisions int              `json:"totalSupervisions"`
	FacilitiesVisited int              `json:"facilitiesVisited"`
	ByRegion          map[string]int   `json:"byRegion"`
	ByDistrict        map[string]int   `json:"byDistrict"`
	ByMonth           map[string]int   `json:"byMonth"`
	QualityBreakdown  QualityBreakdown `json:"qualityBreakdown"`
}

type QualityBreakdown struct {
	Excellent        int `json:"excellent"`
	Acceptable       int `json:"acceptable"`
	NeedsImprovement int `json:"needsImprovement"`
}

func (q *QualityBreakdown) count(value string) {
	lower := strings.ToLower(value)
	switch {
	case strings.Contains(lower, "excellent"):
		q.Excellent++
	case strings.Contains(lower, "acceptable"):
		q.Acceptable++
	case strings.Contains(lower, "needs"), strings.Contains(lower, "improvement"):
		q.NeedsImprovement++
	}
}

// CalculateStats rolls supervision rows up into dashboard counters.
func CalculateStats(rows []gateway.Row) Stats {
	stats := Stats{
		ByRegion:   map[string]int{},
		ByDistrict: map[string]int{},
		ByMonth:    map[string]int{},
	}
	if len(rows) == 0 {
		return stats
	}

	stats.TotalSupervisions = len(rows)

	facilities := map[string]bool{}
	for _, row := range rows {
		if facility := row["facility_name"]; facility != "" {
			facilities[facility] = true
		}

		region := row["region"]
		if region == "" {
			region = "Unknown"
		}
		stats.ByRegion[region]++

		district := row["district"]
		if district == "" {
			district = "Unknown"
		}
		stats.ByDistrict[district]++

		if date := row["supervision_date"]; len(date) >= 7 {
			stats.ByMonth[date[:7]]++ // YYYY-MM
		}

		stats.QualityBreakdown.count(row["readiness_quality"])
	}
	stats.FacilitiesVisited = len(facilities)

	return stats
}
