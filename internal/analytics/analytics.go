// Package analytics derives dashboard figures from already-fetched donations
// and summaries. Every function is pure; nothing here touches the store.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/hongminglow/mosque-donations/internal/models"
)

// PurposeTotal is the sum of Friday donations for one purpose name.
type PurposeTotal struct {
	Name    string       `json:"name"`
	Total   models.Money `json:"total"`
	Percent float64      `json:"percent"`
}

// PeriodTotal is the sum of Friday donations for one YYYY-MM month.
type PeriodTotal struct {
	Period string       `json:"period"`
	Total  models.Money `json:"total"`
}

// Averages is the mean donation per kind and overall.
type Averages struct {
	Friday  models.Money `json:"friday"`
	Fitr    models.Money `json:"fitr"`
	Zakat   models.Money `json:"zakat"`
	Overall models.Money `json:"overall"`
}

// Report is everything the analytics dashboard renders.
type Report struct {
	Summary        models.Summary    `json:"summary"`
	Grand          models.Totals     `json:"grand"`
	Averages       Averages          `json:"averages"`
	Purposes       []PurposeTotal    `json:"purposes"`
	Monthly        []PeriodTotal     `json:"monthly"`
	MonthOverMonth float64           `json:"month_over_month"`
	Consistency    float64           `json:"consistency"`
	Recent         []models.Donation `json:"recent"`
}

// recentLimit caps Report.Recent.
const recentLimit = 5

// ByPurpose groups Friday donations by purpose display name. The result
// keeps first-occurrence order; callers that display it should SortByAmount.
func ByPurpose(donations []models.Donation) []PurposeTotal {
	index := make(map[string]int)
	var out []PurposeTotal
	for _, d := range donations {
		if d.Kind != models.KindFriday || d.Friday == nil {
			continue
		}
		name := d.Friday.PurposeName
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, PurposeTotal{Name: name})
		}
		out[i].Total += d.Amount
	}
	return out
}

// SortByAmount orders totals by amount descending, then by name.
func SortByAmount(totals []PurposeTotal) {
	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].Total != totals[j].Total {
			return totals[i].Total > totals[j].Total
		}
		return totals[i].Name < totals[j].Name
	})
}

// Average is total divided by count, rounded half-up; zero when count is zero.
func Average(t models.Totals) models.Money {
	if t.Count <= 0 {
		return 0
	}
	return models.Money((int64(t.Total)*2 + t.Count) / (t.Count * 2))
}

// Share is part as a percentage of total, rounded to one decimal; zero when
// total is zero.
func Share(part, total models.Money) float64 {
	if total <= 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

// Growth is the percentage change from previous to latest. A zero previous
// period yields zero.
func Growth(latest, previous models.Money) float64 {
	if previous == 0 {
		return 0
	}
	return round1(float64(latest-previous) / float64(previous) * 100)
}

// MonthlyTotals sums Friday donations per calendar month, oldest first.
func MonthlyTotals(donations []models.Donation) []PeriodTotal {
	sums := make(map[string]models.Money)
	for _, d := range donations {
		if d.Friday == nil {
			continue
		}
		sums[d.Friday.DonationDate.Format("2006-01")] += d.Amount
	}
	out := make([]PeriodTotal, 0, len(sums))
	for period, total := range sums {
		out = append(out, PeriodTotal{Period: period, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// Consistency scores how regularly Friday donations arrive: the percentage
// of gaps between consecutive donation dates that fall within 4 to 10 days.
// Fewer than two donations score zero.
func Consistency(donations []models.Donation) float64 {
	var dates []time.Time
	for _, d := range donations {
		if d.Friday != nil {
			dates = append(dates, d.Friday.DonationDate)
		}
	}
	if len(dates) < 2 {
		return 0
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	const day = 24 * time.Hour
	regular := 0
	for i := 1; i < len(dates); i++ {
		gap := dates[i].Sub(dates[i-1])
		if gap >= 4*day && gap <= 10*day {
			regular++
		}
	}
	return round1(float64(regular) / float64(len(dates)-1) * 100)
}

// Build assembles a Report. donations must be the user's Friday donations
// newest first; now selects the months compared for month-over-month growth.
func Build(summary models.Summary, donations []models.Donation, now time.Time) Report {
	grand := summary.Grand()

	purposes := ByPurpose(donations)
	SortByAmount(purposes)
	var purposeTotal models.Money
	for _, p := range purposes {
		purposeTotal += p.Total
	}
	for i := range purposes {
		purposes[i].Percent = Share(purposes[i].Total, purposeTotal)
	}

	monthly := MonthlyTotals(donations)
	current := now.Format("2006-01")
	previous := now.AddDate(0, 0, -now.Day()).Format("2006-01")
	var currentTotal, previousTotal models.Money
	for _, m := range monthly {
		switch m.Period {
		case current:
			currentTotal = m.Total
		case previous:
			previousTotal = m.Total
		}
	}

	recent := donations
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	if recent == nil {
		recent = []models.Donation{}
	}
	if purposes == nil {
		purposes = []PurposeTotal{}
	}

	return Report{
		Summary: summary,
		Grand:   grand,
		Averages: Averages{
			Friday:  Average(summary.Friday),
			Fitr:    Average(summary.Fitr),
			Zakat:   Average(summary.Zakat),
			Overall: Average(grand),
		},
		Purposes:       purposes,
		Monthly:        monthly,
		MonthOverMonth: Growth(currentTotal, previousTotal),
		Consistency:    Consistency(donations),
		Recent:         recent,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
