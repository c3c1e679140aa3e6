package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/mosque-donations/internal/models"
)

func fridayOn(id int64, amount models.Money, purpose string, date string) models.Donation {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return models.Donation{
		ID:     id,
		Kind:   models.KindFriday,
		Amount: amount,
		Friday: &models.FridayDetails{PurposeName: purpose, DonationDate: d},
	}
}

func TestByPurposeSumsSamePurpose(t *testing.T) {
	got := ByPurpose([]models.Donation{
		fridayOn(1, 3000, "Education", "2025-03-07"),
		fridayOn(2, 7000, "Education", "2025-02-28"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "Education", got[0].Name)
	assert.Equal(t, models.Money(10000), got[0].Total)
}

func TestByPurposeFirstOccurrenceOrderAndSort(t *testing.T) {
	got := ByPurpose([]models.Donation{
		fridayOn(1, 100, "General", "2025-03-07"),
		fridayOn(2, 900, "Education", "2025-03-01"),
		fridayOn(3, 50, "General", "2025-02-21"),
		{ID: 4, Kind: models.KindZakat, Amount: 10000, Annual: &models.AnnualDetails{Year: 2025}},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "General", got[0].Name)

	SortByAmount(got)
	assert.Equal(t, "Education", got[0].Name)
	assert.Equal(t, models.Money(150), got[1].Total)
}

func TestAverageShareGrowth(t *testing.T) {
	assert.Equal(t, models.Money(0), Average(models.Totals{}))
	assert.Equal(t, models.Money(3333), Average(models.Totals{Total: 10000, Count: 3}))
	assert.Equal(t, models.Money(3), Average(models.Totals{Total: 5, Count: 2}))

	assert.Equal(t, 0.0, Share(10, 0))
	assert.Equal(t, 33.3, Share(1, 3))

	assert.Equal(t, 0.0, Growth(500, 0))
	assert.Equal(t, 50.0, Growth(150, 100))
	assert.Equal(t, -25.0, Growth(75, 100))
}

func TestConsistency(t *testing.T) {
	assert.Equal(t, 0.0, Consistency(nil))
	assert.Equal(t, 0.0, Consistency([]models.Donation{fridayOn(1, 1, "x", "2025-03-07")}))

	weekly := []models.Donation{
		fridayOn(1, 1, "x", "2025-03-21"),
		fridayOn(2, 1, "x", "2025-03-14"),
		fridayOn(3, 1, "x", "2025-03-07"),
	}
	assert.Equal(t, 100.0, Consistency(weekly))

	irregular := append(weekly, fridayOn(4, 1, "x", "2025-01-03"))
	assert.Equal(t, 66.7, Consistency(irregular))
}

func TestMonthlyTotals(t *testing.T) {
	got := MonthlyTotals([]models.Donation{
		fridayOn(1, 100, "x", "2025-03-07"),
		fridayOn(2, 200, "x", "2025-02-28"),
		fridayOn(3, 300, "x", "2025-03-14"),
	})
	assert.Equal(t, []PeriodTotal{{"2025-02", 200}, {"2025-03", 400}}, got)
}

func TestBuild(t *testing.T) {
	summary := models.Summary{
		Friday: models.Totals{Total: 400, Count: 3},
		Fitr:   models.Totals{Total: 50, Count: 1},
	}
	donations := []models.Donation{
		fridayOn(3, 300, "Education", "2025-03-14"),
		fridayOn(1, 100, "General", "2025-03-07"),
		fridayOn(2, 200, "General", "2025-02-28"),
	}
	report := Build(summary, donations, time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, models.Totals{Total: 450, Count: 4}, report.Grand)
	assert.Equal(t, models.Money(133), report.Averages.Friday)
	assert.Equal(t, models.Money(113), report.Averages.Overall)
	require.Len(t, report.Purposes, 2)
	assert.Equal(t, PurposeTotal{Name: "Education", Total: 300, Percent: 50}, report.Purposes[0])
	assert.Equal(t, PurposeTotal{Name: "General", Total: 300, Percent: 50}, report.Purposes[1])
	assert.Equal(t, 100.0, report.MonthOverMonth)
	assert.Len(t, report.Recent, 3)
}

func TestBuildEmpty(t *testing.T) {
	report := Build(models.Summary{}, nil, time.Now())
	assert.NotNil(t, report.Purposes)
	assert.NotNil(t, report.Recent)
	assert.Zero(t, report.MonthOverMonth)
}
