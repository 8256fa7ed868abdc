package tours

import (
	"math"
	"sort"

	"tourtab/structs"
)

// RecentExpensesLimit caps the preview list on the dashboard.
const RecentExpensesLimit = 5

type TourSummary struct {
	ID           string            `json:"id"`
	TourName     string            `json:"tourName"`
	Destination  string            `json:"destination"`
	NumberOfDays int               `json:"numberOfDays"`
	Currency     string            `json:"currency"`
	CoverPhoto   *structs.PhotoRef `json:"coverPhoto,omitempty"`
}

type Dashboard struct {
	Tour              TourSummary        `json:"tour"`
	TotalBudget       float64            `json:"totalBudget"`
	TotalExpenses     float64            `json:"totalExpenses"`
	RemainingBudget   float64            `json:"remainingBudget"`
	DailyAvgSpent     float64            `json:"dailyAvgSpent"`
	PercentUsed       int                `json:"percentUsed"`
	CategoryBreakdown map[string]float64 `json:"categoryBreakdown"`
	Expenses          []structs.Expense  `json:"expenses"`
}

// BuildDashboard derives every dashboard figure from the tour and its
// expenses. Nothing here is cached; it runs on every read.
func BuildDashboard(tour *structs.Tour, expenses []structs.Expense) Dashboard {
	var total float64
	breakdown := map[string]float64{}
	for _, e := range expenses {
		total += e.Amount
		breakdown[e.Category] += e.Amount
	}

	dailyAvg := 0.0
	if tour.NumberOfDays > 0 {
		dailyAvg = total / float64(tour.NumberOfDays)
	}

	// Remaining budget may go negative; over-budget is a valid state.
	if expenses == nil {
		expenses = []structs.Expense{}
	}
	return Dashboard{
		Tour: TourSummary{
			ID:           tour.TourID,
			TourName:     tour.TourName,
			Destination:  tour.Destination,
			NumberOfDays: tour.NumberOfDays,
			Currency:     tour.Currency,
			CoverPhoto:   tour.CoverPhoto,
		},
		TotalBudget:       tour.TotalBudget,
		TotalExpenses:     total,
		RemainingBudget:   tour.TotalBudget - total,
		DailyAvgSpent:     dailyAvg,
		PercentUsed:       percentUsed(total, tour.TotalBudget),
		CategoryBreakdown: breakdown,
		Expenses:          expenses,
	}
}

func percentUsed(total, budget float64) int {
	if budget <= 0 {
		return 0
	}
	pct := int(math.Round(100 * total / budget))
	if pct > 100 {
		return 100
	}
	return pct
}

// RecentExpenses returns up to n expenses, newest first.
func RecentExpenses(expenses []structs.Expense, n int) []structs.Expense {
	sorted := make([]structs.Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
