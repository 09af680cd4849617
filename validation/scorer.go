package validation

import (
	"github.com/admiralorbiter/VMS-sub007/models"
	"github.com/shopspring/decimal"
)

// Score aggregates one pass's findings into 0-100: the severity-weighted
// pass ratio times 100, two places, half-up. Pure function of the result
// set, so recomputing historical runs is always reproducible.
func Score(results []models.ValidationResult) decimal.Decimal {
	if len(results) == 0 {
		return decimal.NewFromInt(100)
	}
	var total, passed int64
	for _, r := range results {
		weight := r.Severity.Weight()
		total += weight
		if r.Passed {
			passed += weight
		}
	}
	return decimal.NewFromInt(passed).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(total), 2)
}

// TierBreakdown is the per-tier slice of a score, stored alongside it.
type TierBreakdown struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
}

func Breakdown(results []models.ValidationResult) map[models.ValidationTier]*TierBreakdown {
	out := make(map[models.ValidationTier]*TierBreakdown)
	for _, r := range results {
		b := out[r.Tier]
		if b == nil {
			b = &TierBreakdown{}
			out[r.Tier] = b
		}
		b.Total++
		if r.Passed {
			b.Passed++
		}
	}
	return out
}
