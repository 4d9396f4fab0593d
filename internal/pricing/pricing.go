// Package pricing implements the quote calculation for orders: a word-count
// tier table plus flat deadline surcharge bands. The calculation is pure --
// given the same inputs and tables it always yields the same price, so
// services snapshot its output on the order row rather than re-deriving it.
package pricing

import (
	"sort"
	"time"

	"github.com/tbourn/go-homework-backend/internal/utils"
)

// WordTier maps a word-count threshold to a full price. The tier with the
// smallest threshold greater than or equal to the requested word count wins.
type WordTier struct {
	Threshold int
	Price     float64
}

// DeadlineTier maps an urgency band (whole days until the deadline) to a
// flat surcharge. Bands are matched in ascending MaxDays order; the first
// band whose MaxDays is >= the remaining days applies. Beyond the last band
// no surcharge applies.
type DeadlineTier struct {
	MaxDays   int
	Surcharge float64
}

// Tables bundles the two tier tables a quote needs. Words may come from the
// global configuration or from a per-agent override; Deadlines always come
// from the global configuration.
type Tables struct {
	Words     []WordTier
	Deadlines []DeadlineTier
}

// NewWordTiers converts a threshold->price map (the persisted configuration
// shape) into an ordered tier slice. Non-positive thresholds are dropped.
func NewWordTiers(m map[int]float64) []WordTier {
	out := make([]WordTier, 0, len(m))
	for threshold, price := range m {
		if threshold <= 0 {
			continue
		}
		out = append(out, WordTier{Threshold: threshold, Price: price})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out
}

// NewDeadlineTiers converts a max-days->surcharge map into an ordered band
// slice. Non-positive day bounds are dropped.
func NewDeadlineTiers(m map[int]float64) []DeadlineTier {
	out := make([]DeadlineTier, 0, len(m))
	for days, surcharge := range m {
		if days <= 0 {
			continue
		}
		out = append(out, DeadlineTier{MaxDays: days, Surcharge: surcharge})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaxDays < out[j].MaxDays })
	return out
}

// DaysUntil returns the number of whole days from now until deadline,
// truncated toward zero. A deadline in the past yields a negative count,
// which lands in the most urgent surcharge band.
func DaysUntil(now, deadline time.Time) int {
	return int(deadline.Sub(now).Hours() / 24)
}

// Price computes the quote for an order: base price from the word tiers
// plus a flat surcharge from the deadline bands, rounded to two decimals.
//
// Word counts above the largest tier extrapolate linearly at the top tier's
// implied per-word rate, so the price keeps growing with the word count.
// An empty word table prices at zero plus any surcharge.
func Price(wordCount int, deadline, now time.Time, t Tables) float64 {
	base := basePrice(wordCount, t.Words)
	return utils.Round2(base + surcharge(DaysUntil(now, deadline), t.Deadlines))
}

func basePrice(wordCount int, tiers []WordTier) float64 {
	if len(tiers) == 0 || wordCount <= 0 {
		return 0
	}
	for _, tier := range tiers {
		if wordCount <= tier.Threshold {
			return tier.Price
		}
	}
	top := tiers[len(tiers)-1]
	return top.Price / float64(top.Threshold) * float64(wordCount)
}

func surcharge(days int, tiers []DeadlineTier) float64 {
	for _, tier := range tiers {
		if days <= tier.MaxDays {
			return tier.Surcharge
		}
	}
	return 0
}
