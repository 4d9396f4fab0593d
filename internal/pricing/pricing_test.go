package pricing

import (
	"testing"
	"time"
)

// Standard tables used across tests: 500 words -> 20, 1000 -> 40, ...,
// 20000 -> 800, with surcharge bands <=1 day +20, <=3 +10, <=7 +5.
func stdTables() Tables {
	words := make(map[int]float64)
	for w := 500; w <= 20000; w += 500 {
		words[w] = float64(w) / 500 * 20
	}
	return Tables{
		Words:     NewWordTiers(words),
		Deadlines: NewDeadlineTiers(map[int]float64{1: 20, 3: 10, 7: 5}),
	}
}

func TestNewWordTiers_SortsAndDropsInvalid(t *testing.T) {
	tiers := NewWordTiers(map[int]float64{1000: 40, 500: 20, 0: 99, -5: 1})
	if len(tiers) != 2 {
		t.Fatalf("expected 2 tiers, got %d", len(tiers))
	}
	if tiers[0].Threshold != 500 || tiers[1].Threshold != 1000 {
		t.Fatalf("tiers not sorted ascending: %+v", tiers)
	}
}

func TestNewDeadlineTiers_SortsAndDropsInvalid(t *testing.T) {
	tiers := NewDeadlineTiers(map[int]float64{7: 5, 1: 20, 3: 10, 0: 99})
	if len(tiers) != 3 {
		t.Fatalf("expected 3 bands, got %d", len(tiers))
	}
	if tiers[0].MaxDays != 1 || tiers[2].MaxDays != 7 {
		t.Fatalf("bands not sorted ascending: %+v", tiers)
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		deadline time.Time
		want     int
	}{
		{now.Add(10 * 24 * time.Hour), 10},
		{now.Add(36 * time.Hour), 1},  // a day and a half truncates to 1
		{now.Add(2 * time.Hour), 0},   // same day
		{now.Add(-30 * time.Hour), -1}, // already past
	}
	for _, c := range cases {
		if got := DaysUntil(now, c.deadline); got != c.want {
			t.Fatalf("DaysUntil(%v) = %d; want %d", c.deadline, got, c.want)
		}
	}
}

func TestPrice_TierLookupAndSurcharge(t *testing.T) {
	tb := stdTables()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		words    int
		deadline time.Time
		want     float64
	}{
		// 500 words due in 10 days: tier price, no surcharge.
		{"base tier no surcharge", 500, now.Add(10 * 24 * time.Hour), 20},
		// word count between tiers rounds up to the next tier.
		{"between tiers", 700, now.Add(10 * 24 * time.Hour), 40},
		// 1500 words due tomorrow: 60 + 20 urgent surcharge.
		{"urgent surcharge", 1500, now.Add(24 * time.Hour), 80},
		{"three day band", 1500, now.Add(3 * 24 * time.Hour), 70},
		{"seven day band", 1500, now.Add(6 * 24 * time.Hour), 65},
		{"past deadline hits most urgent band", 500, now.Add(-48 * time.Hour), 40},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Price(c.words, c.deadline, now, tb); got != c.want {
				t.Fatalf("Price(%d words) = %v; want %v", c.words, got, c.want)
			}
		})
	}
}

func TestPrice_ExtrapolatesAboveTopTier(t *testing.T) {
	tb := stdTables()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	far := now.Add(30 * 24 * time.Hour)

	// Top tier: 20000 words -> 800, i.e. 0.04 per word.
	if got := Price(25000, far, now, tb); got != 1000 {
		t.Fatalf("extrapolated price = %v; want 1000", got)
	}
	// Strictly increasing past the top tier.
	prev := Price(20000, far, now, tb)
	for _, w := range []int{20001, 21000, 30000, 100000} {
		got := Price(w, far, now, tb)
		if got <= prev {
			t.Fatalf("price not increasing: %d words -> %v (prev %v)", w, got, prev)
		}
		prev = got
	}
}

func TestPrice_MonotonicInWordCount(t *testing.T) {
	tb := stdTables()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	far := now.Add(30 * 24 * time.Hour)

	prev := 0.0
	for w := 100; w <= 25000; w += 250 {
		got := Price(w, far, now, tb)
		if got < prev {
			t.Fatalf("price decreased at %d words: %v < %v", w, got, prev)
		}
		prev = got
	}
}

func TestPrice_MonotonicInUrgency(t *testing.T) {
	tb := stdTables()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// Shorter deadlines never price lower for the same word count.
	prev := Price(1500, now.Add(30*24*time.Hour), now, tb)
	for _, days := range []int{8, 7, 5, 3, 2, 1, 0} {
		got := Price(1500, now.Add(time.Duration(days)*24*time.Hour), now, tb)
		if got < prev {
			t.Fatalf("price decreased as deadline tightened (%d days): %v < %v", days, got, prev)
		}
		prev = got
	}
}

func TestPrice_Deterministic(t *testing.T) {
	tb := stdTables()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(5 * 24 * time.Hour)

	first := Price(3210, deadline, now, tb)
	for i := 0; i < 100; i++ {
		if got := Price(3210, deadline, now, tb); got != first {
			t.Fatalf("price not deterministic: %v != %v", got, first)
		}
	}
}

func TestPrice_EmptyTables(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := Price(1500, now.Add(time.Hour), now, Tables{}); got != 0 {
		t.Fatalf("empty tables should price at 0, got %v", got)
	}
	// Surcharge still applies without a word table.
	tb := Tables{Deadlines: NewDeadlineTiers(map[int]float64{1: 20})}
	if got := Price(1500, now.Add(time.Hour), now, tb); got != 20 {
		t.Fatalf("surcharge-only price = %v; want 20", got)
	}
}

func TestPrice_RoundsToTwoDecimals(t *testing.T) {
	tb := Tables{Words: NewWordTiers(map[int]float64{300: 10})}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	far := now.Add(30 * 24 * time.Hour)

	// 10/300 per word * 1000 words = 33.333... -> 33.33
	if got := Price(1000, far, now, tb); got != 33.33 {
		t.Fatalf("rounding: got %v; want 33.33", got)
	}
}
