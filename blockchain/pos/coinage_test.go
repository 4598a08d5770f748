package pos

import "testing"

func TestCoinAgeWeightZeroBegin(t *testing.T) {
	if w := CoinAgeWeight(0, 1000, 60, 600); w != 0 {
		t.Fatalf("expected 0 weight for begin<=0, got %d", w)
	}
	if w := CoinAgeWeight(-5, 1000, 60, 600); w != 0 {
		t.Fatalf("expected 0 weight for negative begin, got %d", w)
	}
}

func TestCoinAgeWeightShorterThanMinAgeIsZero(t *testing.T) {
	begin := int64(1000)
	end := begin + 30 // shorter than stakeMinAge
	if w := CoinAgeWeight(begin, end, 60, 600); w != 0 {
		t.Fatalf("expected 0 weight for interval shorter than stake_min_age, got %d", w)
	}
}

func TestCoinAgeWeightMonotonicAndCapped(t *testing.T) {
	const stakeMinAge = 60
	const stakeMaxAge = 1000
	begin := int64(1000)

	prev := int64(0)
	for _, d := range []int64{60, 3600, 86400, 7 * 86400, 30 * 86400, 365 * 86400} {
		end := begin + stakeMinAge + d
		w := CoinAgeWeight(begin, end, stakeMinAge, stakeMaxAge)
		if w < prev {
			t.Fatalf("coin age weight decreased: %d -> %d at delta %d", prev, w, d)
		}
		if w > stakeMaxAge {
			t.Fatalf("coin age weight %d exceeds stake_max_age %d", w, stakeMaxAge)
		}
		prev = w
	}
}
