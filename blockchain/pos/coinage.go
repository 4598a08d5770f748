package pos

import "math"

// CoinAgeWeight returns the number of seconds of stake weight an
// interval [begin, end) contributes, following the concave-then-
// logarithmic curve the original kernel computes in double precision.
// Implementations elsewhere in the ecosystem have warned against
// "simplifying" this by switching to fixed point — the consensus
// result is the truncated double, not a rational approximation of it.
func CoinAgeWeight(begin, end int64, stakeMinAge, stakeMaxAge uint32) int64 {
	if begin <= 0 {
		return 0
	}

	s := end - begin - int64(stakeMinAge)
	if s < 0 {
		s = 0
	}
	d := float64(s) / 86400

	var w float64
	if d <= 7 {
		w = -0.00408163*d*d*d + 0.05714286*d*d + d
	} else {
		w = 8.4*math.Log(d) - 7.94564525
	}

	weight := int64(math.Trunc(w * 86400))
	if weight > int64(stakeMaxAge) {
		weight = int64(stakeMaxAge)
	}
	return weight
}
