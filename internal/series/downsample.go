package series

import (
	"math"

	"finance-dashboard/models"
)

// Downsample reduces s to at most limit points with fixed-stride nearest-index
// sampling. The first and last points are always kept. A limit of zero or less
// means no sampling and returns s unchanged, as does a series already within limit.
func Downsample(s models.Series, limit int) models.Series {
	n := len(s)
	if limit <= 0 || n <= limit {
		return s
	}

	out := make(models.Series, 0, limit)
	out = append(out, s[0])

	if limit < 3 {
		if limit > 1 && n > 1 {
			out = append(out, s[n-1])
		}
		return out
	}

	intermediate := limit - 2
	step := float64(n-1) / float64(intermediate+1)
	for i := 1; i <= intermediate; i++ {
		idx := roundHalfUp(step * float64(i))
		if idx > 0 && idx < n-1 {
			out = append(out, s[idx])
		}
	}

	if n > 1 {
		out = append(out, s[n-1])
	}
	return out
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
