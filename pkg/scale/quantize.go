package scale

// Quantize divides a continuous extent into N equal-width buckets.
type Quantize struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	N   int     `json:"n"`
}

// NewQuantize returns a quantize scale over [lo, hi] with n buckets.
// The bounds are swapped if given in descending order; n below 1 becomes 1.
func NewQuantize(lo, hi float64, n int) Quantize {
	if lo > hi {
		lo, hi = hi, lo
	}
	return Quantize{Min: lo, Max: hi, N: max(n, 1)}
}

// Bucket returns the bucket index of v, clamped to [0, N-1]. A zero-width
// extent puts every value in bucket 0.
func (q Quantize) Bucket(v float64) int {
	if q.Max == q.Min {
		return 0
	}
	i := int(float64(q.N) * (v - q.Min) / (q.Max - q.Min))
	return min(max(i, 0), q.N-1)
}

// Threshold returns the lower bound of bucket i.
func (q Quantize) Threshold(i int) float64 {
	return q.Min + float64(i)*(q.Max-q.Min)/float64(q.N)
}
