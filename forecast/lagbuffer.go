package forecast

import "fte-forecaster/models"

// lagBuffer is a fixed ring holding the most recent NumLags volumes.
type lagBuffer struct {
	values [models.NumLags]float64
	next   int
}

// newLagBuffer seeds the ring with the last NumLags values of seed, which
// must hold at least that many.
func newLagBuffer(seed []float64) *lagBuffer {
	b := &lagBuffer{}
	for _, v := range seed[len(seed)-models.NumLags:] {
		b.push(v)
	}
	return b
}

func (b *lagBuffer) push(v float64) {
	b.values[b.next] = v
	b.next = (b.next + 1) % models.NumLags
}

// lags returns the buffer newest-first, so index 0 is lag_1.
func (b *lagBuffer) lags() [models.NumLags]float64 {
	var out [models.NumLags]float64
	for k := 0; k < models.NumLags; k++ {
		out[k] = b.values[(b.next-1-k+2*models.NumLags)%models.NumLags]
	}
	return out
}
