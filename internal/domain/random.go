package domain

import "math/rand/v2"

// RandomSource supplies the randomness behind synthetic weather readings.
type RandomSource interface {
	// Uniform returns a value in [lo, hi].
	Uniform(lo, hi float64) float64

	// Choice returns an index in [0, n).
	Choice(n int) int
}

// NewRandomSource returns a PCG-backed RandomSource. A zero seed draws a fresh
// seed from the runtime; any other seed makes the sequence reproducible.
func NewRandomSource(seed uint64) RandomSource {
	if seed == 0 {
		return &pcgSource{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
	}
	return &pcgSource{r: rand.New(rand.NewPCG(seed, seed))}
}

type pcgSource struct {
	r *rand.Rand
}

func (s *pcgSource) Uniform(lo, hi float64) float64 {
	return lo + s.r.Float64()*(hi-lo)
}

func (s *pcgSource) Choice(n int) int {
	return s.r.IntN(n)
}
