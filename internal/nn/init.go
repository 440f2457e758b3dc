package nn

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/VeryJokerJal/TransformerLib/internal/tensor"
)

// NewRand returns a deterministic random source for weight initialization.
//
// Every constructor in this package takes the generator explicitly; two
// models built from generators with the same seed have identical weights.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Xavier (Glorot) initialization for a fanIn x fanOut weight matrix.
//
// Values are drawn from U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
func Xavier(fanIn, fanOut int, rng *rand.Rand) *tensor.Matrix {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	m := tensor.NewMatrix(fanIn, fanOut)
	for i := range m.Data {
		m.Data[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}
	return m
}

// Normal creates a rows x cols matrix with values drawn from N(0, std²).
func Normal(rows, cols int, std float64, rng *rand.Rand) *tensor.Matrix {
	m := tensor.NewMatrix(rows, cols)
	for i := range m.Data {
		m.Data[i] = float32(rng.NormFloat64() * std)
	}
	return m
}

// Ones creates a rows x cols matrix filled with ones.
func Ones(rows, cols int) *tensor.Matrix {
	m := tensor.NewMatrix(rows, cols)
	for i := range m.Data {
		m.Data[i] = 1
	}
	return m
}

// Zeros creates a zero-filled rows x cols matrix.
func Zeros(rows, cols int) *tensor.Matrix {
	return tensor.NewMatrix(rows, cols)
}
