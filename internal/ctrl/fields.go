package ctrl

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/margaretmurakami/ecco-2024/internal/mds"
)

// ReadPerturbation loads an xx_* control adjustment field (MDS format) as
// the optimizer wrote it back onto the model grid.
func ReadPerturbation(basePath string) (*mds.Field, error) {
	f, err := mds.ReadField(basePath)
	if err != nil {
		return nil, fmt.Errorf("read perturbation: %w", err)
	}
	return f, nil
}

// Delta returns the elementwise difference b - a between two perturbation
// fields of the same shape: how much the optimizer moved a control
// between two cycles.
func Delta(a, b *mds.Field) ([]float64, error) {
	if len(a.Data) != len(b.Data) {
		return nil, fmt.Errorf("field sizes differ: %d vs %d", len(a.Data), len(b.Data))
	}
	out := make([]float64, len(a.Data))
	for i := range out {
		out[i] = b.Data[i] - a.Data[i]
	}
	return out, nil
}

// Stats summarises a slice of control values. NaNs (masked cells) are
// excluded.
type Stats struct {
	N    int
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	RMS  float64
}

// Summarise computes Stats over vals.
func Summarise(vals []float64) Stats {
	clean := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	s := Stats{N: len(clean)}
	if s.N == 0 {
		s.Min, s.Max, s.Mean, s.Std, s.RMS = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}

	s.Min, s.Max = clean[0], clean[0]
	sumsq := 0.0
	for _, v := range clean {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		sumsq += v * v
	}
	s.Mean = stat.Mean(clean, nil)
	s.Std = stat.StdDev(clean, nil)
	if s.N == 1 {
		s.Std = 0
	}
	s.RMS = math.Sqrt(sumsq / float64(s.N))
	return s
}
