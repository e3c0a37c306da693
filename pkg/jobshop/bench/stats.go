package bench

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type IntStats struct {
	N    int
	Best int
	Mean float64
	Std  float64
}

func CalcIntStats(values []int) IntStats {
	fs := make([]float64, len(values))
	for i, v := range values {
		fs[i] = float64(v)
	}
	f := CalcFloatStats(fs)
	return IntStats{N: f.N, Best: int(f.Best), Mean: f.Mean, Std: f.Std}
}

type FloatStats struct {
	N    int
	Best float64
	Mean float64
	Std  float64
}

// CalcFloatStats returns the minimum, mean and sample standard deviation.
// The deviation is 0 for fewer than two values.
func CalcFloatStats(values []float64) FloatStats {
	s := FloatStats{N: len(values)}
	if s.N == 0 {
		return s
	}

	s.Best = floats.Min(values)
	if s.N < 2 {
		s.Mean = values[0]
		return s
	}
	s.Mean, s.Std = stat.MeanStdDev(values, nil)
	return s
}
