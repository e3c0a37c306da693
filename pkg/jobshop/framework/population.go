package framework

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Population is the set of schedules of one generation. It is replaced
// wholesale every generation; member order only matters for tie-breaking.
type Population []*Schedule

// PopulationStats summarises the makespans of a population.
type PopulationStats struct {
	Size   int
	Best   int
	Worst  int
	Mean   float64
	StdDev float64
}

// Best returns the schedule with the lowest makespan. Ties go to the lowest index.
func (p Population) Best() (*Schedule, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("best lookup: %w", ErrEmptyPopulation)
	}
	best := p[0]
	for _, s := range p[1:] {
		if s.Makespan() < best.Makespan() {
			best = s
		}
	}
	return best, nil
}

func (p Population) Makespans() []float64 {
	out := make([]float64, len(p))
	for i, s := range p {
		out[i] = float64(s.Makespan())
	}
	return out
}

// Stats computes best, worst, mean and sample standard deviation of the makespans.
func (p Population) Stats() PopulationStats {
	if len(p) == 0 {
		return PopulationStats{}
	}
	values := p.Makespans()
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		std = 0
	}
	return PopulationStats{
		Size:   len(p),
		Best:   int(floats.Min(values)),
		Worst:  int(floats.Max(values)),
		Mean:   mean,
		StdDev: std,
	}
}
