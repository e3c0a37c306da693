package framework

import (
	"fmt"
	"slices"
	"strings"
)

// Schedule is an ordered sequence of operations and its makespan.
// The makespan is computed once at construction; a Schedule is never
// modified afterwards, so it can be handed to observers as is.
type Schedule struct {
	ops      []Operation
	makespan int
}

// NewSchedule copies ops and evaluates them. A nil evaluator means GreedyEvaluator.
func NewSchedule(ops []Operation, eval Evaluator) *Schedule {
	if eval == nil {
		eval = GreedyEvaluator
	}
	owned := slices.Clone(ops)
	return &Schedule{ops: owned, makespan: eval.Makespan(owned)}
}

// Operations returns a copy of the sequence.
func (s *Schedule) Operations() []Operation {
	return slices.Clone(s.ops)
}

func (s *Schedule) Makespan() int {
	return s.makespan
}

func (s *Schedule) Len() int {
	return len(s.ops)
}

// Timeline simulates the sequence to obtain start and end times.
func (s *Schedule) Timeline() Timeline {
	return Simulate(s.ops)
}

func (s *Schedule) String() string {
	parts := make([]string, len(s.ops))
	for i, op := range s.ops {
		parts[i] = op.String()
	}
	return fmt.Sprintf("Schedule: [%s], Makespan: %d", strings.Join(parts, ", "), s.makespan)
}
