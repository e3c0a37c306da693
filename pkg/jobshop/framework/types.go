package framework

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInstance is returned when a problem instance fails validation.
	ErrInvalidInstance = errors.New("invalid job-shop instance")

	// ErrEmptyPopulation is returned by lookups that need at least one schedule.
	ErrEmptyPopulation = errors.New("population is empty")

	// ErrInvariantViolation marks a sequence that is not a valid ordering of
	// the canonical operation set. It is never a recoverable condition.
	ErrInvariantViolation = errors.New("schedule invariant violated")
)

// Operation is one unit of work: a job processed on a machine for a fixed time.
type Operation struct {
	Job            int
	Machine        int
	ProcessingTime int
}

func (op Operation) String() string {
	return fmt.Sprintf("Job%d(M%d, T%d)", op.Job, op.Machine, op.ProcessingTime)
}

// Job is an ordered, fixed sequence of operations.
type Job struct {
	ID         int
	Operations []Operation
}

// Evaluator computes the cost of an operation sequence.
type Evaluator interface {
	Makespan(ops []Operation) int
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(ops []Operation) int

func (f EvaluatorFunc) Makespan(ops []Operation) int {
	return f(ops)
}
