package framework

import "fmt"

// ValidateSequence checks that ops is a permutation of the instance's
// canonical operation set and that every job's operations appear in their
// canonical relative order. Any failure wraps ErrInvariantViolation.
func (inst *Instance) ValidateSequence(ops []Operation) error {
	if len(ops) != len(inst.ops) {
		return fmt.Errorf("%w: sequence has %d operations, instance has %d", ErrInvariantViolation, len(ops), len(inst.ops))
	}

	next := make(map[int]int, len(inst.jobs))
	canonical := make(map[int][]Operation, len(inst.jobs))
	for _, j := range inst.jobs {
		canonical[j.ID] = j.Operations
	}

	for i, op := range ops {
		jobOps, ok := canonical[op.Job]
		if !ok {
			return fmt.Errorf("%w: position %d references unknown job %d", ErrInvariantViolation, i, op.Job)
		}
		k := next[op.Job]
		if k >= len(jobOps) {
			return fmt.Errorf("%w: job %d has more than %d operations (position %d)", ErrInvariantViolation, op.Job, len(jobOps), i)
		}
		if jobOps[k] != op {
			return fmt.Errorf("%w: position %d holds %v, job %d expects %v next", ErrInvariantViolation, i, op, op.Job, jobOps[k])
		}
		next[op.Job] = k + 1
	}
	return nil
}
