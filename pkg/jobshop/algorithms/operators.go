package algorithms

import (
	"fmt"
	"math/rand/v2"

	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/framework"
)

// jobQueues keeps one FIFO queue of operations per job. Jobs are iterated in
// the order they were first seen, so every walk over the queues is reproducible.
type jobQueues struct {
	order  []int
	queues map[int][]framework.Operation
}

func newJobQueues(ops []framework.Operation) *jobQueues {
	q := &jobQueues{queues: make(map[int][]framework.Operation)}
	for _, op := range ops {
		if _, ok := q.queues[op.Job]; !ok {
			q.order = append(q.order, op.Job)
		}
		q.queues[op.Job] = append(q.queues[op.Job], op)
	}
	return q
}

func (q *jobQueues) pop(job int) (framework.Operation, bool) {
	queue := q.queues[job]
	if len(queue) == 0 {
		return framework.Operation{}, false
	}
	q.queues[job] = queue[1:]
	return queue[0], true
}

// active returns the jobs that still have queued operations.
func (q *jobQueues) active() []int {
	out := make([]int, 0, len(q.order))
	for _, job := range q.order {
		if len(q.queues[job]) > 0 {
			out = append(out, job)
		}
	}
	return out
}

// GenerateSequence builds a random valid ordering of the canonical operations.
// Each round visits the jobs that still have work in random order and takes
// exactly one operation from each, so every job keeps its internal order.
func GenerateSequence(canonical []framework.Operation, rng *rand.Rand) []framework.Operation {
	q := newJobQueues(canonical)
	out := make([]framework.Operation, 0, len(canonical))
	for {
		jobs := q.active()
		if len(jobs) == 0 {
			return out
		}
		rng.Shuffle(len(jobs), func(i, j int) {
			jobs[i], jobs[j] = jobs[j], jobs[i]
		})
		for _, job := range jobs {
			op, _ := q.pop(job)
			out = append(out, op)
		}
	}
}

// TournamentSelect runs a binary tournament: two draws with replacement, the
// lower makespan wins. On a tie the first drawn schedule wins.
func TournamentSelect(pop framework.Population, rng *rand.Rand) (*framework.Schedule, error) {
	if len(pop) == 0 {
		return nil, fmt.Errorf("tournament selection: %w", framework.ErrEmptyPopulation)
	}
	first := pop[rng.IntN(len(pop))]
	second := pop[rng.IntN(len(pop))]
	if second.Makespan() < first.Makespan() {
		return second, nil
	}
	return first, nil
}

// Crossover recombines two parents at a uniformly random cut point.
func Crossover(parent1, parent2 []framework.Operation, rng *rand.Rand) []framework.Operation {
	if len(parent1) == 0 {
		return nil
	}
	return CrossoverAt(parent1, parent2, rng.IntN(len(parent1)))
}

// CrossoverAt copies the first cut operations of parent1, then walks parent2
// and, for every job not yet taken, appends that job's next pending operation
// from parent1's queues. Whatever is left is flushed job by job. Every
// operation in the child comes from parent1's per-job queues, so each job
// keeps parent1's internal order.
func CrossoverAt(parent1, parent2 []framework.Operation, cut int) []framework.Operation {
	cut = max(0, min(cut, len(parent1)))
	q := newJobQueues(parent1)
	child := make([]framework.Operation, 0, len(parent1))
	added := make(map[int]bool)

	for _, op := range parent1[:cut] {
		next, _ := q.pop(op.Job)
		child = append(child, next)
		added[op.Job] = true
	}

	for _, op := range parent2 {
		if added[op.Job] {
			continue
		}
		if next, ok := q.pop(op.Job); ok {
			child = append(child, next)
			added[op.Job] = true
		}
	}

	for _, job := range q.order {
		for {
			next, ok := q.pop(job)
			if !ok {
				break
			}
			child = append(child, next)
		}
	}
	return child
}

// Mutate swaps two random positions with the given probability. It reports
// whether ops changed.
func Mutate(ops []framework.Operation, probability float64, rng *rand.Rand) bool {
	if len(ops) < 2 || rng.Float64() >= probability {
		return false
	}
	return swapPreservingOrder(ops, rng.IntN(len(ops)), rng.IntN(len(ops)))
}

// swapPreservingOrder swaps ops[i] and ops[j] when they belong to different
// jobs and no other operation of either job sits between them. Otherwise it
// is a no-op.
func swapPreservingOrder(ops []framework.Operation, i, j int) bool {
	if i == j || ops[i].Job == ops[j].Job {
		return false
	}
	lo, hi := min(i, j), max(i, j)
	for k := lo + 1; k < hi; k++ {
		if ops[k].Job == ops[lo].Job || ops[k].Job == ops[hi].Job {
			return false
		}
	}
	ops[i], ops[j] = ops[j], ops[i]
	return true
}
