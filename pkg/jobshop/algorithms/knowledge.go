package algorithms

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/framework"
)

// KnowledgeBase is the belief space of the cultural algorithm: for every
// machine, the jobs it processed in the best schedule of the current
// generation, in the order they occurred. Machines keep first-occurrence order.
// A job may appear several times for the same machine.
type KnowledgeBase struct {
	machines []int
	jobs     map[int][]int
}

func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{jobs: make(map[int][]int)}
}

// ExtractKnowledge builds a fresh knowledge base from a schedule.
func ExtractKnowledge(best *framework.Schedule) *KnowledgeBase {
	kb := NewKnowledgeBase()
	for _, op := range best.Operations() {
		kb.Record(op.Machine, op.Job)
	}
	return kb
}

// Record appends job to the list of machine.
func (kb *KnowledgeBase) Record(machine, job int) {
	if _, ok := kb.jobs[machine]; !ok {
		kb.machines = append(kb.machines, machine)
	}
	kb.jobs[machine] = append(kb.jobs[machine], job)
}

// Prefers reports whether the (machine, job) pair was observed.
func (kb *KnowledgeBase) Prefers(machine, job int) bool {
	if kb == nil {
		return false
	}
	return slices.Contains(kb.jobs[machine], job)
}

func (kb *KnowledgeBase) Machines() []int {
	return slices.Clone(kb.machines)
}

func (kb *KnowledgeBase) Jobs(machine int) []int {
	return slices.Clone(kb.jobs[machine])
}

// Len is the number of machines with observations.
func (kb *KnowledgeBase) Len() int {
	if kb == nil {
		return 0
	}
	return len(kb.machines)
}

func (kb *KnowledgeBase) String() string {
	parts := make([]string, 0, len(kb.machines))
	for _, m := range kb.machines {
		parts = append(parts, fmt.Sprintf("M%d=%v", m, kb.jobs[m]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// ApplyCulturalInfluence regroups ops by job, in first-occurrence order of the
// jobs, and inside each group moves the operations whose (machine, job) pair
// is in the knowledge base ahead of the others. The reordering is stable.
func ApplyCulturalInfluence(ops []framework.Operation, kb *KnowledgeBase) []framework.Operation {
	var order []int
	groups := make(map[int][]framework.Operation)
	for _, op := range ops {
		if _, ok := groups[op.Job]; !ok {
			order = append(order, op.Job)
		}
		groups[op.Job] = append(groups[op.Job], op)
	}

	preferred := func(op framework.Operation) int {
		if kb.Prefers(op.Machine, op.Job) {
			return 0
		}
		return 1
	}

	out := make([]framework.Operation, 0, len(ops))
	for _, job := range order {
		group := groups[job]
		slices.SortStableFunc(group, func(a, b framework.Operation) int {
			return cmp.Compare(preferred(a), preferred(b))
		})
		out = append(out, group...)
	}
	return out
}
