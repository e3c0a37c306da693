package benchmarks

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/framework"
)

const (
	ToyName  = "toy"
	FT06Name = "ft06"

	// FT06Optimum is the proven optimal makespan of ft06.
	FT06Optimum = 55
)

// Toy is the three job, three machine instance the algorithm was first
// demonstrated on. Jobs and machines are numbered from 1.
func Toy() *framework.Instance {
	return framework.MustNewInstance(ToyName, []int{1, 2, 3}, []framework.Job{
		{ID: 1, Operations: []framework.Operation{{Machine: 1, ProcessingTime: 3}, {Machine: 2, ProcessingTime: 4}}},
		{ID: 2, Operations: []framework.Operation{{Machine: 2, ProcessingTime: 2}, {Machine: 1, ProcessingTime: 5}}},
		{ID: 3, Operations: []framework.Operation{{Machine: 3, ProcessingTime: 6}, {Machine: 2, ProcessingTime: 3}}},
	})
}

// ft06Data lists (machine, time) pairs per job, from Fisher and Thompson (1963).
var ft06Data = [][][2]int{
	{{2, 1}, {0, 3}, {1, 6}, {3, 7}, {5, 3}, {4, 6}},
	{{1, 8}, {2, 5}, {4, 10}, {5, 10}, {0, 10}, {3, 4}},
	{{2, 5}, {3, 4}, {5, 8}, {0, 9}, {1, 1}, {4, 7}},
	{{1, 5}, {0, 5}, {2, 5}, {3, 3}, {4, 8}, {5, 9}},
	{{2, 9}, {1, 3}, {4, 5}, {5, 4}, {0, 3}, {3, 1}},
	{{1, 3}, {3, 3}, {5, 9}, {0, 10}, {4, 4}, {2, 1}},
}

// FT06 is the classic 6x6 benchmark. Jobs and machines are numbered from 0.
func FT06() *framework.Instance {
	jobs := make([]framework.Job, len(ft06Data))
	for j, row := range ft06Data {
		ops := make([]framework.Operation, len(row))
		for k, mt := range row {
			ops[k] = framework.Operation{Job: j, Machine: mt[0], ProcessingTime: mt[1]}
		}
		jobs[j] = framework.Job{ID: j, Operations: ops}
	}
	return framework.MustNewInstance(FT06Name, []int{0, 1, 2, 3, 4, 5}, jobs)
}

// RandomInstance generates jobs that each visit every machine exactly once in
// a random order, with processing times uniform in [minTime, maxTime].
func RandomInstance(jobs, machines, minTime, maxTime int, rng *rand.Rand) (*framework.Instance, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if jobs <= 0 || machines <= 0 {
		return nil, fmt.Errorf("jobs and machines must be > 0 (got %dx%d)", jobs, machines)
	}
	if minTime <= 0 || maxTime < minTime {
		return nil, fmt.Errorf("invalid time bounds [%d,%d]", minTime, maxTime)
	}

	machineIDs := make([]int, machines)
	for m := range machineIDs {
		machineIDs[m] = m
	}

	span := maxTime - minTime + 1
	js := make([]framework.Job, jobs)
	for j := range js {
		route := rng.Perm(machines)
		ops := make([]framework.Operation, machines)
		for k, m := range route {
			ops[k] = framework.Operation{Job: j, Machine: m, ProcessingTime: minTime + rng.IntN(span)}
		}
		js[j] = framework.Job{ID: j, Operations: ops}
	}
	return framework.NewInstance(fmt.Sprintf("random-%dx%d", jobs, machines), machineIDs, js)
}

var registry = map[string]func() *framework.Instance{
	ToyName:  Toy,
	FT06Name: FT06,
}

// Lookup returns a named benchmark instance.
func Lookup(name string) (*framework.Instance, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown benchmark instance %q; available: %v", name, Names())
	}
	return f(), nil
}

// Names lists the registered benchmark instances.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
