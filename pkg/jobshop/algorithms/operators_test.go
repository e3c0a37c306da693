package algorithms

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/benchmarks"
	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/framework"
)

var (
	j1m1 = framework.Operation{Job: 1, Machine: 1, ProcessingTime: 3}
	j1m2 = framework.Operation{Job: 1, Machine: 2, ProcessingTime: 4}
	j2m2 = framework.Operation{Job: 2, Machine: 2, ProcessingTime: 2}
	j2m1 = framework.Operation{Job: 2, Machine: 1, ProcessingTime: 5}
	j3m3 = framework.Operation{Job: 3, Machine: 3, ProcessingTime: 6}
	j3m2 = framework.Operation{Job: 3, Machine: 2, ProcessingTime: 3}
)

func newRng(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestGenerateSequenceKeepsInvariants(t *testing.T) {
	for _, inst := range []*framework.Instance{benchmarks.Toy(), benchmarks.FT06()} {
		t.Run(inst.Name, func(t *testing.T) {
			rng := newRng(42)
			distinct := map[string]bool{}
			for i := 0; i < 200; i++ {
				ops := GenerateSequence(inst.Operations(), rng)
				require.NoError(t, inst.ValidateSequence(ops))
				distinct[framework.NewSchedule(ops, nil).String()] = true
			}
			assert.Greater(t, len(distinct), 1, "generator should interleave jobs differently")
		})
	}
}

func TestGenerateSequenceRounds(t *testing.T) {
	// Every round takes exactly one operation from each job still active, so
	// with equally long jobs the first NumJobs positions hold distinct jobs.
	inst := benchmarks.FT06()
	ops := GenerateSequence(inst.Operations(), newRng(7))
	for round := 0; round < 6; round++ {
		jobs := map[int]bool{}
		for _, op := range ops[round*6 : (round+1)*6] {
			jobs[op.Job] = true
		}
		assert.Len(t, jobs, 6, "round %d", round)
	}

	same := GenerateSequence(inst.Operations(), newRng(7))
	assert.Equal(t, ops, same, "same seed gives the same sequence")
}

func TestTournamentSelect(t *testing.T) {
	_, err := TournamentSelect(nil, newRng(1))
	assert.ErrorIs(t, err, framework.ErrEmptyPopulation)

	good := framework.NewSchedule([]framework.Operation{j1m1, j2m2, j3m3, j1m2, j2m1, j3m2}, nil)
	bad := framework.NewSchedule([]framework.Operation{j1m1, j1m2, j2m2, j2m1, j3m3, j3m2}, nil)
	tie := framework.NewSchedule([]framework.Operation{j1m1, j2m2, j3m3, j1m2, j2m1, j3m2}, nil)

	t.Run("lower makespan wins", func(t *testing.T) {
		pop := framework.Population{bad, good}
		for seed := uint64(0); seed < 50; seed++ {
			mirror := newRng(seed)
			first, second := pop[mirror.IntN(2)], pop[mirror.IntN(2)]
			want := first
			if second.Makespan() < first.Makespan() {
				want = second
			}

			got, err := TournamentSelect(pop, newRng(seed))
			require.NoError(t, err)
			assert.Same(t, want, got)
		}
	})

	t.Run("first drawn wins a tie", func(t *testing.T) {
		pop := framework.Population{good, tie}
		for seed := uint64(0); seed < 50; seed++ {
			mirror := newRng(seed)
			want := pop[mirror.IntN(2)]

			got, err := TournamentSelect(pop, newRng(seed))
			require.NoError(t, err)
			assert.Same(t, want, got)
		}
	})
}

func TestCrossoverAt(t *testing.T) {
	parent1 := []framework.Operation{j1m1, j1m2, j2m2, j2m1, j3m3, j3m2}
	parent2 := []framework.Operation{j3m3, j2m2, j1m1, j3m2, j2m1, j1m2}

	tests := []struct {
		name string
		cut  int
		want []framework.Operation
	}{
		{
			name: "cut 0 fills from parent2 scan",
			cut:  0,
			want: []framework.Operation{j3m3, j2m2, j1m1, j1m2, j2m1, j3m2},
		},
		{
			name: "cut 1",
			cut:  1,
			want: []framework.Operation{j1m1, j3m3, j2m2, j1m2, j2m1, j3m2},
		},
		{
			name: "cut len-1 is almost parent1",
			cut:  len(parent1) - 1,
			want: parent1,
		},
	}

	inst := benchmarks.Toy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CrossoverAt(parent1, parent2, tt.cut)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("unexpected child (-want,+got):\n%s", diff)
			}
			assert.NoError(t, inst.ValidateSequence(got))
		})
	}
}

func TestCrossoverKeepsInvariants(t *testing.T) {
	inst := benchmarks.FT06()
	rng := newRng(3)
	for i := 0; i < 50; i++ {
		p1 := GenerateSequence(inst.Operations(), rng)
		p2 := GenerateSequence(inst.Operations(), rng)
		for cut := 0; cut < len(p1); cut++ {
			child := CrossoverAt(p1, p2, cut)
			require.NoError(t, inst.ValidateSequence(child), "cut %d", cut)
		}
		require.NoError(t, inst.ValidateSequence(Crossover(p1, p2, rng)))
	}

	assert.Nil(t, Crossover(nil, nil, rng))
}

func TestSwapPreservingOrder(t *testing.T) {
	tests := []struct {
		name    string
		ops     []framework.Operation
		pos     [2]int
		want    []framework.Operation
		swapped bool
	}{
		{
			name: "same job is a no-op",
			ops:  []framework.Operation{j1m1, j2m2, j1m2},
			pos:  [2]int{0, 2},
			want: []framework.Operation{j1m1, j2m2, j1m2},
		},
		{
			name: "same position is a no-op",
			ops:  []framework.Operation{j1m1, j2m2},
			pos:  [2]int{1, 1},
			want: []framework.Operation{j1m1, j2m2},
		},
		{
			name:    "adjacent different jobs swap",
			ops:     []framework.Operation{j1m1, j2m2, j1m2, j2m1},
			pos:     [2]int{0, 1},
			want:    []framework.Operation{j2m2, j1m1, j1m2, j2m1},
			swapped: true,
		},
		{
			name: "intervening operation of a swapped job blocks the swap",
			ops:  []framework.Operation{j1m1, j1m2, j2m2},
			pos:  [2]int{2, 0},
			want: []framework.Operation{j1m1, j1m2, j2m2},
		},
		{
			name:    "unrelated job in between",
			ops:     []framework.Operation{j1m1, j3m3, j2m2, j1m2, j2m1, j3m2},
			pos:     [2]int{0, 2},
			want:    []framework.Operation{j2m2, j3m3, j1m1, j1m2, j2m1, j3m2},
			swapped: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := append([]framework.Operation(nil), tt.ops...)
			assert.Equal(t, tt.swapped, swapPreservingOrder(got, tt.pos[0], tt.pos[1]))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("unexpected sequence (-want,+got):\n%s", diff)
			}
		})
	}
}

func TestMutate(t *testing.T) {
	inst := benchmarks.FT06()
	rng := newRng(11)

	ops := GenerateSequence(inst.Operations(), rng)
	before := append([]framework.Operation(nil), ops...)
	for i := 0; i < 100; i++ {
		assert.False(t, Mutate(ops, 0, rng))
	}
	assert.Equal(t, before, ops)

	changed := 0
	for i := 0; i < 500; i++ {
		if Mutate(ops, 1, rng) {
			changed++
		}
		require.NoError(t, inst.ValidateSequence(ops))
	}
	assert.Greater(t, changed, 0)

	// A single job means every pair of positions shares a job.
	single := framework.MustNewInstance("single", nil, []framework.Job{{ID: 1, Operations: []framework.Operation{
		{Machine: 1, ProcessingTime: 1}, {Machine: 2, ProcessingTime: 2}, {Machine: 3, ProcessingTime: 3},
	}}})
	seq := single.Operations()
	for i := 0; i < 100; i++ {
		assert.False(t, Mutate(seq, 1, rng))
	}
	assert.Equal(t, single.Operations(), seq)

	assert.False(t, Mutate(nil, 1, rng))
}
