package util

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/algorithms"
	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/framework"
)

func scenario() *framework.Schedule {
	return framework.NewSchedule([]framework.Operation{
		{Job: 1, Machine: 1, ProcessingTime: 3},
		{Job: 2, Machine: 2, ProcessingTime: 2},
		{Job: 3, Machine: 3, ProcessingTime: 6},
		{Job: 1, Machine: 2, ProcessingTime: 4},
		{Job: 2, Machine: 1, ProcessingTime: 5},
		{Job: 3, Machine: 2, ProcessingTime: 3},
	}, nil)
}

func TestNewGantt(t *testing.T) {
	g := newGantt(scenario().Timeline())
	require.Equal(t, []int{1, 2, 3}, g.machines)
	require.Len(t, g.busy, 3)

	want := struct{ idle, busy [][]int }{
		idle: [][]int{{0, 0, 0}, {0, 1, 0}, {0, 0, 0}},
		busy: [][]int{{3, 2, 6}, {5, 4, 0}, {0, 3, 0}},
	}
	for k := range g.busy {
		for i := range g.machines {
			assert.Equal(t, want.idle[k][i], g.idle[k][i].Value, "idle slot %d machine %d", k, g.machines[i])
			assert.Equal(t, want.busy[k][i], g.busy[k][i].Value, "busy slot %d machine %d", k, g.machines[i])
		}
	}
	assert.Equal(t, "Job 3 [7, 10)", g.busy[2][1].Name)
	assert.Equal(t, JobColor(3), g.busy[2][1].ItemStyle.Color)
}

func TestPlotSchedule(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PlotSchedule(&buf, scenario(), "toy"))
	out := buf.String()
	assert.Contains(t, out, "Makespan: 10")
	assert.Contains(t, out, "M2")

	assert.Error(t, PlotSchedule(&buf, nil, "empty"))
	assert.Error(t, PlotSchedule(&buf, framework.NewSchedule(nil, nil), "empty"))
}

func TestJobColor(t *testing.T) {
	assert.Equal(t, JobColor(0), JobColor(len(jobPalette)))
	assert.NotEqual(t, JobColor(0), JobColor(1))
	assert.Equal(t, JobColor(2), JobColor(-2))
}

func TestTextReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &TextReporter{W: &buf, OnlyImproved: true}
	r.ObserveGeneration(algorithms.Generation{Index: 1, Best: scenario(), Improved: true})
	r.ObserveGeneration(algorithms.Generation{Index: 2, Best: scenario()})

	want := "Best Schedule: Schedule: [Job1(M1, T3), Job2(M2, T2), Job3(M3, T6), Job1(M2, T4), Job2(M1, T5), Job3(M2, T3)], Makespan: 10\n"
	assert.Equal(t, want, buf.String())
}

func TestLogReporter(t *testing.T) {
	var lines []string
	logger := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{})

	LogReporter{Logger: logger}.ObserveGeneration(algorithms.Generation{RunID: "r1", Index: 4, Best: scenario(), BestEverMakespan: 10})
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"generation"=4`)
	assert.Contains(t, lines[0], `"best"=10`)
	assert.Contains(t, lines[0], `"runID"="r1"`)
}

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func TestChartObserver(t *testing.T) {
	var opened []*bufferCloser
	o := &ChartObserver{
		Title: "toy",
		Open: func(gen algorithms.Generation) (io.WriteCloser, error) {
			b := &bufferCloser{}
			opened = append(opened, b)
			return b, nil
		},
	}

	o.ObserveGeneration(algorithms.Generation{Index: 1, Best: scenario(), Improved: true})
	o.ObserveGeneration(algorithms.Generation{Index: 2, Best: scenario()})
	o.ObserveGeneration(algorithms.Generation{Index: 3, Best: scenario(), Improved: true})

	require.NoError(t, o.Err())
	assert.Equal(t, 2, o.Rendered())
	require.Len(t, opened, 2)
	for _, b := range opened {
		assert.True(t, b.closed)
	}
	assert.True(t, strings.Contains(opened[1].String(), "generation 3"))
}

func TestChartObserverStopsOnError(t *testing.T) {
	calls := 0
	boom := errors.New("disk full")
	o := &ChartObserver{
		Open: func(algorithms.Generation) (io.WriteCloser, error) {
			calls++
			return nil, boom
		},
	}
	o.ObserveGeneration(algorithms.Generation{Index: 1, Best: scenario(), Improved: true})
	o.ObserveGeneration(algorithms.Generation{Index: 2, Best: scenario(), Improved: true})

	assert.ErrorIs(t, o.Err(), boom)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, o.Rendered())
}
