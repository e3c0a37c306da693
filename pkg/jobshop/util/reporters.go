package util

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-logr/logr"

	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/algorithms"
)

// TextReporter prints the best schedule of every generation, one line each.
type TextReporter struct {
	W io.Writer
	// OnlyImproved skips generations that did not improve the best-ever makespan
	OnlyImproved bool
}

func (r *TextReporter) ObserveGeneration(gen algorithms.Generation) {
	if r.OnlyImproved && !gen.Improved {
		return
	}
	fmt.Fprintf(r.W, "Best Schedule: %s\n", gen.Best)
}

// LogReporter logs a summary of every generation.
type LogReporter struct {
	Logger logr.Logger
}

func (r LogReporter) ObserveGeneration(gen algorithms.Generation) {
	r.Logger.Info("Generation",
		"runID", gen.RunID, "generation", gen.Index,
		"best", gen.Best.Makespan(), "bestEver", gen.BestEverMakespan,
		"mean", gen.Stats.Mean, "stdDev", gen.Stats.StdDev,
		"stagnation", gen.Stagnation, "improved", gen.Improved)
}

// ChartObserver renders a Gantt chart whenever the best-ever makespan improves.
// Open is called once per chart; the writer is closed after rendering.
type ChartObserver struct {
	Open  func(gen algorithms.Generation) (io.WriteCloser, error)
	Title string

	mu       sync.Mutex
	rendered int
	err      error
}

func (o *ChartObserver) ObserveGeneration(gen algorithms.Generation) {
	if !gen.Improved {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return
	}

	w, err := o.Open(gen)
	if err != nil {
		o.err = err
		return
	}
	title := fmt.Sprintf("%s (generation %d)", o.Title, gen.Index)
	if err := PlotSchedule(w, gen.Best, title); err != nil {
		w.Close()
		o.err = err
		return
	}
	if err := w.Close(); err != nil {
		o.err = err
		return
	}
	o.rendered++
}

// Rendered is the number of charts written so far.
func (o *ChartObserver) Rendered() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rendered
}

// Err returns the first error hit while rendering. Rendering stops after it.
func (o *ChartObserver) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}
