package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"time"

	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/algorithms"
	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/framework"
)

// Record aggregates the runs of one instance.
type Record struct {
	Instance   string
	Jobs       int
	Machines   int
	Operations int
	Runs       int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	MakespanBest int
	MakespanMean float64
	MakespanStd  float64

	GenerationsMean float64
}

// Runner solves an instance once per seed, starting at BaseSeed.
type Runner struct {
	Runs          int
	BaseSeed      uint64
	PerRunTimeout time.Duration // 0 = no timeout
	Config        algorithms.Config
	// Options are applied to every solver, after the bench defaults
	Options []algorithms.Option
	Clock   clock.PassiveClock
}

func (r Runner) RunInstance(ctx context.Context, inst *framework.Instance) (Record, error) {
	if r.Runs <= 0 {
		return Record{}, fmt.Errorf("runs must be > 0 (got %d)", r.Runs)
	}
	clk := r.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	logger := klog.FromContext(ctx).WithValues("instance", inst.Name)

	makespans := make([]int, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)
	generations := make([]float64, 0, r.Runs)

	for i := 0; i < r.Runs; i++ {
		runSeed := r.BaseSeed + uint64(i)
		s, err := algorithms.New(r.Config, rand.New(rand.NewPCG(runSeed, runSeed)), r.Options...)
		if err != nil {
			return Record{}, err
		}

		runCtx := ctx
		cancel := func() {}
		if r.PerRunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
		}
		start := clk.Now()
		res, err := s.Solve(runCtx, inst)
		dur := clk.Since(start)
		cancel()

		if err != nil && runCtx.Err() != nil {
			return Record{}, fmt.Errorf("run %d: cancelled/timeout: %w", i, err)
		}
		if err != nil {
			return Record{}, fmt.Errorf("run %d: solve error: %w", i, err)
		}
		if res.Best == nil || res.Best.Len() != inst.NumOperations() {
			return Record{}, fmt.Errorf("run %d: %w: incomplete best schedule", i, framework.ErrInvariantViolation)
		}
		logger.V(4).Info("Bench run finished", "run", i, "seed", runSeed, "makespan", res.BestMakespan(), "generations", res.Generations)

		makespans = append(makespans, res.BestMakespan())
		timesMs = append(timesMs, float64(dur.Microseconds())/1000.0)
		generations = append(generations, float64(res.Generations))
	}

	msStats := CalcIntStats(makespans)
	tStats := CalcFloatStats(timesMs)
	gStats := CalcFloatStats(generations)

	return Record{
		Instance:   inst.Name,
		Jobs:       inst.NumJobs(),
		Machines:   inst.NumMachines(),
		Operations: inst.NumOperations(),
		Runs:       r.Runs,

		TimeBestMs: tStats.Best,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		MakespanBest: msStats.Best,
		MakespanMean: msStats.Mean,
		MakespanStd:  msStats.Std,

		GenerationsMean: gStats.Mean,
	}, nil
}

var csvHeader = []string{
	"instance", "jobs", "machines", "operations", "runs",
	"time_best_ms", "time_mean_ms", "time_std_ms",
	"makespan_best", "makespan_mean", "makespan_std",
	"generations_mean",
}

func WriteCSV(out io.Writer, records []Record) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Instance,
			itoa(r.Jobs),
			itoa(r.Machines),
			itoa(r.Operations),
			itoa(r.Runs),

			ftoa(r.TimeBestMs),
			ftoa(r.TimeMeanMs),
			ftoa(r.TimeStdMs),

			itoa(r.MakespanBest),
			ftoa(r.MakespanMean),
			ftoa(r.MakespanStd),

			ftoa(r.GenerationsMean),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
