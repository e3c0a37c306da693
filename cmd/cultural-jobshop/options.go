package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/yaml"

	"sigs.k8s.io/cultural-jobshop/apis/config/v1alpha1"
	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/algorithms"
	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/bench"
	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/benchmarks"
	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/framework"
	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/util"
)

const randomInstance = "random"

// Options are the command line options of cultural-jobshop.
type Options struct {
	Instance       string
	ConfigFile     string
	RandomJobs     int
	RandomMachines int

	PopulationSize      int32
	MutationProbability float64
	MaxStagnation       int32
	MaxGenerations      int32
	Seed                uint64
	ResultPolicy        string
	Cache               bool

	ChartPath string
	ChartDir  string
	Quiet     bool

	Runs          int
	CSVPath       string
	PerRunTimeout time.Duration
}

func NewOptions() *Options {
	return &Options{
		Instance:            benchmarks.ToyName,
		RandomJobs:          10,
		RandomMachines:      5,
		PopulationSize:      v1alpha1.DefaultPopulationSize,
		MutationProbability: v1alpha1.DefaultMutationProbability,
		MaxStagnation:       v1alpha1.DefaultMaxStagnation,
		MaxGenerations:      v1alpha1.DefaultMaxGenerations,
		Seed:                1,
		ResultPolicy:        "best-ever",
		Cache:               true,
		Runs:                1,
	}
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Instance, "instance", o.Instance, fmt.Sprintf("Instance to solve: one of %v, %q, or a path to a JobShopInstance YAML file.", benchmarks.Names(), randomInstance))
	fs.StringVar(&o.ConfigFile, "config", o.ConfigFile, "Path to a CulturalAlgorithmArgs YAML file. Flags set explicitly override its values.")
	fs.IntVar(&o.RandomJobs, "random-jobs", o.RandomJobs, "Number of jobs of a random instance.")
	fs.IntVar(&o.RandomMachines, "random-machines", o.RandomMachines, "Number of machines of a random instance.")

	fs.Int32Var(&o.PopulationSize, "population", o.PopulationSize, "Number of schedules per generation.")
	fs.Float64Var(&o.MutationProbability, "mutation", o.MutationProbability, "Probability that a child is mutated.")
	fs.Int32Var(&o.MaxStagnation, "stagnation", o.MaxStagnation, "Stop after this many generations without improvement.")
	fs.Int32Var(&o.MaxGenerations, "max-generations", o.MaxGenerations, "Hard limit on the number of generations.")
	fs.Uint64Var(&o.Seed, "seed", o.Seed, "Seed of the random source. Benchmark runs use seed, seed+1, ...")
	fs.StringVar(&o.ResultPolicy, "result-policy", o.ResultPolicy, "Schedule to report: best-ever or final-generation.")
	fs.BoolVar(&o.Cache, "cache", o.Cache, "Memoise makespans of sequences already evaluated.")

	fs.StringVar(&o.ChartPath, "chart", o.ChartPath, "Write a Gantt chart of the reported schedule to this HTML file.")
	fs.StringVar(&o.ChartDir, "chart-dir", o.ChartDir, "Write a Gantt chart to this directory every time the best makespan improves.")
	fs.BoolVarP(&o.Quiet, "quiet", "q", o.Quiet, "Do not print the best schedule of every generation.")

	fs.IntVar(&o.Runs, "runs", o.Runs, "Number of runs. More than one run switches to benchmark mode.")
	fs.StringVar(&o.CSVPath, "csv", o.CSVPath, "Write the benchmark record to this CSV file.")
	fs.DurationVar(&o.PerRunTimeout, "per-run-timeout", o.PerRunTimeout, "Timeout of a single benchmark run; 0 means none.")
}

func parseResultPolicy(s string) (v1alpha1.ResultPolicy, error) {
	switch strings.ToLower(s) {
	case "best-ever", strings.ToLower(string(v1alpha1.ResultPolicyBestEver)):
		return v1alpha1.ResultPolicyBestEver, nil
	case "final-generation", strings.ToLower(string(v1alpha1.ResultPolicyFinalGeneration)):
		return v1alpha1.ResultPolicyFinalGeneration, nil
	}
	return "", fmt.Errorf("unknown result policy %q, want best-ever or final-generation", s)
}

// Args merges the config file, if any, with the flags that were set explicitly.
func (o *Options) Args(fs *pflag.FlagSet) (*v1alpha1.CulturalAlgorithmArgs, error) {
	args := &v1alpha1.CulturalAlgorithmArgs{}
	if o.ConfigFile != "" {
		data, err := os.ReadFile(o.ConfigFile)
		if err != nil {
			return nil, err
		}
		if err := yaml.UnmarshalStrict(data, args); err != nil {
			return nil, fmt.Errorf("decode %s: %w", o.ConfigFile, err)
		}
		if args.Kind != "" && args.Kind != v1alpha1.KindCulturalAlgorithmArgs {
			return nil, fmt.Errorf("%s: unexpected kind %q", o.ConfigFile, args.Kind)
		}
	}

	set := func(name string) bool {
		return o.ConfigFile == "" || fs.Changed(name)
	}
	if set("population") {
		args.PopulationSize = ptr.To(o.PopulationSize)
	}
	if set("mutation") {
		args.MutationProbability = ptr.To(o.MutationProbability)
	}
	if set("stagnation") {
		args.MaxStagnation = ptr.To(o.MaxStagnation)
	}
	if set("max-generations") {
		args.MaxGenerations = ptr.To(o.MaxGenerations)
	}
	if set("seed") || args.Seed == nil {
		args.Seed = ptr.To(o.Seed)
	}
	if set("result-policy") {
		policy, err := parseResultPolicy(o.ResultPolicy)
		if err != nil {
			return nil, err
		}
		args.ResultPolicy = ptr.To(policy)
	}
	v1alpha1.SetDefaults_CulturalAlgorithmArgs(args)
	return args, nil
}

// LoadInstance resolves --instance into a validated instance.
func (o *Options) LoadInstance(seed uint64) (*framework.Instance, error) {
	if o.Instance == randomInstance {
		return benchmarks.RandomInstance(o.RandomJobs, o.RandomMachines, 1, 99, rand.New(rand.NewPCG(seed, seed)))
	}
	if inst, err := benchmarks.Lookup(o.Instance); err == nil {
		return inst, nil
	}
	data, err := os.ReadFile(o.Instance)
	if err != nil {
		return nil, fmt.Errorf("instance %q is neither a benchmark nor a readable file: %w", o.Instance, err)
	}
	return framework.DecodeInstance(data)
}

// Run solves the instance once, or Runs times in benchmark mode, and prints
// a summary to out.
func (o *Options) Run(ctx context.Context, fs *pflag.FlagSet, out io.Writer) error {
	args, err := o.Args(fs)
	if err != nil {
		return err
	}
	cfg, err := algorithms.ConfigFromArgs(args)
	if err != nil {
		return err
	}
	seed := ptr.Deref(args.Seed, o.Seed)
	inst, err := o.LoadInstance(seed)
	if err != nil {
		return err
	}
	klog.FromContext(ctx).V(2).Info("Loaded instance", "instance", inst)

	if o.Runs > 1 || o.CSVPath != "" {
		return o.runBench(ctx, cfg, seed, inst, out)
	}
	return o.runOnce(ctx, cfg, seed, inst, out)
}

func (o *Options) runOnce(ctx context.Context, cfg algorithms.Config, seed uint64, inst *framework.Instance, out io.Writer) error {
	logger := klog.FromContext(ctx)

	var cache *framework.CachedEvaluator
	solverOpts := []algorithms.Option{
		algorithms.WithObservers(util.LogReporter{Logger: logger.V(3)}),
	}
	if o.Cache {
		cache = framework.NewCachedEvaluator(framework.GreedyEvaluator, 0)
		solverOpts = append(solverOpts, algorithms.WithEvaluator(cache))
	}
	if !o.Quiet {
		solverOpts = append(solverOpts, algorithms.WithObservers(&util.TextReporter{W: out}))
	}
	var charts *util.ChartObserver
	if o.ChartDir != "" {
		if err := os.MkdirAll(o.ChartDir, 0o755); err != nil {
			return err
		}
		charts = &util.ChartObserver{
			Title: inst.Name,
			Open: func(gen algorithms.Generation) (io.WriteCloser, error) {
				return os.Create(filepath.Join(o.ChartDir, fmt.Sprintf("%s-gen-%04d.html", inst.Name, gen.Index)))
			},
		}
		solverOpts = append(solverOpts, algorithms.WithObservers(charts))
	}

	s, err := algorithms.New(cfg, rand.New(rand.NewPCG(seed, seed)), solverOpts...)
	if err != nil {
		return err
	}
	res, err := s.Solve(ctx, inst)
	if res.Best != nil {
		printSummary(out, res, cache)
	}
	if err != nil {
		return err
	}

	if charts != nil && charts.Err() != nil {
		return fmt.Errorf("rendering generation charts: %w", charts.Err())
	}
	if o.ChartPath != "" {
		if err := util.WriteScheduleChart(o.ChartPath, res.Best, fmt.Sprintf("%s %s", algorithms.Name, inst.Name)); err != nil {
			return err
		}
		logger.V(2).Info("Wrote schedule chart", "path", o.ChartPath)
	}
	return nil
}

func printSummary(out io.Writer, res algorithms.Result, cache *framework.CachedEvaluator) {
	fmt.Fprintf(out, "Final %s\n", res.Best)
	fmt.Fprintf(out, "Instance %s: best makespan %d after %s generations (%s), %s evaluations in %s\n",
		res.Instance, res.BestMakespan(), humanize.Comma(int64(res.Generations)), res.StopReason,
		humanize.Comma(int64(res.Evaluations)), res.Duration.Round(time.Millisecond))
	if found := firstGenerationWith(res.History, res.BestMakespan()); found > 0 {
		fmt.Fprintf(out, "Best makespan first reached in the %s generation\n", humanize.Ordinal(found))
	}
	if cache != nil {
		hits, misses := cache.Stats()
		fmt.Fprintf(out, "Makespan cache: %s hits, %s misses\n", humanize.Comma(hits), humanize.Comma(misses))
	}
}

func firstGenerationWith(history []algorithms.GenerationStats, makespan int) int {
	for _, h := range history {
		if h.Best == makespan {
			return h.Generation
		}
	}
	return 0
}

func (o *Options) runBench(ctx context.Context, cfg algorithms.Config, seed uint64, inst *framework.Instance, out io.Writer) error {
	r := bench.Runner{
		Runs:          o.Runs,
		BaseSeed:      seed,
		PerRunTimeout: o.PerRunTimeout,
		Config:        cfg,
	}
	rec, err := r.RunInstance(ctx, inst)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Instance %s over %s runs: makespan best %d, mean %.2f, std %.2f; time mean %.2fms; %.1f generations on average\n",
		rec.Instance, humanize.Comma(int64(rec.Runs)), rec.MakespanBest, rec.MakespanMean, rec.MakespanStd, rec.TimeMeanMs, rec.GenerationsMean)

	if o.CSVPath == "" {
		return nil
	}
	if dir := filepath.Dir(o.CSVPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(o.CSVPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return bench.WriteCSV(f, []bench.Record{rec})
}
