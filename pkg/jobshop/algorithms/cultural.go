package algorithms

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"sigs.k8s.io/cultural-jobshop/apis/config/v1alpha1"
	"sigs.k8s.io/cultural-jobshop/pkg/jobshop/framework"
)

const (
	Name = "CulturalAlgorithm"
)

// Phase is the state of an optimization run.
type Phase string

const (
	PhaseInitializing Phase = "Initializing"
	PhaseEvolving     Phase = "Evolving"
	PhaseTerminated   Phase = "Terminated"
)

// StopReason tells why a run left the evolving phase.
type StopReason string

const (
	StopReasonStagnation      StopReason = "stagnation"
	StopReasonGenerationLimit StopReason = "generation-limit"
	StopReasonCancelled       StopReason = "cancelled"
)

// Generation is handed to observers once per generation. Best is immutable
// and fully evaluated; observers must not expect anything back.
type Generation struct {
	RunID            string
	Index            int
	Best             *framework.Schedule
	BestEverMakespan int
	Improved         bool
	Stagnation       int
	Stats            framework.PopulationStats
	// Knowledge is the knowledge base that shaped this generation's children
	Knowledge *KnowledgeBase
}

// Observer receives the best schedule of every generation.
type Observer interface {
	ObserveGeneration(gen Generation)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(gen Generation)

func (f ObserverFunc) ObserveGeneration(gen Generation) {
	f(gen)
}

// GenerationStats is the per-generation entry of Result.History.
type GenerationStats struct {
	Generation int
	framework.PopulationStats
	BestEver          int
	Stagnation        int
	KnowledgeMachines int
}

// Result describes a finished (or cancelled) run.
type Result struct {
	RunID    string
	Instance string
	// Best is BestEver or FinalGenerationBest, depending on Config.ResultPolicy
	Best                *framework.Schedule
	BestEver            *framework.Schedule
	FinalGenerationBest *framework.Schedule
	Generations         int
	Evaluations         int
	Phase               Phase
	StopReason          StopReason
	Duration            time.Duration
	History             []GenerationStats
}

// BestMakespan is the makespan of Best, or 0 when there is none.
func (r Result) BestMakespan() int {
	if r.Best == nil {
		return 0
	}
	return r.Best.Makespan()
}

// Option configures a Solver.
type Option func(*Solver)

// WithObservers registers observers called after every generation, in order.
func WithObservers(observers ...Observer) Option {
	return func(s *Solver) {
		s.observers = append(s.observers, observers...)
	}
}

// WithEvaluator replaces the makespan evaluator.
func WithEvaluator(eval framework.Evaluator) Option {
	return func(s *Solver) {
		s.eval = eval
	}
}

// WithClock replaces the clock used to measure run duration.
func WithClock(c clock.PassiveClock) Option {
	return func(s *Solver) {
		s.clock = c
	}
}

// WithRunID fixes the run id instead of generating a random one.
func WithRunID(id string) Option {
	return func(s *Solver) {
		s.runID = id
	}
}

// Solver runs the cultural algorithm. All run state lives in a per-call
// value, so a Solver can be reused sequentially; the random source is not
// safe for concurrent Solve calls.
type Solver struct {
	Cfg Config
	Rng *rand.Rand

	eval      framework.Evaluator
	observers []Observer
	clock     clock.PassiveClock
	runID     string
}

// New returns a Solver after validating cfg. rng must not be nil.
func New(cfg Config, rng *rand.Rand, opts ...Option) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	s := &Solver{
		Cfg:   cfg,
		Rng:   rng,
		eval:  framework.GreedyEvaluator,
		clock: clock.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Solver) Name() string {
	return Name
}

// run holds the state owned by a single Solve call.
type run struct {
	solver *Solver
	inst   *framework.Instance
	id     string

	phase       Phase
	population  framework.Population
	knowledge   *KnowledgeBase
	bestEver    *framework.Schedule
	bestEverMS  int
	stagnation  int
	generation  int
	evaluations int
	history     []GenerationStats
}

// Solve evolves schedules for inst until the best-ever makespan stagnates for
// Cfg.MaxStagnation generations, Cfg.MaxGenerations is reached, or ctx is done.
// On cancellation the partial result is returned together with ctx.Err().
func (s *Solver) Solve(ctx context.Context, inst *framework.Instance) (Result, error) {
	start := s.clock.Now()

	if inst == nil {
		return Result{}, fmt.Errorf("%w: instance is nil", framework.ErrInvalidInstance)
	}
	if err := s.Cfg.Validate(); err != nil {
		return Result{}, err
	}

	r := &run{
		solver:     s,
		inst:       inst,
		id:         s.runID,
		phase:      PhaseInitializing,
		bestEverMS: math.MaxInt,
	}
	if r.id == "" {
		r.id = uuid.NewString()
	}

	logger := klog.FromContext(ctx).WithValues("runID", r.id, "instance", inst.Name)
	logger.V(2).Info("Starting cultural algorithm",
		"jobs", inst.NumJobs(), "machines", inst.NumMachines(), "operations", inst.NumOperations(),
		"populationSize", s.Cfg.PopulationSize, "mutationProbability", s.Cfg.MutationProbability,
		"maxStagnation", s.Cfg.MaxStagnation)

	if err := r.initialize(); err != nil {
		return r.result(s.clock.Since(start), ""), err
	}
	r.phase = PhaseEvolving

	var reason StopReason
	for {
		if r.stagnation >= s.Cfg.MaxStagnation {
			reason = StopReasonStagnation
			break
		}
		if r.generation >= s.Cfg.MaxGenerations {
			reason = StopReasonGenerationLimit
			break
		}
		if err := ctx.Err(); err != nil {
			logger.V(2).Info("Run cancelled", "generation", r.generation, "err", err)
			return r.result(s.clock.Since(start), StopReasonCancelled), err
		}

		gen, err := r.evolve()
		if err != nil {
			logger.Error(err, "Generation failed", "generation", r.generation+1)
			return r.result(s.clock.Since(start), ""), err
		}
		logger.V(4).Info("Generation evolved",
			"generation", gen.Index, "best", gen.Best.Makespan(), "bestEver", gen.BestEverMakespan,
			"mean", gen.Stats.Mean, "stagnation", gen.Stagnation, "knowledge", gen.Knowledge)

		for _, o := range s.observers {
			o.ObserveGeneration(gen)
		}
	}

	r.phase = PhaseTerminated
	res := r.result(s.clock.Since(start), reason)
	logger.V(2).Info("Cultural algorithm terminated",
		"reason", reason, "generations", res.Generations, "bestMakespan", res.BestMakespan(),
		"evaluations", res.Evaluations, "duration", res.Duration)
	return res, nil
}

func (r *run) initialize() error {
	cfg := r.solver.Cfg
	canonical := r.inst.Operations()

	r.population = make(framework.Population, 0, cfg.PopulationSize)
	for i := 0; i < cfg.PopulationSize; i++ {
		ops := GenerateSequence(canonical, r.solver.Rng)
		if err := r.verify(ops); err != nil {
			return fmt.Errorf("initial schedule %d: %w", i, err)
		}
		r.population = append(r.population, framework.NewSchedule(ops, r.solver.eval))
	}
	r.evaluations += len(r.population)
	return nil
}

// evolve runs one generation: knowledge update from the current best, offspring
// production, wholesale replacement and best-ever tracking.
func (r *run) evolve() (Generation, error) {
	cfg := r.solver.Cfg
	rng := r.solver.Rng

	// Schedules are evaluated when they are built, so fitness is already current.
	best, err := r.population.Best()
	if err != nil {
		return Generation{}, err
	}
	r.knowledge = ExtractKnowledge(best)

	children := make(framework.Population, 0, cfg.PopulationSize)
	for len(children) < cfg.PopulationSize {
		parent1, err := TournamentSelect(r.population, rng)
		if err != nil {
			return Generation{}, err
		}
		parent2, err := TournamentSelect(r.population, rng)
		if err != nil {
			return Generation{}, err
		}

		ops := Crossover(parent1.Operations(), parent2.Operations(), rng)
		Mutate(ops, cfg.MutationProbability, rng)
		ops = ApplyCulturalInfluence(ops, r.knowledge)
		if err := r.verify(ops); err != nil {
			return Generation{}, fmt.Errorf("generation %d child %d: %w", r.generation+1, len(children), err)
		}
		children = append(children, framework.NewSchedule(ops, r.solver.eval))
	}

	r.population = children
	r.evaluations += len(children)
	r.generation++

	genBest, err := r.population.Best()
	if err != nil {
		return Generation{}, err
	}
	improved := genBest.Makespan() < r.bestEverMS
	if improved {
		r.bestEverMS = genBest.Makespan()
		r.bestEver = genBest
		r.stagnation = 0
	} else {
		r.stagnation++
	}

	stats := r.population.Stats()
	r.history = append(r.history, GenerationStats{
		Generation:        r.generation,
		PopulationStats:   stats,
		BestEver:          r.bestEverMS,
		Stagnation:        r.stagnation,
		KnowledgeMachines: r.knowledge.Len(),
	})

	return Generation{
		RunID:            r.id,
		Index:            r.generation,
		Best:             genBest,
		BestEverMakespan: r.bestEverMS,
		Improved:         improved,
		Stagnation:       r.stagnation,
		Stats:            stats,
		Knowledge:        r.knowledge,
	}, nil
}

func (r *run) verify(ops []framework.Operation) error {
	if !r.solver.Cfg.VerifyInvariants {
		return nil
	}
	return r.inst.ValidateSequence(ops)
}

func (r *run) result(d time.Duration, reason StopReason) Result {
	res := Result{
		RunID:       r.id,
		Instance:    r.inst.Name,
		BestEver:    r.bestEver,
		Generations: r.generation,
		Evaluations: r.evaluations,
		Phase:       r.phase,
		StopReason:  reason,
		Duration:    d,
		History:     r.history,
	}
	if best, err := r.population.Best(); err == nil {
		res.FinalGenerationBest = best
	}

	switch r.solver.Cfg.ResultPolicy {
	case v1alpha1.ResultPolicyFinalGeneration:
		res.Best = res.FinalGenerationBest
	default:
		res.Best = res.BestEver
	}
	if res.Best == nil {
		// Nothing evolved yet; the initial population is all there is.
		res.Best = res.FinalGenerationBest
	}
	return res
}
