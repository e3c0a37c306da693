package algorithms

import (
	"fmt"

	"k8s.io/utils/ptr"

	"sigs.k8s.io/cultural-jobshop/apis/config/v1alpha1"
)

// Config holds the parameters of the cultural algorithm.
type Config struct {
	// PopulationSize is the number of schedules in every generation
	PopulationSize int
	// MutationProbability is the chance that a child gets a swap mutation
	MutationProbability float64
	// MaxStagnation is the number of consecutive non-improving generations that ends a run
	MaxStagnation int
	// MaxGenerations bounds the run even if the best-ever makespan keeps improving
	MaxGenerations int
	// ResultPolicy picks the schedule reported as Result.Best
	ResultPolicy v1alpha1.ResultPolicy
	// VerifyInvariants checks every produced child against the instance
	VerifyInvariants bool
}

func DefaultConfig() Config {
	return Config{
		PopulationSize:      int(v1alpha1.DefaultPopulationSize),
		MutationProbability: v1alpha1.DefaultMutationProbability,
		MaxStagnation:       int(v1alpha1.DefaultMaxStagnation),
		MaxGenerations:      int(v1alpha1.DefaultMaxGenerations),
		ResultPolicy:        v1alpha1.DefaultResultPolicy,
		VerifyInvariants:    v1alpha1.DefaultVerifyInvariants,
	}
}

func (c Config) Validate() error {
	if c.PopulationSize <= 0 {
		return fmt.Errorf("population size must be > 0 (got %d)", c.PopulationSize)
	}
	if c.MutationProbability < 0 || c.MutationProbability > 1 {
		return fmt.Errorf("mutation probability must be in [0,1] (got %f)", c.MutationProbability)
	}
	if c.MaxStagnation <= 0 {
		return fmt.Errorf("max stagnation must be > 0 (got %d)", c.MaxStagnation)
	}
	if c.MaxGenerations <= 0 {
		return fmt.Errorf("max generations must be > 0 (got %d)", c.MaxGenerations)
	}
	switch c.ResultPolicy {
	case v1alpha1.ResultPolicyBestEver, v1alpha1.ResultPolicyFinalGeneration:
	default:
		return fmt.Errorf("unknown result policy %q", c.ResultPolicy)
	}
	return nil
}

// ConfigFromArgs converts versioned args into a Config. The args are
// defaulted on a copy; the caller's object is left untouched.
func ConfigFromArgs(args *v1alpha1.CulturalAlgorithmArgs) (Config, error) {
	defaulted := v1alpha1.CulturalAlgorithmArgs{}
	if args != nil {
		defaulted = *args
	}
	v1alpha1.SetDefaults_CulturalAlgorithmArgs(&defaulted)

	cfg := Config{
		PopulationSize:      int(ptr.Deref(defaulted.PopulationSize, 0)),
		MutationProbability: ptr.Deref(defaulted.MutationProbability, 0),
		MaxStagnation:       int(ptr.Deref(defaulted.MaxStagnation, 0)),
		MaxGenerations:      int(ptr.Deref(defaulted.MaxGenerations, 0)),
		ResultPolicy:        ptr.Deref(defaulted.ResultPolicy, ""),
		VerifyInvariants:    ptr.Deref(defaulted.VerifyInvariants, false),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
