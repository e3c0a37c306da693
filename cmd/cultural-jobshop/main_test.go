package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2/ktesting"
	"k8s.io/utils/ptr"

	"sigs.k8s.io/cultural-jobshop/apis/config/v1alpha1"
)

func parse(t *testing.T, argv ...string) (*Options, *pflag.FlagSet) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o := NewOptions()
	o.AddFlags(fs)
	require.NoError(t, fs.Parse(argv))
	return o, fs
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestArgs(t *testing.T) {
	t.Run("flags only", func(t *testing.T) {
		o, fs := parse(t, "--population", "25", "--result-policy", "final-generation")
		args, err := o.Args(fs)
		require.NoError(t, err)
		assert.Equal(t, ptr.To[int32](25), args.PopulationSize)
		assert.Equal(t, ptr.To(v1alpha1.ResultPolicyFinalGeneration), args.ResultPolicy)
		assert.Equal(t, ptr.To[uint64](1), args.Seed)
		assert.Equal(t, ptr.To(v1alpha1.DefaultMaxStagnation), args.MaxStagnation)
	})

	t.Run("explicit flags override the file", func(t *testing.T) {
		path := writeFile(t, "args.yaml", strings.Join([]string{
			"apiVersion: jobshop.x-k8s.io/v1alpha1",
			"kind: CulturalAlgorithmArgs",
			"populationSize: 40",
			"maxStagnation: 7",
			"seed: 99",
		}, "\n"))
		o, fs := parse(t, "--config", path, "--stagnation", "3")
		args, err := o.Args(fs)
		require.NoError(t, err)
		assert.Equal(t, ptr.To[int32](40), args.PopulationSize)
		assert.Equal(t, ptr.To[int32](3), args.MaxStagnation)
		assert.Equal(t, ptr.To[uint64](99), args.Seed)
		assert.Equal(t, ptr.To(v1alpha1.DefaultMutationProbability), args.MutationProbability)
	})

	t.Run("unknown field in file", func(t *testing.T) {
		path := writeFile(t, "args.yaml", "populationSize: 4\nelitism: 2\n")
		o, fs := parse(t, "--config", path)
		_, err := o.Args(fs)
		assert.Error(t, err)
	})

	t.Run("bad result policy", func(t *testing.T) {
		o, fs := parse(t, "--result-policy", "latest")
		_, err := o.Args(fs)
		assert.Error(t, err)
	})
}

func TestLoadInstance(t *testing.T) {
	o, _ := parse(t, "--instance", "ft06")
	inst, err := o.LoadInstance(1)
	require.NoError(t, err)
	assert.Equal(t, 36, inst.NumOperations())

	o, _ = parse(t, "--instance", "random", "--random-jobs", "4", "--random-machines", "3")
	inst, err = o.LoadInstance(1)
	require.NoError(t, err)
	assert.Equal(t, 4, inst.NumJobs())
	assert.Equal(t, 12, inst.NumOperations())

	path := writeFile(t, "inst.yaml", strings.Join([]string{
		"kind: JobShopInstance",
		"name: tiny",
		"jobs:",
		"- id: 1",
		"  operations:",
		"  - {machine: 1, processingTime: 2}",
		"- id: 2",
		"  operations:",
		"  - {machine: 1, processingTime: 3}",
	}, "\n"))
	o, _ = parse(t, "--instance", path)
	inst, err = o.LoadInstance(1)
	require.NoError(t, err)
	assert.Equal(t, "tiny", inst.Name)

	o, _ = parse(t, "--instance", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = o.LoadInstance(1)
	assert.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)
	dir := t.TempDir()
	chart := filepath.Join(dir, "toy.html")
	charts := filepath.Join(dir, "generations")

	o, fs := parse(t, "--instance", "toy", "--seed", "5", "--chart", chart, "--chart-dir", charts)
	var out bytes.Buffer
	require.NoError(t, o.Run(ctx, fs, &out))

	text := out.String()
	assert.Contains(t, text, "Best Schedule: Schedule: [")
	assert.Contains(t, text, "Final Schedule: [")
	assert.Contains(t, text, "Instance toy: best makespan ")
	assert.Contains(t, text, "Makespan cache: ")

	assert.FileExists(t, chart)
	entries, err := os.ReadDir(charts)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestRunQuiet(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)
	o, fs := parse(t, "--quiet", "--cache=false")
	var out bytes.Buffer
	require.NoError(t, o.Run(ctx, fs, &out))
	assert.NotContains(t, out.String(), "Best Schedule:")
	assert.NotContains(t, out.String(), "Makespan cache")
}

func TestRunBench(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)
	csvPath := filepath.Join(t.TempDir(), "out", "results.csv")

	o, fs := parse(t, "--instance", "toy", "--runs", "3", "--csv", csvPath)
	var out bytes.Buffer
	require.NoError(t, o.Run(ctx, fs, &out))
	assert.Contains(t, out.String(), "Instance toy over 3 runs")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "toy,3,3,6,3,"))
}

func TestRunExitCodes(t *testing.T) {
	assert.Equal(t, 0, run([]string{"--help"}))
	assert.Equal(t, 2, run([]string{"--no-such-flag"}))
}
