package framework

import (
	"fmt"
	"slices"

	"k8s.io/apimachinery/pkg/util/validation/field"
	"sigs.k8s.io/yaml"

	"sigs.k8s.io/cultural-jobshop/apis/config/v1alpha1"
)

// Instance is a validated job-shop problem. The canonical operation set and
// every job's internal order are fixed at construction and never mutated.
type Instance struct {
	Name     string
	machines []int
	jobs     []Job
	ops      []Operation
}

// NewInstance validates the jobs and builds an Instance. When machines is
// empty, the machine set is derived from the operations in first-occurrence order.
func NewInstance(name string, machines []int, jobs []Job) (*Instance, error) {
	if err := validateJobs(machines, jobs); err != nil {
		return nil, err
	}

	inst := &Instance{Name: name}
	for _, j := range jobs {
		ops := make([]Operation, len(j.Operations))
		for i, op := range j.Operations {
			// The job id on the job wins over whatever the caller put on the operation.
			op.Job = j.ID
			ops[i] = op
		}
		inst.jobs = append(inst.jobs, Job{ID: j.ID, Operations: ops})
		inst.ops = append(inst.ops, ops...)
	}

	if len(machines) > 0 {
		inst.machines = slices.Clone(machines)
	} else {
		for _, op := range inst.ops {
			if !slices.Contains(inst.machines, op.Machine) {
				inst.machines = append(inst.machines, op.Machine)
			}
		}
	}
	return inst, nil
}

// MustNewInstance is NewInstance for static instances known to be valid.
func MustNewInstance(name string, machines []int, jobs []Job) *Instance {
	inst, err := NewInstance(name, machines, jobs)
	if err != nil {
		panic(err)
	}
	return inst
}

func validateJobs(machines []int, jobs []Job) error {
	var errs field.ErrorList
	root := field.NewPath("jobs")

	if len(jobs) == 0 {
		errs = append(errs, field.Required(root, "at least one job is required"))
	}

	declared := make(map[int]bool, len(machines))
	for i, m := range machines {
		if declared[m] {
			errs = append(errs, field.Duplicate(field.NewPath("machines").Index(i), m))
		}
		declared[m] = true
	}

	seen := make(map[int]bool, len(jobs))
	for i, j := range jobs {
		jobPath := root.Index(i)
		if seen[j.ID] {
			errs = append(errs, field.Duplicate(jobPath.Child("id"), j.ID))
		}
		seen[j.ID] = true

		if len(j.Operations) == 0 {
			errs = append(errs, field.Required(jobPath.Child("operations"), "job must have at least one operation"))
			continue
		}
		for k, op := range j.Operations {
			opPath := jobPath.Child("operations").Index(k)
			if op.ProcessingTime <= 0 {
				errs = append(errs, field.Invalid(opPath.Child("processingTime"), op.ProcessingTime, "must be greater than 0"))
			}
			if len(machines) > 0 && !declared[op.Machine] {
				errs = append(errs, field.NotFound(opPath.Child("machine"), op.Machine))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidInstance, errs.ToAggregate())
}

// Jobs returns the jobs in their canonical order.
func (inst *Instance) Jobs() []Job {
	out := make([]Job, len(inst.jobs))
	for i, j := range inst.jobs {
		out[i] = Job{ID: j.ID, Operations: slices.Clone(j.Operations)}
	}
	return out
}

// Machines returns the machine ids of the instance.
func (inst *Instance) Machines() []int {
	return slices.Clone(inst.machines)
}

// Operations returns the canonical operation set: every job's operations in
// job order, each job's block in its fixed internal order.
func (inst *Instance) Operations() []Operation {
	return slices.Clone(inst.ops)
}

func (inst *Instance) NumJobs() int {
	return len(inst.jobs)
}

func (inst *Instance) NumMachines() int {
	return len(inst.machines)
}

func (inst *Instance) NumOperations() int {
	return len(inst.ops)
}

func (inst *Instance) String() string {
	return fmt.Sprintf("%s (%d jobs, %d machines, %d operations)", inst.Name, inst.NumJobs(), inst.NumMachines(), inst.NumOperations())
}

// InstanceFromConfig converts a versioned descriptor into a validated Instance.
func InstanceFromConfig(cfg *v1alpha1.JobShopInstance) (*Instance, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: descriptor is nil", ErrInvalidInstance)
	}
	jobs := make([]Job, len(cfg.Jobs))
	for i, js := range cfg.Jobs {
		ops := make([]Operation, len(js.Operations))
		for k, spec := range js.Operations {
			ops[k] = Operation{Job: js.ID, Machine: spec.Machine, ProcessingTime: spec.ProcessingTime}
		}
		jobs[i] = Job{ID: js.ID, Operations: ops}
	}
	return NewInstance(cfg.Name, cfg.Machines, jobs)
}

// DecodeInstance parses a YAML or JSON JobShopInstance document.
func DecodeInstance(data []byte) (*Instance, error) {
	var cfg v1alpha1.JobShopInstance
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidInstance, err)
	}
	if cfg.Kind != "" && cfg.Kind != v1alpha1.KindJobShopInstance {
		return nil, fmt.Errorf("%w: unexpected kind %q", ErrInvalidInstance, cfg.Kind)
	}
	return InstanceFromConfig(&cfg)
}
