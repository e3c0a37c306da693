/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// GroupVersion is the apiVersion every descriptor in this package is written with.
	GroupVersion = "jobshop.x-k8s.io/v1alpha1"

	// KindCulturalAlgorithmArgs is the kind of CulturalAlgorithmArgs documents.
	KindCulturalAlgorithmArgs = "CulturalAlgorithmArgs"

	// KindJobShopInstance is the kind of JobShopInstance documents.
	KindJobShopInstance = "JobShopInstance"
)

// CulturalAlgorithmArgs holds the tunables of a single cultural algorithm run.
// Every field is optional; unset fields are filled in by SetDefaults_CulturalAlgorithmArgs.
type CulturalAlgorithmArgs struct {
	metav1.TypeMeta `json:",inline"`

	// PopulationSize is the number of schedules kept in every generation
	PopulationSize *int32 `json:"populationSize,omitempty"`

	// MutationProbability is the chance that a child gets a swap mutation
	MutationProbability *float64 `json:"mutationProbability,omitempty"`

	// MaxStagnation is the number of consecutive generations without
	// improvement of the best-ever makespan after which the run stops
	MaxStagnation *int32 `json:"maxStagnation,omitempty"`

	// MaxGenerations bounds the run regardless of stagnation
	MaxGenerations *int32 `json:"maxGenerations,omitempty"`

	// Seed feeds the random source. Runs with equal seeds and instances are identical.
	Seed *uint64 `json:"seed,omitempty"`

	// ResultPolicy selects which schedule a finished run reports as its result
	// +kubebuilder:validation:Enum=BestEver;FinalGeneration
	ResultPolicy *ResultPolicy `json:"resultPolicy,omitempty"`

	// VerifyInvariants enables the permutation and job-order check on every produced child
	VerifyInvariants *bool `json:"verifyInvariants,omitempty"`
}

// ResultPolicy represents which schedule is reported at termination
type ResultPolicy string

const (
	// ResultPolicyBestEver reports the schedule that reached the best-ever makespan
	ResultPolicyBestEver ResultPolicy = "BestEver"

	// ResultPolicyFinalGeneration reports the best schedule of the last generation
	ResultPolicyFinalGeneration ResultPolicy = "FinalGeneration"
)

// JobShopInstance describes a job-shop problem: a set of machines and an
// ordered list of jobs, each an ordered list of operations.
type JobShopInstance struct {
	metav1.TypeMeta `json:",inline"`

	// Name identifies the instance in reports and charts
	Name string `json:"name,omitempty"`

	// Machines lists the machine ids operations may reference.
	// When empty the machine set is derived from the operations.
	Machines []int `json:"machines,omitempty"`

	// Jobs is the ordered list of jobs
	Jobs []JobSpec `json:"jobs"`
}

// JobSpec is one job of a JobShopInstance
type JobSpec struct {
	// ID of the job. Must be unique within the instance.
	ID int `json:"id"`

	// Operations in the order they must be executed
	Operations []OperationSpec `json:"operations"`
}

// OperationSpec is a single processing step of a job
type OperationSpec struct {
	// Machine the operation runs on
	Machine int `json:"machine"`

	// ProcessingTime is the duration of the operation, must be positive
	ProcessingTime int `json:"processingTime"`
}
