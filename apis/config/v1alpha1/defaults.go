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
	"k8s.io/utils/ptr"
)

var (
	DefaultPopulationSize      int32   = 10
	DefaultMutationProbability float64 = 0.1
	DefaultMaxStagnation       int32   = 20
	DefaultMaxGenerations      int32   = 1000
	DefaultResultPolicy                = ResultPolicyBestEver
	DefaultVerifyInvariants            = true
)

// SetDefaults_CulturalAlgorithmArgs sets the default parameters for a cultural algorithm run.
// Seed is left alone: a nil seed means the caller picks one.
func SetDefaults_CulturalAlgorithmArgs(obj *CulturalAlgorithmArgs) {
	if obj.APIVersion == "" {
		obj.APIVersion = GroupVersion
	}
	if obj.Kind == "" {
		obj.Kind = KindCulturalAlgorithmArgs
	}
	if obj.PopulationSize == nil {
		obj.PopulationSize = ptr.To(DefaultPopulationSize)
	}
	if obj.MutationProbability == nil {
		obj.MutationProbability = ptr.To(DefaultMutationProbability)
	}
	if obj.MaxStagnation == nil {
		obj.MaxStagnation = ptr.To(DefaultMaxStagnation)
	}
	if obj.MaxGenerations == nil {
		obj.MaxGenerations = ptr.To(DefaultMaxGenerations)
	}
	if obj.ResultPolicy == nil {
		obj.ResultPolicy = ptr.To(DefaultResultPolicy)
	}
	if obj.VerifyInvariants == nil {
		obj.VerifyInvariants = ptr.To(DefaultVerifyInvariants)
	}
}
