// Package types defines the core domain types shared across decomp packages.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
	"strings"
)

// WorkflowKind names a server-side transformation.
type WorkflowKind string

const (
	// WorkflowDecompose runs /dec-tool/decompose on a staged model.
	WorkflowDecompose WorkflowKind = "decompose"
	// WorkflowOptimize runs /dec-tool/optimize on a staged model.
	WorkflowOptimize WorkflowKind = "optimize"
	// WorkflowEnhance runs /dec-tool/enhance on a staged model and data file.
	WorkflowEnhance WorkflowKind = "enhance"
)

// WorkflowKinds returns every supported workflow kind in display order.
func WorkflowKinds() []WorkflowKind {
	return []WorkflowKind{WorkflowDecompose, WorkflowOptimize, WorkflowEnhance}
}

// ParseWorkflowKind parses a workflow name, case-insensitively.
func ParseWorkflowKind(s string) (WorkflowKind, error) {
	switch WorkflowKind(strings.ToLower(strings.TrimSpace(s))) {
	case WorkflowDecompose:
		return WorkflowDecompose, nil
	case WorkflowOptimize:
		return WorkflowOptimize, nil
	case WorkflowEnhance:
		return WorkflowEnhance, nil
	default:
		return "", fmt.Errorf("unknown workflow %q (must be decompose, optimize, or enhance)", s)
	}
}

// Stage is a state of the run state machine.
//
// Success path: idle -> staging -> remote_op -> retrieving -> cleanup -> done.
// Any stage may move to failed, which is always followed by cleanup and done.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageStaging    Stage = "staging"
	StageRemoteOp   Stage = "remote_op"
	StageRetrieving Stage = "retrieving"
	StageCleanup    Stage = "cleanup"
	StageFailed     Stage = "failed"
	StageDone       Stage = "done"
)

// OutcomeStatus is the final status of a run.
type OutcomeStatus string

const (
	// OutcomeSuccess means the result was downloaded over the artifact.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeFailed means a stage failed; the artifact is untouched unless
	// the failure happened after the backup was taken.
	OutcomeFailed OutcomeStatus = "failed"
	// OutcomeSkipped means another run already held the artifact.
	OutcomeSkipped OutcomeStatus = "skipped"
)

// RunMeta identifies one workflow run on one artifact.
type RunMeta struct {
	// RunID is unique per run.
	RunID string
	// Kind is the workflow being run.
	Kind WorkflowKind
	// Artifact is the absolute local path of the model file.
	Artifact string
}

// Validate checks that the run identity is complete.
func (m *RunMeta) Validate() error {
	if m.RunID == "" {
		return errors.New("run_id must be non-empty")
	}
	if _, err := ParseWorkflowKind(string(m.Kind)); err != nil {
		return err
	}
	if m.Artifact == "" {
		return errors.New("artifact path must be non-empty")
	}
	return nil
}
