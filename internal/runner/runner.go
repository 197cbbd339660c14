// Package runner abstracts the external compile-and-execute service that
// judges submissions. The evaluation service owns classification; the runner
// only reports what happened.
package runner

import (
	"context"
	"errors"
	"time"
)

// ResourceLimits bound a single test execution. WallClock is the hard
// infrastructure timeout; TimeLimit is the graded per-test limit the runner
// enforces and reports via RunOutcome.TimedOut.
type ResourceLimits struct {
	TimeLimit   time.Duration `json:"time_limit"`
	WallClock   time.Duration `json:"wall_clock"`
	MemoryLimit int           `json:"memory_limit_kb"`
}

// CompileOutcome is the result of compiling a submission. Success false is
// an in-band outcome (the student's code does not compile), not an error.
type CompileOutcome struct {
	Success    bool   `json:"success"`
	ArtifactID string `json:"artifact_id"`
	Output     string `json:"output"`
	Error      string `json:"error"`
}

// RunOutcome is the result of running a compiled artifact against one input.
// TimedOut and Crashed are in-band outcomes; infrastructure faults surface
// as errors from Run.
type RunOutcome struct {
	Output   string `json:"output"`
	TimeMs   int    `json:"time_ms"`
	MemoryKB int    `json:"memory_kb"`
	TimedOut bool   `json:"timed_out"`
	Crashed  bool   `json:"crashed"`
	ExitCode int    `json:"exit_code"`
}

// Runner compiles and executes submissions against a language's toolchain.
type Runner interface {
	Compile(ctx context.Context, code string, compilerURL string) (*CompileOutcome, error)
	Run(ctx context.Context, artifactID string, input string, limits ResourceLimits, compilerURL string) (*RunOutcome, error)
}

// ErrUnavailable indicates the execution backend could not be reached or
// answered with a transient failure. Callers may retry.
var ErrUnavailable = errors.New("execution backend unavailable")
