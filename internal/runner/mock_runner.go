package runner

import (
	"context"
	"sync"
)

// MockRunner scripts compile/run outcomes for tests. Outcomes are consumed
// per call; when the scripts run dry the zero-value success outcome is
// returned.
type MockRunner struct {
	mu sync.Mutex

	CompileFunc func(ctx context.Context, code string, compilerURL string) (*CompileOutcome, error)
	RunFunc     func(ctx context.Context, artifactID string, input string, limits ResourceLimits, compilerURL string) (*RunOutcome, error)

	CompileCalls int
	RunCalls     int
}

func (m *MockRunner) Compile(ctx context.Context, code string, compilerURL string) (*CompileOutcome, error) {
	m.mu.Lock()
	m.CompileCalls++
	fn := m.CompileFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, code, compilerURL)
	}
	return &CompileOutcome{Success: true, ArtifactID: "artifact"}, nil
}

func (m *MockRunner) Run(ctx context.Context, artifactID string, input string, limits ResourceLimits, compilerURL string) (*RunOutcome, error) {
	m.mu.Lock()
	m.RunCalls++
	fn := m.RunFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, artifactID, input, limits, compilerURL)
	}
	return &RunOutcome{Output: ""}, nil
}
