package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// HTTPRunner talks to the compiler service referenced by a programming
// language's CompilerURL. One runner instance serves all languages; the URL
// is passed per call because each language may point at a different backend.
type HTTPRunner struct {
	client *http.Client
	logger *slog.Logger
}

type HTTPRunnerConfig struct {
	RequestTimeout time.Duration
}

func NewHTTPRunner(cfg HTTPRunnerConfig, logger *slog.Logger) *HTTPRunner {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &HTTPRunner{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type compileRequest struct {
	Code string `json:"code"`
}

type runRequest struct {
	ArtifactID  string `json:"artifact_id"`
	Input       string `json:"input"`
	TimeLimitMs int    `json:"time_limit_ms"`
	MemoryLimit int    `json:"memory_limit_kb"`
}

func (r *HTTPRunner) Compile(ctx context.Context, code string, compilerURL string) (*CompileOutcome, error) {
	var outcome CompileOutcome
	if err := r.post(ctx, compilerURL+"/compile", compileRequest{Code: code}, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (r *HTTPRunner) Run(ctx context.Context, artifactID string, input string, limits ResourceLimits, compilerURL string) (*RunOutcome, error) {
	req := runRequest{
		ArtifactID:  artifactID,
		Input:       input,
		TimeLimitMs: int(limits.TimeLimit.Milliseconds()),
		MemoryLimit: limits.MemoryLimit,
	}

	runCtx := ctx
	if limits.WallClock > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, limits.WallClock)
		defer cancel()
	}

	var outcome RunOutcome
	if err := r.post(runCtx, compilerURL+"/run", req, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (r *HTTPRunner) post(ctx context.Context, url string, body interface{}, dest interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal runner request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build runner request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		// Context errors pass through so the caller can tell a hard timeout
		// from a backend fault.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: backend returned %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("runner request failed with status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode runner response: %w", err)
	}
	return nil
}
