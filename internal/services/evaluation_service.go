package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/coderbench/exercise-service/internal/models"
	"github.com/coderbench/exercise-service/internal/repositories"
	"github.com/coderbench/exercise-service/internal/runner"
	"github.com/coderbench/exercise-service/internal/validator"
)

// OutputComparator decides whether a program's output matches the expected
// output.
type OutputComparator interface {
	Equal(actual, expected string) bool
}

// ExactComparator requires byte-for-byte equality.
type ExactComparator struct{}

func (ExactComparator) Equal(actual, expected string) bool {
	return actual == expected
}

// NormalizedComparator ignores trailing whitespace per line and trailing
// newlines, the usual judge leniency.
type NormalizedComparator struct{}

func (NormalizedComparator) Equal(actual, expected string) bool {
	return normalizeOutput(actual) == normalizeOutput(expected)
}

func normalizeOutput(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// DefaultResourceLimits bound a test run when the caller does not configure
// limits explicitly.
var DefaultResourceLimits = runner.ResourceLimits{
	TimeLimit:   2 * time.Second,
	WallClock:   10 * time.Second,
	MemoryLimit: 256 * 1024,
}

// testDetail is the per-test diagnostic stored in SubmissionResult.TestDetails.
type testDetail struct {
	Index    int                     `json:"index"`
	Verdict  models.SubmissionStatus `json:"verdict"`
	TimeMs   int                     `json:"time_ms"`
	MemoryKB int                     `json:"memory_kb"`
	Message  string                  `json:"message,omitempty"`
}

type evaluationService struct {
	repo       repositories.Repository
	runner     runner.Runner
	validator  *validator.Validator
	visibility VisibilityService
	comparator OutputComparator
	notifier   NotificationEventService
	logger     *slog.Logger
	limits     runner.ResourceLimits
	now        clock
}

func NewEvaluationService(repo repositories.Repository, r runner.Runner, v *validator.Validator, visibility VisibilityService, notifier NotificationEventService, logger *slog.Logger) EvaluationService {
	return &evaluationService{
		repo:       repo,
		runner:     r,
		validator:  v,
		visibility: visibility,
		comparator: NormalizedComparator{},
		notifier:   notifier,
		logger:     logger,
		limits:     DefaultResourceLimits,
		now:        systemClock,
	}
}

// NewEvaluationServiceWithComparator swaps the output matching policy.
func NewEvaluationServiceWithComparator(repo repositories.Repository, r runner.Runner, v *validator.Validator, visibility VisibilityService, notifier NotificationEventService, logger *slog.Logger, cmp OutputComparator) EvaluationService {
	s := NewEvaluationService(repo, r, v, visibility, notifier, logger).(*evaluationService)
	s.comparator = cmp
	return s
}

func (s *evaluationService) Evaluate(ctx context.Context, principal models.Principal, req *EvaluateRequest) (*models.SubmissionResult, error) {
	studentID := principal.ID
	s.logger.Info("Evaluating submission", "exercise_id", req.ExerciseID, "student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exercise, err := s.repo.Exercise().GetByIDWithTests(ctx, nil, req.ExerciseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("exercise", req.ExerciseID)
		}
		return nil, fmt.Errorf("failed to load exercise: %w", err)
	}

	if err := s.authorizeExercise(ctx, principal, exercise, "submit"); err != nil {
		return nil, err
	}

	// Zero tests is an in-band outcome, not an error.
	if len(exercise.Tests) == 0 {
		msg := "exercise has no correctness tests"
		result := &models.SubmissionResult{
			ExerciseID: exercise.ID,
			StudentID:  studentID,
			Status:     models.StatusNoTests,
			Message:    &msg,
		}
		return s.persist(ctx, result)
	}

	if errs := s.validator.GetBusinessValidator().ValidateTests(exercise.Tests); len(errs) > 0 {
		return nil, errs
	}

	compilerURL, err := s.compilerURL(ctx, exercise)
	if err != nil {
		return nil, err
	}

	compile, err := s.compileWithRetry(ctx, req.Code, compilerURL)
	if err != nil {
		return nil, err
	}

	if !compile.Success {
		result := &models.SubmissionResult{
			ExerciseID:    exercise.ID,
			StudentID:     studentID,
			Status:        models.StatusCompileError,
			CompileOutput: optString(compile.Output),
			Error:         optString(compile.Error),
			TestsTotal:    len(exercise.Tests),
		}
		return s.persist(ctx, result)
	}

	result, err := s.runTests(ctx, exercise, studentID, compile.ArtifactID, compilerURL)
	if err != nil {
		return nil, err
	}

	return s.persist(ctx, result)
}

func (s *evaluationService) History(ctx context.Context, principal models.Principal, exerciseID uuid.UUID, studentID string, filters *repositories.ResultFilters) ([]models.SubmissionResult, error) {
	if err := s.authorizeResultRead(ctx, principal, exerciseID, studentID); err != nil {
		return nil, err
	}

	f := repositories.ResultFilters{}
	if filters != nil {
		f = *filters
	}
	rows, err := s.repo.Result().ListByExerciseAndStudent(ctx, nil, exerciseID, studentID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	out := make([]models.SubmissionResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	return out, nil
}

func (s *evaluationService) GetLatest(ctx context.Context, principal models.Principal, exerciseID uuid.UUID, studentID string) (*models.SubmissionResult, error) {
	if err := s.authorizeResultRead(ctx, principal, exerciseID, studentID); err != nil {
		return nil, err
	}

	result, err := s.repo.Result().GetLatest(ctx, nil, exerciseID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("submission result", fmt.Sprintf("%s/%s", exerciseID, studentID))
		}
		return nil, fmt.Errorf("failed to load latest result: %w", err)
	}
	return result, nil
}

// authorizeExercise verifies the principal can reach the exercise: an
// assignment for it, or one of its scope groups inside the principal's
// resolved visibility. Administrators pass unconditionally.
func (s *evaluationService) authorizeExercise(ctx context.Context, principal models.Principal, exercise *models.Exercise, action string) error {
	if principal.Role == models.RoleAdministrator {
		return nil
	}

	// A published assignment is authorization on its own, even if the
	// student's group membership was removed afterwards.
	if _, err := s.repo.Assignment().GetByExerciseAndStudent(ctx, nil, exercise.ID, principal.ID); err == nil {
		return nil
	} else if !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to check assignment: %w", err)
	}

	scope, err := s.visibility.Resolve(ctx, principal)
	if err != nil {
		return err
	}
	scopes, err := s.repo.Exercise().GetScopes(ctx, nil, exercise.ID)
	if err != nil {
		return fmt.Errorf("failed to load exercise scopes: %w", err)
	}
	for _, sc := range scopes {
		if scope.ContainsGroup(sc.GroupID) {
			return nil
		}
	}
	return NewPermissionError(principal.ID, exercise.ID, "exercise", action,
		"exercise is outside the caller's visibility")
}

// authorizeResultRead gates result history access: students only read their
// own, everyone must reach the exercise through their scope.
func (s *evaluationService) authorizeResultRead(ctx context.Context, principal models.Principal, exerciseID uuid.UUID, studentID string) error {
	if principal.Role == models.RoleStudent && principal.ID != studentID {
		return NewPermissionError(principal.ID, exerciseID, "submission result", "read",
			"students may only read their own results")
	}

	exercise, err := s.repo.Exercise().GetByID(ctx, nil, exerciseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("exercise", exerciseID)
		}
		return fmt.Errorf("failed to load exercise: %w", err)
	}
	return s.authorizeExercise(ctx, principal, exercise, "read results")
}

// compilerURL resolves the execution backend for the exercise's language.
func (s *evaluationService) compilerURL(ctx context.Context, exercise *models.Exercise) (string, error) {
	if exercise.ProgrammingLanguage.CompilerURL != "" {
		return exercise.ProgrammingLanguage.CompilerURL, nil
	}
	lang, err := s.repo.Language().GetByID(ctx, nil, exercise.ProgrammingLanguageID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return "", NewNotFoundError("programming language", exercise.ProgrammingLanguageID)
		}
		return "", fmt.Errorf("failed to load programming language: %w", err)
	}
	return lang.CompilerURL, nil
}

// compileWithRetry retries once on a transient backend fault before surfacing
// a typed execution error.
func (s *evaluationService) compileWithRetry(ctx context.Context, code, compilerURL string) (*runner.CompileOutcome, error) {
	out, err := s.runner.Compile(ctx, code, compilerURL)
	if err != nil && ctx.Err() == nil && errors.Is(err, runner.ErrUnavailable) {
		s.logger.Warn("Compile backend unavailable, retrying once", "error", err)
		out, err = s.runner.Compile(ctx, code, compilerURL)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NewExecutionError("compile", err)
	}
	return out, nil
}

// runWithRetry retries one transient fault or one hard wall-clock expiry
// before surfacing it.
func (s *evaluationService) runWithRetry(ctx context.Context, artifactID, input, compilerURL string) (*runner.RunOutcome, error) {
	out, err := s.runner.Run(ctx, artifactID, input, s.limits, compilerURL)
	if err != nil && ctx.Err() == nil &&
		(errors.Is(err, runner.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded)) {
		s.logger.Warn("Run attempt failed, retrying once", "error", err)
		out, err = s.runner.Run(ctx, artifactID, input, s.limits, compilerURL)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewExecutionTimeoutError("run", err)
		}
		return nil, NewExecutionError("run", err)
	}
	return out, nil
}

// runTests executes every test and reduces the per-test verdicts to one
// status. Resource limit verdicts outrank wrong answers; the first offending
// test's diagnostic lands in the result message.
func (s *evaluationService) runTests(ctx context.Context, exercise *models.Exercise, studentID, artifactID, compilerURL string) (*models.SubmissionResult, error) {
	var (
		details     []testDetail
		fatalStatus models.SubmissionStatus
		fatalMsg    string
		mismatch    bool
		passed      int
		maxTimeMs   int
		maxMemoryKB int
	)

	for i, test := range exercise.Tests {
		verdict := models.StatusAccepted
		var message string
		var testTimeMs, testMemoryKB int

		inputs, outputs := orderedPairs(&test)
		for p := range inputs {
			outcome, err := s.runWithRetry(ctx, artifactID, inputs[p], compilerURL)
			if err != nil {
				return nil, err
			}

			if outcome.TimeMs > testTimeMs {
				testTimeMs = outcome.TimeMs
			}
			if outcome.MemoryKB > testMemoryKB {
				testMemoryKB = outcome.MemoryKB
			}

			switch {
			case outcome.TimedOut:
				verdict = models.StatusTimeLimitExceeded
				message = fmt.Sprintf("test %d: time limit exceeded after %dms", i+1, outcome.TimeMs)
			case outcome.Crashed:
				verdict = models.StatusRuntimeError
				message = fmt.Sprintf("test %d: runtime error (exit code %d)", i+1, outcome.ExitCode)
			case s.limits.MemoryLimit > 0 && outcome.MemoryKB > s.limits.MemoryLimit:
				verdict = models.StatusMemoryLimitExceeded
				message = fmt.Sprintf("test %d: memory limit exceeded (%d KB)", i+1, outcome.MemoryKB)
			case !s.comparator.Equal(outcome.Output, outputs[p]):
				verdict = models.StatusWrongAnswer
				message = fmt.Sprintf("test %d: output mismatch", i+1)
			}
			if verdict != models.StatusAccepted {
				break
			}
		}

		if testTimeMs > maxTimeMs {
			maxTimeMs = testTimeMs
		}
		if testMemoryKB > maxMemoryKB {
			maxMemoryKB = testMemoryKB
		}

		switch verdict {
		case models.StatusAccepted:
			passed++
		case models.StatusWrongAnswer:
			mismatch = true
			if fatalMsg == "" && fatalStatus == "" {
				fatalMsg = message
			}
		default:
			if fatalStatus == "" {
				fatalStatus = verdict
				fatalMsg = message
			}
		}

		details = append(details, testDetail{
			Index:    i + 1,
			Verdict:  verdict,
			TimeMs:   testTimeMs,
			MemoryKB: testMemoryKB,
			Message:  message,
		})
	}

	status := models.StatusAccepted
	switch {
	case fatalStatus != "":
		status = fatalStatus
	case mismatch:
		status = models.StatusWrongAnswer
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode test details: %w", err)
	}

	result := &models.SubmissionResult{
		ExerciseID:  exercise.ID,
		StudentID:   studentID,
		Status:      status,
		TimeMs:      maxTimeMs,
		MemoryKB:    maxMemoryKB,
		TestsPassed: passed,
		TestsTotal:  len(exercise.Tests),
		TestDetails: datatypes.JSON(detailsJSON),
	}
	if fatalMsg != "" {
		result.Message = &fatalMsg
	}
	return result, nil
}

// persist writes the result unless the caller already gave up. Cancellation
// before this point leaves no partial row behind.
func (s *evaluationService) persist(ctx context.Context, result *models.SubmissionResult) (*models.SubmissionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if result.CreatedAt.IsZero() {
		result.CreatedAt = s.now()
	}
	if err := s.repo.Result().Create(ctx, nil, result); err != nil {
		return nil, fmt.Errorf("failed to persist result: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.PublishSubmissionEvaluated(ctx, result); err != nil {
			s.logger.Warn("Failed to publish evaluation event", "result_id", result.ID, "error", err)
		}
	}

	s.logger.Info("Submission evaluated",
		"exercise_id", result.ExerciseID,
		"student_id", result.StudentID,
		"status", result.Status,
		"tests_passed", result.TestsPassed,
		"tests_total", result.TestsTotal)

	return result, nil
}

// orderedPairs returns the test's inputs and expected outputs sorted by
// position. Pairing validity is checked before any run.
func orderedPairs(test *models.CorrectnessTest) ([]string, []string) {
	inputs := make([]string, len(test.Inputs))
	outputs := make([]string, len(test.Outputs))

	for _, in := range test.Inputs {
		if in.Position >= 0 && in.Position < len(inputs) {
			inputs[in.Position] = in.Content
		}
	}
	for _, out := range test.Outputs {
		if out.Position >= 0 && out.Position < len(outputs) {
			outputs[out.Position] = out.Content
		}
	}
	return inputs, outputs
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
