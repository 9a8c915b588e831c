package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/autosave"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/config"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/events"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/repositories"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/scoring"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/services"
)

// submitRetryDelay is how long the engine waits before retrying a submit that
// failed on a store write while the timer has already fired.
const submitRetryDelay = 5 * time.Second

// QuizProvider fetches a quiz definition. The cache layer and the raw
// repository both satisfy it.
type QuizProvider interface {
	GetQuiz(ctx context.Context, quizID string) (*models.Quiz, error)
}

// Engine runs one student's pass through a single quiz: load, answer, flag,
// autosave, and submit, with a countdown timer that force-submits on expiry.
// One Engine serves one (quiz, student) pair; create a new Engine per session.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	cfg         config.SessionConfig
	quizzes     QuizProvider
	eligibility services.EligibilityService
	results     services.ResultService
	store       autosave.Store
	publisher   events.EventPublisher
	logger      *slog.Logger
	scoringOpts scoring.Options
	now         func() time.Time

	state     State
	stateErr  error
	quiz      *models.Quiz
	studentID string
	answers   models.AnswerMap
	flagged   map[string]bool
	startedAt time.Time
	deadline  *time.Time

	// restoredFrom is the save time of the autosave snapshot this session
	// resumed from, nil for a fresh start.
	restoredFrom *time.Time

	dirty bool

	expiryTimer   *time.Timer
	retryTimer    *time.Timer
	autosaveStop  chan struct{}
	autosaveDone  chan struct{}
	timersStopped bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock substitutes the time source. Tests use this to drive timer math
// without sleeping.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithScoringOptions overrides the scoring policy applied at submit.
func WithScoringOptions(opts scoring.Options) Option {
	return func(e *Engine) { e.scoringOpts = opts }
}

func NewEngine(
	cfg config.SessionConfig,
	quizzes QuizProvider,
	eligibility services.EligibilityService,
	results services.ResultService,
	store autosave.Store,
	publisher events.EventPublisher,
	logger *slog.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		cfg:         cfg,
		quizzes:     quizzes,
		eligibility: eligibility,
		results:     results,
		store:       store,
		publisher:   publisher,
		logger:      logger,
		scoringOpts: scoring.DefaultOptions(),
		now:         time.Now,
		state:       StateIdle,
		flagged:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ===== LIFECYCLE =====

// Load takes the session from Idle to Active: fetch the quiz, run the
// eligibility checks, seed the answer map, and overlay any fresh autosave
// snapshot. The countdown timer starts at the full budget on every load.
func (e *Engine) Load(ctx context.Context, quizID, studentID string) (*LoadReport, error) {
	e.mu.Lock()
	if e.state != StateIdle && e.state != StateError {
		state := e.state
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot load in state %s", services.ErrSessionNotActive, state)
	}
	e.state = StateLoading
	e.stateErr = nil
	e.mu.Unlock()

	quiz, err := e.fetchQuiz(ctx, quizID)
	if err != nil {
		return nil, e.failLoad(err)
	}

	if err := e.checkEligibility(ctx, quiz, studentID); err != nil {
		return nil, e.failLoad(err)
	}

	answers := quiz.EmptyAnswers()
	flagged := make(map[string]bool)
	report := buildLoadReport(quiz, studentID)

	snapshot, err := e.store.Load(ctx, quizID, studentID)
	if err != nil {
		// A broken autosave store must not keep a student out of the quiz.
		e.logger.Warn("autosave load failed, starting fresh",
			"quiz_id", quizID, "student_id", studentID, "error", err)
	} else if snapshot != nil {
		for questionID, value := range snapshot.Answers {
			if _, ok := answers[questionID]; ok {
				answers[questionID] = value
			}
		}
		for _, questionID := range snapshot.Flagged {
			if _, ok := answers[questionID]; ok {
				flagged[questionID] = true
			}
		}
		report.RestoredFromSnapshot = true
		savedAt := snapshot.SavedAt
		report.SnapshotSavedAt = &savedAt
	}

	e.mu.Lock()
	e.quiz = quiz
	e.studentID = studentID
	e.answers = answers
	e.flagged = flagged
	e.restoredFrom = report.SnapshotSavedAt
	e.startedAt = e.now()
	e.state = StateActive
	e.dirty = false
	e.timersStopped = false

	if quiz.TimeLimitSeconds != nil {
		budget := time.Duration(*quiz.TimeLimitSeconds) * time.Second
		deadline := e.startedAt.Add(budget)
		e.deadline = &deadline
		e.expiryTimer = time.AfterFunc(budget, e.onExpiry)
		remaining := budget
		report.TimeRemaining = &remaining
	}

	e.startAutosaveLoop()
	e.mu.Unlock()

	e.logger.Info("session active",
		"quiz_id", quizID, "student_id", studentID,
		"restored", report.RestoredFromSnapshot)

	if e.publisher != nil {
		started := events.AttemptStartedEvent{
			QuizID:        quizID,
			StudentID:     studentID,
			QuestionCount: len(quiz.Questions),
		}
		if report.SnapshotSavedAt != nil {
			started.ResumedFrom = report.SnapshotSavedAt.Format(time.RFC3339)
		}
		event := events.NewSessionEvent(events.EventAttemptStarted, started)
		if err := e.publisher.PublishSessionEvent(ctx, event); err != nil {
			e.logger.Warn("failed to publish attempt started event", "error", err)
		}
	}

	return report, nil
}

func (e *Engine) fetchQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	var quiz *models.Quiz
	err := services.WithRetry(ctx, e.cfg.LoadRetries, e.cfg.RetryBaseDelay, func() error {
		var err error
		quiz, err = e.quizzes.GetQuiz(ctx, quizID)
		if err != nil && repositories.IsNotFoundError(err) {
			// Missing quiz is not transient; stop retrying.
			return services.PermanentError(services.ErrQuizNotFound)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, services.ErrQuizNotFound) {
			return nil, services.ErrQuizNotFound
		}
		return nil, fmt.Errorf("%w: %v", services.ErrLoadFailed, err)
	}
	return quiz, nil
}

func (e *Engine) checkEligibility(ctx context.Context, quiz *models.Quiz, studentID string) error {
	var decision services.Decision
	// Only infrastructure failures come back as an error; a firm "no" sits
	// inside the decision and is never retried.
	err := services.WithRetry(ctx, e.cfg.LoadRetries, e.cfg.RetryBaseDelay, func() error {
		var err error
		decision, err = e.eligibility.Check(ctx, quiz, studentID)
		return err
	})
	if err != nil {
		return err
	}
	if !decision.Eligible {
		return decision.Err
	}
	return nil
}

func (e *Engine) failLoad(err error) error {
	e.mu.Lock()
	e.state = StateError
	e.stateErr = err
	e.mu.Unlock()
	e.logger.Warn("session load failed", "error", err)
	return err
}

// Close stops the timers and the autosave loop. It does not submit; an
// in-progress session can be resumed later through a fresh Load, restoring
// from the last autosave.
func (e *Engine) Close() {
	e.mu.Lock()
	e.stopTimersLocked()
	e.mu.Unlock()
}

// stopTimersLocked halts the expiry timer, the retry timer, and the autosave
// goroutine as a unit. Callers hold e.mu.
func (e *Engine) stopTimersLocked() {
	if e.timersStopped {
		return
	}
	e.timersStopped = true
	if e.expiryTimer != nil {
		e.expiryTimer.Stop()
	}
	if e.retryTimer != nil {
		e.retryTimer.Stop()
	}
	if e.autosaveStop != nil {
		close(e.autosaveStop)
	}
}

// ===== ANSWERING =====

// Answer records the student's response to a question. A nil value clears the
// answer back to unanswered.
func (e *Engine) Answer(questionID string, value *models.AnswerValue) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateActive {
		return fmt.Errorf("%w: state is %s", services.ErrSessionNotActive, e.state)
	}
	if _, ok := e.answers[questionID]; !ok {
		return fmt.Errorf("%w: %s", services.ErrUnknownQuestion, questionID)
	}

	e.answers[questionID] = value
	e.dirty = true
	return nil
}

// Flag marks a question for review. Flags are presentation state only and
// never affect scoring.
func (e *Engine) Flag(questionID string) error {
	return e.setFlag(questionID, true)
}

// Unflag removes a review mark.
func (e *Engine) Unflag(questionID string) error {
	return e.setFlag(questionID, false)
}

func (e *Engine) setFlag(questionID string, flagged bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateActive {
		return fmt.Errorf("%w: state is %s", services.ErrSessionNotActive, e.state)
	}
	if _, ok := e.answers[questionID]; !ok {
		return fmt.Errorf("%w: %s", services.ErrUnknownQuestion, questionID)
	}

	if flagged {
		e.flagged[questionID] = true
	} else {
		delete(e.flagged, questionID)
	}
	e.dirty = true
	return nil
}

// ===== INSPECTION =====

// State reports the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// StateError returns the error that put the session into the Error state, or
// nil.
func (e *Engine) StateError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateErr
}

// Quiz returns the loaded quiz, or nil before Load succeeds.
func (e *Engine) Quiz() *models.Quiz {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quiz
}

// Answers returns a copy of the current answer map.
func (e *Engine) Answers() models.AnswerMap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.answers.Clone()
}

// FlaggedQuestions lists the question ids currently marked for review.
func (e *Engine) FlaggedQuestions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flaggedLocked()
}

func (e *Engine) flaggedLocked() []string {
	ids := make([]string, 0, len(e.flagged))
	for id := range e.flagged {
		ids = append(ids, id)
	}
	return ids
}

// TimeRemaining reports the countdown, or nil when the quiz is untimed or the
// session has not started.
func (e *Engine) TimeRemaining() *time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deadline == nil {
		return nil
	}
	remaining := e.deadline.Sub(e.now())
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// Report rebuilds the load report from live state, for callers reattaching
// to a session that is already running.
func (e *Engine) Report() *LoadReport {
	e.mu.Lock()
	studentID := e.studentID
	restoredFrom := e.restoredFrom
	e.mu.Unlock()

	report := buildLoadReport(e.Quiz(), studentID)
	report.RestoredFromSnapshot = restoredFrom != nil
	report.SnapshotSavedAt = restoredFrom
	report.TimeRemaining = e.TimeRemaining()
	return report
}

// ===== AUTOSAVE =====

func (e *Engine) startAutosaveLoop() {
	if e.cfg.AutosaveInterval <= 0 {
		return
	}
	e.autosaveStop = make(chan struct{})
	e.autosaveDone = make(chan struct{})
	go e.autosaveLoop(e.autosaveStop, e.autosaveDone)
}

func (e *Engine) autosaveLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.cfg.AutosaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.autosaveTick()
		}
	}
}

// autosaveTick persists a snapshot when there is unsaved progress. Failures
// are logged and swallowed; the next tick tries again.
func (e *Engine) autosaveTick() {
	e.mu.Lock()
	if e.state != StateActive || !e.dirty || e.answers.AnsweredCount() == 0 {
		e.mu.Unlock()
		return
	}
	quizID := e.quiz.ID
	studentID := e.studentID
	answers := e.answers.Clone()
	flagged := e.flaggedLocked()
	e.dirty = false
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.store.Save(ctx, quizID, studentID, answers, flagged); err != nil {
		e.logger.Warn("autosave failed",
			"quiz_id", quizID, "student_id", studentID, "error", err)
		e.mu.Lock()
		e.dirty = true
		e.mu.Unlock()
	}
}

// ===== SUBMIT =====

// ManualSubmit ends the session at the student's request. Every question must
// carry an answer; otherwise the submission is refused with the ids of the
// unanswered questions in the error.
func (e *Engine) ManualSubmit(ctx context.Context) (*models.Result, error) {
	e.mu.Lock()
	if e.state != StateActive {
		state := e.state
		e.mu.Unlock()
		if state.Terminal() {
			return nil, services.ErrSessionAlreadyEnded
		}
		return nil, fmt.Errorf("%w: state is %s", services.ErrSessionNotActive, state)
	}

	var unanswered []string
	for _, question := range e.quiz.Questions {
		value := e.answers[question.ID]
		if value == nil || value.IsEmpty() {
			unanswered = append(unanswered, question.ID)
		}
	}
	if len(unanswered) > 0 {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %d unanswered", services.ErrUnansweredQuestions, len(unanswered))
	}
	e.mu.Unlock()

	return e.submit(ctx, models.EndReasonManual)
}

// onExpiry runs when the countdown fires. The expiry submission is never
// blocked on unanswered questions.
func (e *Engine) onExpiry() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := e.submit(ctx, models.EndReasonTimeout); err != nil {
		e.logger.Error("expiry submit failed", "error", err)
	}
}

func (e *Engine) submit(ctx context.Context, reason models.AttemptEndReason) (*models.Result, error) {
	e.mu.Lock()
	if e.state != StateActive {
		state := e.state
		e.mu.Unlock()
		if state.Terminal() {
			return nil, services.ErrSessionAlreadyEnded
		}
		return nil, fmt.Errorf("%w: state is %s", services.ErrSessionNotActive, state)
	}
	e.state = StateSubmitting
	if e.expiryTimer != nil {
		e.expiryTimer.Stop()
		e.expiryTimer = nil
	}
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
	quiz := e.quiz
	studentID := e.studentID
	startedAt := e.startedAt
	now := e.now()
	answers := e.answers.Clone()
	flagged := e.flaggedLocked()
	e.mu.Unlock()

	// Final synchronous save so the latest answers survive a crash between
	// here and the result write.
	if err := e.store.Save(ctx, quiz.ID, studentID, answers, flagged); err != nil {
		e.logger.Warn("final autosave failed", "error", err)
	}

	if malformed := scoring.MalformedQuestions(quiz.Questions); len(malformed) > 0 {
		e.logger.Warn("malformed questions scored as incorrect",
			"quiz_id", quiz.ID, "question_ids", malformed)
	}
	result := scoring.ScoreQuestions(quiz.Questions, answers, e.scoringOpts)

	attempt := &models.Attempt{
		ID:               uuid.NewString(),
		QuizID:           quiz.ID,
		StudentID:        studentID,
		Answers:          answers,
		Flagged:          flagged,
		StartedAt:        startedAt,
		SubmittedAt:      &now,
		TimeSpentSeconds: int(now.Sub(startedAt) / time.Second),
		Status:           models.AttemptSubmitted,
		EndReason:        &reason,
		GradableSnapshot: scoring.SnapshotGradable(quiz),
	}
	if reason == models.EndReasonTimeout {
		attempt.Status = models.AttemptExpired
	}

	result.ID = services.NewResultID(attempt.ID)
	result.AttemptID = attempt.ID
	result.QuizID = quiz.ID
	result.StudentID = studentID
	result.GradedAt = now

	if err := e.results.PersistSubmission(ctx, attempt, result); err != nil {
		if errors.Is(err, services.ErrAlreadyCompleted) {
			// Someone else finished this attempt first. Treat the session as
			// ended rather than bouncing the student back into the quiz.
			e.finish(reason)
			return nil, err
		}
		e.mu.Lock()
		e.state = StateActive
		if e.deadline != nil && !e.timersStopped {
			// The time limit stays enforced while the student retries.
			if remaining := e.deadline.Sub(e.now()); remaining > 0 {
				e.expiryTimer = time.AfterFunc(remaining, e.onExpiry)
			} else {
				// The deadline has passed; keep trying until the write lands.
				e.retryTimer = time.AfterFunc(submitRetryDelay, e.onExpiry)
			}
		}
		e.mu.Unlock()
		e.logger.Error("submit write failed, session stays active",
			"quiz_id", quiz.ID, "student_id", studentID, "error", err)
		return nil, err
	}

	if err := e.store.Clear(ctx, quiz.ID, studentID); err != nil {
		e.logger.Warn("failed to clear autosave snapshot", "error", err)
	}

	e.finish(reason)

	e.logger.Info("session submitted",
		"quiz_id", quiz.ID, "student_id", studentID,
		"reason", reason, "score", result.Score)

	if e.publisher != nil {
		eventType := events.EventAttemptSubmitted
		if reason == models.EndReasonTimeout {
			eventType = events.EventAttemptExpired
		}
		event := events.NewSessionEvent(eventType, events.AttemptSubmittedEvent{
			AttemptID:       attempt.ID,
			QuizID:          quiz.ID,
			StudentID:       studentID,
			EndReason:       reason,
			Score:           result.Score,
			CorrectCount:    result.CorrectCount,
			UnansweredCount: result.UnansweredCount,
		})
		if err := e.publisher.PublishSessionEvent(ctx, event); err != nil {
			e.logger.Warn("failed to publish submit event", "error", err)
		}
	}

	return result, nil
}

func (e *Engine) finish(reason models.AttemptEndReason) {
	e.mu.Lock()
	if reason == models.EndReasonTimeout {
		e.state = StateExpired
	} else {
		e.state = StateSubmitted
	}
	e.stopTimersLocked()
	e.mu.Unlock()
}
