package session

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/autosave"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/config"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/events"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/repositories"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/repositories/memory"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/services"
)

// repoQuizzes adapts the raw repository to the engine's provider interface,
// standing in for the cache layer.
type repoQuizzes struct {
	repo repositories.QuizRepository
}

func (r repoQuizzes) GetQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	return r.repo.GetByID(ctx, quizID)
}

type engineFixture struct {
	engine    *Engine
	store     *memory.DocumentStore
	snapshots *autosave.MemoryStore
	publisher *events.MockEventPublisher
	repo      repositories.Repository
}

func testQuiz() *models.Quiz {
	limit := 600
	return &models.Quiz{
		ID:          "quiz-1",
		CourseID:    "course-1",
		Title:       "Checkpoint",
		IsPublished: true,
		Questions: []models.Question{
			{ID: "q1", Kind: models.SingleChoice, Options: []string{"a", "b"}, CorrectIndices: []int{0}},
			{ID: "q2", Kind: models.TrueFalse, Options: []string{"True", "False"}, CorrectIndices: []int{1}},
			{ID: "q3", Kind: models.MultiChoice, Options: []string{"a", "b", "c"}, CorrectIndices: []int{0, 1}},
			{ID: "q4", Kind: models.FillBlank, Blanks: []string{"go"}},
			{ID: "q5", Kind: models.Ordering, Items: []string{"x", "y"}},
		},
		TimeLimitSeconds:   &limit,
		EnrolledStudentIDs: []string{"student-1"},
	}
}

func newEngineFixture(t *testing.T, quiz *models.Quiz) *engineFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	store := memory.NewDocumentStore()
	repo := repositories.New(store)

	if quiz != nil {
		require.NoError(t, repo.Quiz().Create(context.Background(), quiz))
	}

	cfg := config.SessionConfig{
		AutosaveInterval: 0, // ticker disabled; ticks are driven by hand
		SnapshotTTL:      4 * time.Hour,
		LoadRetries:      1,
		RetryBaseDelay:   time.Millisecond,
	}

	snapshots := autosave.NewMemoryStore()
	publisher := events.NewMockEventPublisher(logger)

	engine := NewEngine(
		cfg,
		repoQuizzes{repo: repo.Quiz()},
		services.NewEligibilityService(repo, logger),
		services.NewResultService(repo, logger, cfg),
		snapshots,
		publisher,
		logger,
	)
	t.Cleanup(engine.Close)

	return &engineFixture{
		engine:    engine,
		store:     store,
		snapshots: snapshots,
		publisher: publisher,
		repo:      repo,
	}
}

func answerAll(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.Answer("q1", models.IndexAnswer(0)))
	require.NoError(t, e.Answer("q2", models.IndexAnswer(1)))
	require.NoError(t, e.Answer("q3", models.IndicesAnswer(0, 1)))
	require.NoError(t, e.Answer("q4", models.TextsAnswer("go")))
	require.NoError(t, e.Answer("q5", models.IndicesAnswer(0, 1)))
}

func TestEngine_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path reaches active", func(t *testing.T) {
		f := newEngineFixture(t, testQuiz())

		report, err := f.engine.Load(ctx, "quiz-1", "student-1")
		require.NoError(t, err)

		assert.Equal(t, StateActive, f.engine.State())
		assert.False(t, report.RestoredFromSnapshot)
		assert.Len(t, report.QuestionOrder, 5)
		require.NotNil(t, report.TimeRemaining)
		assert.Equal(t, 10*time.Minute, *report.TimeRemaining)

		published := f.publisher.PublishedEvents()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventAttemptStarted, published[0].Type)
	})

	t.Run("unpublished quiz is rejected", func(t *testing.T) {
		quiz := testQuiz()
		quiz.IsPublished = false
		f := newEngineFixture(t, quiz)

		_, err := f.engine.Load(ctx, "quiz-1", "student-1")
		require.ErrorIs(t, err, services.ErrQuizNotPublished)
		assert.Equal(t, StateError, f.engine.State())
		assert.ErrorIs(t, f.engine.StateError(), services.ErrQuizNotPublished)
	})

	t.Run("missing quiz is not retried", func(t *testing.T) {
		f := newEngineFixture(t, nil)

		_, err := f.engine.Load(ctx, "missing", "student-1")
		require.ErrorIs(t, err, services.ErrQuizNotFound)
		assert.Equal(t, StateError, f.engine.State())
	})

	t.Run("transient store failure is retried", func(t *testing.T) {
		f := newEngineFixture(t, testQuiz())
		f.store.FailNextOps(1)

		_, err := f.engine.Load(ctx, "quiz-1", "student-1")
		require.NoError(t, err)
		assert.Equal(t, StateActive, f.engine.State())
	})

	t.Run("error state allows another load", func(t *testing.T) {
		f := newEngineFixture(t, testQuiz())
		_, err := f.engine.Load(ctx, "missing", "student-1")
		require.Error(t, err)

		_, err = f.engine.Load(ctx, "quiz-1", "student-1")
		require.NoError(t, err)
		assert.Equal(t, StateActive, f.engine.State())
	})
}

func TestEngine_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, testQuiz())

	require.NoError(t, f.snapshots.Save(ctx, "quiz-1", "student-1", models.AnswerMap{
		"q1":    models.IndexAnswer(0),
		"q4":    models.TextsAnswer("go"),
		"ghost": models.TextAnswer("from an older quiz version"),
	}, []string{"q4", "ghost"}))

	report, err := f.engine.Load(ctx, "quiz-1", "student-1")
	require.NoError(t, err)

	assert.True(t, report.RestoredFromSnapshot)
	require.NotNil(t, report.SnapshotSavedAt)

	answers := f.engine.Answers()
	assert.False(t, answers["q1"].IsEmpty())
	assert.False(t, answers["q4"].IsEmpty())
	// Snapshot entries for questions no longer on the quiz are dropped.
	_, ok := answers["ghost"]
	assert.False(t, ok)
	assert.Equal(t, []string{"q4"}, f.engine.FlaggedQuestions())
}

func TestEngine_ConcurrentReadsDuringLoad(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, testQuiz())

	require.NoError(t, f.snapshots.Save(ctx, "quiz-1", "student-1", models.AnswerMap{
		"q1": models.IndexAnswer(0),
	}, []string{"q1", "q2"}))

	// The manager publishes an engine before Load finishes, so readers can
	// hit the accessors while the snapshot overlay is still running.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					f.engine.FlaggedQuestions()
					f.engine.Answers()
					f.engine.State()
				}
			}
		}()
	}

	_, err := f.engine.Load(ctx, "quiz-1", "student-1")
	close(stop)
	wg.Wait()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"q1", "q2"}, f.engine.FlaggedQuestions())
}

func TestEngine_AnswerAndFlag(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, testQuiz())
	_, err := f.engine.Load(ctx, "quiz-1", "student-1")
	require.NoError(t, err)

	t.Run("records and clears answers", func(t *testing.T) {
		require.NoError(t, f.engine.Answer("q1", models.IndexAnswer(1)))
		assert.Equal(t, 1, f.engine.Answers().AnsweredCount())

		require.NoError(t, f.engine.Answer("q1", nil))
		assert.Equal(t, 0, f.engine.Answers().AnsweredCount())
	})

	t.Run("rejects unknown question", func(t *testing.T) {
		err := f.engine.Answer("nope", models.IndexAnswer(0))
		assert.ErrorIs(t, err, services.ErrUnknownQuestion)
	})

	t.Run("flags round trip", func(t *testing.T) {
		require.NoError(t, f.engine.Flag("q2"))
		assert.Equal(t, []string{"q2"}, f.engine.FlaggedQuestions())
		require.NoError(t, f.engine.Unflag("q2"))
		assert.Empty(t, f.engine.FlaggedQuestions())
	})
}

func TestEngine_ManualSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("blocked while questions are unanswered", func(t *testing.T) {
		f := newEngineFixture(t, testQuiz())
		_, err := f.engine.Load(ctx, "quiz-1", "student-1")
		require.NoError(t, err)

		require.NoError(t, f.engine.Answer("q1", models.IndexAnswer(0)))
		_, err = f.engine.ManualSubmit(ctx)
		require.ErrorIs(t, err, services.ErrUnansweredQuestions)
		assert.Equal(t, StateActive, f.engine.State())
	})

	t.Run("full submission scores and persists", func(t *testing.T) {
		f := newEngineFixture(t, testQuiz())
		_, err := f.engine.Load(ctx, "quiz-1", "student-1")
		require.NoError(t, err)
		answerAll(t, f.engine)

		result, err := f.engine.ManualSubmit(ctx)
		require.NoError(t, err)

		assert.Equal(t, StateSubmitted, f.engine.State())
		assert.Equal(t, 100, result.Score)
		assert.Equal(t, 5, result.CorrectCount)

		stored, err := f.repo.Result().GetByQuizAndStudent(ctx, "quiz-1", "student-1")
		require.NoError(t, err)
		assert.Equal(t, result.ID, stored.ID)

		attempt, err := f.repo.Attempt().GetByQuizAndStudent(ctx, "quiz-1", "student-1")
		require.NoError(t, err)
		assert.Equal(t, models.AttemptSubmitted, attempt.Status)
		require.NotNil(t, attempt.EndReason)
		assert.Equal(t, models.EndReasonManual, *attempt.EndReason)
		assert.Len(t, attempt.GradableSnapshot, 5)

		// Autosave snapshot is cleared once the result is durable.
		assert.False(t, f.snapshots.Contains("quiz-1", "student-1"))

		published := f.publisher.PublishedEvents()
		require.Len(t, published, 2)
		assert.Equal(t, events.EventAttemptSubmitted, published[1].Type)
	})

	t.Run("second submit reports session ended", func(t *testing.T) {
		f := newEngineFixture(t, testQuiz())
		_, err := f.engine.Load(ctx, "quiz-1", "student-1")
		require.NoError(t, err)
		answerAll(t, f.engine)

		_, err = f.engine.ManualSubmit(ctx)
		require.NoError(t, err)

		_, err = f.engine.ManualSubmit(ctx)
		assert.ErrorIs(t, err, services.ErrSessionAlreadyEnded)
	})
}

func TestEngine_TimerExpirySubmitsPartialAnswers(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, testQuiz())
	_, err := f.engine.Load(ctx, "quiz-1", "student-1")
	require.NoError(t, err)

	require.NoError(t, f.engine.Answer("q1", models.IndexAnswer(0)))
	require.NoError(t, f.engine.Answer("q2", models.IndexAnswer(1)))

	// Drive the expiry path directly instead of waiting out the clock.
	result, err := f.engine.submit(ctx, models.EndReasonTimeout)
	require.NoError(t, err)

	assert.Equal(t, StateExpired, f.engine.State())
	assert.Equal(t, 2, result.CorrectCount)
	assert.Equal(t, 3, result.UnansweredCount)
	assert.Equal(t, 40, result.Score)

	attempt, err := f.repo.Attempt().GetByQuizAndStudent(ctx, "quiz-1", "student-1")
	require.NoError(t, err)
	assert.Equal(t, models.AttemptExpired, attempt.Status)
	require.NotNil(t, attempt.EndReason)
	assert.Equal(t, models.EndReasonTimeout, *attempt.EndReason)

	published := f.publisher.PublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventAttemptExpired, published[1].Type)
}

func TestEngine_SubmitWriteFailureKeepsSessionActive(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, testQuiz())
	_, err := f.engine.Load(ctx, "quiz-1", "student-1")
	require.NoError(t, err)
	answerAll(t, f.engine)

	// Burn the write and its retry so the submit lands on the failure path.
	f.store.FailNextOps(2)

	_, err = f.engine.ManualSubmit(ctx)
	require.ErrorIs(t, err, services.ErrSubmitWriteFailed)
	assert.Equal(t, StateActive, f.engine.State())

	// The session is still live; answers can change and a later submit works.
	require.NoError(t, f.engine.Answer("q1", models.IndexAnswer(1)))
	require.NoError(t, f.engine.Answer("q1", models.IndexAnswer(0)))

	result, err := f.engine.ManualSubmit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, f.engine.State())
	assert.Equal(t, 100, result.Score)
}

func TestEngine_FailedManualSubmitKeepsCountdown(t *testing.T) {
	ctx := context.Background()

	t.Run("expiry timer is re-armed before the deadline", func(t *testing.T) {
		f := newEngineFixture(t, testQuiz())
		_, err := f.engine.Load(ctx, "quiz-1", "student-1")
		require.NoError(t, err)
		answerAll(t, f.engine)

		f.store.FailNextOps(2)
		_, err = f.engine.ManualSubmit(ctx)
		require.ErrorIs(t, err, services.ErrSubmitWriteFailed)
		assert.Equal(t, StateActive, f.engine.State())

		f.engine.mu.Lock()
		rearmed := f.engine.expiryTimer != nil
		f.engine.mu.Unlock()
		assert.True(t, rearmed, "time limit must stay enforced while the student retries")
	})

	t.Run("retry timer takes over past the deadline", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		f := newEngineFixture(t, testQuiz())
		WithClock(func() time.Time { return now })(f.engine)

		_, err := f.engine.Load(ctx, "quiz-1", "student-1")
		require.NoError(t, err)
		answerAll(t, f.engine)
		now = now.Add(11 * time.Minute)

		f.store.FailNextOps(2)
		_, err = f.engine.ManualSubmit(ctx)
		require.ErrorIs(t, err, services.ErrSubmitWriteFailed)

		f.engine.mu.Lock()
		expiry := f.engine.expiryTimer != nil
		retry := f.engine.retryTimer != nil
		f.engine.mu.Unlock()
		assert.False(t, expiry)
		assert.True(t, retry, "an overdue session must keep retrying the submit")
	})
}

func TestEngine_SecondAttemptIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, testQuiz())
	_, err := f.engine.Load(ctx, "quiz-1", "student-1")
	require.NoError(t, err)
	answerAll(t, f.engine)
	_, err = f.engine.ManualSubmit(ctx)
	require.NoError(t, err)

	// A fresh engine for the same pair must be turned away by the guard.
	second := newEngineFixtureWithRepo(t, f)
	_, err = second.Load(ctx, "quiz-1", "student-1")
	require.ErrorIs(t, err, services.ErrAlreadyCompleted)
}

// newEngineFixtureWithRepo builds a second engine over an existing fixture's
// stores, simulating a new session against the same persisted state.
func newEngineFixtureWithRepo(t *testing.T, f *engineFixture) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg := config.SessionConfig{
		SnapshotTTL:    4 * time.Hour,
		LoadRetries:    1,
		RetryBaseDelay: time.Millisecond,
	}
	engine := NewEngine(
		cfg,
		repoQuizzes{repo: f.repo.Quiz()},
		services.NewEligibilityService(f.repo, logger),
		services.NewResultService(f.repo, logger, cfg),
		f.snapshots,
		f.publisher,
		logger,
	)
	t.Cleanup(engine.Close)
	return engine
}

func TestEngine_TimeRemaining(t *testing.T) {
	ctx := context.Background()
	quiz := testQuiz()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	f := newEngineFixture(t, quiz)
	WithClock(clock)(f.engine)

	_, err := f.engine.Load(ctx, "quiz-1", "student-1")
	require.NoError(t, err)

	remaining := f.engine.TimeRemaining()
	require.NotNil(t, remaining)
	assert.Equal(t, 10*time.Minute, *remaining)

	now = now.Add(9 * time.Minute)
	remaining = f.engine.TimeRemaining()
	require.NotNil(t, remaining)
	assert.Equal(t, time.Minute, *remaining)

	// Past the deadline the countdown clamps at zero.
	now = now.Add(5 * time.Minute)
	remaining = f.engine.TimeRemaining()
	require.NotNil(t, remaining)
	assert.Equal(t, time.Duration(0), *remaining)
}

func TestEngine_UntimedQuizHasNoCountdown(t *testing.T) {
	ctx := context.Background()
	quiz := testQuiz()
	quiz.TimeLimitSeconds = nil

	f := newEngineFixture(t, quiz)
	report, err := f.engine.Load(ctx, "quiz-1", "student-1")
	require.NoError(t, err)

	assert.Nil(t, report.TimeRemaining)
	assert.Nil(t, f.engine.TimeRemaining())
}

func TestManager_ReopenReportsLiveState(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, testQuiz())

	require.NoError(t, f.snapshots.Save(ctx, "quiz-1", "student-1", models.AnswerMap{
		"q1": models.IndexAnswer(0),
	}, nil))

	manager := NewManager(func() *Engine { return newEngineFixtureWithRepo(t, f) })
	t.Cleanup(manager.Close)

	engine, first, err := manager.Open(ctx, "quiz-1", "student-1")
	require.NoError(t, err)
	require.NotNil(t, first.TimeRemaining)
	assert.True(t, first.RestoredFromSnapshot)

	// Reopening the live session (a reconnect) must keep the countdown and
	// the restored-progress notice, not hand back a blank report.
	again, report, err := manager.Open(ctx, "quiz-1", "student-1")
	require.NoError(t, err)
	assert.Same(t, engine, again)
	require.NotNil(t, report.TimeRemaining)
	assert.True(t, report.RestoredFromSnapshot)
	require.NotNil(t, report.SnapshotSavedAt)
	assert.Equal(t, first.QuestionOrder, report.QuestionOrder)
}

func TestEngine_AutosaveTick(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, testQuiz())
	_, err := f.engine.Load(ctx, "quiz-1", "student-1")
	require.NoError(t, err)

	// Nothing answered yet: a tick must not write an empty snapshot.
	f.engine.autosaveTick()
	assert.False(t, f.snapshots.Contains("quiz-1", "student-1"))

	require.NoError(t, f.engine.Answer("q1", models.IndexAnswer(0)))
	f.engine.autosaveTick()
	assert.True(t, f.snapshots.Contains("quiz-1", "student-1"))

	snapshot, err := f.snapshots.Load(ctx, "quiz-1", "student-1")
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, 1, snapshot.Answers.AnsweredCount())

	// A failed save keeps the progress marked dirty so the next tick retries.
	require.NoError(t, f.engine.Answer("q2", models.IndexAnswer(1)))
	f.snapshots.FailSaves(true)
	f.engine.autosaveTick()
	f.snapshots.FailSaves(false)
	f.engine.autosaveTick()

	snapshot, err = f.snapshots.Load(ctx, "quiz-1", "student-1")
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, 2, snapshot.Answers.AnsweredCount())
}
