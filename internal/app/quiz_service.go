package app

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"mcq-studio/internal/domain"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Save(ctx context.Context, state State) error
	Get(ctx context.Context, id string) (State, error)
	Delete(ctx context.Context, id string) error
}

// BankRepository turns uploads into parsed banks (from cache or by parsing).
type BankRepository interface {
	GetBank(ctx context.Context, upload domain.Upload) (domain.Bank, error)
}

// QuizService contains the quiz session use cases. Calls for the same session
// are serialized so each event runs to completion before the next one.
type QuizService struct {
	sessions SessionRepository
	banks    BankRepository
	now      func() time.Time
	newID    func() string
	locks    [64]sync.Mutex
	loads    *loadTracker
}

func NewQuizService(sessions SessionRepository, banks BankRepository) *QuizService {
	return NewQuizServiceWithClock(sessions, banks, time.Now)
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(sessions SessionRepository, banks BankRepository, now func() time.Time) *QuizService {
	return &QuizService{
		sessions: sessions,
		banks:    banks,
		now:      now,
		newID:    uuid.NewString,
		loads:    newLoadTracker(),
	}
}

// StartSession creates an empty session.
func (s *QuizService) StartSession(ctx context.Context) (State, error) {
	state := NewState(s.newID(), s.now())
	if err := s.sessions.Save(ctx, state); err != nil {
		return State{}, err
	}
	return state, nil
}

// Session returns the current state of a session.
func (s *QuizService) Session(ctx context.Context, id string) (State, error) {
	return s.sessions.Get(ctx, id)
}

// LoadWorkbook replaces the session's bank with the parsed upload. A load that
// starts while another is in flight cancels it; the older call then returns
// domain.ErrLoadSuperseded and leaves the session alone.
func (s *QuizService) LoadWorkbook(ctx context.Context, id string, upload domain.Upload) (State, error) {
	unlock := s.lock(id)
	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		unlock()
		return State{}, err
	}
	loadCtx, seq := s.loads.begin(ctx, id)
	if err := s.save(ctx, BeginLoad(state)); err != nil {
		s.loads.finish(id, seq)
		unlock()
		return State{}, err
	}
	unlock()

	bank, loadErr := s.banks.GetBank(loadCtx, upload)

	unlock = s.lock(id)
	defer unlock()
	if !s.loads.finish(id, seq) {
		return State{}, domain.ErrLoadSuperseded
	}
	// The session must leave the loading state even when the caller is gone.
	persistCtx := context.WithoutCancel(ctx)
	state, err = s.sessions.Get(persistCtx, id)
	if err != nil {
		return State{}, err
	}
	if loadErr != nil {
		state = FailLoad(state, loadErr)
		if err := s.save(persistCtx, state); err != nil {
			return State{}, err
		}
		return state, loadErr
	}
	state = LoadWorkbook(state, bank)
	if err := s.save(persistCtx, state); err != nil {
		return State{}, err
	}
	return state, nil
}

// Select toggles an option key on a question.
func (s *QuizService) Select(ctx context.Context, id, questionID string, key domain.OptionKey) (State, error) {
	return s.update(ctx, id, func(state State) (State, error) {
		return ToggleSelection(state, questionID, key)
	})
}

// Reset clears all answers without touching the loaded questions.
func (s *QuizService) Reset(ctx context.Context, id string) (State, error) {
	return s.update(ctx, id, func(state State) (State, error) {
		return Reset(state), nil
	})
}

// Submit scores the session's current answers.
func (s *QuizService) Submit(ctx context.Context, id string) (State, domain.Result, error) {
	var result domain.Result
	state, err := s.update(ctx, id, func(state State) (State, error) {
		next, r, err := Submit(state)
		result = r
		return next, err
	})
	if err != nil {
		return State{}, domain.Result{}, err
	}
	return state, result, nil
}

// End drops the session and abandons any load in flight.
func (s *QuizService) End(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()
	s.loads.abandon(id)
	return s.sessions.Delete(ctx, id)
}

func (s *QuizService) update(ctx context.Context, id string, apply func(State) (State, error)) (State, error) {
	unlock := s.lock(id)
	defer unlock()

	state, err := s.sessions.Get(ctx, id)
	if err != nil {
		return State{}, err
	}
	next, err := apply(state)
	if err != nil {
		return State{}, err
	}
	if err := s.save(ctx, next); err != nil {
		return State{}, err
	}
	return next, nil
}

func (s *QuizService) save(ctx context.Context, state State) error {
	state.UpdatedAt = s.now()
	return s.sessions.Save(ctx, state)
}

func (s *QuizService) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &s.locks[h.Sum32()%uint32(len(s.locks))]
	mu.Lock()
	return mu.Unlock
}

// loadTracker remembers the newest load per session.
type loadTracker struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]pendingLoad
}

type pendingLoad struct {
	seq    uint64
	cancel context.CancelFunc
}

func newLoadTracker() *loadTracker {
	return &loadTracker{inflight: make(map[string]pendingLoad)}
}

// begin registers a new load for id, canceling the previous one.
func (t *loadTracker) begin(ctx context.Context, id string) (context.Context, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.inflight[id]; ok {
		prev.cancel()
	}
	t.seq++
	loadCtx, cancel := context.WithCancel(ctx)
	t.inflight[id] = pendingLoad{seq: t.seq, cancel: cancel}
	return loadCtx, t.seq
}

// finish reports whether seq is still the newest load for id and clears it.
func (t *loadTracker) finish(id string, seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.inflight[id]
	if !ok || current.seq != seq {
		return false
	}
	current.cancel()
	delete(t.inflight, id)
	return true
}

func (t *loadTracker) abandon(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if current, ok := t.inflight[id]; ok {
		current.cancel()
		delete(t.inflight, id)
	}
}
