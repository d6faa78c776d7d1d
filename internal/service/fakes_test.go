package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/vssut/academia-backend/internal/model"
	"github.com/vssut/academia-backend/internal/repository"
)

var errStoreDown = errors.New("connection refused")

type memExamStore struct {
	mu    sync.Mutex
	order []uuid.UUID
	exams map[uuid.UUID]model.ExamDefinition
	gets  int
	err   error
}

func newMemExamStore() *memExamStore {
	return &memExamStore{exams: make(map[uuid.UUID]model.ExamDefinition)}
}

func (s *memExamStore) Create(_ context.Context, e *model.ExamDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.exams[e.ID] = *e
	s.order = append(s.order, e.ID)
	return nil
}

func (s *memExamStore) GetByID(_ context.Context, id uuid.UUID) (*model.ExamDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.err != nil {
		return nil, s.err
	}
	e, ok := s.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (s *memExamStore) list(match func(model.ExamDefinition) bool) ([]model.ExamDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []model.ExamDefinition
	for _, id := range s.order {
		if e, ok := s.exams[id]; ok && match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memExamStore) ListByCreator(_ context.Context, creator string) ([]model.ExamDefinition, error) {
	return s.list(func(e model.ExamDefinition) bool { return e.Creator == creator })
}

func (s *memExamStore) ListByCourses(_ context.Context, codes []string) ([]model.ExamDefinition, error) {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return s.list(func(e model.ExamDefinition) bool { return set[e.CourseCode] })
}

func (s *memExamStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exams[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.exams, id)
	return nil
}

type attemptKey struct {
	exam uuid.UUID
	user string
}

// memAttemptStore mirrors the SQL semantics: one row per key, atomic writes.
type memAttemptStore struct {
	mu   sync.Mutex
	rows map[attemptKey]model.ExamAttempt
	err  error
}

func newMemAttemptStore() *memAttemptStore {
	return &memAttemptStore{rows: make(map[attemptKey]model.ExamAttempt)}
}

func (s *memAttemptStore) InsertIfAbsent(_ context.Context, a *model.ExamAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	k := attemptKey{a.ExamID, a.StudentUsername}
	if _, ok := s.rows[k]; ok {
		return repository.ErrDuplicate
	}
	s.rows[k] = *a
	return nil
}

func (s *memAttemptStore) Get(_ context.Context, examID uuid.UUID, username string) (*model.ExamAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	a, ok := s.rows[attemptKey{examID, username}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *memAttemptStore) UpsertCompleted(_ context.Context, a *model.ExamAttempt, skipLocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	k := attemptKey{a.ExamID, a.StudentUsername}
	if cur, ok := s.rows[k]; ok {
		if skipLocked && cur.Status == model.StatusLocked {
			return repository.ErrLocked
		}
		a.StartedAt = cur.StartedAt
	}
	s.rows[k] = *a
	return nil
}

func (s *memAttemptStore) MarkLocked(_ context.Context, examID uuid.UUID, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	k := attemptKey{examID, username}
	a, ok := s.rows[k]
	if !ok {
		return false, nil
	}
	a.Status = model.StatusLocked
	s.rows[k] = a
	return true, nil
}

func (s *memAttemptStore) Delete(_ context.Context, examID uuid.UUID, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	k := attemptKey{examID, username}
	_, ok := s.rows[k]
	delete(s.rows, k)
	return ok, nil
}

func (s *memAttemptStore) ListByExam(_ context.Context, examID uuid.UUID) ([]model.ExamAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []model.ExamAttempt
	for k, a := range s.rows {
		if k.exam == examID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memAttemptStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// memProfiles maps username to roll number; a missing key is a missing profile.
type memProfiles map[string]string

func (p memProfiles) RollNumber(_ context.Context, username string) (string, error) {
	roll, ok := p[username]
	if !ok {
		return "", repository.ErrNotFound
	}
	return roll, nil
}

// memEnrollments maps roll number to course codes.
type memEnrollments map[string][]string

func (e memEnrollments) CourseCodesForRoll(_ context.Context, roll string) ([]string, error) {
	return e[roll], nil
}

type memCache struct {
	mu      sync.Mutex
	exams   map[uuid.UUID]model.ExamDefinition
	evicted []uuid.UUID
	getErr  error
}

func newMemCache() *memCache {
	return &memCache{exams: make(map[uuid.UUID]model.ExamDefinition)}
}

func (c *memCache) Get(_ context.Context, id uuid.UUID) (*model.ExamDefinition, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	e, ok := c.exams[id]
	if !ok {
		return nil, false, nil
	}
	return &e, true, nil
}

func (c *memCache) Set(_ context.Context, e *model.ExamDefinition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exams[e.ID] = *e
	return nil
}

func (c *memCache) Evict(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.exams, id)
	c.evicted = append(c.evicted, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.AttemptEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev model.AttemptEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []model.AttemptEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.AttemptEventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type memLockEvents struct {
	events []model.LockEvent
	err    error
}

func (m *memLockEvents) ListLockEvents(_ context.Context, examID uuid.UUID) ([]model.LockEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.LockEvent
	for _, e := range m.events {
		if e.ExamID == examID {
			out = append(out, e)
		}
	}
	return out, nil
}

// threeQuestions has correct indices [1, 0, 2].
func threeQuestions() []model.Question {
	return []model.Question{
		{Text: "2+2", Options: []string{"3", "4", "5"}, CorrectOption: 1},
		{Text: "Capital of Odisha", Options: []string{"Bhubaneswar", "Puri", "Cuttack"}, CorrectOption: 0},
		{Text: "Largest planet", Options: []string{"Mars", "Earth", "Jupiter"}, CorrectOption: 2},
	}
}
