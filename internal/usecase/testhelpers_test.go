package usecase

import (
	"sync"

	"github.com/Guneshbari/mock-mentor/internal/domain"
)

// fakeAI is a func-backed domain.AIClient for tests.
type fakeAI struct {
	mu    sync.Mutex
	calls int
	fn    func(systemPrompt, userPrompt string, maxTokens int) (string, error)
}

func (f *fakeAI) ChatJSON(_ domain.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(systemPrompt, userPrompt, maxTokens)
}

func (f *fakeAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingRepo captures mirror writes.
type recordingRepo struct {
	mu       sync.Mutex
	sessions []domain.Session
	turns    []int
	reports  []domain.FinalReport
	err      error
}

func (r *recordingRepo) SaveSession(_ domain.Context, s domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
	return r.err
}

func (r *recordingRepo) SaveTurn(_ domain.Context, _ string, step int, _ domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, step)
	return r.err
}

func (r *recordingRepo) SaveReport(_ domain.Context, _ string, rep domain.FinalReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
	return r.err
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.SessionEvent
	err    error
}

func (p *recordingPublisher) Publish(_ domain.Context, ev domain.SessionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}
