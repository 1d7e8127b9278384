package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/calibration"
	"github.com/RyeMcKenzie81/ryan-viral-pattern-detector-sub001/internal/domain"
)

// MemoryStore is an in-memory implementation of the calibration store
// interfaces, used in tests and for local development without Postgres.
type MemoryStore struct {
	mu        sync.Mutex
	overrides map[string]*domain.OverrideRecord
	configs   map[string]*domain.ScoringConfig
	proposals map[string]*domain.CalibrationProposal
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		overrides: make(map[string]*domain.OverrideRecord),
		configs:   make(map[string]*domain.ScoringConfig),
		proposals: make(map[string]*domain.CalibrationProposal),
	}
}

func scopeKey(scope *string) string {
	if scope == nil {
		return ""
	}
	return *scope
}

func sameScope(a, b *string) bool {
	return scopeKey(a) == scopeKey(b)
}

// Record inserts an override, superseding the previous latest override for
// the same generated item.
func (s *MemoryStore) Record(_ context.Context, rec *domain.OverrideRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	for _, prev := range s.overrides {
		if prev.GeneratedItemID == rec.GeneratedItemID && prev.SupersededBy == nil {
			id := rec.ID
			prev.SupersededBy = &id
		}
	}

	cp := *rec
	s.overrides[rec.ID] = &cp
	return nil
}

func (s *MemoryStore) ListLatest(_ context.Context, scope *string, since, until time.Time) ([]*domain.OverrideRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.OverrideRecord
	for _, rec := range s.overrides {
		if rec.SupersededBy != nil {
			continue
		}
		if rec.CreatedAt.Before(since) || !rec.CreatedAt.Before(until) {
			continue
		}
		if scope != nil && !sameScope(rec.Scope, scope) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Active(_ context.Context, scope *string) (*domain.ScoringConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg := s.activeLocked(scope); cfg != nil {
		return copyConfig(cfg), nil
	}

	seed := domain.DefaultScoringConfig(scope)
	seed.ID = uuid.New().String()
	seed.CreatedAt = time.Now()
	s.configs[seed.ID] = seed
	return copyConfig(seed), nil
}

func (s *MemoryStore) activeLocked(scope *string) *domain.ScoringConfig {
	for _, cfg := range s.configs {
		if cfg.IsActive && sameScope(cfg.Scope, scope) {
			return cfg
		}
	}
	return nil
}

func (s *MemoryStore) ActivateFromProposal(_ context.Context, p *domain.CalibrationProposal, actorID string, now time.Time) (*domain.ScoringConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.proposals[p.ID]
	if !ok {
		return nil, calibration.ErrProposalNotFound
	}
	if stored.Status != domain.ProposalStatusProposed {
		return nil, &calibration.StatusError{ProposalID: p.ID, Expected: domain.ProposalStatusProposed, Actual: stored.Status}
	}

	maxVersion := 0
	for _, cfg := range s.configs {
		if sameScope(cfg.Scope, p.Scope) {
			if cfg.IsActive {
				cfg.IsActive = false
			}
			if cfg.Version > maxVersion {
				maxVersion = cfg.Version
			}
		}
	}

	cfg := &domain.ScoringConfig{
		ID:               uuid.New().String(),
		Scope:            p.Scope,
		Version:          maxVersion + 1,
		IsActive:         true,
		PassThreshold:    stored.ProposedPassThreshold,
		CheckWeights:     copyWeights(stored.ProposedCheckWeights),
		Borderline:       stored.ProposedBorderline,
		AutoRejectChecks: append([]domain.Check(nil), stored.ProposedAutoRejectChecks...),
		SourceProposalID: &stored.ID,
		CreatedAt:        now,
	}
	s.configs[cfg.ID] = cfg

	stored.Status = domain.ProposalStatusActivated
	stored.ActivatedBy = &actorID
	stored.ActivatedAt = &now
	stored.ActivatedConfigID = &cfg.ID

	return copyConfig(cfg), nil
}

func (s *MemoryStore) History(_ context.Context, scope *string, limit int) ([]*domain.ScoringConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.ScoringConfig
	for _, cfg := range s.configs {
		if sameScope(cfg.Scope, scope) {
			out = append(out, copyConfig(cfg))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Insert(_ context.Context, p *domain.CalibrationProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.proposals[p.ID] = copyProposal(p)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.CalibrationProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return nil, calibration.ErrProposalNotFound
	}
	return copyProposal(p), nil
}

func (s *MemoryStore) ListPending(_ context.Context, scope *string) ([]*domain.CalibrationProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.CalibrationProposal
	for _, p := range s.proposals {
		if p.Status != domain.ProposalStatusProposed {
			continue
		}
		if scope != nil && !sameScope(p.Scope, scope) {
			continue
		}
		out = append(out, copyProposal(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListHistory(_ context.Context, scope *string, limit int) ([]*domain.CalibrationProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.CalibrationProposal
	for _, p := range s.proposals {
		if scope != nil && !sameScope(p.Scope, scope) {
			continue
		}
		out = append(out, copyProposal(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkDismissed(_ context.Context, id, actorID, reason string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return calibration.ErrProposalNotFound
	}
	if p.Status != domain.ProposalStatusProposed {
		return &calibration.StatusError{ProposalID: id, Expected: domain.ProposalStatusProposed, Actual: p.Status}
	}

	p.Status = domain.ProposalStatusDismissed
	p.DismissedBy = &actorID
	p.DismissedAt = &now
	p.DismissedReason = &reason
	return nil
}

func copyWeights(w map[domain.Check]float64) map[domain.Check]float64 {
	cp := make(map[domain.Check]float64, len(w))
	for k, v := range w {
		cp[k] = v
	}
	return cp
}

func copyConfig(cfg *domain.ScoringConfig) *domain.ScoringConfig {
	cp := *cfg
	cp.CheckWeights = copyWeights(cfg.CheckWeights)
	cp.AutoRejectChecks = append([]domain.Check(nil), cfg.AutoRejectChecks...)
	return &cp
}

func copyProposal(p *domain.CalibrationProposal) *domain.CalibrationProposal {
	cp := *p
	cp.ProposedCheckWeights = copyWeights(p.ProposedCheckWeights)
	cp.ProposedAutoRejectChecks = append([]domain.Check(nil), p.ProposedAutoRejectChecks...)
	return &cp
}
