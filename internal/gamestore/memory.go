package gamestore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gameerr"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// Memory is an in-process store for development and tests. Every load
// and save passes through a JSON round-trip so callers can never alias
// stored state, and SaveGame enforces the same version check as the
// Postgres store.
type Memory struct {
	mu        sync.RWMutex
	game      *models.GameState
	version   int64
	packs     map[string]*models.Package
	questions map[string]*models.Question
	teams     []models.Team
}

func NewMemory() *Memory {
	return &Memory{
		packs:     make(map[string]*models.Package),
		questions: make(map[string]*models.Question),
	}
}

func cloneGame(g *models.GameState) (*models.GameState, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, gameerr.Persistence(err, "encode game state")
	}
	var out models.GameState
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, gameerr.Persistence(err, "decode game state")
	}
	out.Version = g.Version
	return &out, nil
}

func clonePackage(p *models.Package) (*models.Package, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, gameerr.Persistence(err, "encode package")
	}
	var out models.Package
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, gameerr.Persistence(err, "decode package")
	}
	return &out, nil
}

func (m *Memory) LoadGame(ctx context.Context) (*models.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.game == nil {
		return nil, gameerr.NotFoundf("no game snapshot stored")
	}
	return cloneGame(m.game)
}

// SaveGame applies an optimistic version check: the caller's snapshot
// must carry the version it was loaded at, and the stored version
// advances by one on success.
func (m *Memory) SaveGame(ctx context.Context, g *models.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.Version != m.version {
		return gameerr.Concurrencyf("game snapshot version %d is stale, store is at %d", g.Version, m.version)
	}
	clone, err := cloneGame(g)
	if err != nil {
		return err
	}
	m.version++
	clone.Version = m.version
	m.game = clone
	g.Version = m.version
	return nil
}

func (m *Memory) FindPackage(ctx context.Context, id string) (*models.Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.packs[id]
	if !ok {
		return nil, gameerr.NotFoundf("package %s not found", id)
	}
	return clonePackage(p)
}

func (m *Memory) SavePackage(ctx context.Context, pkg *models.Package) error {
	if pkg.ID == "" {
		return gameerr.Validationf("package id must not be empty")
	}
	clone, err := clonePackage(pkg)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packs[pkg.ID] = clone
	return nil
}

func (m *Memory) ListPackages(ctx context.Context, round models.Round) ([]models.Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Package, 0, len(m.packs))
	for _, p := range m.packs {
		if round != "" && p.Round != round {
			continue
		}
		clone, err := clonePackage(p)
		if err != nil {
			return nil, err
		}
		out = append(out, *clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

func (m *Memory) FindQuestion(ctx context.Context, id string) (*models.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return nil, gameerr.NotFoundf("question %s not found", id)
	}
	out := *q
	return &out, nil
}

func (m *Memory) ListQuestions(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Question
	for _, q := range m.questions {
		if filter.Matches(q) {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) ListTeams(ctx context.Context) ([]models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Team, len(m.teams))
	copy(out, m.teams)
	return out, nil
}

func (m *Memory) FindTeam(ctx context.Context, id string) (*models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.teams {
		if m.teams[i].ID == id {
			out := m.teams[i]
			return &out, nil
		}
	}
	return nil, gameerr.NotFoundf("team %s not found", id)
}

// PutTeam registers or renames a roster team, preserving admission
// order for new entries.
func (m *Memory) PutTeam(t models.Team) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.teams {
		if m.teams[i].ID == t.ID {
			m.teams[i] = t
			return
		}
	}
	m.teams = append(m.teams, t)
}

// RemoveTeam deregisters a team from the roster.
func (m *Memory) RemoveTeam(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.teams {
		if m.teams[i].ID == id {
			m.teams = append(m.teams[:i], m.teams[i+1:]...)
			return
		}
	}
}

// PutQuestion seeds authored question content.
func (m *Memory) PutQuestion(q models.Question) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := q
	m.questions[q.ID] = &copied
}

// SaveQuestion mirrors the Postgres store's content surface.
func (m *Memory) SaveQuestion(ctx context.Context, q *models.Question) error {
	if q.ID == "" {
		return gameerr.Validationf("question id must not be empty")
	}
	m.PutQuestion(*q)
	return nil
}

// SaveTeam mirrors the Postgres store's content surface.
func (m *Memory) SaveTeam(ctx context.Context, t *models.Team) error {
	if t.ID == "" {
		return gameerr.Validationf("team id must not be empty")
	}
	m.PutTeam(*t)
	return nil
}

// DeleteTeam mirrors the Postgres store's content surface.
func (m *Memory) DeleteTeam(ctx context.Context, id string) error {
	m.RemoveTeam(id)
	return nil
}
