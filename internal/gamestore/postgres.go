package gamestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gameerr"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// gameRowID pins the singleton snapshot to one row.
const gameRowID = "game"

// Postgres stores the snapshot and authored content as JSONB documents
// with a version column driving the optimistic write check.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the tables on startup if they do not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS games (
			id         TEXT PRIMARY KEY,
			state      JSONB NOT NULL,
			version    BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS packages (
			id     TEXT PRIMARY KEY,
			round  TEXT NOT NULL,
			number INT NOT NULL,
			doc    JSONB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS questions (
			id         TEXT PRIMARY KEY,
			package_id TEXT NOT NULL DEFAULT '',
			round      TEXT NOT NULL,
			qtype      TEXT NOT NULL,
			points     INT NOT NULL DEFAULT 0,
			idx        INT NOT NULL DEFAULT 0,
			doc        JSONB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS teams (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return gameerr.Persistence(err, "ensure schema")
	}
	return nil
}

func (s *Postgres) LoadGame(ctx context.Context) (*models.GameState, error) {
	var (
		raw     []byte
		version int64
	)
	err := s.pool.QueryRow(ctx,
		`SELECT state, version FROM games WHERE id = $1`, gameRowID,
	).Scan(&raw, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, gameerr.NotFoundf("no game snapshot stored")
	}
	if err != nil {
		return nil, gameerr.Persistence(err, "load game snapshot")
	}
	var g models.GameState
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, gameerr.Persistence(err, "decode game snapshot")
	}
	g.Version = version
	return &g, nil
}

// SaveGame writes the snapshot conditionally on the version the caller
// loaded it at. A concurrent writer that got there first leaves the
// version ahead of ours and the update matches no row.
func (s *Postgres) SaveGame(ctx context.Context, g *models.GameState) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return gameerr.Persistence(err, "encode game snapshot")
	}
	var newVersion int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO games (id, state, version, updated_at)
		VALUES ($1, $2, $3 + 1, now())
		ON CONFLICT (id) DO UPDATE
		SET state = EXCLUDED.state, version = games.version + 1, updated_at = now()
		WHERE games.version = $3
		RETURNING version
	`, gameRowID, raw, g.Version).Scan(&newVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return gameerr.Concurrencyf("game snapshot version %d is stale", g.Version)
	}
	if err != nil {
		return gameerr.Persistence(err, "save game snapshot")
	}
	g.Version = newVersion
	return nil
}

func (s *Postgres) FindPackage(ctx context.Context, id string) (*models.Package, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM packages WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, gameerr.NotFoundf("package %s not found", id)
	}
	if err != nil {
		return nil, gameerr.Persistence(err, "load package")
	}
	var p models.Package
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, gameerr.Persistence(err, "decode package")
	}
	return &p, nil
}

func (s *Postgres) SavePackage(ctx context.Context, pkg *models.Package) error {
	if pkg.ID == "" {
		return gameerr.Validationf("package id must not be empty")
	}
	raw, err := json.Marshal(pkg)
	if err != nil {
		return gameerr.Persistence(err, "encode package")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO packages (id, round, number, doc)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET round = EXCLUDED.round, number = EXCLUDED.number, doc = EXCLUDED.doc
	`, pkg.ID, string(pkg.Round), pkg.Number, raw)
	if err != nil {
		return gameerr.Persistence(err, "save package")
	}
	return nil
}

func (s *Postgres) ListPackages(ctx context.Context, round models.Round) ([]models.Package, error) {
	query := `SELECT doc FROM packages ORDER BY round, number`
	args := []any{}
	if round != "" {
		query = `SELECT doc FROM packages WHERE round = $1 ORDER BY number`
		args = append(args, string(round))
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, gameerr.Persistence(err, "list packages")
	}
	defer rows.Close()

	var out []models.Package
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, gameerr.Persistence(err, "scan package")
		}
		var p models.Package
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, gameerr.Persistence(err, "decode package")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, gameerr.Persistence(err, "list packages")
	}
	return out, nil
}

func (s *Postgres) FindQuestion(ctx context.Context, id string) (*models.Question, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM questions WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, gameerr.NotFoundf("question %s not found", id)
	}
	if err != nil {
		return nil, gameerr.Persistence(err, "load question")
	}
	var q models.Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, gameerr.Persistence(err, "decode question")
	}
	return &q, nil
}

// SaveQuestion upserts authored question content, mirroring the filter
// columns out of the document for indexed listing.
func (s *Postgres) SaveQuestion(ctx context.Context, q *models.Question) error {
	if q.ID == "" {
		return gameerr.Validationf("question id must not be empty")
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return gameerr.Persistence(err, "encode question")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO questions (id, package_id, round, qtype, points, idx, doc)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET package_id = EXCLUDED.package_id, round = EXCLUDED.round,
		    qtype = EXCLUDED.qtype, points = EXCLUDED.points,
		    idx = EXCLUDED.idx, doc = EXCLUDED.doc
	`, q.ID, q.PackageID, string(q.Round), string(q.Type), q.Points, q.Index, raw)
	if err != nil {
		return gameerr.Persistence(err, "save question")
	}
	return nil
}

func (s *Postgres) ListQuestions(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error) {
	query := `SELECT doc FROM questions`
	var (
		conds []string
		args  []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if filter.PackageID != "" {
		add("package_id", filter.PackageID)
	}
	if filter.Round != "" {
		add("round", string(filter.Round))
	}
	if filter.Type != "" {
		add("qtype", string(filter.Type))
	}
	if filter.Points != 0 {
		add("points", filter.Points)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY idx, id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, gameerr.Persistence(err, "list questions")
	}
	defer rows.Close()

	var out []models.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, gameerr.Persistence(err, "scan question")
		}
		var q models.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, gameerr.Persistence(err, "decode question")
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, gameerr.Persistence(err, "list questions")
	}
	return out, nil
}

func (s *Postgres) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at FROM teams ORDER BY created_at, id`)
	if err != nil {
		return nil, gameerr.Persistence(err, "list teams")
	}
	defer rows.Close()

	var out []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, gameerr.Persistence(err, "scan team")
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, gameerr.Persistence(err, "list teams")
	}
	return out, nil
}

func (s *Postgres) FindTeam(ctx context.Context, id string) (*models.Team, error) {
	var t models.Team
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM teams WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, gameerr.NotFoundf("team %s not found", id)
	}
	if err != nil {
		return nil, gameerr.Persistence(err, "load team")
	}
	return &t, nil
}

// SaveTeam registers or renames a roster team.
func (s *Postgres) SaveTeam(ctx context.Context, t *models.Team) error {
	if t.ID == "" {
		return gameerr.Validationf("team id must not be empty")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO teams (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, t.ID, t.Name, t.CreatedAt)
	if err != nil {
		return gameerr.Persistence(err, "save team")
	}
	return nil
}

// DeleteTeam deregisters a roster team; the scoreboard entry drops on
// the next reconciliation.
func (s *Postgres) DeleteTeam(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return gameerr.Persistence(err, "delete team")
	}
	return nil
}
