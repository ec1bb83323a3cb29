package game

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gameerr"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// App is the single authoritative game engine. Every mutation goes
// through mutate under one mutex, so buzz races and duplicate
// submissions resolve deterministically on arrival order at this lock.
type App struct {
	mu          sync.Mutex
	clock       clockwork.Clock
	games       GameRepository
	packs       PackageRepository
	questions   QuestionRepository
	teams       TeamRepository
	broadcaster Broadcaster
}

func NewApp(
	games GameRepository,
	packs PackageRepository,
	questions QuestionRepository,
	teams TeamRepository,
	broadcaster Broadcaster,
	clock clockwork.Clock,
) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		clock:       clock,
		games:       games,
		packs:       packs,
		questions:   questions,
		teams:       teams,
		broadcaster: broadcaster,
	}
}

func (a *App) now() time.Time {
	return a.clock.Now().UTC()
}

// Now exposes the engine clock so transports stamp responses with the
// same server time broadcasts carry.
func (a *App) Now() time.Time {
	return a.now()
}

func newGameState(now time.Time) *models.GameState {
	return &models.GameState{
		Round:     models.RoundOne,
		Phase:     models.PhaseIdle,
		UpdatedAt: now,
	}
}

// mutation applies a command to the snapshot. It may return a package
// whose state it changed; mutate persists that package before the game
// snapshot so a crash between the two writes never loses judged
// history.
type mutation func(ctx context.Context, g *models.GameState) (*models.Package, error)

// mutate is the single write path: lock, load or init, reconcile the
// roster, guard the phase, apply, persist, broadcast. Any error before
// persist discards the in-memory changes entirely.
func (a *App) mutate(ctx context.Context, cmd Command, fn mutation) (*models.GameState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	g, err := a.loadOrInit(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := a.reconcileLocked(ctx, g); err != nil {
		return nil, err
	}
	if err := guardCommand(g, cmd); err != nil {
		return nil, err
	}
	pkg, err := fn(ctx, g)
	if err != nil {
		return nil, err
	}
	if pkg != nil {
		if err := a.packs.SavePackage(ctx, pkg); err != nil {
			return nil, err
		}
	}
	g.UpdatedAt = a.now()
	if err := a.games.SaveGame(ctx, g); err != nil {
		return nil, err
	}
	a.publish(ctx, cmd, g)
	return g, nil
}

func (a *App) loadOrInit(ctx context.Context) (*models.GameState, error) {
	g, err := a.games.LoadGame(ctx)
	if err != nil {
		if gameerr.IsKind(err, gameerr.KindNotFound) {
			return newGameState(a.now()), nil
		}
		return nil, err
	}
	return g, nil
}

// publish pushes the snapshot to all viewers. Broadcast failure never
// fails the command; the state is already persisted and the next
// snapshot will catch viewers up.
func (a *App) publish(ctx context.Context, cmd Command, g *models.GameState) {
	if a.broadcaster == nil {
		return
	}
	if err := a.broadcaster.Publish(ctx, g, a.now()); err != nil {
		log.Error().
			Err(err).
			Str("command", string(cmd)).
			Str("round", string(g.Round)).
			Str("phase", string(g.Phase)).
			Msg("snapshot broadcast failed, continuing degraded")
	}
}

// Snapshot returns the current state for read-only export, repairing
// roster drift first so viewers never see deregistered teams.
func (a *App) Snapshot(ctx context.Context) (*models.GameState, time.Time, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	g, err := a.loadOrInit(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	changed, err := a.reconcileLocked(ctx, g)
	if err != nil {
		return nil, time.Time{}, err
	}
	if changed {
		g.UpdatedAt = a.now()
		if err := a.games.SaveGame(ctx, g); err != nil {
			log.Warn().Err(err).Msg("persisting reconciled snapshot failed, serving in-memory state")
		}
	}
	return g, a.now(), nil
}

// Reset returns the competition to a pristine round-1 idle state.
// Authored content survives; assignments, history, scores, and all
// round runtime state are wiped. The snapshot row itself is never
// deleted, so the version token keeps advancing.
func (a *App) Reset(ctx context.Context) (*models.GameState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var version int64
	if current, err := a.games.LoadGame(ctx); err == nil {
		version = current.Version
	} else if !gameerr.IsKind(err, gameerr.KindNotFound) {
		return nil, err
	}

	roster, err := a.teams.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	g := newGameState(a.now())
	g.Version = version
	for _, t := range roster {
		g.Teams = append(g.Teams, models.TeamScore{
			TeamID: t.ID,
			Name:   t.Name,
			Status: models.TeamStatusWaiting,
		})
	}

	packs, err := a.packs.ListPackages(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range packs {
		pkg := &packs[i]
		pkg.Status = models.PackageStatusUnassigned
		pkg.AssignedTeamID = ""
		pkg.CurrentQuestionIndex = 0
		pkg.History = nil
		if m := pkg.Round2Meta; m != nil {
			m.RevealedPieces = nil
			m.OpenedClueCount = 0
			m.EliminatedTeams = nil
			m.TurnState = models.TurnState{}
			m.BuzzState = models.BuzzState{}
		}
		if err := a.packs.SavePackage(ctx, pkg); err != nil {
			return nil, err
		}
	}

	if err := a.games.SaveGame(ctx, g); err != nil {
		return nil, err
	}
	a.publish(ctx, CmdReset, g)
	return g, nil
}

// timerLapsed reports whether the active question timer has passed its
// deadline. Expiry is evaluated reactively at command time; no
// background sweep mutates state.
func (a *App) timerLapsed(g *models.GameState) bool {
	return g.Timer != nil && a.now().After(g.Timer.EndsAt)
}

// windowOpen reports whether submissions are currently accepted.
func (a *App) windowOpen(g *models.GameState) bool {
	return g.Timer != nil && g.Timer.Running && !a.now().After(g.Timer.EndsAt)
}

// activeRound2Package loads the picture-puzzle package in play.
func (a *App) activeRound2Package(ctx context.Context, g *models.GameState) (*models.Package, *models.Round2Meta, error) {
	if g.ActivePackageID == "" {
		return nil, nil, gameerr.PhaseConflictf("no package in play")
	}
	pkg, err := a.packs.FindPackage(ctx, g.ActivePackageID)
	if err != nil {
		return nil, nil, err
	}
	if pkg.Round2Meta == nil {
		return nil, nil, gameerr.Validationf("package %s has no picture puzzle data", pkg.ID)
	}
	return pkg, pkg.Round2Meta, nil
}
