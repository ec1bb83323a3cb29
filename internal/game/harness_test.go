package game

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gamestore"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

var testStart = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

type captureBroadcaster struct {
	mu     sync.Mutex
	events int
	last   *models.GameState
}

func (b *captureBroadcaster) Publish(ctx context.Context, g *models.GameState, serverTime time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events++
	b.last = g
	return nil
}

func (b *captureBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.events
}

type fixture struct {
	app   *App
	store *gamestore.Memory
	clock *clockwork.FakeClock
	cast  *captureBroadcaster
}

func newFixture(t *testing.T, teamIDs ...string) *fixture {
	t.Helper()
	store := gamestore.NewMemory()
	for i, id := range teamIDs {
		store.PutTeam(models.Team{
			ID:        id,
			Name:      "Team " + id,
			CreatedAt: testStart.Add(time.Duration(i) * time.Second),
		})
	}
	clock := clockwork.NewFakeClockAt(testStart)
	cast := &captureBroadcaster{}
	return &fixture{
		app:   NewApp(store, store, store, store, cast, clock),
		store: store,
		clock: clock,
		cast:  cast,
	}
}

func (f *fixture) ctx() context.Context {
	return context.Background()
}

// seedRound1Package stores a round-1 package with n plain questions.
func (f *fixture) seedRound1Package(t *testing.T, pkgID string, number, n int) {
	t.Helper()
	if err := f.store.SavePackage(f.ctx(), &models.Package{
		ID:     pkgID,
		Round:  models.RoundOne,
		Number: number,
		Status: models.PackageStatusUnassigned,
	}); err != nil {
		t.Fatalf("seed package: %v", err)
	}
	for i := 0; i < n; i++ {
		f.store.PutQuestion(models.Question{
			ID:         fmt.Sprintf("%s-q%d", pkgID, i),
			PackageID:  pkgID,
			Round:      models.RoundOne,
			Index:      i,
			Text:       fmt.Sprintf("question %d", i),
			AnswerText: fmt.Sprintf("answer %d", i),
			Type:       models.QuestionTypeReasoning,
		})
	}
}

// seedRound2Package stores a picture-puzzle package with four
// horizontal clues and the given keyword.
func (f *fixture) seedRound2Package(t *testing.T, pkgID, cnvAnswer string) {
	t.Helper()
	if err := f.store.SavePackage(f.ctx(), &models.Package{
		ID:     pkgID,
		Round:  models.RoundTwo,
		Number: 1,
		Status: models.PackageStatusUnassigned,
		Round2Meta: &models.Round2Meta{
			ImageRef:  "puzzle.png",
			CNVAnswer: cnvAnswer,
		},
	}); err != nil {
		t.Fatalf("seed package: %v", err)
	}
	for order := 1; order <= 4; order++ {
		f.store.PutQuestion(models.Question{
			ID:         fmt.Sprintf("%s-h%d", pkgID, order),
			PackageID:  pkgID,
			Round:      models.RoundTwo,
			Index:      order,
			Text:       fmt.Sprintf("horizontal %d", order),
			AnswerText: fmt.Sprintf("answer %d", order),
			Type:       models.QuestionTypeHorizontal,
		})
	}
}

// seedRound3Question stores one standalone speed question.
func (f *fixture) seedRound3Question(t *testing.T, id string, index int, answer string, accepted ...string) {
	t.Helper()
	f.store.PutQuestion(models.Question{
		ID:              id,
		Round:           models.RoundThree,
		Index:           index,
		Text:            "speed question",
		AnswerText:      answer,
		AcceptedAnswers: accepted,
		Type:            models.QuestionTypeVideo,
	})
}

// seedRound4Tier stores n questions worth the given points.
func (f *fixture) seedRound4Tier(t *testing.T, points, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		f.store.PutQuestion(models.Question{
			ID:         fmt.Sprintf("r4-%d-%d", points, i),
			Round:      models.RoundFour,
			Index:      i,
			Text:       fmt.Sprintf("%d point question %d", points, i),
			AnswerText: "answer",
			Type:       models.QuestionTypeReasoning,
			Points:     points,
		})
	}
}

func (f *fixture) mustScore(t *testing.T, g *models.GameState, teamID string, want int) {
	t.Helper()
	team := g.Team(teamID)
	if team == nil {
		t.Fatalf("team %s missing from scoreboard", teamID)
	}
	if team.Score != want {
		t.Fatalf("team %s score = %d, want %d", teamID, team.Score, want)
	}
}

func mustPhase(t *testing.T, g *models.GameState, want models.Phase) {
	t.Helper()
	if g.Phase != want {
		t.Fatalf("phase = %s, want %s", g.Phase, want)
	}
}
