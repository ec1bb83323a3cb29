package game

import (
	"context"
	"time"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// GameRepository persists the singleton game snapshot. SaveGame must be
// an atomic conditional write on the snapshot version so that two
// concurrent writers cannot both succeed.
type GameRepository interface {
	LoadGame(ctx context.Context) (*models.GameState, error)
	SaveGame(ctx context.Context, g *models.GameState) error
}

// PackageRepository persists moderator-authored packages.
type PackageRepository interface {
	FindPackage(ctx context.Context, id string) (*models.Package, error)
	SavePackage(ctx context.Context, pkg *models.Package) error
	ListPackages(ctx context.Context, round models.Round) ([]models.Package, error)
}

// QuestionRepository provides read access to authored questions.
type QuestionRepository interface {
	FindQuestion(ctx context.Context, id string) (*models.Question, error)
	ListQuestions(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error)
}

// TeamRepository provides read access to the live team roster.
type TeamRepository interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	FindTeam(ctx context.Context, id string) (*models.Team, error)
}

// Broadcaster pushes the full snapshot plus server time to all viewers.
// Called after every successful persist; failures are surfaced to the
// operator log but never roll back persisted state.
type Broadcaster interface {
	Publish(ctx context.Context, g *models.GameState, serverTime time.Time) error
}
