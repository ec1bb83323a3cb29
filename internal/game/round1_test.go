package game

import (
	"testing"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gameerr"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

func TestRound1FullPackageRun(t *testing.T) {
	f := newFixture(t, "A", "B")
	f.seedRound1Package(t, "p1", 1, 3)
	ctx := f.ctx()

	g, err := f.app.StartRound1(ctx)
	if err != nil {
		t.Fatalf("start round 1: %v", err)
	}
	mustPhase(t, g, models.PhaseRoundReady)

	if _, err := f.app.SelectTeam(ctx, "A"); err != nil {
		t.Fatalf("select team: %v", err)
	}
	g, err = f.app.PreviewPackage(ctx, "p1")
	if err != nil {
		t.Fatalf("preview package: %v", err)
	}
	if g.ActivePackageID != "p1" {
		t.Fatalf("active package = %q, want p1", g.ActivePackageID)
	}
	pkg, err := f.store.FindPackage(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if pkg.Status != models.PackageStatusInProgress || pkg.AssignedTeamID != "A" {
		t.Fatalf("package not assigned on preview: %+v", pkg)
	}

	for i := 0; i < 3; i++ {
		qid := pkg.ID + "-q" + string(rune('0'+i))
		if _, err := f.app.SelectQuestion(ctx, qid); err != nil {
			t.Fatalf("select question %d: %v", i, err)
		}
		result := models.ResultCorrect
		points := 10
		if i == 1 {
			result = models.ResultWrong
			points = 0
		}
		g, err = f.app.JudgeQuestionRound1(ctx, qid, result, "mod", points)
		if err != nil {
			t.Fatalf("judge question %d: %v", i, err)
		}
	}

	f.mustScore(t, g, "A", 20)
	if g.Team("A").Status != models.TeamStatusFinished {
		t.Error("team should finish with its package")
	}
	if g.ActivePackageID != "" || g.ActiveTeamID != "" {
		t.Error("completed run should clear the stage")
	}
	pkg, _ = f.store.FindPackage(ctx, "p1")
	if pkg.Status != models.PackageStatusCompleted {
		t.Errorf("package status = %s, want COMPLETED", pkg.Status)
	}
}

func TestRound1JudgeIsIdempotentPerQuestion(t *testing.T) {
	f := newFixture(t, "A")
	f.seedRound1Package(t, "p1", 1, 2)
	ctx := f.ctx()

	f.app.StartRound1(ctx)
	f.app.SelectTeam(ctx, "A")
	f.app.PreviewPackage(ctx, "p1")

	if _, err := f.app.JudgeQuestionRound1(ctx, "p1-q0", models.ResultCorrect, "mod", 10); err != nil {
		t.Fatalf("first judge: %v", err)
	}
	_, err := f.app.JudgeQuestionRound1(ctx, "p1-q0", models.ResultCorrect, "mod", 10)
	if !gameerr.IsKind(err, gameerr.KindPhaseConflict) {
		t.Fatalf("second judge of same question: got %v, want phase conflict", err)
	}
	g, _, _ := f.app.Snapshot(ctx)
	f.mustScore(t, g, "A", 10)
}

func TestRound1RejectsFinishedTeamAndForeignPackage(t *testing.T) {
	f := newFixture(t, "A", "B")
	f.seedRound1Package(t, "p1", 1, 1)
	f.seedRound1Package(t, "p2", 2, 1)
	ctx := f.ctx()

	f.app.StartRound1(ctx)
	f.app.SelectTeam(ctx, "A")
	f.app.PreviewPackage(ctx, "p1")
	f.app.JudgeQuestionRound1(ctx, "p1-q0", models.ResultCorrect, "mod", 10)

	_, err := f.app.SelectTeam(ctx, "A")
	if !gameerr.IsKind(err, gameerr.KindPhaseConflict) {
		t.Errorf("re-selecting finished team: got %v, want phase conflict", err)
	}

	f.app.SelectTeam(ctx, "B")
	f.app.PreviewPackage(ctx, "p2")
	_, err = f.app.JudgeQuestionRound1(ctx, "p1-q0", models.ResultCorrect, "mod", 10)
	if !gameerr.IsKind(err, gameerr.KindValidation) {
		t.Errorf("judging foreign package question: got %v, want validation", err)
	}
}

func TestRound1PreviewRejectsAssignedPackage(t *testing.T) {
	f := newFixture(t, "A", "B")
	f.seedRound1Package(t, "p1", 1, 2)
	ctx := f.ctx()

	f.app.StartRound1(ctx)
	f.app.SelectTeam(ctx, "A")
	f.app.PreviewPackage(ctx, "p1")

	f.app.SelectTeam(ctx, "B")
	_, err := f.app.PreviewPackage(ctx, "p1")
	if !gameerr.IsKind(err, gameerr.KindPhaseConflict) {
		t.Errorf("previewing another team's package: got %v, want phase conflict", err)
	}
}

func TestRound1CommandsBroadcastOncePerSuccess(t *testing.T) {
	f := newFixture(t, "A")
	f.seedRound1Package(t, "p1", 1, 1)
	ctx := f.ctx()

	f.app.StartRound1(ctx)
	f.app.SelectTeam(ctx, "A")
	before := f.cast.count()

	if _, err := f.app.PreviewPackage(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if got := f.cast.count(); got != before+1 {
		t.Errorf("broadcasts after success = %d, want %d", got, before+1)
	}

	// A rejected command must not broadcast.
	f.app.SelectQuestion(ctx, "missing")
	if got := f.cast.count(); got != before+1 {
		t.Errorf("broadcasts after failure = %d, want %d", got, before+1)
	}
}
