package game

import (
	"sync"
	"testing"
	"time"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gameerr"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

func startRound4Package(t *testing.T, f *fixture, teamID string, pattern []int) {
	t.Helper()
	ctx := f.ctx()
	if _, err := f.app.SelectPackageRound4(ctx, teamID, pattern); err != nil {
		t.Fatalf("select package: %v", err)
	}
}

func TestRound4PackageDrawNoTierRepeats(t *testing.T) {
	f := newFixture(t, "A", "B")
	f.seedRound4Tier(t, 40, 3)
	f.seedRound4Tier(t, 60, 1)
	ctx := f.ctx()

	g, err := f.app.StartRound4(ctx)
	if err != nil {
		t.Fatalf("start round 4: %v", err)
	}
	mustPhase(t, g, models.PhaseRound4SelectPackage)
	if g.Round4.CurrentTeamID != "A" {
		t.Fatalf("first pick should go to A, got %q", g.Round4.CurrentTeamID)
	}

	_, err = f.app.SelectPackageRound4(ctx, "B", []int{40, 40})
	if !gameerr.IsKind(err, gameerr.KindPhaseConflict) {
		t.Fatalf("out-of-turn pick: got %v, want phase conflict", err)
	}

	startRound4Package(t, f, "A", []int{40, 40})
	g, _, _ = f.app.Snapshot(ctx)
	qs := g.Round4.Questions
	if len(qs) != 2 {
		t.Fatalf("drawn questions = %d, want 2", len(qs))
	}
	if qs[0].QuestionID == qs[1].QuestionID {
		t.Fatal("same question drawn twice within one package")
	}

	// Exhaust the tier: only one 40-point question remains for B's turn,
	// so a double-40 pattern cannot be drawn.
	for range qs {
		f.app.StartQuestionRound4(ctx)
		f.app.SetStar(ctx, "A", false, 0)
		f.app.LockMain(ctx)
		f.app.JudgeMain(ctx, "mod", true)
	}
	_, err = f.app.SelectPackageRound4(ctx, "B", []int{40, 40})
	if !gameerr.IsKind(err, gameerr.KindValidation) {
		t.Fatalf("exhausted tier: got %v, want validation", err)
	}
}

func TestRound4StarDoubleOrNothing(t *testing.T) {
	f := newFixture(t, "A", "B")
	f.seedRound4Tier(t, 40, 2)
	f.seedRound4Tier(t, 60, 2)
	ctx := f.ctx()

	f.app.StartRound4(ctx)
	startRound4Package(t, f, "A", []int{40, 60})

	g, err := f.app.StartQuestionRound4(ctx)
	if err != nil {
		t.Fatalf("start question: %v", err)
	}
	mustPhase(t, g, models.PhaseRound4StarConfirm)

	// Star on the second question (the 60-pointer).
	g, err = f.app.SetStar(ctx, "A", true, 1)
	if err != nil {
		t.Fatalf("set star: %v", err)
	}
	mustPhase(t, g, models.PhaseRound4QuestionShow)

	_, err = f.app.SetStar(ctx, "A", false, 0)
	if !gameerr.IsKind(err, gameerr.KindPhaseConflict) {
		t.Fatalf("star redeclaration: got %v, want phase conflict", err)
	}

	// First question, unstarred, correct: +40.
	f.app.LockMain(ctx)
	g, _ = f.app.JudgeMain(ctx, "mod", true)
	f.mustScore(t, g, "A", 40)
	mustPhase(t, g, models.PhaseRound4PickQuestions)

	// Second question carries the star; no confirmation detour.
	g, err = f.app.StartQuestionRound4(ctx)
	if err != nil {
		t.Fatal(err)
	}
	mustPhase(t, g, models.PhaseRound4QuestionShow)
	f.app.LockMain(ctx)
	g, _ = f.app.JudgeMain(ctx, "mod", true)
	f.mustScore(t, g, "A", 40+120)
}

func TestRound4StarLossAndStealTransfer(t *testing.T) {
	f := newFixture(t, "A", "B", "C")
	f.seedRound4Tier(t, 80, 2)
	ctx := f.ctx()

	f.app.StartRound4(ctx)
	startRound4Package(t, f, "A", []int{80})
	f.app.StartQuestionRound4(ctx)
	f.app.SetStar(ctx, "A", true, 0)

	if _, err := f.app.StartTimerRound4(ctx, 15*time.Second); err != nil {
		t.Fatalf("start timer: %v", err)
	}
	if _, err := f.app.SubmitMainAnswer(ctx, "A", "wrong guess"); err != nil {
		t.Fatalf("submit main: %v", err)
	}
	_, err := f.app.SubmitMainAnswer(ctx, "B", "hijack")
	if !gameerr.IsKind(err, gameerr.KindAuthorization) {
		t.Fatalf("non-main answer: got %v, want authorization", err)
	}

	f.app.LockMain(ctx)
	g, err := f.app.JudgeMain(ctx, "mod", false)
	if err != nil {
		t.Fatalf("judge main wrong: %v", err)
	}
	// Starred wrong answer costs the wager immediately.
	f.mustScore(t, g, "A", -80)
	mustPhase(t, g, models.PhaseRound4StealWindow)

	// B wins the buzz race, C loses it.
	g, err = f.app.BuzzSteal(ctx, "B")
	if err != nil {
		t.Fatalf("steal buzz: %v", err)
	}
	mustPhase(t, g, models.PhaseRound4StealLocked)
	_, err = f.app.BuzzSteal(ctx, "C")
	if !gameerr.IsKind(err, gameerr.KindPhaseConflict) {
		t.Fatalf("late buzz after lock: got %v, want phase conflict", err)
	}

	// First steal answer wins, the second is rejected.
	if _, err := f.app.SubmitStealAnswer(ctx, "B", "correct answer"); err != nil {
		t.Fatalf("steal answer: %v", err)
	}
	_, err = f.app.SubmitStealAnswer(ctx, "B", "edited")
	if !gameerr.IsKind(err, gameerr.KindConcurrency) {
		t.Fatalf("second steal answer: got %v, want concurrency", err)
	}

	g, err = f.app.JudgeSteal(ctx, "mod", true)
	if err != nil {
		t.Fatalf("judge steal: %v", err)
	}
	// Zero-sum transfer: B +80, A -80 on top of the star loss.
	f.mustScore(t, g, "B", 80)
	f.mustScore(t, g, "A", -160)
	mustPhase(t, g, models.PhaseRound4SelectPackage)
	if g.Round4.CurrentTeamID != "B" {
		t.Errorf("turn should rotate to B, got %q", g.Round4.CurrentTeamID)
	}
}

func TestRound4WrongStealCostsHalf(t *testing.T) {
	f := newFixture(t, "A", "B")
	f.seedRound4Tier(t, 60, 1)
	ctx := f.ctx()

	f.app.StartRound4(ctx)
	startRound4Package(t, f, "A", []int{60})
	f.app.StartQuestionRound4(ctx)
	f.app.SetStar(ctx, "A", false, 0)
	f.app.LockMain(ctx)
	f.app.JudgeMain(ctx, "mod", false)

	f.app.BuzzSteal(ctx, "B")
	f.app.SubmitStealAnswer(ctx, "B", "wrong")
	g, err := f.app.JudgeSteal(ctx, "mod", false)
	if err != nil {
		t.Fatalf("judge steal: %v", err)
	}
	f.mustScore(t, g, "B", -30)
	f.mustScore(t, g, "A", 0)
}

func TestRound4StealWindowGuards(t *testing.T) {
	f := newFixture(t, "A", "B")
	f.seedRound4Tier(t, 40, 1)
	ctx := f.ctx()

	f.app.StartRound4(ctx)
	startRound4Package(t, f, "A", []int{40})
	f.app.StartQuestionRound4(ctx)
	f.app.SetStar(ctx, "A", false, 0)
	f.app.LockMain(ctx)
	f.app.JudgeMain(ctx, "mod", false)

	// The main team may not steal its own question.
	_, err := f.app.BuzzSteal(ctx, "A")
	if !gameerr.IsKind(err, gameerr.KindAuthorization) {
		t.Fatalf("main team buzz: got %v, want authorization", err)
	}

	// The window must lapse before moving on.
	_, err = f.app.NextQuestionRound4(ctx)
	if !gameerr.IsKind(err, gameerr.KindPhaseConflict) {
		t.Fatalf("early next question: got %v, want phase conflict", err)
	}

	f.clock.Advance(stealWindowDuration + time.Second)
	_, err = f.app.BuzzSteal(ctx, "B")
	if !gameerr.IsKind(err, gameerr.KindPhaseConflict) {
		t.Fatalf("expired buzz: got %v, want phase conflict", err)
	}

	g, err := f.app.NextQuestionRound4(ctx)
	if err != nil {
		t.Fatalf("next question after lapse: %v", err)
	}
	mustPhase(t, g, models.PhaseRound4SelectPackage)
	if g.Round4.CurrentTeamID != "B" {
		t.Errorf("turn should rotate to B, got %q", g.Round4.CurrentTeamID)
	}
}

func TestRound4StealBuzzRaceConcurrent(t *testing.T) {
	f := newFixture(t, "A", "B", "C", "D")
	f.seedRound4Tier(t, 40, 1)
	ctx := f.ctx()

	f.app.StartRound4(ctx)
	startRound4Package(t, f, "A", []int{40})
	f.app.StartQuestionRound4(ctx)
	f.app.SetStar(ctx, "A", false, 0)
	f.app.LockMain(ctx)
	f.app.JudgeMain(ctx, "mod", false)

	const buzzers = 9
	var wg sync.WaitGroup
	var mu sync.Mutex
	var winners []string
	for i := 0; i < buzzers; i++ {
		team := []string{"B", "C", "D"}[i%3]
		wg.Add(1)
		go func(team string) {
			defer wg.Done()
			_, err := f.app.BuzzSteal(ctx, team)
			switch {
			case err == nil:
				mu.Lock()
				winners = append(winners, team)
				mu.Unlock()
			case gameerr.IsKind(err, gameerr.KindConcurrency):
			case gameerr.IsKind(err, gameerr.KindPhaseConflict):
			default:
				t.Errorf("buzz %s: unexpected error %v", team, err)
			}
		}(team)
	}
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("winners = %v, want exactly one", winners)
	}
	g, _, err := f.app.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	mustPhase(t, g, models.PhaseRound4StealLocked)
	if got := g.Round4.StealWindow.BuzzLockedTeamID; got != winners[0] {
		t.Errorf("lock holder = %q, want %q", got, winners[0])
	}
}

func TestRound4MainAnswerLastWriteWins(t *testing.T) {
	f := newFixture(t, "A", "B")
	f.seedRound4Tier(t, 40, 1)
	ctx := f.ctx()

	f.app.StartRound4(ctx)
	startRound4Package(t, f, "A", []int{40})
	f.app.StartQuestionRound4(ctx)
	f.app.SetStar(ctx, "A", false, 0)
	f.app.StartTimerRound4(ctx, 20*time.Second)

	f.app.SubmitMainAnswer(ctx, "A", "first")
	f.clock.Advance(time.Second)
	g, err := f.app.SubmitMainAnswer(ctx, "A", "second")
	if err != nil {
		t.Fatalf("resubmit main: %v", err)
	}
	if g.Round4.LastMainAnswer == nil || g.Round4.LastMainAnswer.Answer != "second" {
		t.Errorf("last write should win: %+v", g.Round4.LastMainAnswer)
	}

	f.clock.Advance(20 * time.Second)
	_, err = f.app.SubmitMainAnswer(ctx, "A", "too late")
	if !gameerr.IsKind(err, gameerr.KindPhaseConflict) {
		t.Errorf("late main answer: got %v, want phase conflict", err)
	}
}

func TestRound4StarOptOutIsSticky(t *testing.T) {
	f := newFixture(t, "A", "B")
	f.seedRound4Tier(t, 40, 4)
	ctx := f.ctx()

	f.app.StartRound4(ctx)
	startRound4Package(t, f, "A", []int{40, 40})
	f.app.StartQuestionRound4(ctx)
	g, err := f.app.SetStar(ctx, "A", false, 0)
	if err != nil {
		t.Fatalf("opt out: %v", err)
	}
	if usage := g.Round4.StarUsages["A"]; !usage.OptedOut {
		t.Fatalf("opt-out not recorded: %+v", usage)
	}

	f.app.LockMain(ctx)
	f.app.JudgeMain(ctx, "mod", true)

	// The next question skips the confirmation detour entirely.
	g, err = f.app.StartQuestionRound4(ctx)
	if err != nil {
		t.Fatal(err)
	}
	mustPhase(t, g, models.PhaseRound4QuestionShow)
}

func TestRound4LockWithoutTimerStillJudgeable(t *testing.T) {
	f := newFixture(t, "A", "B")
	f.seedRound4Tier(t, 40, 1)
	ctx := f.ctx()

	f.app.StartRound4(ctx)
	startRound4Package(t, f, "A", []int{40})
	f.app.StartQuestionRound4(ctx)
	f.app.SetStar(ctx, "A", false, 0)

	g, err := f.app.LockMain(ctx)
	if err != nil {
		t.Fatalf("lock without timer: %v", err)
	}
	mustPhase(t, g, models.PhaseRound4LockMain)
	g, err = f.app.JudgeMain(ctx, "mod", true)
	if err != nil {
		t.Fatalf("judge: %v", err)
	}
	f.mustScore(t, g, "A", 40)
	mustPhase(t, g, models.PhaseRound4SelectPackage)
}
