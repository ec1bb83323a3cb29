package game

import (
	"sync"
	"testing"
	"time"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gameerr"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

func TestRound2StartComputesLetterCount(t *testing.T) {
	f := newFixture(t, "A", "B", "C", "D")
	f.seedRound2Package(t, "pic", "DẦU KHÍ")
	ctx := f.ctx()

	g, err := f.app.StartRound2(ctx, "pic")
	if err != nil {
		t.Fatalf("start round 2: %v", err)
	}
	mustPhase(t, g, models.PhaseTurnSelect)

	pkg, _ := f.store.FindPackage(ctx, "pic")
	if pkg.Round2Meta.CNVLetterCount != 6 {
		t.Errorf("letter count = %d, want 6", pkg.Round2Meta.CNVLetterCount)
	}
	if pkg.Round2Meta.TurnState.CurrentTeamID != "A" {
		t.Errorf("first turn = %q, want A", pkg.Round2Meta.TurnState.CurrentTeamID)
	}
}

func TestRound2HorizontalOneShotSubmissions(t *testing.T) {
	f := newFixture(t, "A", "B", "C", "D")
	f.seedRound2Package(t, "pic", "DẦU KHÍ")
	ctx := f.ctx()

	f.app.StartRound2(ctx, "pic")
	g, err := f.app.SelectHorizontal(ctx, "A", 2)
	if err != nil {
		t.Fatalf("select horizontal: %v", err)
	}
	mustPhase(t, g, models.PhaseHorizontalActive)
	if g.Timer == nil || !g.Timer.Running {
		t.Fatal("answer window timer should be running")
	}

	if _, err := f.app.SubmitAnswerRound2(ctx, "B", "giàn khoan"); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	_, err = f.app.SubmitAnswerRound2(ctx, "B", "edited")
	if !gameerr.IsKind(err, gameerr.KindPhaseConflict) {
		t.Fatalf("resubmission: got %v, want phase conflict", err)
	}

	f.clock.Advance(horizontalAnswerWindow + time.Second)
	_, err = f.app.SubmitAnswerRound2(ctx, "C", "late")
	if !gameerr.IsKind(err, gameerr.KindPhaseConflict) {
		t.Fatalf("late submission: got %v, want phase conflict", err)
	}

	g, err = f.app.JudgeHorizontal(ctx, "mod", []string{"B"}, 10)
	if err != nil {
		t.Fatalf("judge horizontal: %v", err)
	}
	f.mustScore(t, g, "B", 10)
	mustPhase(t, g, models.PhaseTurnSelect)

	pkg, _ := f.store.FindPackage(ctx, "pic")
	m := pkg.Round2Meta
	if !m.RevealedPieces[2] || m.OpenedClueCount != 1 {
		t.Errorf("piece 2 should be revealed once: %+v", m)
	}
	if pkg.HistoryFor(2) == nil || pkg.HistoryFor(2).Result != models.ResultCorrect {
		t.Error("judged clue should be recorded in history")
	}
}

func TestRound2HorizontalAttemptSpentEvenOnTimeout(t *testing.T) {
	f := newFixture(t, "A", "B")
	f.seedRound2Package(t, "pic", "DẦU KHÍ")
	ctx := f.ctx()

	f.app.StartRound2(ctx, "pic")
	f.app.SelectHorizontal(ctx, "A", 1)

	_, err := f.app.ContinueHorizontal(ctx)
	if !gameerr.IsKind(err, gameerr.KindPhaseConflict) {
		t.Fatalf("continue with open window: got %v, want phase conflict", err)
	}

	f.clock.Advance(horizontalAnswerWindow + time.Second)
	g, err := f.app.ContinueHorizontal(ctx)
	if err != nil {
		t.Fatalf("continue after lapse: %v", err)
	}
	mustPhase(t, g, models.PhaseTurnSelect)

	pkg, _ := f.store.FindPackage(ctx, "pic")
	entry := pkg.HistoryFor(1)
	if entry == nil || entry.Result != models.ResultTimeout {
		t.Fatalf("timeout entry missing: %+v", pkg.History)
	}
	if n := len(pkg.History); n != 1 {
		t.Fatalf("history entries = %d, want 1", n)
	}

	// The attempt is spent; A cannot pick again.
	f.app.NextTurn(ctx)
	f.app.NextTurn(ctx)
	_, err = f.app.SelectHorizontal(ctx, "A", 3)
	if !gameerr.IsKind(err, gameerr.KindPhaseConflict) {
		t.Errorf("second pick by same team: got %v, want phase conflict", err)
	}
}

func TestRound2CNVBuzzRaceExactlyOneWinner(t *testing.T) {
	f := newFixture(t, "A", "B", "C", "D")
	f.seedRound2Package(t, "pic", "DẦU KHÍ")
	ctx := f.ctx()

	f.app.StartRound2(ctx, "pic")
	g, err := f.app.BuzzCNV(ctx, "B")
	if err != nil {
		t.Fatalf("first buzz: %v", err)
	}
	mustPhase(t, g, models.PhaseCNVLocked)

	_, err = f.app.BuzzCNV(ctx, "C")
	if !gameerr.IsKind(err, gameerr.KindConcurrency) {
		t.Fatalf("losing buzz: got %v, want concurrency", err)
	}

	// Only the lock holder may answer.
	_, err = f.app.SubmitAnswerRound2(ctx, "C", "dầu khí")
	if !gameerr.IsKind(err, gameerr.KindAuthorization) {
		t.Fatalf("non-holder answer: got %v, want authorization", err)
	}
	g, err = f.app.SubmitAnswerRound2(ctx, "B", "dầu khí")
	if err != nil {
		t.Fatalf("holder answer: %v", err)
	}
	mustPhase(t, g, models.PhaseCNVJudging)
}

func TestRound2CNVScoreScalesWithOpenedClues(t *testing.T) {
	f := newFixture(t, "A", "B", "C", "D")
	f.seedRound2Package(t, "pic", "DẦU KHÍ")
	ctx := f.ctx()

	f.app.StartRound2(ctx, "pic")

	// Open two clues.
	for i, team := range []string{"A", "B"} {
		if _, err := f.app.SelectHorizontal(ctx, team, i+1); err != nil {
			t.Fatalf("select horizontal %d: %v", i+1, err)
		}
		f.app.SubmitAnswerRound2(ctx, team, "answer")
		if _, err := f.app.JudgeHorizontal(ctx, "mod", []string{team}, 10); err != nil {
			t.Fatalf("judge horizontal %d: %v", i+1, err)
		}
		f.app.NextTurn(ctx)
	}

	f.app.BuzzCNV(ctx, "C")
	f.app.SubmitAnswerRound2(ctx, "C", "dầu khí")
	g, err := f.app.JudgeCNV(ctx, "mod", true)
	if err != nil {
		t.Fatalf("judge keyword: %v", err)
	}
	f.mustScore(t, g, "C", 60)
	mustPhase(t, g, models.PhaseRoundEnd)

	pkg, _ := f.store.FindPackage(ctx, "pic")
	if pkg.Status != models.PackageStatusCompleted {
		t.Error("package should complete with the round")
	}
	for piece := 1; piece <= 4; piece++ {
		if !pkg.Round2Meta.RevealedPieces[piece] {
			t.Errorf("piece %d should be revealed after a correct keyword", piece)
		}
	}
}

func TestRound2WrongCNVEliminatesAndReleasesLock(t *testing.T) {
	f := newFixture(t, "A", "B", "C")
	f.seedRound2Package(t, "pic", "DẦU KHÍ")
	ctx := f.ctx()

	f.app.StartRound2(ctx, "pic")
	f.app.BuzzCNV(ctx, "A")
	f.app.SubmitAnswerRound2(ctx, "A", "sai rồi")
	g, err := f.app.JudgeCNV(ctx, "mod", false)
	if err != nil {
		t.Fatalf("judge wrong keyword: %v", err)
	}
	mustPhase(t, g, models.PhaseTurnSelect)

	pkg, _ := f.store.FindPackage(ctx, "pic")
	m := pkg.Round2Meta
	if !m.Eliminated("A") {
		t.Fatal("wrong guesser should be eliminated")
	}
	if m.BuzzState.CNVLockTeamID != "" {
		t.Fatal("lock should be released after judging")
	}
	if m.TurnState.CurrentTeamID != "B" {
		t.Errorf("turn should rotate off the eliminated team, got %q", m.TurnState.CurrentTeamID)
	}

	_, err = f.app.BuzzCNV(ctx, "A")
	if !gameerr.IsKind(err, gameerr.KindPhaseConflict) {
		t.Errorf("eliminated rebuzz: got %v, want phase conflict", err)
	}

	// The lock cycle restarts for the remaining teams.
	if _, err := f.app.BuzzCNV(ctx, "B"); err != nil {
		t.Errorf("fresh buzz after release: %v", err)
	}
}

func TestRound2AllEliminatedEndsRound(t *testing.T) {
	f := newFixture(t, "A", "B")
	f.seedRound2Package(t, "pic", "DẦU KHÍ")
	ctx := f.ctx()

	f.app.StartRound2(ctx, "pic")
	for _, team := range []string{"A", "B"} {
		f.app.BuzzCNV(ctx, team)
		f.app.SubmitAnswerRound2(ctx, team, "sai")
		g, err := f.app.JudgeCNV(ctx, "mod", false)
		if err != nil {
			t.Fatalf("judge %s: %v", team, err)
		}
		if team == "B" {
			mustPhase(t, g, models.PhaseRoundEnd)
		}
	}
}

func TestRound2KeywordQueueOrderAndJudging(t *testing.T) {
	f := newFixture(t, "A", "B", "C", "D")
	f.seedRound2Package(t, "pic", "DẦU KHÍ")
	ctx := f.ctx()

	f.app.StartRound2(ctx, "pic")
	g, err := f.app.RevealFinalPiece(ctx)
	if err != nil {
		t.Fatalf("reveal final piece: %v", err)
	}
	mustPhase(t, g, models.PhaseCenterHintActive)

	for _, team := range []string{"C", "A", "D"} {
		if _, err := f.app.BuzzKeyword(ctx, team); err != nil {
			t.Fatalf("keyword buzz %s: %v", team, err)
		}
		f.clock.Advance(time.Second)
	}
	_, err = f.app.BuzzKeyword(ctx, "C")
	if !gameerr.IsKind(err, gameerr.KindPhaseConflict) {
		t.Fatalf("double keyword buzz: got %v, want phase conflict", err)
	}

	if _, err := f.app.StartKeywordJudging(ctx); err != nil {
		t.Fatalf("start keyword judging: %v", err)
	}

	// First in line is C; wrong moves the cursor, A then answers right.
	g, err = f.app.JudgeKeywordBuzz(ctx, "mod", false, 0)
	if err != nil {
		t.Fatalf("judge first buzz: %v", err)
	}
	mustPhase(t, g, models.PhaseKeywordBuzzJudging)

	g, err = f.app.JudgeKeywordBuzz(ctx, "mod", true, 40)
	if err != nil {
		t.Fatalf("judge second buzz: %v", err)
	}
	f.mustScore(t, g, "A", 40)
	f.mustScore(t, g, "C", 0)
	mustPhase(t, g, models.PhaseRoundEnd)
}

func TestRound2CNVBuzzAllowedAfterFullReveal(t *testing.T) {
	f := newFixture(t, "A", "B", "C")
	f.seedRound2Package(t, "pic", "DẦU KHÍ")
	ctx := f.ctx()

	f.app.StartRound2(ctx, "pic")
	f.app.RevealFinalPiece(ctx)

	// The keyword buzz stays live over the center hint; a wrong guess
	// eliminates and play resumes where the buzz interrupted.
	g, err := f.app.BuzzCNV(ctx, "B")
	if err != nil {
		t.Fatalf("post-reveal buzz: %v", err)
	}
	mustPhase(t, g, models.PhaseCNVLocked)
	f.app.SubmitAnswerRound2(ctx, "B", "sai rồi")
	g, err = f.app.JudgeCNV(ctx, "mod", false)
	if err != nil {
		t.Fatalf("judge wrong guess: %v", err)
	}
	mustPhase(t, g, models.PhaseCenterHintActive)

	// With all four pieces open a correct guess earns the floor reward.
	f.app.BuzzCNV(ctx, "C")
	f.app.SubmitAnswerRound2(ctx, "C", "dầu khí")
	g, err = f.app.JudgeCNV(ctx, "mod", true)
	if err != nil {
		t.Fatalf("judge correct guess: %v", err)
	}
	f.mustScore(t, g, "C", 20)
	mustPhase(t, g, models.PhaseRoundEnd)
}

func TestRound2CNVBuzzOverFrozenKeywordQueue(t *testing.T) {
	f := newFixture(t, "A", "B", "C")
	f.seedRound2Package(t, "pic", "DẦU KHÍ")
	ctx := f.ctx()

	f.app.StartRound2(ctx, "pic")
	f.app.RevealFinalPiece(ctx)
	for _, team := range []string{"B", "A"} {
		if _, err := f.app.BuzzKeyword(ctx, team); err != nil {
			t.Fatalf("keyword buzz %s: %v", team, err)
		}
		f.clock.Advance(time.Second)
	}
	f.app.StartKeywordJudging(ctx)

	// B jumps the frozen queue with a direct lock and guesses wrong.
	g, err := f.app.BuzzCNV(ctx, "B")
	if err != nil {
		t.Fatalf("buzz over frozen queue: %v", err)
	}
	mustPhase(t, g, models.PhaseCNVLocked)
	f.app.SubmitAnswerRound2(ctx, "B", "sai")
	g, err = f.app.JudgeCNV(ctx, "mod", false)
	if err != nil {
		t.Fatalf("judge wrong lock guess: %v", err)
	}
	mustPhase(t, g, models.PhaseKeywordBuzzJudging)

	// B headed the queue but is eliminated now, so judging falls through
	// to A.
	g, err = f.app.JudgeKeywordBuzz(ctx, "mod", true, 40)
	if err != nil {
		t.Fatalf("judge queue: %v", err)
	}
	f.mustScore(t, g, "A", 40)
	f.mustScore(t, g, "B", 0)
	mustPhase(t, g, models.PhaseRoundEnd)
}

func TestRound2CNVBuzzRaceConcurrent(t *testing.T) {
	f := newFixture(t, "A", "B", "C", "D")
	f.seedRound2Package(t, "pic", "DẦU KHÍ")
	ctx := f.ctx()
	f.app.StartRound2(ctx, "pic")

	const buzzers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	var winners []string
	for i := 0; i < buzzers; i++ {
		team := []string{"A", "B", "C", "D"}[i%4]
		wg.Add(1)
		go func(team string) {
			defer wg.Done()
			_, err := f.app.BuzzCNV(ctx, team)
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
	pkg, _ := f.store.FindPackage(ctx, "pic")
	if pkg.Round2Meta.BuzzState.CNVLockTeamID != winners[0] {
		t.Errorf("lock holder = %q, want %q", pkg.Round2Meta.BuzzState.CNVLockTeamID, winners[0])
	}
}
