package game

import (
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gameerr"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// Command names a moderator- or team-initiated state change. Every
// mutation entering the engine passes through guardCommand under the
// command it was invoked as.
type Command string

const (
	CmdReset Command = "game.reset"

	CmdStartRound1    Command = "round1.startRound"
	CmdSelectTeam     Command = "round1.selectTeam"
	CmdPreviewPackage Command = "round1.previewPackage"
	CmdSelectQuestion Command = "round1.selectQuestion"
	CmdJudgeRound1    Command = "round1.judge"

	CmdStartRound2         Command = "round2.startRound"
	CmdSelectHorizontal    Command = "round2.selectHorizontal"
	CmdSubmitAnswerRound2  Command = "round2.submitAnswer"
	CmdJudgeHorizontal     Command = "round2.judgeHorizontal"
	CmdContinueHorizontal  Command = "round2.continueHorizontal"
	CmdBuzzCNV             Command = "round2.buzzCNV"
	CmdJudgeCNV            Command = "round2.judgeCNV"
	CmdRevealFinalPiece    Command = "round2.revealFinalPiece"
	CmdBuzzKeyword         Command = "round2.buzzKeyword"
	CmdStartKeywordJudging Command = "round2.startKeywordJudging"
	CmdJudgeKeywordBuzz    Command = "round2.judgeKeywordBuzz"
	CmdNextTurn            Command = "round2.nextTurn"

	CmdStartRound3        Command = "round3.startRound"
	CmdStartQuestion3     Command = "round3.startQuestion"
	CmdSubmitAnswerRound3 Command = "round3.submitAnswer"
	CmdJudgeRound3        Command = "round3.judge"
	CmdEndQuestion3       Command = "round3.endQuestion"

	CmdStartRound4       Command = "round4.startRound"
	CmdSelectPackage4    Command = "round4.selectPackage"
	CmdStartQuestion4    Command = "round4.startQuestion"
	CmdSetStar           Command = "round4.setStar"
	CmdStartTimer4       Command = "round4.startTimer"
	CmdSubmitMainAnswer  Command = "round4.submitMainAnswer"
	CmdLockMain          Command = "round4.lockMain"
	CmdJudgeMain         Command = "round4.judgeMain"
	CmdBuzzSteal         Command = "round4.buzz"
	CmdSubmitStealAnswer Command = "round4.submitStealAnswer"
	CmdJudgeSteal        Command = "round4.judgeSteal"
	CmdNextQuestion4     Command = "round4.nextQuestion"
)

type gamePos struct {
	round models.Round
	phase models.Phase
}

// transitions lists, per command, the (round, phase) positions it may
// fire from. Commands absent from the table carry no phase
// precondition: round starts and reset are moderator-driven jumps that
// are legal from anywhere.
var transitions = map[Command][]gamePos{
	CmdSelectTeam:     {{models.RoundOne, models.PhaseRoundReady}},
	CmdPreviewPackage: {{models.RoundOne, models.PhaseRoundReady}},
	CmdSelectQuestion: {{models.RoundOne, models.PhaseRoundReady}},
	CmdJudgeRound1:    {{models.RoundOne, models.PhaseRoundReady}},

	CmdSelectHorizontal: {{models.RoundTwo, models.PhaseTurnSelect}},
	CmdSubmitAnswerRound2: {
		{models.RoundTwo, models.PhaseHorizontalActive},
		{models.RoundTwo, models.PhaseCNVLocked},
	},
	CmdJudgeHorizontal: {
		{models.RoundTwo, models.PhaseHorizontalActive},
		{models.RoundTwo, models.PhaseHorizontalJudging},
	},
	CmdContinueHorizontal: {
		{models.RoundTwo, models.PhaseHorizontalActive},
		{models.RoundTwo, models.PhaseHorizontalJudging},
	},
	CmdBuzzCNV: {
		{models.RoundTwo, models.PhaseTurnSelect},
		{models.RoundTwo, models.PhaseHorizontalActive},
		{models.RoundTwo, models.PhaseHorizontalJudging},
		{models.RoundTwo, models.PhaseCenterHintActive},
		{models.RoundTwo, models.PhaseKeywordBuzzJudging},
	},
	CmdJudgeCNV: {
		{models.RoundTwo, models.PhaseCNVLocked},
		{models.RoundTwo, models.PhaseCNVJudging},
	},
	CmdRevealFinalPiece: {{models.RoundTwo, models.PhaseTurnSelect}},
	CmdBuzzKeyword: {
		{models.RoundTwo, models.PhaseCenterHintActive},
		{models.RoundTwo, models.PhaseKeywordBuzzJudging},
	},
	CmdStartKeywordJudging: {{models.RoundTwo, models.PhaseCenterHintActive}},
	CmdJudgeKeywordBuzz:    {{models.RoundTwo, models.PhaseKeywordBuzzJudging}},
	CmdNextTurn:            {{models.RoundTwo, models.PhaseTurnSelect}},

	CmdStartQuestion3: {
		{models.RoundThree, models.PhaseRound3Ready},
		{models.RoundThree, models.PhaseRound3Results},
	},
	CmdSubmitAnswerRound3: {{models.RoundThree, models.PhaseRound3QuestionActive}},
	CmdJudgeRound3:        {{models.RoundThree, models.PhaseRound3QuestionActive}},
	CmdEndQuestion3:       {{models.RoundThree, models.PhaseRound3Judging}},

	CmdSelectPackage4:    {{models.RoundFour, models.PhaseRound4SelectPackage}},
	CmdStartQuestion4:    {{models.RoundFour, models.PhaseRound4PickQuestions}},
	CmdSetStar:           {{models.RoundFour, models.PhaseRound4StarConfirm}},
	CmdStartTimer4:       {{models.RoundFour, models.PhaseRound4QuestionShow}},
	CmdSubmitMainAnswer:  {{models.RoundFour, models.PhaseRound4QuestionShow}},
	CmdLockMain:          {{models.RoundFour, models.PhaseRound4QuestionShow}},
	CmdJudgeMain:         {{models.RoundFour, models.PhaseRound4LockMain}},
	CmdBuzzSteal:         {{models.RoundFour, models.PhaseRound4StealWindow}},
	CmdSubmitStealAnswer: {{models.RoundFour, models.PhaseRound4StealLocked}},
	CmdJudgeSteal:        {{models.RoundFour, models.PhaseRound4StealLocked}},
	CmdNextQuestion4:     {{models.RoundFour, models.PhaseRound4StealWindow}},
}

// roundPhases enumerates the valid phase tags per round.
var roundPhases = map[models.Round][]models.Phase{
	models.RoundOne: {
		models.PhaseIdle,
		models.PhaseRoundReady,
	},
	models.RoundTwo: {
		models.PhaseTurnSelect,
		models.PhaseHorizontalActive,
		models.PhaseHorizontalJudging,
		models.PhaseCNVActive,
		models.PhaseCNVLocked,
		models.PhaseCNVJudging,
		models.PhaseCenterHintActive,
		models.PhaseKeywordBuzzJudging,
		models.PhaseRoundEnd,
	},
	models.RoundThree: {
		models.PhaseRound3Ready,
		models.PhaseRound3QuestionActive,
		models.PhaseRound3Judging,
		models.PhaseRound3Results,
	},
	models.RoundFour: {
		models.PhaseRound4Idle,
		models.PhaseRound4SelectPackage,
		models.PhaseRound4PickQuestions,
		models.PhaseRound4StarConfirm,
		models.PhaseRound4QuestionShow,
		models.PhaseRound4LockMain,
		models.PhaseRound4StealWindow,
		models.PhaseRound4StealLocked,
	},
}

// PhaseValid reports whether phase belongs to round's phase set.
func PhaseValid(round models.Round, phase models.Phase) bool {
	for _, p := range roundPhases[round] {
		if p == phase {
			return true
		}
	}
	return false
}

func guardCommand(g *models.GameState, cmd Command) error {
	allowed, ok := transitions[cmd]
	if !ok {
		return nil
	}
	for _, pos := range allowed {
		if g.Round == pos.round && g.Phase == pos.phase {
			return nil
		}
	}
	return gameerr.PhaseConflictf("%s not allowed in %s/%s", cmd, g.Round, g.Phase)
}
