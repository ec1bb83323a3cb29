package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/game"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/gameerr"
	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// CommandHandler exposes the engine's command surface over HTTP. Every
// successful command responds with the resulting snapshot and the
// server clock, mirroring what the WebSocket push carries.
type CommandHandler struct {
	app *game.App
}

func NewCommandHandler(app *game.App) *CommandHandler {
	return &CommandHandler{app: app}
}

type snapshotResponse struct {
	Game         *models.GameState `json:"game"`
	ServerTimeMs int64             `json:"server_time_ms"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// statusForKind maps the engine's error taxonomy onto HTTP statuses.
func statusForKind(kind gameerr.Kind) int {
	switch kind {
	case gameerr.KindValidation:
		return http.StatusBadRequest
	case gameerr.KindNotFound:
		return http.StatusNotFound
	case gameerr.KindAuthorization:
		return http.StatusForbidden
	case gameerr.KindPhaseConflict, gameerr.KindConcurrency:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *CommandHandler) writeError(w http.ResponseWriter, err error) {
	kind := gameerr.KindOf(err)
	status := statusForKind(kind)
	if kind == "" {
		kind = gameerr.KindPersistence
	}
	if status >= 500 {
		log.Error().Err(err).Msg("command failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{
		Kind:    string(kind),
		Message: err.Error(),
	}})
}

func (h *CommandHandler) writeSnapshot(w http.ResponseWriter, g *models.GameState, serverTime time.Time) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshotResponse{
		Game:         g,
		ServerTimeMs: serverTime.UnixMilli(),
	})
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return gameerr.Validationf("invalid request body: %v", err)
	}
	return nil
}

// respond runs a command and writes the snapshot or the mapped error.
// Server time comes from the engine clock so the HTTP response and the
// broadcast for the same mutation agree.
func (h *CommandHandler) respond(w http.ResponseWriter, g *models.GameState, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSnapshot(w, g, h.app.Now())
}

type teamRequest struct {
	TeamID string `json:"team_id"`
}

type answerRequest struct {
	TeamID string `json:"team_id"`
	Answer string `json:"answer"`
}

type judgeRequest struct {
	JudgedBy string `json:"judged_by"`
	Correct  bool   `json:"correct"`
	Points   int    `json:"points"`
}

// RegisterRoutes wires the REST command surface onto the mux.
func (h *CommandHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/game/state", h.handleState)
	mux.HandleFunc("POST /api/game/reset", h.handleReset)

	mux.HandleFunc("POST /api/round1/start", h.handleStartRound1)
	mux.HandleFunc("POST /api/round1/select-team", h.handleSelectTeam)
	mux.HandleFunc("POST /api/round1/preview-package", h.handlePreviewPackage)
	mux.HandleFunc("POST /api/round1/select-question", h.handleSelectQuestion)
	mux.HandleFunc("POST /api/round1/judge", h.handleJudgeRound1)

	mux.HandleFunc("POST /api/round2/start", h.handleStartRound2)
	mux.HandleFunc("POST /api/round2/select-horizontal", h.handleSelectHorizontal)
	mux.HandleFunc("POST /api/round2/submit-answer", h.handleSubmitAnswerRound2)
	mux.HandleFunc("POST /api/round2/judge-horizontal", h.handleJudgeHorizontal)
	mux.HandleFunc("POST /api/round2/continue", h.handleContinueHorizontal)
	mux.HandleFunc("POST /api/round2/buzz-cnv", h.handleBuzzCNV)
	mux.HandleFunc("POST /api/round2/judge-cnv", h.handleJudgeCNV)
	mux.HandleFunc("POST /api/round2/reveal-final-piece", h.handleRevealFinalPiece)
	mux.HandleFunc("POST /api/round2/buzz-keyword", h.handleBuzzKeyword)
	mux.HandleFunc("POST /api/round2/start-keyword-judging", h.handleStartKeywordJudging)
	mux.HandleFunc("POST /api/round2/judge-keyword", h.handleJudgeKeywordBuzz)
	mux.HandleFunc("POST /api/round2/next-turn", h.handleNextTurn)

	mux.HandleFunc("POST /api/round3/start", h.handleStartRound3)
	mux.HandleFunc("POST /api/round3/start-question", h.handleStartQuestionRound3)
	mux.HandleFunc("POST /api/round3/submit-answer", h.handleSubmitAnswerRound3)
	mux.HandleFunc("POST /api/round3/judge", h.handleJudgeRound3)
	mux.HandleFunc("POST /api/round3/end-question", h.handleEndQuestionRound3)

	mux.HandleFunc("POST /api/round4/start", h.handleStartRound4)
	mux.HandleFunc("POST /api/round4/select-package", h.handleSelectPackageRound4)
	mux.HandleFunc("POST /api/round4/start-question", h.handleStartQuestionRound4)
	mux.HandleFunc("POST /api/round4/set-star", h.handleSetStar)
	mux.HandleFunc("POST /api/round4/start-timer", h.handleStartTimerRound4)
	mux.HandleFunc("POST /api/round4/submit-main-answer", h.handleSubmitMainAnswer)
	mux.HandleFunc("POST /api/round4/lock-main", h.handleLockMain)
	mux.HandleFunc("POST /api/round4/judge-main", h.handleJudgeMain)
	mux.HandleFunc("POST /api/round4/buzz", h.handleBuzzSteal)
	mux.HandleFunc("POST /api/round4/submit-steal-answer", h.handleSubmitStealAnswer)
	mux.HandleFunc("POST /api/round4/judge-steal", h.handleJudgeSteal)
	mux.HandleFunc("POST /api/round4/next-question", h.handleNextQuestionRound4)
}

func (h *CommandHandler) handleState(w http.ResponseWriter, r *http.Request) {
	g, serverTime, err := h.app.Snapshot(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSnapshot(w, g, serverTime)
}

func (h *CommandHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.Reset(r.Context())
	h.respond(w, g, err)
}

func (h *CommandHandler) handleStartRound1(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.StartRound1(r.Context())
	h.respond(w, g, err)
}

func (h *CommandHandler) handleSelectTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.SelectTeam(r.Context(), req.TeamID)
	h.respond(w, g, err)
}

func (h *CommandHandler) handlePreviewPackage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PackageID string `json:"package_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.PreviewPackage(r.Context(), req.PackageID)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleSelectQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionID string `json:"question_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.SelectQuestion(r.Context(), req.QuestionID)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleJudgeRound1(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionID string `json:"question_id"`
		Result     string `json:"result"`
		JudgedBy   string `json:"judged_by"`
		Points     int    `json:"points"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.JudgeQuestionRound1(r.Context(), req.QuestionID, models.QuestionResult(req.Result), req.JudgedBy, req.Points)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleStartRound2(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PackageID string `json:"package_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.StartRound2(r.Context(), req.PackageID)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleSelectHorizontal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamID string `json:"team_id"`
		Order  int    `json:"order"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.SelectHorizontal(r.Context(), req.TeamID, req.Order)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleSubmitAnswerRound2(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.SubmitAnswerRound2(r.Context(), req.TeamID, req.Answer)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleJudgeHorizontal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JudgedBy       string   `json:"judged_by"`
		CorrectTeamIDs []string `json:"correct_team_ids"`
		Points         int      `json:"points"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.JudgeHorizontal(r.Context(), req.JudgedBy, req.CorrectTeamIDs, req.Points)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleContinueHorizontal(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.ContinueHorizontal(r.Context())
	h.respond(w, g, err)
}

func (h *CommandHandler) handleBuzzCNV(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.BuzzCNV(r.Context(), req.TeamID)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleJudgeCNV(w http.ResponseWriter, r *http.Request) {
	var req judgeRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.JudgeCNV(r.Context(), req.JudgedBy, req.Correct)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleRevealFinalPiece(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.RevealFinalPiece(r.Context())
	h.respond(w, g, err)
}

func (h *CommandHandler) handleBuzzKeyword(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.BuzzKeyword(r.Context(), req.TeamID)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleStartKeywordJudging(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.StartKeywordJudging(r.Context())
	h.respond(w, g, err)
}

func (h *CommandHandler) handleJudgeKeywordBuzz(w http.ResponseWriter, r *http.Request) {
	var req judgeRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.JudgeKeywordBuzz(r.Context(), req.JudgedBy, req.Correct, req.Points)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleNextTurn(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.NextTurn(r.Context())
	h.respond(w, g, err)
}

func (h *CommandHandler) handleStartRound3(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.StartRound3(r.Context())
	h.respond(w, g, err)
}

func (h *CommandHandler) handleStartQuestionRound3(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionID  string `json:"question_id"`
		DurationSec int    `json:"duration_sec"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.StartQuestionRound3(r.Context(), req.QuestionID, time.Duration(req.DurationSec)*time.Second)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleSubmitAnswerRound3(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.SubmitAnswerRound3(r.Context(), req.TeamID, req.Answer)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleJudgeRound3(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JudgedBy string `json:"judged_by"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.JudgeRound3(r.Context(), req.JudgedBy)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleEndQuestionRound3(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.EndQuestionRound3(r.Context())
	h.respond(w, g, err)
}

func (h *CommandHandler) handleStartRound4(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.StartRound4(r.Context())
	h.respond(w, g, err)
}

func (h *CommandHandler) handleSelectPackageRound4(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamID  string `json:"team_id"`
		Pattern []int  `json:"pattern"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.SelectPackageRound4(r.Context(), req.TeamID, req.Pattern)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleStartQuestionRound4(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.StartQuestionRound4(r.Context())
	h.respond(w, g, err)
}

func (h *CommandHandler) handleSetStar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamID        string `json:"team_id"`
		Use           bool   `json:"use"`
		QuestionIndex int    `json:"question_index"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.SetStar(r.Context(), req.TeamID, req.Use, req.QuestionIndex)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleStartTimerRound4(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DurationSec int `json:"duration_sec"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.StartTimerRound4(r.Context(), time.Duration(req.DurationSec)*time.Second)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleSubmitMainAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.SubmitMainAnswer(r.Context(), req.TeamID, req.Answer)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleLockMain(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.LockMain(r.Context())
	h.respond(w, g, err)
}

func (h *CommandHandler) handleJudgeMain(w http.ResponseWriter, r *http.Request) {
	var req judgeRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.JudgeMain(r.Context(), req.JudgedBy, req.Correct)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleBuzzSteal(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.BuzzSteal(r.Context(), req.TeamID)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleSubmitStealAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.SubmitStealAnswer(r.Context(), req.TeamID, req.Answer)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleJudgeSteal(w http.ResponseWriter, r *http.Request) {
	var req judgeRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	g, err := h.app.JudgeSteal(r.Context(), req.JudgedBy, req.Correct)
	h.respond(w, g, err)
}

func (h *CommandHandler) handleNextQuestionRound4(w http.ResponseWriter, r *http.Request) {
	g, err := h.app.NextQuestionRound4(r.Context())
	h.respond(w, g, err)
}
