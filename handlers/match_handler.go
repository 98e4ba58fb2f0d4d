package handlers

import (
	"errors"
	"net/http"

	"github.com/openrally/matchplay/models"
	"github.com/openrally/matchplay/services"
)

type MatchHandler struct {
	scoreService services.ScoreService
}

func NewMatchHandler(scoreService services.ScoreService) *MatchHandler {
	return &MatchHandler{scoreService: scoreService}
}

type scoreInput struct {
	Games []models.GameScore `json:"games"`
}

type disputeInput struct {
	Reason string `json:"reason"`
}

// ProposeScoreHandler records a side's score proposal.
// @Summary Propose a match score
// @Tags matches
// @Param matchID path int true "Match ID"
// @Param input body scoreInput true "Game scores"
// @Success 200 {object} models.Match
// @Router /matches/{matchID}/propose [post]
func (h *MatchHandler) ProposeScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := getUserID(w, r)
	if !ok {
		return
	}
	var input scoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.scoreService.Propose(r.Context(), matchID, userID, input.Games)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeMatch(w, r, match)
}

// SignScoreHandler confirms the opponent's proposal.
// @Summary Sign a proposed score
// @Tags matches
// @Param matchID path int true "Match ID"
// @Success 200 {object} models.Match
// @Router /matches/{matchID}/sign [post]
func (h *MatchHandler) SignScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := getUserID(w, r)
	if !ok {
		return
	}

	match, err := h.scoreService.Sign(r.Context(), matchID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeMatch(w, r, match)
}

// DisputeScoreHandler flags a proposed or signed score for organizer review.
// @Summary Dispute a match score
// @Tags matches
// @Param matchID path int true "Match ID"
// @Param input body disputeInput true "Dispute reason"
// @Success 200 {object} models.Match
// @Router /matches/{matchID}/dispute [post]
func (h *MatchHandler) DisputeScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := getUserID(w, r)
	if !ok {
		return
	}
	var input disputeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.scoreService.Dispute(r.Context(), matchID, userID, input.Reason)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeMatch(w, r, match)
}

// FinalizeScoreHandler makes the result official. The organizer may pass a
// fresh score set or finalize the pending proposal as is.
// @Summary Finalize a match result
// @Tags matches
// @Param matchID path int true "Match ID"
// @Param input body scoreInput false "Game scores (optional)"
// @Success 200 {object} models.Match
// @Router /matches/{matchID}/finalize [post]
func (h *MatchHandler) FinalizeScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := getUserID(w, r)
	if !ok {
		return
	}

	// The body is optional. Decoding is always attempted because chunked
	// requests report ContentLength -1 even when games are supplied; only
	// a genuinely empty body finalizes the pending proposal.
	var input scoreInput
	if err := readJSON(w, r, &input); err != nil && !errors.Is(err, errBodyEmpty) {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.scoreService.Finalize(r.Context(), matchID, userID, input.Games)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeMatch(w, r, match)
}

// EditScoresHandler corrects an official result before submission.
// @Summary Edit an official match score
// @Tags matches
// @Param matchID path int true "Match ID"
// @Param input body scoreInput true "Game scores"
// @Success 200 {object} models.Match
// @Router /matches/{matchID}/scores [post]
func (h *MatchHandler) EditScoresHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := getUserID(w, r)
	if !ok {
		return
	}
	var input scoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.scoreService.EditScores(r.Context(), matchID, userID, input.Games)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeMatch(w, r, match)
}

// SubmitToDuprHandler pushes the official result to the rating service.
// @Summary Submit a match to DUPR
// @Tags matches
// @Param matchID path int true "Match ID"
// @Success 200 {object} models.Match
// @Router /matches/{matchID}/submit-dupr [post]
func (h *MatchHandler) SubmitToDuprHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := getUserID(w, r)
	if !ok {
		return
	}

	match, err := h.scoreService.SubmitToDupr(r.Context(), matchID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeMatch(w, r, match)
}

func writeMatch(w http.ResponseWriter, r *http.Request, match *models.Match) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
