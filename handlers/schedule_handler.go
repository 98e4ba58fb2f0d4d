package handlers

import (
	"net/http"

	"github.com/openrally/matchplay/models"
	"github.com/openrally/matchplay/services"
)

type ScheduleHandler struct {
	scheduleService services.ScheduleService
}

func NewScheduleHandler(scheduleService services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// GenerateScheduleHandler seeds the division and creates its match set.
// @Summary Generate the division schedule
// @Tags divisions
// @Param divisionID path int true "Division ID"
// @Success 201 {object} models.Division
// @Router /divisions/{divisionID}/schedule [post]
func (h *ScheduleHandler) GenerateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	divisionID, err := getIDFromURL(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := getUserID(w, r)
	if !ok {
		return
	}

	division, err := h.scheduleService.GenerateSchedule(r.Context(), divisionID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"division": division}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetDivisionHandler returns the division with teams, matches and standings.
// @Summary Get division data
// @Tags divisions
// @Param divisionID path int true "Division ID"
// @Success 200 {object} models.Division
// @Router /divisions/{divisionID} [get]
func (h *ScheduleHandler) GetDivisionHandler(w http.ResponseWriter, r *http.Request) {
	divisionID, err := getIDFromURL(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	division, err := h.scheduleService.GetDivisionData(r.Context(), divisionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"division": division}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMatchesHandler returns the division's matches.
// @Summary List division matches
// @Tags divisions
// @Param divisionID path int true "Division ID"
// @Success 200 {array} models.Match
// @Router /divisions/{divisionID}/matches [get]
func (h *ScheduleHandler) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	divisionID, err := getIDFromURL(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	division, err := h.scheduleService.GetDivisionData(r.Context(), divisionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	matches := division.Matches
	if matches == nil {
		matches = []models.Match{}
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListStandingsHandler returns the division's current standings table.
// @Summary List division standings
// @Tags divisions
// @Param divisionID path int true "Division ID"
// @Success 200 {array} models.Standing
// @Router /divisions/{divisionID}/standings [get]
func (h *ScheduleHandler) ListStandingsHandler(w http.ResponseWriter, r *http.Request) {
	divisionID, err := getIDFromURL(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	division, err := h.scheduleService.GetDivisionData(r.Context(), divisionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	standings := division.Standings
	if standings == nil {
		standings = []*models.Standing{}
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// WithdrawTeamHandler withdraws a team; its unfinished matches are forfeited.
// @Summary Withdraw a team from the division
// @Tags divisions
// @Param divisionID path int true "Division ID"
// @Param teamID path int true "Team ID"
// @Success 200 {object} map[string]string
// @Router /divisions/{divisionID}/teams/{teamID}/withdraw [post]
func (h *ScheduleHandler) WithdrawTeamHandler(w http.ResponseWriter, r *http.Request) {
	divisionID, err := getIDFromURL(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, ok := getUserID(w, r)
	if !ok {
		return
	}

	if err := h.scheduleService.WithdrawTeam(r.Context(), divisionID, teamID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "withdrawn"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
