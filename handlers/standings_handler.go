package handlers

import (
	"context"
	"net/http"

	"github.com/Nurbek02/adventure-race-system/models"
)

type StandingsComputer interface {
	ComputeStandings(ctx context.Context, raceID int) ([]models.StandingsEntry, error)
}

type StandingsHandler struct {
	standings StandingsComputer
}

func NewStandingsHandler(standings StandingsComputer) *StandingsHandler {
	return &StandingsHandler{standings: standings}
}

func (h *StandingsHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	raceID, err := getIDFromURL(r, "raceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.standings.ComputeStandings(r.Context(), raceID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
