package handlers

import (
	"net/http"
	"time"

	"github.com/Nurbek02/adventure-race-system/middleware"
	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/Nurbek02/adventure-race-system/services"
)

type RaceHandler struct {
	raceService *services.RaceService
}

func NewRaceHandler(raceService *services.RaceService) *RaceHandler {
	return &RaceHandler{raceService: raceService}
}

type raceInput struct {
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	LoggingStart time.Time `json:"logging_start"`
	LoggingEnd   time.Time `json:"logging_end"`
	DisplayStart time.Time `json:"display_start"`
	DisplayEnd   time.Time `json:"display_end"`
}

func (in raceInput) toModel() *models.Race {
	return &models.Race{
		Name:         in.Name,
		Description:  in.Description,
		LoggingStart: in.LoggingStart,
		LoggingEnd:   in.LoggingEnd,
		DisplayStart: in.DisplayStart,
		DisplayEnd:   in.DisplayEnd,
	}
}

func (h *RaceHandler) CreateRace(w http.ResponseWriter, r *http.Request) {
	var input raceInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	race := input.toModel()
	if err := h.raceService.CreateRace(r.Context(), race); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"race": race}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RaceHandler) GetRace(w http.ResponseWriter, r *http.Request) {
	raceID, err := getIDFromURL(r, "raceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	race, err := h.raceService.GetRace(r.Context(), raceID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"race": race}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RaceHandler) ListRaces(w http.ResponseWriter, r *http.Request) {
	races, err := h.raceService.ListRaces(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"races": races}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RaceHandler) UpdateRace(w http.ResponseWriter, r *http.Request) {
	raceID, err := getIDFromURL(r, "raceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input raceInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	race := input.toModel()
	race.ID = raceID
	if err := h.raceService.UpdateRace(r.Context(), race); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"race": race}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RaceHandler) DeleteRace(w http.ResponseWriter, r *http.Request) {
	raceID, err := getIDFromURL(r, "raceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.raceService.DeleteRace(r.Context(), raceID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RaceHandler) CreateCheckpoint(w http.ResponseWriter, r *http.Request) {
	raceID, err := getIDFromURL(r, "raceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Name      string   `json:"name"`
		Points    int      `json:"points"`
		Latitude  *float64 `json:"latitude,omitempty"`
		Longitude *float64 `json:"longitude,omitempty"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	cp := &models.Checkpoint{
		RaceID:    raceID,
		Name:      input.Name,
		Points:    input.Points,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
	}
	if err := h.raceService.CreateCheckpoint(r.Context(), cp); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"checkpoint": cp}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RaceHandler) ListCheckpoints(w http.ResponseWriter, r *http.Request) {
	raceID, err := getIDFromURL(r, "raceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Для анонимных и обычных пользователей действует окно видимости;
	// администратор видит пункты всегда.
	principal, _ := middleware.GetPrincipalFromContext(r.Context())

	checkpoints, err := h.raceService.ListCheckpoints(r.Context(), raceID, principal)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"checkpoints": checkpoints}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RaceHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	raceID, err := getIDFromURL(r, "raceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Name        string  `json:"name"`
		Description *string `json:"description,omitempty"`
		Points      int     `json:"points"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	task := &models.Task{
		RaceID:      raceID,
		Name:        input.Name,
		Description: input.Description,
		Points:      input.Points,
	}
	if err := h.raceService.CreateTask(r.Context(), task); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"task": task}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RaceHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	raceID, err := getIDFromURL(r, "raceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tasks, err := h.raceService.ListTasks(r.Context(), raceID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tasks": tasks}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
