package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/Nurbek02/adventure-race-system/middleware"
	"github.com/Nurbek02/adventure-race-system/models"
	"github.com/Nurbek02/adventure-race-system/services"
)

const maxEvidenceBytes = 10 << 20 // 10MB

// LedgerService - контракт журнала отметок, который нужен транспортному
// слою.
type LedgerService interface {
	LogCheckpoint(ctx context.Context, input services.LogCheckpointInput) (*models.CheckpointVisit, error)
	LogTask(ctx context.Context, input services.LogTaskInput) (*models.TaskCompletion, error)
	UnlogCheckpoint(ctx context.Context, input services.UnlogInput) error
	UnlogTask(ctx context.Context, input services.UnlogInput) error
}

type LedgerHandler struct {
	ledger LedgerService
}

func NewLedgerHandler(ledger LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// logRequest - нормализованный вход отметки: JSON или multipart с фото.
type logRequest struct {
	TeamID    int
	Latitude  *float64
	Longitude *float64
	Evidence  *services.EvidenceUpload
}

// parseLogRequest принимает либо JSON-тело, либо multipart/form-data с
// полем photo. Вся нормализация запроса остаётся здесь, журнал получает
// типизированный вход.
func parseLogRequest(w http.ResponseWriter, r *http.Request) (*logRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var input struct {
			TeamID    int      `json:"team_id"`
			Latitude  *float64 `json:"latitude,omitempty"`
			Longitude *float64 `json:"longitude,omitempty"`
		}
		if err := readJSON(w, r, &input); err != nil {
			return nil, err
		}
		return &logRequest{
			TeamID:    input.TeamID,
			Latitude:  input.Latitude,
			Longitude: input.Longitude,
		}, nil
	}

	if err := r.ParseMultipartForm(maxEvidenceBytes); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	teamID, err := strconv.Atoi(r.FormValue("team_id"))
	if err != nil {
		return nil, errors.New("invalid team_id form value")
	}
	req := &logRequest{TeamID: teamID}

	if lat := r.FormValue("latitude"); lat != "" {
		value, err := strconv.ParseFloat(lat, 64)
		if err != nil {
			return nil, errors.New("invalid latitude form value")
		}
		req.Latitude = &value
	}
	if lng := r.FormValue("longitude"); lng != "" {
		value, err := strconv.ParseFloat(lng, 64)
		if err != nil {
			return nil, errors.New("invalid longitude form value")
		}
		req.Longitude = &value
	}

	file, header, err := r.FormFile("photo")
	if err == nil {
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			// Откат на расширение имени файла.
			if idx := strings.LastIndex(header.Filename, "."); idx >= 0 {
				contentType = mime.TypeByExtension(header.Filename[idx:])
			}
		}
		req.Evidence = &services.EvidenceUpload{
			Content:     file,
			ContentType: contentType,
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}

	return req, nil
}

func (h *LedgerHandler) LogCheckpoint(w http.ResponseWriter, r *http.Request) {
	raceID, err := getIDFromURL(r, "raceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	checkpointID, err := getIDFromURL(r, "checkpointID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	principal, err := middleware.GetPrincipalFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	req, err := parseLogRequest(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.TeamID <= 0 {
		badRequestResponse(w, r, errors.New("team_id is required"))
		return
	}

	visit, err := h.ledger.LogCheckpoint(r.Context(), services.LogCheckpointInput{
		RaceID:       raceID,
		CheckpointID: checkpointID,
		TeamID:       req.TeamID,
		Principal:    principal,
		Evidence:     req.Evidence,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"visit": visit}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LedgerHandler) LogTask(w http.ResponseWriter, r *http.Request) {
	raceID, err := getIDFromURL(r, "raceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	taskID, err := getIDFromURL(r, "taskID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	principal, err := middleware.GetPrincipalFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	req, err := parseLogRequest(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.TeamID <= 0 {
		badRequestResponse(w, r, errors.New("team_id is required"))
		return
	}

	completion, err := h.ledger.LogTask(r.Context(), services.LogTaskInput{
		RaceID:    raceID,
		TaskID:    taskID,
		TeamID:    req.TeamID,
		Principal: principal,
		Evidence:  req.Evidence,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"completion": completion}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LedgerHandler) unlog(w http.ResponseWriter, r *http.Request, targetParam string,
	unlogFn func(context.Context, services.UnlogInput) error) {

	raceID, err := getIDFromURL(r, "raceID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	targetID, err := getIDFromURL(r, targetParam)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	principal, err := middleware.GetPrincipalFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	teamID, err := strconv.Atoi(r.URL.Query().Get("team_id"))
	if err != nil || teamID <= 0 {
		badRequestResponse(w, r, errors.New("team_id query parameter is required"))
		return
	}

	err = unlogFn(r.Context(), services.UnlogInput{
		RaceID:    raceID,
		TargetID:  targetID,
		TeamID:    teamID,
		Principal: principal,
	})
	if err != nil {
		// Событие удалено, но байты фото могли остаться: отзыв успешен,
		// вызывающий получает предупреждение.
		if errors.Is(err, services.ErrEvidenceStorageDegraded) {
			if err := writeJSON(w, http.StatusOK, jsonResponse{
				"warning": "completion revoked, but evidence bytes may be orphaned",
			}, nil); err != nil {
				serverErrorResponse(w, r, err)
			}
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) UnlogCheckpoint(w http.ResponseWriter, r *http.Request) {
	h.unlog(w, r, "checkpointID", h.ledger.UnlogCheckpoint)
}

func (h *LedgerHandler) UnlogTask(w http.ResponseWriter, r *http.Request) {
	h.unlog(w, r, "taskID", h.ledger.UnlogTask)
}
