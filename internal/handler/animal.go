package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/menagerie/menagerie/internal/model"
	"github.com/menagerie/menagerie/internal/service"
)

// AnimalHandler handles HTTP requests for animal operations.
type AnimalHandler struct {
	svc    *service.AnimalService
	logger *slog.Logger
}

// NewAnimalHandler creates a new AnimalHandler.
func NewAnimalHandler(svc *service.AnimalService, logger *slog.Logger) *AnimalHandler {
	return &AnimalHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /animals/.
func (h *AnimalHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeAnimal(w, r)
	if !ok {
		return
	}

	animal, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("animal_created",
		"animal_id", animal.ID,
		"name", animal.Name,
	)

	writeJSON(w, http.StatusOK, model.MessageResponse{
		Message: fmt.Sprintf("Added %s the %s to the database.", animal.Name, animal.Species),
		ID:      &animal.ID,
	})
}

// List handles GET /animals/.
func (h *AnimalHandler) List(w http.ResponseWriter, r *http.Request) {
	animals, err := h.svc.List(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	// An empty table serializes as [], never null.
	if animals == nil {
		animals = []*model.Animal{}
	}
	writeJSON(w, http.StatusOK, animals)
}

// Update handles PUT /animals/{id}.
func (h *AnimalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	input, ok := h.decodeAnimal(w, r)
	if !ok {
		return
	}

	animal, err := h.svc.Update(r.Context(), id, input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("animal_updated", "animal_id", animal.ID)

	writeJSON(w, http.StatusOK, model.MessageResponse{
		Message: fmt.Sprintf("Updated %s in the database.", animal.Name),
	})
}

// Delete handles DELETE /animals/{id}.
func (h *AnimalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("animal_deleted", "animal_id", id)

	writeJSON(w, http.StatusOK, model.MessageResponse{
		Message: fmt.Sprintf("Deleted animal with id %d from the database.", id),
	})
}

// Upsert handles POST /upsert/. Fields arrive as form or query values
// rather than JSON; that asymmetry with /animals/ is part of the
// external contract.
func (h *AnimalHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	species := r.FormValue("species")
	age, err := strconv.Atoi(r.FormValue("age"))
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, service.ErrAgeNegative.Error())
		return
	}

	input := service.AnimalInput{Name: name, Species: species, Age: age}
	animal, created, err := h.svc.Upsert(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("animal_upserted",
		"animal_id", animal.ID,
		"name", animal.Name,
		"created", created,
	)

	writeJSON(w, http.StatusOK, model.MessageResponse{
		Message: fmt.Sprintf("Saved %s the %s (Age: %d) to the database.", animal.Name, animal.Species, animal.Age),
	})
}

// decodeAnimal reads and validates the JSON body shared by Create and
// Update. A missing age field is distinguished from age zero by the
// pointer in the request DTO.
func (h *AnimalHandler) decodeAnimal(w http.ResponseWriter, r *http.Request) (service.AnimalInput, bool) {
	var req model.AnimalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return service.AnimalInput{}, false
	}
	if req.Age == nil {
		writeDetail(w, http.StatusUnprocessableEntity, service.ErrAgeNegative.Error())
		return service.AnimalInput{}, false
	}
	return service.AnimalInput{Name: req.Name, Species: req.Species, Age: *req.Age}, true
}

// parseID extracts the {id} path parameter.
func (h *AnimalHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "id must be an integer")
		return 0, false
	}
	return id, true
}

// handleServiceError maps service errors to HTTP responses.
func (h *AnimalHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrAnimalNotFound):
		writeDetail(w, http.StatusNotFound, "Animal not found")
	case errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrSpeciesRequired),
		errors.Is(err, service.ErrAgeNegative):
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("internal_error", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}
