package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arealivre/areas-api/internal/domain"
	"github.com/arealivre/areas-api/internal/repository"
)

// ListAreas handles the public area listing with search and paging.
func (h *Handlers) ListAreas(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	filter := repository.AreaFilter{
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	}
	// The public listing only shows active areas.
	active := true
	filter.Active = &active

	areas, total, err := h.areaService.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"areas":  areas,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func (h *Handlers) GetArea(w http.ResponseWriter, r *http.Request) {
	area, err := h.areaService.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, area)
}

func (h *Handlers) ListMyAreas(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	areas, err := h.areaService.ListMine(r.Context(), actor)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"areas": areas})
}

func (h *Handlers) CreateArea(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var in domain.AreaInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	area, err := h.areaService.Create(r.Context(), actor, &in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, area)
}

func (h *Handlers) UpdateArea(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var in domain.AreaInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	area, err := h.areaService.Update(r.Context(), actor, chi.URLParam(r, "id"), &in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, area)
}

func (h *Handlers) DeleteArea(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.areaService.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckAvailability answers whether a date range is free and what it
// would cost. Query params: check_in, check_out (YYYY-MM-DD).
func (h *Handlers) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	availability, err := h.areaService.CheckAvailability(
		r.Context(),
		chi.URLParam(r, "id"),
		r.URL.Query().Get("check_in"),
		r.URL.Query().Get("check_out"),
	)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availability)
}

func (h *Handlers) ListSpecialPrices(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	rules, err := h.areaService.ListSpecialPrices(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"special_prices": rules})
}

func (h *Handlers) AddSpecialPrice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var rule domain.SpecialPrice
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	created, err := h.areaService.AddSpecialPrice(r.Context(), actor, chi.URLParam(r, "id"), &rule)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateSpecialPrice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var patch domain.SpecialPricePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	rule, err := h.areaService.UpdateSpecialPrice(
		r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "ruleID"), &patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *Handlers) DeleteSpecialPrice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	err := h.areaService.DeleteSpecialPrice(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "ruleID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SetFAQs(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var body struct {
		FAQs []domain.FAQ `json:"faqs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	faqs, err := h.areaService.SetFAQs(r.Context(), actor, chi.URLParam(r, "id"), body.FAQs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"faqs": faqs})
}
