package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/timevault-dev/timevault/internal/access"
	"github.com/timevault-dev/timevault/internal/api"
	"github.com/timevault-dev/timevault/internal/domain"
	mw "github.com/timevault-dev/timevault/internal/middleware"
	"github.com/timevault-dev/timevault/internal/utils"
)

func (h *Handler) CreateCapsule(w http.ResponseWriter, r *http.Request) {
	caller := mw.GetViewerFromContext(r)
	if caller == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	var body api.CreateCapsuleRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	id, err := h.capsule.Create(r.Context(), *caller, domain.CapsuleCreationData{
		Title:         body.Title,
		Content:       body.Content,
		Visibility:    domain.Visibility(body.Visibility),
		ShowCountdown: body.ShowCountdown,
		OpenDate:      body.OpenDate,
		Collaborators: toUserIds(body.Collaborators),
		Receivers:     toUserIds(body.Receivers),
		Images:        toImages(body.Images),
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, api.CreateCapsuleResponse{Id: string(id)})
}

func (h *Handler) GetCapsule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	viewer := mw.GetViewerFromContext(r)

	view, err := h.capsule.Get(r.Context(), viewer, domain.CapsuleId(id))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, view)
}

func (h *Handler) EditCapsule(w http.ResponseWriter, r *http.Request) {
	caller := mw.GetViewerFromContext(r)
	if caller == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")

	var body api.EditCapsuleRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	patch := domain.CapsulePatch{
		Title:         body.Title,
		Content:       body.Content,
		ShowCountdown: body.ShowCountdown,
		OpenDate:      body.OpenDate,
	}
	if body.Visibility != nil {
		v := domain.Visibility(*body.Visibility)
		patch.Visibility = &v
	}
	if body.Collaborators != nil {
		c := toUserIds(*body.Collaborators)
		patch.Collaborators = &c
	}
	if body.Receivers != nil {
		rcv := toUserIds(*body.Receivers)
		patch.Receivers = &rcv
	}
	if body.Images != nil {
		imgs := toImages(*body.Images)
		patch.Images = &imgs
	}

	if err := h.capsule.Edit(r.Context(), *caller, domain.CapsuleId(id), patch); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) DeleteCapsule(w http.ResponseWriter, r *http.Request) {
	caller := mw.GetViewerFromContext(r)
	if caller == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.capsule.Delete(r.Context(), *caller, domain.CapsuleId(id)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ListOwnerCapsules serves GET /v1/capsules?type=draft|sent|received.
// Without a type filter it returns the union of everything owned.
func (h *Handler) ListOwnerCapsules(w http.ResponseWriter, r *http.Request) {
	caller := mw.GetViewerFromContext(r)
	if caller == nil {
		http.Error(w, "Not authorized", http.StatusUnauthorized)
		return
	}

	audience, err := ownerAudience(r.URL.Query().Get("type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	skip, take, err := parsePagination(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	views, err := h.capsule.ListOwner(r.Context(), *caller, audience, skip, take)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.CapsuleListResponse{Capsules: views})
}

// ListPublicCapsules serves GET /v1/explore?type=sealed|opened.
// Works for anonymous viewers too.
func (h *Handler) ListPublicCapsules(w http.ResponseWriter, r *http.Request) {
	viewer := mw.GetViewerFromContext(r)

	audience, err := publicAudience(r.URL.Query().Get("type"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	skip, take, err := parsePagination(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	views, err := h.capsule.ListPublic(r.Context(), viewer, audience, skip, take)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.CapsuleListResponse{Capsules: views})
}

func ownerAudience(filter string) (access.Audience, error) {
	switch filter {
	case "":
		return access.AudienceOwner, nil
	case "draft":
		return access.AudienceDraft, nil
	case "sent":
		return access.AudienceSent, nil
	case "received":
		return access.AudienceReceived, nil
	default:
		return "", fmt.Errorf("invalid type: must be one of draft, sent, received")
	}
}

func publicAudience(filter string) (access.Audience, error) {
	switch filter {
	case "":
		return access.AudiencePublic, nil
	case "sealed":
		return access.AudiencePublicSealed, nil
	case "opened":
		return access.AudiencePublicOpened, nil
	default:
		return "", fmt.Errorf("invalid type: must be one of sealed, opened")
	}
}

func parsePagination(r *http.Request) (skip, take int, err error) {
	if v := r.URL.Query().Get("skip"); v != "" {
		if skip, err = parseIntParam(v, "skip"); err != nil {
			return
		}
	}
	if v := r.URL.Query().Get("take"); v != "" {
		if take, err = parseIntParam(v, "take"); err != nil {
			return
		}
	}
	return
}

// parseIntParam parses an integer parameter from a string and returns a meaningful error
func parseIntParam(param string, paramName string) (int, error) {
	val, err := strconv.Atoi(param)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}
	return val, nil
}

func toUserIds(in []string) []domain.UserId {
	if in == nil {
		return nil
	}
	out := make([]domain.UserId, len(in))
	for i, v := range in {
		out[i] = domain.UserId(v)
	}
	return out
}

func toImages(in []api.ImagePayload) []domain.Image {
	if in == nil {
		return nil
	}
	out := make([]domain.Image, len(in))
	for i, v := range in {
		out[i] = domain.Image{Name: v.Name, MimeType: v.Type, SizeBytes: v.SizeBytes}
	}
	return out
}
