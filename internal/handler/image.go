package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/timevault-dev/timevault/internal/domain"
	mw "github.com/timevault-dev/timevault/internal/middleware"
	"github.com/timevault-dev/timevault/internal/utils"
)

// GetImage streams a capsule attachment. Access is checked with the
// stricter image rules, so sealed capsules never leak media bytes.
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	capsuleId := chi.URLParam(r, "id")
	name := chi.URLParam(r, "name")
	viewer := mw.GetViewerFromContext(r)

	body, mimeType, err := h.image.Get(r.Context(), viewer, domain.CapsuleId(capsuleId), name)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", mimeType)
	if _, err := io.Copy(w, body); err != nil {
		slog.Error("streaming image", "capsule", capsuleId, "image", name, "error", err)
	}
}
