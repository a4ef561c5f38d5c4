package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/timevault-dev/timevault/internal/config"
	"github.com/timevault-dev/timevault/internal/service"
)

type Handler struct {
	capsule service.CapsuleService
	image   service.ImageService
	cfg     *config.Config
}

func New(capsule service.CapsuleService, image service.ImageService, cfg *config.Config) *Handler {
	return &Handler{capsule: capsule, image: image, cfg: cfg}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
