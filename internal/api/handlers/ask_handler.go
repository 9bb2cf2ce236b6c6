package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	middleware "github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/api/middlewares"
	db "github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core/database"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core/router"
)

type AskHandler struct {
	router *router.Router
	log    *zap.SugaredLogger
}

func NewAskHandler(r *router.Router, log *zap.SugaredLogger) *AskHandler {
	return &AskHandler{router: r, log: log}
}

// Ask handles POST /api/ask.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req router.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.TenantID == "" {
		req.TenantID = middleware.TenantID(r.Context())
	}

	resp, err := h.router.Ask(r.Context(), req)
	if err != nil {
		var dimErr *db.DimensionError
		switch {
		case errors.Is(err, router.ErrNoPriorAnswer):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &dimErr):
			h.log.Errorw("dimension mismatch", "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		default:
			h.log.Errorw("ask failed", "question", req.Question, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to answer question")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
