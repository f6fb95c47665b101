package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/middleware"
)

func (h *Handler) GetUserURLsHandler(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		http.Error(rw, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	userURLs, err := h.service.GetUserURLs(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to get user URLs",
			zap.String("userID", userID),
			zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(userURLs) == 0 {
		rw.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(rw, http.StatusOK, userURLs)
}
