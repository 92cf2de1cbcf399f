// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package api

import (
	"net/http"

	"github.com/tomtom215/agrisense/internal/history"
	"github.com/tomtom215/agrisense/internal/validation"
)

// HistoryDisabledMessage is returned by /history when no store is configured.
const HistoryDisabledMessage = "Prediction history is not stored by this server"

type historyResponse struct {
	OK      bool            `json:"ok"`
	Count   int             `json:"count"`
	Limit   int             `json:"limit"`
	Domain  string          `json:"domain,omitempty"`
	Entries []history.Entry `json:"entries"`
}

// History handles GET /history and GET /api/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"message": HistoryDisabledMessage,
		})
		return
	}

	q, verr := validation.ParseHistoryQuery(r.URL.Query(), h.cfg.History.ListLimit)
	if verr != nil {
		apiErr := verr.ToAPIError()
		respondAPIError(w, http.StatusBadRequest, &APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		})
		return
	}

	entries, err := h.history.List(r.Context(), history.Query{Domain: q.Domain, Limit: q.Limit})
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeHistory, "Failed to read prediction history", err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	respondJSON(w, http.StatusOK, historyResponse{
		OK:      true,
		Count:   len(entries),
		Limit:   q.Limit,
		Domain:  q.Domain,
		Entries: entries,
	})
}
