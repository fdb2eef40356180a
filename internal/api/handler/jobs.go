package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/kiranshivaraju/sheetscribe/internal/api/response"
	"github.com/kiranshivaraju/sheetscribe/internal/store"
	"github.com/kiranshivaraju/sheetscribe/pkg/models"
)

const maxTopicChars = 500

// NewEnqueueHandler returns an http.HandlerFunc for POST /api/v1/jobs. It
// appends a row with the topic and the unprocessed marker.
func NewEnqueueHandler(enq store.Enqueuer, unprocessed string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Topic string `json:"topic"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid JSON body")
			return
		}

		topic := strings.TrimSpace(req.Topic)
		if topic == "" {
			response.BadRequest(w, "topic is required")
			return
		}
		if utf8.RuneCountInString(topic) > maxTopicChars {
			response.BadRequest(w, "topic must be at most 500 characters")
			return
		}

		row, err := enq.AppendRow(r.Context(), topic, unprocessed)
		if err != nil {
			slog.Error("enqueue topic", "error", err)
			response.Error(w, http.StatusBadGateway, response.CodeStoreError, "Failed to append row", nil)
			return
		}

		response.Created(w, models.Job{Row: row, Topic: topic, Status: unprocessed})
	}
}
