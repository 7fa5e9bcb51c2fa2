package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
	"github.com/tanpawarit/record-agent/record"
)

const msgEmptyInput = "User input cannot be empty."

// chatRequest accepts both field names clients send; user_input wins when
// both are present.
type chatRequest struct {
	UserInput string `json:"user_input"`
	Message   string `json:"message"`
}

func (c chatRequest) text() string {
	if strings.TrimSpace(c.UserInput) != "" {
		return c.UserInput
	}
	return c.Message
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	text := req.text()
	if strings.TrimSpace(text) == "" {
		writeDetail(w, http.StatusBadRequest, msgEmptyInput)
		return
	}
	if h.deps.Agent == nil {
		writeDetail(w, http.StatusServiceUnavailable, "chat agent is not configured")
		return
	}

	out, err := h.deps.Agent.Handle(r.Context(), text)
	if err != nil {
		if errors.Is(err, contractx.ErrInvalidMessage) {
			writeDetail(w, http.StatusBadRequest, msgEmptyInput)
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("chat dispatch failed")
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) transcript(w http.ResponseWriter, r *http.Request) {
	if h.deps.Agent == nil {
		writeDetail(w, http.StatusServiceUnavailable, "chat agent is not configured")
		return
	}
	t, ok, err := h.deps.Agent.Transcript(r.Context(), r.PathValue("id"))
	if !ok {
		writeDetail(w, http.StatusNotFound, "transcripts are not recorded")
		return
	}
	if err != nil {
		writeDetail(w, record.HTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}
