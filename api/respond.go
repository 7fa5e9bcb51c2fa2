package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/record-agent/record"
)

const maxBodyBytes = 1 << 20

// writeJSON encodes before writing the header so an unencodable body turns
// into a 500 instead of an empty response with the intended status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Int("status", status).Msg("encode response body")
		status = http.StatusInternalServerError
		payload = []byte(`{"detail":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(payload, '\n')); err != nil {
		log.Debug().Err(err).Msg("write response body")
	}
}

// writeResult renders a store outcome as an envelope. The status follows the
// error kind; the body always has the Data/Error/Message shape.
func writeResult(w http.ResponseWriter, r *http.Request, data any, message string, err error) {
	if err != nil {
		status := record.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			hlog.FromRequest(r).Error().Err(err).Msg("record operation failed")
		}
		writeJSON(w, status, record.Fail(err))
		return
	}
	writeJSON(w, http.StatusOK, record.OK(data, message))
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", record.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed request body: %v", record.ErrInvalidInput, err)
	}
	return nil
}
