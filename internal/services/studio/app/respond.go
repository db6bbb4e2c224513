package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	apperrors "github.com/louisbranch/promptforge/internal/platform/errors"
	errori18n "github.com/louisbranch/promptforge/internal/platform/errors/i18n"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("studio: encode response: %v", err)
	}
}

// writeError classifies err and renders it in the request's UI locale.
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	coded := apperrors.From(err)
	status := coded.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Printf("studio: %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorBody{Error: errorPayload{
		Code:     string(coded.Code),
		Message:  errori18n.Message(a.uiLocale(r), coded),
		Metadata: coded.Metadata,
	}})
}

func invalidRequest(reason string, cause error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeInvalidRequest, reason, map[string]string{"Reason": reason}, cause)
}

// decodeJSON reads one JSON value from the request body into target. An
// empty body leaves target unchanged.
func decodeJSON(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return invalidRequest(fmt.Sprintf("decode body: %v", err), err)
	}
	return nil
}
