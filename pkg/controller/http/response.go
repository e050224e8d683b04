package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskassess/pkg/domain/model"
	"github.com/secmon-lab/riskassess/pkg/usecase"
	"github.com/secmon-lab/riskassess/pkg/utils/errutil"
	"github.com/secmon-lab/riskassess/pkg/utils/safe"
)

const maxBodySize = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

// readJSON decodes the request body into v. An empty body leaves v unchanged
// when optional is set.
func readJSON(r *http.Request, v any, optional bool) error {
	defer safe.Close(r.Context(), r.Body)

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return goerr.Wrap(usecase.ErrInvalidInput, "malformed request body", goerr.V("cause", err.Error()))
	}
	return nil
}

// statusOf maps domain error kinds to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConfiguration):
		return http.StatusConflict
	case errors.Is(err, model.ErrIncompleteInput),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrInvalidCapture):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
}
