package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rpupo63/blog-api/errs"
)

type Responder struct {
	logger zerolog.Logger
	// verbose adds error details to response bodies; never set in production
	verbose bool
}

func NewResponder(logger zerolog.Logger, verbose bool) Responder {
	return Responder{logger: logger, verbose: verbose}
}

func (r Responder) WriteJSON(w http.ResponseWriter, data any) {
	r.writeJSON(w, http.StatusOK, data)
}

func (r Responder) WriteJSONStatus(w http.ResponseWriter, status int, data any) {
	r.writeJSON(w, status, data)
}

func (r Responder) writeJSON(w http.ResponseWriter, status int, data any) {
	// Marshal first so a failure can still become a 500
	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(jsonData); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

func (r Responder) WriteError(w http.ResponseWriter, err error) {
	var apiErr *errs.ApiErr

	// For unexpected errors, log and return generic internal error
	if !errors.As(err, &apiErr) {
		r.logger.Error().Err(err).Msg("unexpected error")
		response := ErrorResponse{Error: "Internal Server Error"}
		if r.verbose {
			response.Details = err.Error()
		}
		r.writeJSON(w, http.StatusInternalServerError, response)
		return
	}

	if apiErr.StatusCode >= http.StatusInternalServerError {
		r.logger.Error().Str("error", apiErr.GetFullError()).Msg("request failed")
	}

	response := ErrorResponse{
		Error: apiErr.Error(),
		Field: apiErr.Field,
	}
	if r.verbose {
		response.Details = apiErr.Details
		if apiErr.Cause != nil {
			response.Cause = apiErr.GetFullError()
		}
	}

	r.writeJSON(w, apiErr.StatusCode, response)
}
