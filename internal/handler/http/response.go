package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/KartikGSparrow/AuthAppWithTasks/pkg/errors"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/logger"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/validator"
)

type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(dataResponse{Data: data})
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeError(w, http.StatusBadRequest, errorBody{
			Code:    "VALIDATION_FAILED",
			Message: valErr.Error(),
			Fields:  valErr.Fields(),
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	code := apperrors.Code(err)

	var appErr *apperrors.AppError
	message := "an internal error occurred"
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		message = "an internal error occurred"
	}

	writeError(w, status, errorBody{Code: code, Message: message})
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: body})
}
