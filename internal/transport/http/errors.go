package http

import (
	"errors"
	"net/http"

	"ochem-lab-service/internal/domain"
)

// classify maps domain errors to a wire code and an HTTP status.
func classify(err error) (string, int) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return "session_not_found", http.StatusNotFound
	case errors.Is(err, domain.ErrActivityNotFound):
		return "activity_not_found", http.StatusNotFound
	case errors.Is(err, domain.ErrPathNotFound):
		return "path_not_found", http.StatusNotFound
	case errors.Is(err, domain.ErrModuleNotFound):
		return "module_not_found", http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidIndex), errors.Is(err, domain.ErrIndexOutOfRange):
		return "invalid_index", http.StatusBadRequest
	case errors.Is(err, domain.ErrAnswerRequired):
		return "answer_required", http.StatusConflict
	case errors.Is(err, domain.ErrAlreadyAnswered):
		return "already_answered", http.StatusConflict
	case errors.Is(err, domain.ErrNotAnswerable):
		return "not_answerable", http.StatusConflict
	case errors.Is(err, domain.ErrEmptyAnswer):
		return "empty_answer", http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionComplete):
		return "session_complete", http.StatusConflict
	case errors.Is(err, domain.ErrMalformedStep):
		return "malformed_content", http.StatusInternalServerError
	}
	return "internal", http.StatusInternalServerError
}
