package shared

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Validate is the process-wide struct validator for request DTOs.
var Validate = validator.New()

// DecodeJSON parses and validates a request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return Validation("body", "", "malformed JSON: "+err.Error())
	}
	if err := Validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Validation(verrs[0].Field(), "", "failed rule "+verrs[0].Tag())
		}
		return err
	}
	return nil
}

// RespondJSON writes a JSON body with the given status.
func RespondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// RespondError maps the error taxonomy onto HTTP statuses and writes a JSON
// error body. Unclassified errors are logged and returned as 500 without
// leaking internals.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	type errBody struct {
		Error string `json:"error"`
	}
	switch {
	case IsValidation(err),
		errors.Is(err, ErrUnknownDocumentType),
		errors.Is(err, ErrSignPolicyViolation):
		RespondJSON(w, http.StatusUnprocessableEntity, errBody{Error: err.Error()})
	case errors.Is(err, ErrNotFound):
		RespondJSON(w, http.StatusNotFound, errBody{Error: err.Error()})
	case errors.Is(err, ErrDuplicateDocument),
		errors.Is(err, ErrImmutableState),
		errors.Is(err, ErrInvalidTransition):
		RespondJSON(w, http.StatusConflict, errBody{Error: err.Error()})
	case errors.Is(err, ErrAggregationIntegrity):
		RespondJSON(w, http.StatusInternalServerError, errBody{Error: err.Error()})
	case errors.Is(err, ErrExternalService):
		RespondJSON(w, http.StatusBadGateway, errBody{Error: err.Error()})
	default:
		logger.Error("request failed", "error", err)
		RespondJSON(w, http.StatusInternalServerError, errBody{Error: "internal error"})
	}
}
