package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/service"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type ErrorResponse struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	Code       string     `json:"code"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	VerifiedBy string     `json:"verified_by,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Success: false,
		Message: message,
		Code:    code,
	})
}

// respondServiceError is the single place service errors become HTTP responses.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := service.KindOf(err)

	var status int
	switch kind {
	case service.KindValidation,
		service.KindInvalidFormat,
		service.KindInvalidContent,
		service.KindAlreadyProcessed,
		service.KindInvalidState,
		service.KindAlreadyUsed,
		service.KindExpired:
		status = http.StatusBadRequest
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindConflict:
		status = http.StatusConflict
	case service.KindUpstream:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondError(w, status, kind.String(), "internal server error")
		return
	}

	resp := ErrorResponse{Success: false, Message: err.Error(), Code: kind.String()}
	var used *service.AlreadyUsedError
	if errors.As(err, &used) {
		resp.VerifiedAt = used.VerifiedAt
		resp.VerifiedBy = used.VerifiedBy
	}
	respondJSON(w, status, resp)
}

// decodeJSON strictly decodes the body into dst and runs its validate tags.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: trailing data")
	}
	if err := validate.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "min", "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func respondBadRequest(w http.ResponseWriter, err error) {
	respondError(w, http.StatusBadRequest, service.KindValidation.String(), err.Error())
}
