package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Dias221467/Recovery_Tracker/internal/apperr"
	"github.com/Dias221467/Recovery_Tracker/pkg/logger"
	"github.com/Dias221467/Recovery_Tracker/pkg/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// Envelope is the body of every response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
	Details []string    `json:"details,omitempty"`
}

// Responder writes envelopes. Debug adds the cause of internal errors to the
// details; it is only set in development.
type Responder struct {
	Debug bool
}

func (rs Responder) JSON(w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(w, status, Envelope{Success: true, Data: data})
}

func (rs Responder) Message(w http.ResponseWriter, status int, message string, data interface{}) {
	writeEnvelope(w, status, Envelope{Success: true, Data: data, Message: message})
}

// Error maps err onto a status code and a failure envelope.
func (rs Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	env := Envelope{Error: e.Message, Details: e.Details}

	entry := logger.Log.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	})
	if claims := middleware.GetUserFromContext(r.Context()); claims != nil {
		entry = entry.WithField("user_id", claims.UserID)
	}

	if e.Kind == apperr.KindUpstream {
		entry.WithError(err).Error(e.Message)
		if rs.Debug && e.Err != nil {
			env.Details = append(env.Details, e.Err.Error())
		}
	} else {
		entry.WithField("error", e.Message).Debug("Request failed")
	}
	writeEnvelope(w, e.Status(), env)
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.Log.WithError(err).Warn("Failed to write response")
	}
}

// decode reads a JSON body into dst and runs the validate tags on it.
func decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required")
		}
		return apperr.Validation("Invalid request payload", err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("Invalid request payload", err.Error())
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, describe(fe))
	}
	return apperr.Validation("Validation failed", details...)
}

func describe(fe validator.FieldError) string {
	field := jsonPath(fe.Namespace())
	switch fe.Tag() {
	case "required", "required_without":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

// jsonPath turns "ProfileRequest.Profile.FirstName" into "profile.firstName".
func jsonPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}

// currentUser returns the authenticated user's id and email. Routes using it
// always sit behind the auth middleware.
func currentUser(r *http.Request) (string, string) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		return "", ""
	}
	return claims.UserID, claims.Email
}
