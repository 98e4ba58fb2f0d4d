package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/openrally/matchplay/brackets"
	"github.com/openrally/matchplay/lifecycle"
	"github.com/openrally/matchplay/middleware"
	"github.com/openrally/matchplay/repositories"
	"github.com/openrally/matchplay/services"
)

type jsonResponse map[string]interface{}

// errBodyEmpty marks a request that carried no body at all. Handlers with
// an optional body check for it with errors.Is.
var errBodyEmpty = errors.New("body must not be empty")

func getIDFromURL(r *http.Request, param string) (int, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s parameter", param)
	}
	return id, nil
}

func getUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return 0, false
	}
	return userID, true
}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errBodyEmpty
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error",
		slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// mapServiceErrorToHTTP translates service, lifecycle and repository errors
// into HTTP responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var gameErr *lifecycle.GameValidationError
	var incompleteErr *lifecycle.IncompleteMatchError

	switch {
	// Missing resources
	case errors.Is(err, repositories.ErrDivisionNotFound),
		errors.Is(err, repositories.ErrTeamNotFound),
		errors.Is(err, repositories.ErrMatchNotFound):
		notFoundResponse(w, r)

	// Score validation
	case errors.As(err, &gameErr),
		errors.As(err, &incompleteErr):
		failedValidationResponse(w, r, err)

	// Format and generation preconditions
	case errors.Is(err, brackets.ErrPoolCountInvalid),
		errors.Is(err, brackets.ErrPoolTooSmall),
		errors.Is(err, brackets.ErrNotEnoughTeams),
		errors.Is(err, services.ErrNoActiveTeams),
		errors.Is(err, services.ErrUnsupportedFormat),
		errors.Is(err, lifecycle.ErrDisputeReasonRequired):
		badRequestResponse(w, r, err)

	// Permission
	case errors.Is(err, services.ErrForbiddenOperation),
		errors.Is(err, lifecycle.ErrNotParticipant),
		errors.Is(err, lifecycle.ErrSelfReportForbidden),
		errors.Is(err, lifecycle.ErrOrganizerOnly),
		errors.Is(err, lifecycle.ErrOwnProposal),
		errors.Is(err, lifecycle.ErrNotDuprEligible):
		forbiddenResponse(w, r, err.Error())

	// State conflicts
	case errors.Is(err, services.ErrDivisionAlreadyScheduled),
		errors.Is(err, services.ErrTransitionConflict),
		errors.Is(err, repositories.ErrMatchVersionConflict),
		errors.Is(err, repositories.ErrMatchUIDConflict),
		errors.Is(err, repositories.ErrTeamPlayerConflict),
		errors.Is(err, lifecycle.ErrMatchImmutable),
		errors.Is(err, lifecycle.ErrAlreadySigned),
		errors.Is(err, lifecycle.ErrNoProposal),
		errors.Is(err, lifecycle.ErrSideUnresolved),
		errors.Is(err, lifecycle.ErrInvalidTransition):
		conflictResponse(w, r, err.Error())

	// External rating service
	case errors.Is(err, services.ErrDuprSubmissionDisabled):
		errorResponse(w, r, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, services.ErrDuprSubmissionFailed):
		errorResponse(w, r, http.StatusBadGateway, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}
