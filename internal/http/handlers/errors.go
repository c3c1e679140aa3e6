package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/mosque-donations/internal/accounts"
	"github.com/hongminglow/mosque-donations/internal/auth"
	"github.com/hongminglow/mosque-donations/internal/donations"
	"github.com/hongminglow/mosque-donations/internal/http/respond"
	"github.com/hongminglow/mosque-donations/internal/log"
	"github.com/hongminglow/mosque-donations/internal/models"
)

const maxBodyBytes = 1 << 20

var errNoPurposes = errors.New("no purposes found")

// writeError maps domain errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, auth.ErrUnauthenticated):
		respond.Error(w, http.StatusUnauthorized, "token missing")
	case errors.Is(err, auth.ErrForbidden):
		respond.Error(w, http.StatusForbidden, "unauthorized access")
	case errors.Is(err, accounts.ErrDuplicateEmail):
		respond.Error(w, http.StatusBadRequest, "email already exists")
	case errors.Is(err, accounts.ErrUserNotFound):
		respond.Error(w, http.StatusNotFound, "user not found")
	case errors.Is(err, accounts.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, donations.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "donation not found or unauthorized")
	case errors.Is(err, donations.ErrNoDonations):
		respond.Error(w, http.StatusNotFound, "no donations found for this user")
	case errors.Is(err, errNoPurposes):
		respond.Error(w, http.StatusNotFound, "no purposes found")
	default:
		log.FromContext(r.Context()).Error("request failed", log.FieldOperation, op, log.FieldError, err.Error())
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a bounded JSON body into dst. Field-level problems such as
// a non-numeric amount surface as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			respond.Error(w, http.StatusBadRequest, verr.Error())
			return false
		}
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.Invalid(name, "invalid id")
	}
	return id, nil
}
