package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/suisse-offerten/marketplace-api/service"
	"github.com/suisse-offerten/marketplace-api/store"
	"github.com/suisse-offerten/marketplace-api/uploads"
	"github.com/suisse-offerten/marketplace-api/utils"
)

// errInvalidRequest marks malformed bodies, failed validation and bad ids.
var errInvalidRequest = errors.New("invalid request")

func invalidRequest(err error) error {
	return fmt.Errorf("%w: %v", errInvalidRequest, err)
}

// statusOf maps a service or store error to its HTTP status and message.
// The bool reports whether the error text goes into the response body.
func statusOf(err error) (int, string, bool) {
	switch {
	case errors.Is(err, errInvalidRequest), errors.Is(err, uploads.ErrTooManyFiles):
		return http.StatusBadRequest, InvalidRequest, true
	case errors.Is(err, service.ErrInvalidPlan):
		return http.StatusBadRequest, InvalidPlan, false
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, DataNotFound, false
	case errors.Is(err, service.ErrEmailExists), errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, EmailAlreadyExists, false
	case errors.Is(err, service.ErrUsernameExists):
		return http.StatusConflict, UsernameAlreadyExists, false
	case errors.Is(err, service.ErrAlreadyVerified):
		return http.StatusConflict, AlreadyVerified, false
	case errors.Is(err, service.ErrInvalidCode):
		return http.StatusUnauthorized, EnterWrongCode, false
	case errors.Is(err, service.ErrIncorrectPassword):
		return http.StatusUnauthorized, IncorrectPassword, false
	case errors.Is(err, service.ErrOTPNotMatch):
		return http.StatusUnauthorized, OTPNotMatch, false
	case errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, TokenExpired, false
	case errors.Is(err, service.ErrVerifyAccount):
		return http.StatusForbidden, VerifyYourAccount, false
	case errors.Is(err, service.ErrEmailDelivery), errors.Is(err, service.ErrPaymentGateway):
		return http.StatusBadGateway, ServerError, true
	}
	return http.StatusInternalServerError, ServerError, true
}

// respondErr writes the mapped error response.
func respondErr(w http.ResponseWriter, logs *utils.RequestLog, err error) {
	status, message, detail := statusOf(err)
	if !detail {
		logs.Addf("cause: %v", err)
		utils.RespondError(w, logs, message, status, nil)
		return
	}
	utils.RespondError(w, logs, message, status, err)
}
