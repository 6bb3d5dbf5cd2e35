package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmailExists       = errors.New("email already exists")
	ErrUsernameExists    = errors.New("username already exists")
	ErrInvalidCode       = errors.New("invalid verification code")
	ErrAlreadyVerified   = errors.New("account already verified")
	ErrVerifyAccount     = errors.New("account not verified")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrOTPNotMatch       = errors.New("otp does not match")
	ErrTokenExpired      = errors.New("otp expired")
	ErrInvalidPlan       = errors.New("invalid membership plan")
	ErrEmailDelivery     = errors.New("email delivery failed")
	ErrPaymentGateway    = errors.New("payment gateway failed")
)

// FanOutError reports a job notification loop that stopped early.
type FanOutError struct {
	Notified  int
	Total     int
	Recipient string
	Err       error
}

func (e *FanOutError) Error() string {
	return fmt.Sprintf("notify sellers: sent %d of %d, failed at %s: %v", e.Notified, e.Total, e.Recipient, e.Err)
}

func (e *FanOutError) Unwrap() []error {
	return []error{ErrEmailDelivery, e.Err}
}
