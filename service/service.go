// Package service holds the marketplace flows: account registration and
// verification, job activation with seller fan-out, and payment sessions.
// Every flow works against the store interfaces and is safe for concurrent
// use; nothing is locked across requests.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"

	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/store"
)

// Notifier sends the transactional emails.
type Notifier interface {
	SendVerificationCode(ctx context.Context, to, name, code string) error
	SendPasswordOTP(ctx context.Context, to, otp string) error
	SendResetLink(ctx context.Context, to, link string) error
	SendJobNotification(ctx context.Context, to, sellerName string, job models.Job) error
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsEmail reports whether a login input is an email rather than a username.
func IsEmail(input string) bool {
	return emailPattern.MatchString(input)
}

// GenerateCode returns a uniform 6-digit code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// optional turns store.ErrNotFound into a nil result.
func optional[T any](v *T, err error) (*T, error) {
	if store.IsNotFound(err) {
		return nil, nil
	}
	return v, err
}
