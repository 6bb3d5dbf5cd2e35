package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VerificationCode proves email ownership at registration. It has no expiry
// and is never deleted.
type VerificationCode struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email     string             `bson:"email" json:"email"`
	Code      string             `bson:"code" json:"code"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// OneTimePassword is the time-boxed code of the password reset flow.
// ExpireIn is in milliseconds since the epoch.
type OneTimePassword struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email     string             `bson:"email" json:"email"`
	Code      string             `bson:"code" json:"code"`
	ExpireIn  int64              `bson:"expireIn" json:"expireIn"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Expired reports whether the OTP window has elapsed at now.
func (o OneTimePassword) Expired(now time.Time) bool {
	return o.ExpireIn-now.UnixMilli() < 0
}
