package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusPending  = "pending"
	StatusVerified = "verified"
)

// Client is an end customer who posts jobs.
type Client struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Salutation  string             `bson:"salutation,omitempty" json:"salutation,omitempty"`
	Firstname   string             `bson:"firstname,omitempty" json:"firstname,omitempty"`
	Lastname    string             `bson:"lastname,omitempty" json:"lastname,omitempty"`
	Email       string             `bson:"email" json:"email"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	SecondPhone string             `bson:"secondPhone,omitempty" json:"secondPhone,omitempty"`
	Username    string             `bson:"username" json:"username"`
	Referance   string             `bson:"referance,omitempty" json:"referance,omitempty"`
	Agreement   bool               `bson:"agreement" json:"agreement"`
	Newsletter  bool               `bson:"newsletter" json:"newsletter"`
	Password    string             `bson:"password" json:"-"`
	Status      string             `bson:"status" json:"status"` // pending, verified
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
