package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	JobStatusPending = "pending"
	JobStatusActive  = "active"
	JobStatusClosed  = "closed"
)

// Job is a request posted by a client. It is owned by the client whose
// email equals JobEmail.
type Job struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	JobEmail         string             `bson:"jobEmail" json:"jobEmail"`
	JobTitle         string             `bson:"jobTitle" json:"jobTitle"`
	JobDescription   string             `bson:"jobDescription" json:"jobDescription"`
	JobLocation      string             `bson:"jobLocation" json:"jobLocation"`
	JobNumber        string             `bson:"jobNumber" json:"jobNumber"`
	JobCity          []string           `bson:"jobCity" json:"jobCity"`
	JobCategories    []string           `bson:"jobCategories,omitempty" json:"jobCategories,omitempty"`
	JobSubCategories []string           `bson:"jobSubCategories" json:"jobSubCategories"`
	Status           string             `bson:"status" json:"status"` // pending, active, closed
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
