package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TransactionPending = "pending"

// Payment is a settled payment record.
type Payment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	SellerID    string             `bson:"sellerId" json:"sellerId"`
	Amount      float64            `bson:"amount" json:"amount"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// Transaction tracks a checkout session until the gateway webhook settles it.
type Transaction struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	TransactionID string             `bson:"transactionId" json:"transactionId"`
	SellerID      string             `bson:"sellerId" json:"sellerId"`
	MemberShip    map[string]any     `bson:"memberShip" json:"memberShip"`
	Cost          float64            `bson:"cost" json:"cost"`
	Status        string             `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
