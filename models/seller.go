package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership states written by the payment flow.
const (
	MembershipNotComplete = "not-complete"
	MembershipComplete    = "complete"
	MembershipActive      = "Active"
)

// MembershipPlan is the plan payload a seller buys.
type MembershipPlan struct {
	ID           string  `bson:"_id,omitempty" json:"_id,omitempty"`
	Plan         string  `bson:"plan" json:"plan" validate:"required"`
	Name         string  `bson:"name,omitempty" json:"name,omitempty"`
	CurrentPrice float64 `bson:"currentPrice" json:"currentPrice"`
	Credit       int     `bson:"credit" json:"credit"`
	PlanTime     string  `bson:"planTime,omitempty" json:"planTime,omitempty"`
}

// Seller is a service provider receiving job-match notifications.
type Seller struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email       string             `bson:"email" json:"email"`
	Username    string             `bson:"username" json:"username"`
	Password    string             `bson:"password" json:"-"`
	Status      string             `bson:"status" json:"status"`
	CompanyName string             `bson:"companyName,omitempty" json:"companyName,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address     string             `bson:"address,omitempty" json:"address,omitempty"`
	Website     string             `bson:"website,omitempty" json:"website,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	Preference []string `bson:"preference" json:"preference"` // cities
	Activities []string `bson:"activities" json:"activities"` // sub-categories

	CompanyLogo     string   `bson:"companyLogo,omitempty" json:"companyLogo,omitempty"`
	CompanyCover    string   `bson:"companyCover,omitempty" json:"companyCover,omitempty"`
	CompanyPictures []string `bson:"companyPictures,omitempty" json:"companyPictures,omitempty"`

	MemberShip       *MembershipPlan `bson:"memberShip,omitempty" json:"memberShip,omitempty"`
	MemberShipStatus string          `bson:"memberShipStatus,omitempty" json:"memberShipStatus,omitempty"`
	Credits          int             `bson:"credits" json:"credits"`
	PendingCredits   int             `bson:"pendingCredits" json:"pendingCredits"`
	ExtendCredit     int             `bson:"extendCredit,omitempty" json:"extendCredit,omitempty"`
	ExtendTime       string          `bson:"extendTime,omitempty" json:"extendTime,omitempty"`
	ExtendMembership *MembershipPlan `bson:"extendMembership,omitempty" json:"extendMembership,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// MatchesJob reports whether the seller shares at least one city with the
// job AND at least one sub-category.
func (s Seller) MatchesJob(j Job) bool {
	return intersects(s.Preference, j.JobCity) && intersects(s.Activities, j.JobSubCategories)
}

func intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := seen[v]; ok {
			return true
		}
	}
	return false
}
