// internal/domain/models/call.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Call directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// CallDirections are the accepted direction values.
var CallDirections = []string{DirectionInbound, DirectionOutbound}

// Call is a logged phone call with a customer, owned by UserID.
type Call struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID       primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	UserID           primitive.ObjectID `bson:"user_id" json:"user_id"`
	Direction        string             `bson:"direction" json:"direction"`
	Summary          string             `bson:"summary" json:"summary"`
	DurationSeconds  *int               `bson:"duration_seconds,omitempty" json:"duration_seconds,omitempty"`
	Outcome          string             `bson:"outcome,omitempty" json:"outcome,omitempty"`
	FollowUpRequired bool               `bson:"follow_up_required" json:"follow_up_required"`
	FollowUpDate     *time.Time         `bson:"follow_up_date,omitempty" json:"follow_up_date,omitempty"`
	Tags             []string           `bson:"tags" json:"tags"`
	CreatedBy        primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// NormalizeTags trims, lowercases, and de-duplicates tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = normalizeTag(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
