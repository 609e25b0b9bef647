// internal/domain/models/activity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity actions are "<verb>-<entity>" pairs.
const (
	ActionCreateTask         = "create-task"
	ActionUpdateTask         = "update-task"
	ActionDeleteTask         = "delete-task"
	ActionCommentTask        = "comment-task"
	ActionAttachTask         = "attach-task"
	ActionDetachTask         = "detach-task"
	ActionCreateCustomer     = "create-customer"
	ActionUpdateCustomer     = "update-customer"
	ActionDeactivateCustomer = "deactivate-customer"
	ActionCreateCall         = "create-call"
	ActionUpdateCall         = "update-call"
	ActionDeleteCall         = "delete-call"
	ActionCreateUser         = "create-user"
	ActionUpdateUser         = "update-user"
	ActionDeactivateUser     = "deactivate-user"
)

// ActivityRecord is an append-only audit entry. EntityLabel keeps a
// snapshot of the entity's name so history stays readable after hard deletes.
type ActivityRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Actor       primitive.ObjectID `bson:"actor" json:"actor"`
	Action      string             `bson:"action" json:"action"`
	EntityType  string             `bson:"entity_type" json:"entity_type"`
	EntityID    primitive.ObjectID `bson:"entity_id" json:"entity_id"`
	EntityLabel string             `bson:"entity_label,omitempty" json:"entity_label,omitempty"`
	Details     map[string]any     `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// Change is the before/after pair recorded for one modified field.
type Change struct {
	From any `bson:"from" json:"from"`
	To   any `bson:"to" json:"to"`
}
