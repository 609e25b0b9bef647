// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification kinds.
const (
	KindNewTask        = "new-task"
	KindTaskUpdated    = "task-updated"
	KindTaskReassigned = "task-reassigned"
	KindCommentAdded   = "comment-added"
	KindCallLogged     = "call-logged"
	KindTaskReminder   = "task-reminder"
)

// NotificationKinds lists every kind the dispatcher may emit.
var NotificationKinds = []string{
	KindNewTask, KindTaskUpdated, KindTaskReassigned,
	KindCommentAdded, KindCallLogged, KindTaskReminder,
}

// Entity types used in notifications, activity records, and search.
const (
	EntityTask     = "task"
	EntityCustomer = "customer"
	EntityCall     = "call"
	EntityUser     = "user"
)

// EntityRef points at another record by type and id.
type EntityRef struct {
	Type string             `bson:"type" json:"type"`
	ID   primitive.ObjectID `bson:"id" json:"id"`
}

// Notification is created only by the side-effect dispatcher and mutated
// only by its recipient marking it read.
type Notification struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Recipient     primitive.ObjectID `bson:"recipient" json:"recipient"`
	Kind          string             `bson:"kind" json:"kind"`
	Message       string             `bson:"message" json:"message"`
	Link          string             `bson:"link,omitempty" json:"link,omitempty"`
	IsRead        bool               `bson:"is_read" json:"is_read"`
	ReadAt        *time.Time         `bson:"read_at,omitempty" json:"read_at,omitempty"`
	RelatedEntity EntityRef          `bson:"related_entity" json:"related_entity"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
