// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Task statuses. Any status may move to any other status.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// TaskPriorities and TaskStatuses are the accepted enum values, in display order.
var (
	TaskPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	TaskStatuses   = []string{StatusTodo, StatusInProgress, StatusCompleted}
)

// Task is a unit of work assigned to one principal.
// References (AssignedTo, CustomerID, CreatedBy) are stored as ids only;
// the projection layer expands them on read.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Category    string              `bson:"category,omitempty" json:"category,omitempty"`
	Priority    string              `bson:"priority" json:"priority"`
	Status      string              `bson:"status" json:"status"`
	DueDate     *time.Time          `bson:"due_date,omitempty" json:"due_date,omitempty"`
	AssignedTo  primitive.ObjectID  `bson:"assigned_to" json:"assigned_to"`
	CustomerID  *primitive.ObjectID `bson:"customer_id,omitempty" json:"customer_id,omitempty"`
	Attachments []Attachment        `bson:"attachments" json:"attachments"`
	Comments    []Comment           `bson:"comments" json:"comments"`
	CreatedBy   primitive.ObjectID  `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`

	// Version increments on every write; updates are guarded by it.
	Version int64 `bson:"version" json:"version"`
}

// Attachment is file metadata; BlobRef is the opaque key in the blob store.
type Attachment struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	Filename   string             `bson:"filename" json:"filename"`
	BlobRef    string             `bson:"blob_ref" json:"-"`
	MimeType   string             `bson:"mime_type" json:"mime_type"`
	Size       int64              `bson:"size" json:"size"`
	UploadedBy primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`
	UploadedAt time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}

// Comment is an entry in a task's ordered discussion.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Text      string             `bson:"text" json:"text"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Label is the human handle used in activity snapshots and messages.
func (t Task) Label() string { return t.Title }
