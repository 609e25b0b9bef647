package tasks

import (
	"strings"
	"time"

	"github.com/dalemusser/crmhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/crmhub/internal/app/system/inputval"
	"github.com/dalemusser/crmhub/internal/app/system/normalize"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateInput is the payload for creating a task.
type CreateInput struct {
	Title       string     `json:"title" validate:"required,max=200" label:"Title"`
	Description string     `json:"description" validate:"max=5000" label:"Description"`
	Category    string     `json:"category" validate:"max=100" label:"Category"`
	Priority    string     `json:"priority" validate:"required,oneof=low medium high urgent" label:"Priority"`
	Status      string     `json:"status" validate:"oneof=todo in-progress completed" label:"Status"`
	DueDate     *time.Time `json:"due_date" validate:"required" label:"Due date"`
	AssignedTo  string     `json:"assigned_to" validate:"required,objectid" label:"Assignee"`
	CustomerID  string     `json:"customer_id" validate:"objectid" label:"Customer"`
}

func (in CreateInput) toTask() (models.Task, error) {
	in.Title = htmlsanitize.PlainText(normalize.Name(in.Title))
	in.Description = htmlsanitize.PlainText(in.Description)
	in.Category = normalize.Name(in.Category)
	in.Priority = normalize.Enum(in.Priority)
	in.Status = normalize.Enum(in.Status)

	if res := inputval.Validate(in); res.HasErrors() {
		return models.Task{}, res.Err()
	}

	t := models.Task{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Priority:    in.Priority,
		Status:      in.Status,
		AssignedTo:  mustID(in.AssignedTo),
	}
	if t.Status == "" {
		t.Status = models.StatusTodo
	}
	due := dueDate(*in.DueDate)
	t.DueDate = &due
	if in.CustomerID != "" {
		cid := mustID(in.CustomerID)
		t.CustomerID = &cid
	}
	return t, nil
}

// Patch is a partial task update. Nil fields are left unchanged. An empty
// CustomerID detaches the task from its customer.
type Patch struct {
	Title       *string    `json:"title" validate:"max=200" label:"Title"`
	Description *string    `json:"description" validate:"max=5000" label:"Description"`
	Category    *string    `json:"category" validate:"max=100" label:"Category"`
	Priority    *string    `json:"priority" validate:"oneof=low medium high urgent" label:"Priority"`
	Status      *string    `json:"status" validate:"oneof=todo in-progress completed" label:"Status"`
	DueDate     *time.Time `json:"due_date" label:"Due date"`
	AssignedTo  *string    `json:"assigned_to" validate:"objectid" label:"Assignee"`
	CustomerID  *string    `json:"customer_id" validate:"objectid" label:"Customer"`
}

// normalized applies the same cleanup Create does, so a diff compares
// like with like.
func (p Patch) normalized() Patch {
	apply := func(v *string, fn func(string) string) *string {
		if v == nil {
			return nil
		}
		s := fn(*v)
		return &s
	}
	p.Title = apply(p.Title, func(s string) string { return htmlsanitize.PlainText(normalize.Name(s)) })
	p.Description = apply(p.Description, htmlsanitize.PlainText)
	p.Category = apply(p.Category, normalize.Name)
	p.Priority = apply(p.Priority, normalize.Enum)
	p.Status = apply(p.Status, normalize.Enum)
	p.AssignedTo = apply(p.AssignedTo, strings.TrimSpace)
	p.CustomerID = apply(p.CustomerID, strings.TrimSpace)
	return p
}

func (p Patch) validate() error {
	res := inputval.Validate(p)
	if p.Title != nil && *p.Title == "" {
		res.Add("title", "is required", "Title is required.")
	}
	if p.Priority != nil && *p.Priority == "" {
		res.Add("priority", "is required", "Priority is required.")
	}
	if p.Status != nil && *p.Status == "" {
		res.Add("status", "is required", "Status is required.")
	}
	if p.AssignedTo != nil && *p.AssignedTo == "" {
		res.Add("assigned_to", "is required", "Assignee is required.")
	}
	if p.DueDate != nil && p.DueDate.IsZero() {
		res.Add("due_date", "is required", "Due date is required.")
	}
	return res.Err()
}

// diff is what a patch changes relative to the current task.
type diff struct {
	set     bson.M
	unset   []string
	changes map[string]models.Change

	assigneeChanged bool
	newAssignee     *primitive.ObjectID
	customerChanged bool
	newCustomer     *primitive.ObjectID

	// notifiable is set when status, priority, or due date changed.
	notifiable bool
}

func (d diff) empty() bool { return len(d.changes) == 0 }

func (d *diff) change(field string, from, to any) {
	d.set[field] = to
	d.changes[field] = models.Change{From: from, To: to}
}

func (p Patch) diff(cur models.Task) diff {
	d := diff{set: bson.M{}, changes: map[string]models.Change{}}

	strField := func(field string, v *string, old string) {
		if v != nil && *v != old {
			d.change(field, old, *v)
		}
	}
	strField("title", p.Title, cur.Title)
	strField("description", p.Description, cur.Description)
	strField("category", p.Category, cur.Category)

	if p.Priority != nil && *p.Priority != cur.Priority {
		d.change("priority", cur.Priority, *p.Priority)
		d.notifiable = true
	}
	if p.Status != nil && *p.Status != cur.Status {
		d.change("status", cur.Status, *p.Status)
		d.notifiable = true
	}
	if p.DueDate != nil {
		due := dueDate(*p.DueDate)
		if cur.DueDate == nil || !cur.DueDate.Equal(due) {
			var from any
			if cur.DueDate != nil {
				from = cur.DueDate.UTC()
			}
			d.change("due_date", from, due)
			d.notifiable = true
		}
	}
	if p.AssignedTo != nil {
		id := mustID(*p.AssignedTo)
		if id != cur.AssignedTo {
			d.set["assigned_to"] = id
			d.changes["assigned_to"] = models.Change{From: cur.AssignedTo.Hex(), To: id.Hex()}
			d.assigneeChanged = true
			d.newAssignee = &id
		}
	}
	if p.CustomerID != nil {
		var from any
		if cur.CustomerID != nil {
			from = cur.CustomerID.Hex()
		}
		switch {
		case *p.CustomerID == "" && cur.CustomerID != nil:
			d.unset = append(d.unset, "customer_id")
			d.changes["customer_id"] = models.Change{From: from, To: nil}
			d.customerChanged = true
		case *p.CustomerID != "":
			id := mustID(*p.CustomerID)
			if cur.CustomerID == nil || *cur.CustomerID != id {
				d.set["customer_id"] = id
				d.changes["customer_id"] = models.Change{From: from, To: id.Hex()}
				d.customerChanged = true
				d.newCustomer = &id
			}
		}
	}
	return d
}

// CommentInput is the payload for adding a comment.
type CommentInput struct {
	Text string `json:"text" validate:"required,max=5000" label:"Comment"`
}

func (in CommentInput) clean() (string, error) {
	in.Text = htmlsanitize.PlainText(in.Text)
	if res := inputval.Validate(in); res.HasErrors() {
		return "", res.Err()
	}
	return in.Text, nil
}

// dueDate stores due dates in UTC at millisecond precision, matching what
// MongoDB round-trips.
func dueDate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// mustID parses an id already checked by the objectid rule.
func mustID(hex string) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	return id
}
