package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
// Documents are inserted directly, bypassing stores and policy.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to create test %s: %v", coll, err)
	}
}

// CreateUser creates an active principal with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Email:     strings.ToLower(email),
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "users", user)
	return user
}

// CreateUserWithPassword creates an active principal whose password hash is
// already computed by the caller.
func (f *Fixtures) CreateUserWithPassword(ctx context.Context, name, email, role, hash string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Email:        strings.ToLower(email),
		Role:         role,
		Active:       true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", user)
	return user
}

// CreateAdmin creates an active admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleAdmin)
}

// CreateManager creates an active manager.
func (f *Fixtures) CreateManager(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleManager)
}

// CreateDeactivatedUser creates a soft-deleted user-role principal.
func (f *Fixtures) CreateDeactivatedUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Email:     strings.ToLower(email),
		Role:      models.RoleUser,
		Active:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "users", user)
	return user
}

// CreateCustomer creates an active customer with a single primary contact.
func (f *Fixtures) CreateCustomer(ctx context.Context, companyName string, createdBy primitive.ObjectID) models.Customer {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Customer{
		ID:            primitive.NewObjectID(),
		CompanyName:   companyName,
		CompanyNameCI: text.Fold(companyName),
		CompanyType:   "Enterprise",
		Contacts: []models.Contact{
			{Name: "Primary Contact", Email: "contact@example.com", IsPrimary: true},
		},
		Active:    true,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "customers", c)
	return c
}

// InsertCustomer stores c as given, filling only ID, fold, and timestamps.
func (f *Fixtures) InsertCustomer(ctx context.Context, c models.Customer) models.Customer {
	f.t.Helper()

	now := time.Now().UTC()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CompanyNameCI = text.Fold(c.CompanyName)
	c.CreatedAt, c.UpdatedAt = now, now
	f.insert(ctx, "customers", c)
	return c
}

// CreateTask creates a todo task created by creator and assigned to assignee.
func (f *Fixtures) CreateTask(ctx context.Context, title string, creator, assignee primitive.ObjectID) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Category:    "general",
		Priority:    models.PriorityMedium,
		Status:      models.StatusTodo,
		AssignedTo:  assignee,
		Attachments: []models.Attachment{},
		Comments:    []models.Comment{},
		CreatedBy:   creator,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	f.insert(ctx, "tasks", task)
	return task
}

// CreateTaskDue creates a task with a due date and status.
func (f *Fixtures) CreateTaskDue(ctx context.Context, title string, creator, assignee primitive.ObjectID, due time.Time, status string) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	due = due.UTC()
	task := models.Task{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Category:    "general",
		Priority:    models.PriorityMedium,
		Status:      status,
		DueDate:     &due,
		AssignedTo:  assignee,
		Attachments: []models.Attachment{},
		Comments:    []models.Comment{},
		CreatedBy:   creator,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	f.insert(ctx, "tasks", task)
	return task
}

// CreateCall creates an outbound call logged by userID against customerID.
func (f *Fixtures) CreateCall(ctx context.Context, customerID, userID primitive.ObjectID, summary string, tags ...string) models.Call {
	f.t.Helper()

	now := time.Now().UTC()
	call := models.Call{
		ID:         primitive.NewObjectID(),
		CustomerID: customerID,
		UserID:     userID,
		Direction:  models.DirectionOutbound,
		Summary:    summary,
		Tags:       models.NormalizeTags(tags),
		CreatedBy:  userID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "calls", call)
	return call
}
