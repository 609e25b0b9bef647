// internal/app/store/customers/customerstore.go
package customerstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/crmhub/internal/app/policy"
	"github.com/dalemusser/crmhub/internal/app/store/scoped"
	"github.com/dalemusser/crmhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

// ErrDuplicateCompany is returned when an active customer already has the company name.
var ErrDuplicateCompany = errors.New("an active customer with this company name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("customers")}
}

// Hit is a search result with its text relevance score.
type Hit struct {
	models.Customer `bson:",inline"`
	Score           float64 `bson:"score" json:"score"`
}

// ScopeFilter is the visibility filter for scope. Customers have no owner,
// so the only restriction is hiding deactivated records.
func ScopeFilter(scope policy.Scope) bson.M {
	return scoped.Filter(scope, "active")
}

// Create inserts a new active customer. The primary contact is normalized so
// exactly one contact is primary.
func (s *Store) Create(ctx context.Context, c models.Customer) (models.Customer, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.CompanyNameCI = text.Fold(c.CompanyName)
	c.Contacts = models.NormalizePrimaryContact(c.Contacts)
	if c.Contacts == nil {
		c.Contacts = []models.Contact{}
	}
	c.Active = true
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Customer{}, ErrDuplicateCompany
		}
		return models.Customer{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Customer, error) {
	var c models.Customer
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Customer{}, err
	}
	return c, nil
}

// GetByIDs loads multiple customers by their ObjectIDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Customer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// Update holds a customer's mutable fields. Nil pointers are left untouched.
// When SetAddress is true the address is replaced by Address (nil clears it).
type Update struct {
	CompanyName *string
	CompanyType *string
	TaxID       *string
	Contacts    *[]models.Contact
	SetAddress  bool
	Address     *models.Address
	Notes       *string
}

// Update modifies a customer's mutable fields and refreshes UpdatedAt.
// Returns the stored customer after the update.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (models.Customer, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.CompanyName != nil {
		set["company_name"] = *upd.CompanyName
		set["company_name_ci"] = text.Fold(*upd.CompanyName)
	}
	if upd.CompanyType != nil {
		set["company_type"] = *upd.CompanyType
	}
	if upd.TaxID != nil {
		set["tax_id"] = *upd.TaxID
	}
	if upd.Contacts != nil {
		contacts := models.NormalizePrimaryContact(*upd.Contacts)
		if contacts == nil {
			contacts = []models.Contact{}
		}
		set["contacts"] = contacts
	}
	if upd.SetAddress {
		set["address"] = upd.Address
	}
	if upd.Notes != nil {
		set["notes"] = *upd.Notes
	}

	var c models.Customer
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	if err != nil {
		if wafflemongo.IsDup(err) || mongo.IsDuplicateKeyError(err) {
			return models.Customer{}, ErrDuplicateCompany
		}
		return models.Customer{}, err
	}
	return c, nil
}

// Deactivate soft-deletes a customer. Returns mongo.ErrNoDocuments if not found.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"active":     false,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// NameExistsForOther checks if an active customer with the given company
// name exists, excluding the specified ID.
func (s *Store) NameExistsForOther(ctx context.Context, companyName string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"company_name_ci": text.Fold(companyName),
		"active":          true,
		"_id":             bson.M{"$ne": excludeID},
	}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Find returns customers matching the given filter with optional find options.
// The caller is responsible for building the filter and options (pagination, sorting, projection).
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Customer, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var customers []models.Customer
	if err := cur.All(ctx, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// Count returns the number of customers matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// Search runs a weighted text search restricted to scope, best match first.
func (s *Store) Search(ctx context.Context, q string, scope policy.Scope, limit int64) ([]Hit, error) {
	filter := scoped.And(scoped.Text(q), ScopeFilter(scope))
	cur, err := s.c.Find(ctx, filter, scoped.TextOptions(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	hits := []Hit{}
	if err := cur.All(ctx, &hits); err != nil {
		return nil, err
	}
	return hits, nil
}
