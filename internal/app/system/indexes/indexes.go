// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called from the EnsureSchema hook and by the test database
helper. Each ensure* function is idempotent. Errors are aggregated so every
problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, set := range []struct {
		name   string
		ensure func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"tasks", ensureTasks},
		{"customers", ensureCustomers},
		{"calls", ensureCalls},
		{"notifications", ensureNotifications},
		{"activity_records", ensureActivityRecords},
	} {
		if err := set.ensure(ctx, db); err != nil {
			problems = append(problems, set.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

// keySig renders an index key pattern for comparison. Text indexes are
// listed by the server as {_fts: "text", _ftsx: 1} regardless of the fields
// they cover, so desired text keys collapse to that same signature.
func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	text := false
	for _, kv := range keys {
		if kv.Value == "text" {
			text = true
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	if text {
		parts = append([]string{"_fts:text", "_ftsx:1"}, parts...)
	}
	return strings.Join(parts, ", ")
}

func listBySig(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		// _fts/_ftsx already collapse through keySig
		out[keySig(idx.Key)] = idx
	}
	return out
}

func isUnique(b *bool) bool { return b != nil && *b }

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return mongo.IsDuplicateKeyError(err) || strings.Contains(err.Error(), "E11000")
}

// ensureIndexSet creates each desired index, reusing an existing index with
// the same key pattern and uniqueness. An existing index whose name or
// uniqueness differs is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listBySig(ctx, coll)

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", isUnique(unique)))

		if ex, ok := existing[sig]; ok {
			if isUnique(ex.Unique) == isUnique(unique) && (name == "" || ex.Name == name) {
				log.Debug("reusing existing index")
				continue
			}
			log.Info("replacing index", zap.String("existing", ex.Name))
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			log.Warn("index ensure failed", zap.Error(err))
			if isDuplicateKeyErr(err) && isUnique(unique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			continue
		}
		log.Info("index ensured", zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		// Email is stored lowercased, so a plain unique index is case-insensitive.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Principal admin list: role/active filters, sorted by folded name.
		{
			Keys: bson.D{
				{Key: "role", Value: 1},
				{Key: "active", Value: 1},
				{Key: "name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_users_role_active_nameci_id"),
		},
	})
}

func ensureTasks(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("tasks"), []mongo.IndexModel{
		// "My tasks" and the user visibility scope.
		{
			Keys: bson.D{
				{Key: "assigned_to", Value: 1},
				{Key: "status", Value: 1},
				{Key: "due_date", Value: 1},
			},
			Options: options.Index().SetName("idx_tasks_assignee_status_due"),
		},
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_tasks_creator_created"),
		},
		// Due-soon reminder scan.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "due_date", Value: 1}},
			Options: options.Index().SetName("idx_tasks_status_due"),
		},
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}},
			Options: options.Index().SetName("idx_tasks_customer"),
		},
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "category", Value: "text"},
				{Key: "description", Value: "text"},
			},
			Options: options.Index().
				SetName("txt_tasks").
				SetWeights(bson.D{
					{Key: "title", Value: 10},
					{Key: "category", Value: 5},
					{Key: "description", Value: 2},
				}),
		},
	})
}

func ensureCustomers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("customers"), []mongo.IndexModel{
		// Company names are unique among active customers only, so a
		// deactivated company's name can be reused.
		{
			Keys: bson.D{{Key: "company_name_ci", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_customers_company_active").
				SetPartialFilterExpression(bson.D{{Key: "active", Value: true}}),
		},
		{
			Keys:    bson.D{{Key: "active", Value: 1}, {Key: "company_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_customers_active_nameci_id"),
		},
		{
			Keys: bson.D{
				{Key: "company_name", Value: "text"},
				{Key: "company_type", Value: "text"},
				{Key: "tax_id", Value: "text"},
				{Key: "contacts.name", Value: "text"},
				{Key: "contacts.email", Value: "text"},
				{Key: "notes", Value: "text"},
			},
			Options: options.Index().
				SetName("txt_customers").
				SetWeights(bson.D{
					{Key: "company_name", Value: 10},
					{Key: "tax_id", Value: 5},
					{Key: "contacts.name", Value: 4},
					{Key: "contacts.email", Value: 4},
					{Key: "company_type", Value: 3},
					{Key: "notes", Value: 1},
				}),
		},
	})
}

func ensureCalls(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("calls"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_calls_user_created"),
		},
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_calls_customer_created"),
		},
		{
			Keys: bson.D{
				{Key: "tags", Value: "text"},
				{Key: "outcome", Value: "text"},
				{Key: "summary", Value: "text"},
			},
			Options: options.Index().
				SetName("txt_calls").
				SetWeights(bson.D{
					{Key: "tags", Value: 5},
					{Key: "outcome", Value: 3},
					{Key: "summary", Value: 2},
				}),
		},
	})
}

func ensureNotifications(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("notifications"), []mongo.IndexModel{
		// Inbox listing, unread filter, and unread count.
		{
			Keys: bson.D{
				{Key: "recipient", Value: 1},
				{Key: "is_read", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_notifications_recipient_read_created"),
		},
	})
}

func ensureActivityRecords(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("activity_records"), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "entity_type", Value: 1},
				{Key: "entity_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_activity_entity_created"),
		},
		{
			Keys:    bson.D{{Key: "actor", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_activity_actor_created"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_activity_created"),
		},
	})
}
