package scoped

import (
	"testing"

	"github.com/dalemusser/crmhub/internal/app/policy"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFilter(t *testing.T) {
	id := primitive.NewObjectID()

	if f := Filter(policy.Scope{None: true}, "active"); f["_id"] == nil {
		t.Errorf("None scope should match nothing, got %v", f)
	}
	if f := Filter(policy.Scope{All: true}, ""); len(f) != 0 {
		t.Errorf("All scope should be empty, got %v", f)
	}
	if f := Filter(policy.Scope{All: true, ActiveOnly: true}, "active"); f["active"] != true {
		t.Errorf("ActiveOnly should filter on active, got %v", f)
	}
	if f := Filter(policy.Scope{PrincipalID: id}, "", "user_id"); f["user_id"] != id {
		t.Errorf("single owner field should be an equality, got %v", f)
	}

	f := Filter(policy.Scope{PrincipalID: id}, "", "created_by", "assigned_to")
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("expected $or over two fields, got %v", f)
	}
}

func TestAnd(t *testing.T) {
	if got := And(bson.M{}, nil); len(got) != 0 {
		t.Errorf("expected empty filter, got %v", got)
	}

	text := bson.M{"$text": bson.M{"$search": "acme"}}
	if got := And(text, bson.M{}); got["$text"] == nil {
		t.Errorf("single filter should be returned unchanged, got %v", got)
	}

	merged := And(text, bson.M{"active": true})
	if merged["$text"] == nil || merged["active"] != true {
		t.Errorf("expected merged filter, got %v", merged)
	}

	clash := And(bson.M{"status": "todo"}, bson.M{"status": "completed"})
	if _, ok := clash["$and"]; !ok {
		t.Errorf("colliding keys should use $and, got %v", clash)
	}
}
