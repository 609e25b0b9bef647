// Package scoped turns a policy.Scope into a MongoDB filter.
//
// Every list and search query starts from the caller's scope filter, so
// records outside the principal's visibility are never read.
package scoped

import (
	"github.com/dalemusser/crmhub/internal/app/policy"
	"go.mongodb.org/mongo-driver/bson"
)

// matchNothing never matches a stored document (every document has an _id).
var matchNothing = bson.M{"_id": bson.M{"$exists": false}}

// Filter builds the visibility filter for scope. ownerFields name the
// fields that grant a restricted principal access; any one matching is
// enough. activeField is the soft-delete flag, or "" for hard-deleted types.
func Filter(scope policy.Scope, activeField string, ownerFields ...string) bson.M {
	if scope.None {
		return matchNothing
	}

	f := bson.M{}
	if scope.ActiveOnly && activeField != "" {
		f[activeField] = true
	}
	if scope.All {
		return f
	}
	if len(ownerFields) == 0 {
		return matchNothing
	}
	if len(ownerFields) == 1 {
		f[ownerFields[0]] = scope.PrincipalID
		return f
	}
	or := make(bson.A, 0, len(ownerFields))
	for _, field := range ownerFields {
		or = append(or, bson.M{field: scope.PrincipalID})
	}
	f["$or"] = or
	return f
}

// And combines filters. Empty filters are skipped; a single remaining filter
// is returned as-is so top-level operators such as $text stay top-level.
func And(filters ...bson.M) bson.M {
	parts := make([]bson.M, 0, len(filters))
	for _, f := range filters {
		if len(f) > 0 {
			parts = append(parts, f)
		}
	}
	switch len(parts) {
	case 0:
		return bson.M{}
	case 1:
		return parts[0]
	}

	// Merge when keys do not collide, otherwise fall back to $and.
	merged := bson.M{}
	for _, p := range parts {
		for k, v := range p {
			if _, dup := merged[k]; dup {
				arr := make(bson.A, 0, len(parts))
				for _, q := range parts {
					arr = append(arr, q)
				}
				return bson.M{"$and": arr}
			}
			merged[k] = v
		}
	}
	return merged
}
