// Package shared holds request helpers used by every JSON feature.
package shared

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/auth"
	"github.com/dalemusser/crmhub/internal/app/system/inputval"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Principal returns the signed-in principal, or nil.
func Principal(r *http.Request) *models.User {
	p, _ := auth.CurrentPrincipal(r)
	return p
}

// PathID parses the chi URL parameter name. A malformed id reads as
// NotFound(entity), the same as an id that does not resolve.
func PathID(r *http.Request, name, entity string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound(entity)
	}
	return id, nil
}

// Query reads typed query parameters and collects every malformed one.
type Query struct {
	r   *http.Request
	res inputval.Result
}

// NewQuery wraps r.
func NewQuery(r *http.Request) *Query { return &Query{r: r} }

// String returns the trimmed value of key, or "".
func (q *Query) String(key string) string { return strings.TrimSpace(query.Get(q.r, key)) }

// Flag reports whether key is a true value. Anything unparsable is false.
func (q *Query) Flag(key string) bool {
	b := q.Bool(key)
	return b != nil && *b
}

// Bool parses key as a boolean. Absent is nil.
func (q *Query) Bool(key string) *bool {
	s := q.String(key)
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		q.res.Add(key, "must be true or false", key+" must be true or false.")
		return nil
	}
	return &b
}

// Time parses key as an RFC 3339 timestamp or a YYYY-MM-DD date (UTC
// midnight). Absent is nil.
func (q *Query) Time(key string) *time.Time {
	s := q.String(key)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	q.res.Add(key, "must be an RFC 3339 timestamp or YYYY-MM-DD date", key+" must be a date.")
	return nil
}

// List splits a comma-separated value. Absent is nil.
func (q *Query) List(key string) []string {
	s := q.String(key)
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Err returns a ValidationFailed error naming every malformed parameter, or nil.
func (q *Query) Err() error { return q.res.Err() }
