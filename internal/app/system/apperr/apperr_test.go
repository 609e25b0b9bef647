package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFound("task"), KindNotFound},
		{"wrapped forbidden", fmt.Errorf("update: %w", Forbidden("nope")), KindForbidden},
		{"validation", Validation([]FieldError{{Field: "title", Reason: "is required"}}), KindValidationFailed},
		{"foreign error", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidation_EmptyIsNil(t *testing.T) {
	if err := Validation(nil); err != nil {
		t.Errorf("expected nil for no field errors, got %v", err)
	}
}

func TestValidation_ListsEveryField(t *testing.T) {
	err := Validation([]FieldError{
		{Field: "title", Reason: "is required"},
		{Field: "priority", Reason: "must be one of low, medium, high, urgent"},
	})
	e := As(err)
	if len(e.Fields) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(e.Fields))
	}
	msg := err.Error()
	if !strings.Contains(msg, "title") || !strings.Contains(msg, "priority") {
		t.Errorf("message should mention every field, got %q", msg)
	}
}

func TestErrorsIs_MatchesKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NotFound("call"))
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is to match ErrNotFound")
	}
	if errors.Is(err, ErrForbidden) {
		t.Error("did not expect errors.Is to match ErrForbidden")
	}
}

func TestInternal_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("tasks.Find", cause)
	if !errors.Is(err, cause) {
		t.Error("expected Internal to unwrap to its cause")
	}
	if strings.Contains(err.Message, "connection reset") {
		t.Error("cause must not leak into the public message")
	}
}

func TestFromStore(t *testing.T) {
	if FromStore("op", "task", nil) != nil {
		t.Error("nil stays nil")
	}
	if KindOf(FromStore("op", "task", fmt.Errorf("find: %w", mongo.ErrNoDocuments))) != KindNotFound {
		t.Error("ErrNoDocuments should map to not_found")
	}
	if KindOf(FromStore("op", "task", Conflict("dup"))) != KindConflict {
		t.Error("taxonomy errors pass through")
	}
	if KindOf(FromStore("op", "task", errors.New("socket closed"))) != KindInternal {
		t.Error("unknown errors map to internal")
	}
}
