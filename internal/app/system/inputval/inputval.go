// Package inputval validates typed request payloads before they reach the core.
//
// Structs declare their constraints with `validate` tags and an optional
// human `label`:
//
//	type createTaskInput struct {
//	    Title    string `json:"title" validate:"required,max=200" label:"Title"`
//	    Priority string `json:"priority" validate:"required,oneof=low medium high urgent" label:"Priority"`
//	}
//
// Validate checks every field and reports every violation, not just the first.
// Supported rules: required, min=N, max=N, email, oneof=a b c, objectid.
package inputval

import (
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldError is one violated rule. Field is the wire name (json tag),
// Reason is the machine-friendly tail, Message is a full sentence for display.
type FieldError struct {
	Field   string
	Reason  string
	Message string
}

// Result collects the violations found by Validate.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Add records a violation found outside tag rules (cross-field checks).
func (r *Result) Add(field, reason, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Reason: reason, Message: message})
}

// Merge appends another result's violations, prefixing their field names.
func (r *Result) Merge(prefix string, other Result) {
	for _, e := range other.Errors {
		e.Field = prefix + e.Field
		r.Errors = append(r.Errors, e)
	}
}

// Err converts the result into an apperr ValidationFailed error, or nil.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	fields := make([]apperr.FieldError, 0, len(r.Errors))
	for _, e := range r.Errors {
		fields = append(fields, apperr.FieldError{Field: e.Field, Reason: e.Reason})
	}
	return apperr.Validation(fields)
}

var timeType = reflect.TypeOf(time.Time{})

// Validate checks v (a struct or pointer to struct) against its validate tags.
func Validate(v any) Result {
	var res Result
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return res
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return res
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		tag := sf.Tag.Get("validate")
		if tag == "" || !sf.IsExported() {
			continue
		}
		name := wireName(sf)
		label := sf.Tag.Get("label")
		if label == "" {
			label = sf.Name
		}
		checkField(&res, name, label, rv.Field(i), strings.Split(tag, ","))
	}
	return res
}

func checkField(res *Result, name, label string, fv reflect.Value, rules []string) {
	// Pointers: nil means "absent"; otherwise validate the pointee.
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			if hasRule(rules, "required") {
				res.Add(name, "is required", label+" is required.")
			}
			return
		}
		fv = fv.Elem()
	}

	if isEmpty(fv) {
		if hasRule(rules, "required") {
			res.Add(name, "is required", label+" is required.")
		}
		return
	}

	for _, rule := range rules {
		key, arg, _ := strings.Cut(strings.TrimSpace(rule), "=")
		switch key {
		case "min":
			n, _ := strconv.Atoi(arg)
			if size(fv) < n {
				res.Add(name, "must be at least "+arg+" "+unit(fv), label+" must be at least "+arg+" "+unit(fv)+".")
			}
		case "max":
			n, _ := strconv.Atoi(arg)
			if size(fv) > n {
				res.Add(name, "must be at most "+arg+" "+unit(fv), label+" must be at most "+arg+" "+unit(fv)+".")
			}
		case "email":
			if fv.Kind() == reflect.String && !IsValidEmail(fv.String()) {
				res.Add(name, "must be a valid email address", "A valid email address is required.")
			}
		case "oneof":
			opts := strings.Fields(arg)
			if fv.Kind() == reflect.String && !contains(opts, fv.String()) {
				list := strings.Join(opts, ", ")
				res.Add(name, "must be one of "+list, label+" must be one of "+list+".")
			}
		case "objectid":
			if fv.Kind() == reflect.String && !IsValidObjectID(fv.String()) {
				res.Add(name, "must be a valid id", label+" must be a valid id.")
			}
		}
	}
}

func wireName(sf reflect.StructField) string {
	if j := sf.Tag.Get("json"); j != "" {
		if n, _, _ := strings.Cut(j, ","); n != "" && n != "-" {
			return n
		}
	}
	r, w := utf8.DecodeRuneInString(sf.Name)
	return string(unicode.ToLower(r)) + sf.Name[w:]
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Struct:
		if v.Type() == timeType {
			return v.Interface().(time.Time).IsZero()
		}
	}
	return false
}

func size(v reflect.Value) int {
	switch v.Kind() {
	case reflect.String:
		return utf8.RuneCountInString(strings.TrimSpace(v.String()))
	case reflect.Slice, reflect.Map:
		return v.Len()
	case reflect.Int, reflect.Int32, reflect.Int64:
		return int(v.Int())
	}
	return 0
}

func unit(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return "characters"
	case reflect.Slice, reflect.Map:
		return "items"
	}
	return ""
}

func hasRule(rules []string, want string) bool {
	for _, r := range rules {
		if strings.TrimSpace(r) == want {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidObjectID reports whether s (trimmed) is a 24-char hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

// IsValidEmail applies a pragmatic RFC 5322 subset: a dot-atom local part,
// an '@', and one or more hostname labels. Display-name forms are rejected.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t<>\"") {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	if !validDots(local) || !validDots(domain) {
		return false
	}
	for _, r := range local {
		if !isAtext(r) && r != '.' {
			return false
		}
	}
	for _, label := range strings.Split(domain, ".") {
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			if !(r == '-' || r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
				return false
			}
		}
	}
	return true
}

func validDots(s string) bool {
	return s != "" && s[0] != '.' && s[len(s)-1] != '.' && !strings.Contains(s, "..")
}

func isAtext(r rune) bool {
	if r >= unicode.MaxASCII {
		return false
	}
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return strings.ContainsRune("!#$%&'*+/=?^_`{|}~-", r)
}
