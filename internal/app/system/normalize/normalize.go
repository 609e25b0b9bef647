// Package normalize canonicalizes user-supplied identifiers and filter values
// before they are stored or compared.
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role trims and lowercases a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Enum trims and lowercases an enum value (status, priority, direction, kind).
func Enum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TaxID trims, uppercases, and removes spaces and dashes so formatting
// differences do not defeat comparisons.
func TaxID(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}

// QueryParam trims a free-text filter value. Case is preserved.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// FilterID trims an id filter and treats "all" as no filter.
func FilterID(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}
