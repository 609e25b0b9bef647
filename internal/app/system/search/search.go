// internal/app/system/search/search.go
package search

import "strings"

// EmailPivot reports whether a directory query should match and sort on
// email rather than on the folded name.
//
// We pivot when the caller is clearly typing an email address (the query
// contains '@'). A bare name prefix keeps the name_ci index path:
//
//	sortField := "name_ci"
//	if search.EmailPivot(q) {
//	    sortField = "email"
//	}
func EmailPivot(q string) bool {
	return strings.Contains(strings.TrimSpace(q), "@")
}

// StatusFixed reports whether status pins the active flag, so a listing
// is constrained to one side of the soft-delete split.
func StatusFixed(status string) bool {
	return equalsAnyFold(status, "active", "inactive")
}

func equalsAnyFold(s string, vals ...string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, v := range vals {
		if s == strings.ToLower(v) {
			return true
		}
	}
	return false
}
