package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Name folds case and width so that "Li Lei", "li lei" and " LI  LEI " compare equal.
func Name(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return cases.Fold().String(s)
}

func Email(s string) string {
	return cases.Fold().String(strings.TrimSpace(norm.NFKC.String(s)))
}

// Contains reports whether substr is in s ignoring case.
func Contains(s, substr string) bool {
	return strings.Contains(Name(s), Name(substr))
}
