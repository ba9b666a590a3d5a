package service

import (
	"fmt"
	"regexp"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/hailinhs/alumnisite/internal/config"
)

const (
	// AllowAnyone in a rule lets unauthenticated visitors through.
	AllowAnyone = "guest"
	// AllowSignedIn lets every authenticated user through, pending ones included.
	AllowSignedIn = "*"
)

type rule struct {
	name    string
	path    *regexp.Regexp
	methods mapset.Set[string]
	allow   mapset.Set[string]
}

func compileRules(list []config.Rule) ([]rule, error) {
	rules := make([]rule, 0, len(list))
	for _, r := range list {
		// routing ignores letter case, so rules must too
		re, err := regexp.Compile("(?i)" + r.Path)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		rules = append(rules, rule{
			name:    r.Name,
			path:    re,
			methods: mapset.NewSet[string](r.Method...),
			allow:   mapset.NewSet[string](r.Allow...),
		})
	}
	return rules, nil
}

func (r rule) matches(method, path string) bool {
	if !r.path.MatchString(path) {
		return false
	}
	return r.methods.Contains("*") || r.methods.Contains(method)
}
