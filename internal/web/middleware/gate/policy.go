package gate

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Access is the classification of a request path.
type Access int

const (
	// Protected paths require a verified session.
	Protected Access = iota
	// Public paths pass without any check.
	Public
)

func (a Access) String() string {
	if a == Public {
		return "public"
	}

	return "protected"
}

const staticPrefix = "/static/"

// Policy classifies request paths against the allow-list.
type Policy struct {
	patterns []*regexp.Regexp
}

// NewPolicy compiles patterns into a Policy. Each pattern must match the whole
// path. webhookPath is always allowed.
func NewPolicy(patterns []string, webhookPath string) (*Policy, error) {
	p := &Policy{}

	all := append([]string{}, patterns...)
	if webhookPath != "" {
		all = append(all, regexp.QuoteMeta(webhookPath))
	}

	for _, pattern := range all {
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return nil, fmt.Errorf("invalid public route pattern %q: %w", pattern, err)
		}

		p.patterns = append(p.patterns, re)
	}

	return p, nil
}

// Classify returns the access class of path.
func (p *Policy) Classify(urlPath string) Access {
	if isStatic(urlPath) {
		return Public
	}

	for _, re := range p.patterns {
		if re.MatchString(urlPath) {
			return Public
		}
	}

	return Protected
}

// isStatic reports whether urlPath names a static file. API paths are never static.
func isStatic(urlPath string) bool {
	if strings.HasPrefix(urlPath, staticPrefix) {
		return true
	}

	if isAPI(urlPath) {
		return false
	}

	return strings.Contains(path.Base(urlPath), ".")
}

func isAPI(urlPath string) bool {
	return urlPath == "/api" || strings.HasPrefix(urlPath, "/api/")
}
