// Package avatar derives avatar image URLs from user identifiers.
package avatar

import (
	"net/url"
	"strings"
)

const (
	Placeholder     = "{id}"
	DefaultTemplate = "https://avatars.dicebear.com/api/adventurer-neutral/" + Placeholder + ".svg"
)

type Resolver struct {
	template string
}

// NewResolver returns a resolver for tmpl. Every occurrence of Placeholder is
// substituted; an empty template falls back to DefaultTemplate.
func NewResolver(tmpl string) *Resolver {
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	return &Resolver{template: tmpl}
}

func (r *Resolver) Resolve(id string) string {
	return strings.ReplaceAll(r.template, Placeholder, url.PathEscape(id))
}
