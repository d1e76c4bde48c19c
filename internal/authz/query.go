// Package authz decides, per protected GraphQL field, whether the caller
// holds a sufficient role in the organization the field targets. The target
// org is never passed explicitly; an ordered list of strategies derives it
// from the field's parent object or arguments, first applicable wins.
package authz

import "caseflow.org/internal/auth"

// Query is one field resolution presented for an authorization verdict.
type Query struct {
	// Parent is the resolved object the field hangs off; may be nil.
	Parent any
	// Required is the minimum role the field declares. Defaults to user.
	Required auth.RoleKind
	// Args are the raw field arguments, keyed by argument name.
	Args map[string]any
	// Viewer is the resolved request context for the caller.
	Viewer auth.RequestContext
}

// NewQuery assembles a Query, applying the default required role when the
// field declaration left it unspecified.
func NewQuery(parent any, required auth.RoleKind, args map[string]any, viewer auth.RequestContext) Query {
	if required != auth.RoleAdmin && required != auth.RoleUser {
		required = auth.RoleUser
	}
	return Query{Parent: parent, Required: required, Args: args, Viewer: viewer}
}

// stringArg returns a non-empty string argument.
func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// objectArg returns a non-nil input object argument.
func objectArg(args map[string]any, key string) (map[string]any, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return nil, false
	}
	return obj, true
}
