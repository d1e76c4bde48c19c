package httpapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/validator"

	"caseflow.org/internal/audit"
	"caseflow.org/internal/auth"
	"caseflow.org/internal/authz"
	"caseflow.org/internal/store"
)

//go:embed schema.graphql
var schemaSDL string

const (
	authDirective = "auth"
	requiresArg   = "requires"
)

// ResolverFunc produces the value for one allowed top-level field.
type ResolverFunc func(ctx context.Context, args map[string]any) (any, error)

// gqlGate validates incoming GraphQL operations against the embedded schema
// and consults the authorization pipeline before any resolver runs. A deny
// suppresses the resolver and yields a uniform "not authorized" error, the
// same whatever the underlying reason.
type gqlGate struct {
	schema    *ast.Schema
	pipeline  *authz.Pipeline
	resolvers map[string]ResolverFunc
}

func newGQLGate(pipeline *authz.Pipeline, dir store.Directory) *gqlGate {
	g := &gqlGate{
		schema:    gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSDL}),
		pipeline:  pipeline,
		resolvers: map[string]ResolverFunc{},
	}
	g.registerReadResolvers(dir)
	return g
}

// Register installs a resolver for a top-level field. The application layer
// owns mutation resolvers; the gate only guards them.
func (g *gqlGate) Register(field string, fn ResolverFunc) {
	g.resolvers[field] = fn
}

type gqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type gqlError struct {
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"`
}

// GraphQL handles POST /graphql.
func (a *API) GraphQL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req gqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	data, errs := a.gql.execute(r.Context(), req)
	resp := map[string]any{"data": data}
	if len(errs) > 0 {
		resp["errors"] = errs
	}
	writeJSON(w, http.StatusOK, resp)
}

func (g *gqlGate) execute(ctx context.Context, req gqlRequest) (map[string]any, []gqlError) {
	doc, listErr := gqlparser.LoadQuery(g.schema, req.Query)
	if listErr != nil {
		var errs []gqlError
		for _, e := range listErr {
			errs = append(errs, gqlError{Message: e.Message})
		}
		return nil, errs
	}

	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		return nil, []gqlError{{Message: "operation not found"}}
	}

	vars, varErr := validator.VariableValues(g.schema, op, req.Variables)
	if varErr != nil {
		return nil, []gqlError{{Message: varErr.Error()}}
	}

	root := g.rootType(op)
	if root == nil {
		return nil, []gqlError{{Message: "unsupported operation"}}
	}

	viewer := auth.RequestFromContext(ctx)
	data := map[string]any{}
	var errs []gqlError

	for _, sel := range op.SelectionSet {
		field, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		alias := field.Alias
		if alias == "" {
			alias = field.Name
		}
		def := root.Fields.ForName(field.Name)
		if def == nil {
			errs = append(errs, gqlError{Message: "unknown field", Path: []string{alias}})
			continue
		}

		args := field.ArgumentMap(vars)

		if required, protected := requiredRole(def); protected {
			allowed, err := g.pipeline.Resolve(ctx, authz.NewQuery(nil, required, args, viewer))
			if err != nil {
				errs = append(errs, gqlError{Message: "internal error", Path: []string{alias}})
				data[alias] = nil
				continue
			}
			if !allowed {
				_ = audit.LogEvent(ctx, "authz.denied", map[string]any{"field": field.Name})
				errs = append(errs, gqlError{Message: "not authorized", Path: []string{alias}})
				data[alias] = nil
				continue
			}
		}

		resolver, ok := g.resolvers[field.Name]
		if !ok {
			errs = append(errs, gqlError{Message: "resolver not registered", Path: []string{alias}})
			data[alias] = nil
			continue
		}
		value, err := resolver(ctx, args)
		if err != nil {
			if store.IsNotFound(err) {
				data[alias] = nil
				continue
			}
			errs = append(errs, gqlError{Message: "internal error", Path: []string{alias}})
			data[alias] = nil
			continue
		}
		data[alias] = value
	}
	return data, errs
}

func (g *gqlGate) rootType(op *ast.OperationDefinition) *ast.Definition {
	switch op.Operation {
	case ast.Query:
		return g.schema.Query
	case ast.Mutation:
		return g.schema.Mutation
	default:
		return nil
	}
}

// requiredRole reads the field's @auth directive. Fields without the
// directive are public; a bare @auth falls back to the USER default declared
// in the schema.
func requiredRole(def *ast.FieldDefinition) (auth.RoleKind, bool) {
	d := def.Directives.ForName(authDirective)
	if d == nil {
		return "", false
	}
	if arg := d.Arguments.ForName(requiresArg); arg != nil && arg.Value != nil {
		if role, ok := auth.ParseRoleKind(strings.ToLower(arg.Value.Raw)); ok {
			return role, true
		}
	}
	return auth.RoleUser, true
}
