package httpapi

import (
	"context"
	"errors"

	"caseflow.org/internal/store"
)

// registerReadResolvers installs resolvers for the read fields backed
// directly by the directory. Mutation resolvers are the application's to
// register; the gate still authorizes them either way.
func (g *gqlGate) registerReadResolvers(dir store.Directory) {
	if dir == nil {
		return
	}
	g.Register("version", func(ctx context.Context, args map[string]any) (any, error) {
		return "caseflow", nil
	})
	g.Register("organization", func(ctx context.Context, args map[string]any) (any, error) {
		id, ok := args["orgId"].(string)
		if !ok {
			return nil, errors.New("orgId is required")
		}
		org, err := dir.OrganizationByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"__typename": "Organization",
			"id":         org.ID,
			"name":       org.Name,
		}, nil
	})
	g.Register("engagement", func(ctx context.Context, args map[string]any) (any, error) {
		id, ok := args["engagementId"].(string)
		if !ok {
			return nil, errors.New("engagementId is required")
		}
		e, err := dir.EngagementByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"__typename": "Engagement",
			"id":         e.ID,
			"orgId":      e.OrgID,
			"contactId":  e.ContactID,
			"status":     e.Status,
		}, nil
	})
	g.Register("contact", func(ctx context.Context, args map[string]any) (any, error) {
		id, ok := args["contactId"].(string)
		if !ok {
			return nil, errors.New("contactId is required")
		}
		c, err := dir.ContactByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"__typename": "Contact",
			"id":         c.ID,
			"orgId":      c.OrgID,
			"firstName":  c.FirstName,
			"lastName":   c.LastName,
			"email":      c.Email,
		}, nil
	})
	g.Register("tag", func(ctx context.Context, args map[string]any) (any, error) {
		id, ok := args["tagId"].(string)
		if !ok {
			return nil, errors.New("tagId is required")
		}
		t, err := dir.TagByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"__typename": "Tag",
			"id":         t.ID,
			"orgId":      t.OrgID,
			"name":       t.Name,
		}, nil
	})
	g.Register("service", func(ctx context.Context, args map[string]any) (any, error) {
		id, ok := args["serviceId"].(string)
		if !ok {
			return nil, errors.New("serviceId is required")
		}
		svc, err := dir.ServiceByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"__typename": "Service",
			"id":         svc.ID,
			"orgId":      svc.OrgID,
			"name":       svc.Name,
		}, nil
	})
	g.Register("serviceAnswer", func(ctx context.Context, args map[string]any) (any, error) {
		id, ok := args["answerId"].(string)
		if !ok {
			return nil, errors.New("answerId is required")
		}
		a, err := dir.ServiceAnswerByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"__typename":   "ServiceAnswer",
			"id":           a.ID,
			"serviceId":    a.ServiceID,
			"engagementId": a.EngagementID,
			"value":        a.Value,
		}, nil
	})
	g.Register("user", func(ctx context.Context, args map[string]any) (any, error) {
		id, ok := args["userId"].(string)
		if !ok {
			return nil, errors.New("userId is required")
		}
		u, err := dir.UserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"__typename": "User",
			"id":         u.ID,
			"email":      u.Email,
		}, nil
	})
}
