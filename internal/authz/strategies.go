package authz

import (
	"context"

	"caseflow.org/internal/auth"
	"caseflow.org/internal/store"
)

// Strategy derives the target organization for one shape of field and
// renders a verdict. Applicable must be cheap and side-effect free;
// Authorized may perform data-layer lookups. A lookup miss is a deny, any
// other lookup error propagates unmodified.
type Strategy interface {
	Name() string
	Applicable(q Query) bool
	Authorized(ctx context.Context, q Query) (bool, error)
}

// Per-entity lookup contracts, satisfied by store.Directory. Each strategy
// receives exactly the collaborators it needs.
type (
	EngagementFinder interface {
		EngagementByID(ctx context.Context, id string) (*store.Engagement, error)
	}
	ContactFinder interface {
		ContactByID(ctx context.Context, id string) (*store.Contact, error)
	}
	TagFinder interface {
		TagByID(ctx context.Context, id string) (*store.Tag, error)
	}
	ServiceFinder interface {
		ServiceByID(ctx context.Context, id string) (*store.Service, error)
	}
	ServiceAnswerFinder interface {
		ServiceAnswerByID(ctx context.Context, id string) (*store.ServiceAnswer, error)
	}
	UserFinder interface {
		UserByID(ctx context.Context, id string) (*store.User, error)
	}
)

// parentOrg applies when the resolved parent object is itself an
// organization record.
type parentOrg struct{}

func (parentOrg) Name() string { return "parent_org" }

func (parentOrg) Applicable(q Query) bool {
	_, ok := parentOrgID(q.Parent)
	return ok
}

func (parentOrg) Authorized(_ context.Context, q Query) (bool, error) {
	orgID, _ := parentOrgID(q.Parent)
	return q.Viewer.Identity.Authorized(orgID, q.Required), nil
}

func parentOrgID(parent any) (string, bool) {
	switch p := parent.(type) {
	case *store.Organization:
		if p != nil && p.ID != "" {
			return p.ID, true
		}
	case map[string]any:
		// Untyped parents carry a type discriminator, the GraphQL layer
		// sets __typename on every object it materializes.
		if kind, _ := p["__typename"].(string); kind == "Organization" {
			if id, ok := p["id"].(string); ok && id != "" {
				return id, true
			}
		}
	}
	return "", false
}

// orgArg applies when the field receives the target org id directly.
type orgArg struct{}

func (orgArg) Name() string { return "org_arg" }

func (orgArg) Applicable(q Query) bool {
	_, ok := stringArg(q.Args, "orgId")
	return ok
}

func (orgArg) Authorized(_ context.Context, q Query) (bool, error) {
	orgID, _ := stringArg(q.Args, "orgId")
	return q.Viewer.Identity.Authorized(orgID, q.Required), nil
}

// entityIDKeys is the fixed precedence order for entityLookup. When a query
// presents more than one of these keys only the first match is honored;
// changing the order changes which org gets checked.
var entityIDKeys = []string{"serviceId", "engagementId", "contactId", "tagId", "answerId"}

// entityLookup applies when the field passes an entity id whose record
// carries the org id. Answers are the exception: they reach their org
// through the referenced service.
type entityLookup struct {
	engagements EngagementFinder
	contacts    ContactFinder
	tags        TagFinder
	services    ServiceFinder
	answers     ServiceAnswerFinder
}

func (entityLookup) Name() string { return "entity_lookup" }

func (entityLookup) Applicable(q Query) bool {
	for _, key := range entityIDKeys {
		if _, ok := stringArg(q.Args, key); ok {
			return true
		}
	}
	return false
}

func (s entityLookup) Authorized(ctx context.Context, q Query) (bool, error) {
	orgID, err := s.resolveOrgID(ctx, q)
	if err != nil {
		if store.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return q.Viewer.Identity.Authorized(orgID, q.Required), nil
}

func (s entityLookup) resolveOrgID(ctx context.Context, q Query) (string, error) {
	for _, key := range entityIDKeys {
		id, ok := stringArg(q.Args, key)
		if !ok {
			continue
		}
		switch key {
		case "serviceId":
			svc, err := s.services.ServiceByID(ctx, id)
			if err != nil {
				return "", err
			}
			return svc.OrgID, nil
		case "engagementId":
			e, err := s.engagements.EngagementByID(ctx, id)
			if err != nil {
				return "", err
			}
			return e.OrgID, nil
		case "contactId":
			c, err := s.contacts.ContactByID(ctx, id)
			if err != nil {
				return "", err
			}
			return c.OrgID, nil
		case "tagId":
			t, err := s.tags.TagByID(ctx, id)
			if err != nil {
				return "", err
			}
			return t.OrgID, nil
		case "answerId":
			answer, err := s.answers.ServiceAnswerByID(ctx, id)
			if err != nil {
				return "", err
			}
			svc, err := s.services.ServiceByID(ctx, answer.ServiceID)
			if err != nil {
				return "", err
			}
			return svc.OrgID, nil
		}
	}
	return "", store.ErrNotFound
}

// inputObjectKeys are the input-object argument names whose payload carries
// the org id directly.
var inputObjectKeys = []string{"engagement", "contact", "service", "tag"}

// inputOrg applies when a nested input object carries an orgId field.
type inputOrg struct{}

func (inputOrg) Name() string { return "input_org" }

func (inputOrg) Applicable(q Query) bool {
	_, ok := inputOrgID(q.Args)
	return ok
}

func (inputOrg) Authorized(_ context.Context, q Query) (bool, error) {
	orgID, _ := inputOrgID(q.Args)
	return q.Viewer.Identity.Authorized(orgID, q.Required), nil
}

func inputOrgID(args map[string]any) (string, bool) {
	for _, key := range inputObjectKeys {
		obj, ok := objectArg(args, key)
		if !ok {
			continue
		}
		if orgID, ok := stringArg(obj, "orgId"); ok {
			return orgID, true
		}
	}
	return "", false
}

// answerInput applies when the field receives a serviceAnswer input object.
// The input names a service, not an org; one lookup bridges the gap.
type answerInput struct {
	services ServiceFinder
}

func (answerInput) Name() string { return "answer_input" }

func (answerInput) Applicable(q Query) bool {
	_, ok := objectArg(q.Args, "serviceAnswer")
	return ok
}

func (s answerInput) Authorized(ctx context.Context, q Query) (bool, error) {
	obj, _ := objectArg(q.Args, "serviceAnswer")
	serviceID, ok := stringArg(obj, "serviceId")
	if !ok {
		return false, nil
	}
	svc, err := s.services.ServiceByID(ctx, serviceID)
	if err != nil {
		if store.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return q.Viewer.Identity.Authorized(svc.OrgID, q.Required), nil
}

// userScan applies when the field acts on another user. User management is
// always admin-gated: the declared required role is ignored, and the caller
// passes if they administer any one org the target user belongs to. This is
// deliberately broader than a single-org check.
type userScan struct {
	users UserFinder
}

func (userScan) Name() string { return "user_scan" }

func (userScan) Applicable(q Query) bool {
	_, ok := stringArg(q.Args, "userId")
	return ok
}

func (s userScan) Authorized(ctx context.Context, q Query) (bool, error) {
	userID, _ := stringArg(q.Args, "userId")
	target, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	for _, m := range target.Memberships {
		if q.Viewer.Identity.Authorized(m.OrgID, auth.RoleAdmin) {
			return true, nil
		}
	}
	return false, nil
}
