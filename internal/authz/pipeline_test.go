package authz

import (
	"context"
	"errors"
	"testing"

	"caseflow.org/internal/auth"
	"caseflow.org/internal/store"
)

// fakeLookups is a map-backed Lookups implementation recording which
// entities were consulted.
type fakeLookups struct {
	engagements map[string]*store.Engagement
	contacts    map[string]*store.Contact
	tags        map[string]*store.Tag
	services    map[string]*store.Service
	answers     map[string]*store.ServiceAnswer
	users       map[string]*store.User

	err    error
	called []string
}

func (f *fakeLookups) EngagementByID(_ context.Context, id string) (*store.Engagement, error) {
	f.called = append(f.called, "engagement")
	if f.err != nil {
		return nil, f.err
	}
	if e, ok := f.engagements[id]; ok {
		return e, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeLookups) ContactByID(_ context.Context, id string) (*store.Contact, error) {
	f.called = append(f.called, "contact")
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.contacts[id]; ok {
		return c, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeLookups) TagByID(_ context.Context, id string) (*store.Tag, error) {
	f.called = append(f.called, "tag")
	if f.err != nil {
		return nil, f.err
	}
	if tag, ok := f.tags[id]; ok {
		return tag, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeLookups) ServiceByID(_ context.Context, id string) (*store.Service, error) {
	f.called = append(f.called, "service")
	if f.err != nil {
		return nil, f.err
	}
	if svc, ok := f.services[id]; ok {
		return svc, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeLookups) ServiceAnswerByID(_ context.Context, id string) (*store.ServiceAnswer, error) {
	f.called = append(f.called, "answer")
	if f.err != nil {
		return nil, f.err
	}
	if a, ok := f.answers[id]; ok {
		return a, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeLookups) UserByID(_ context.Context, id string) (*store.User, error) {
	f.called = append(f.called, "user")
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func adminOf(orgIDs ...string) auth.RequestContext {
	identity := &auth.Identity{ID: "caller"}
	for _, id := range orgIDs {
		identity.Memberships = append(identity.Memberships, auth.Membership{OrgID: id, Role: auth.RoleAdmin})
	}
	return auth.RequestContext{Identity: identity, Locale: auth.DefaultLocale}
}

func userOf(orgIDs ...string) auth.RequestContext {
	identity := &auth.Identity{ID: "caller"}
	for _, id := range orgIDs {
		identity.Memberships = append(identity.Memberships, auth.Membership{OrgID: id, Role: auth.RoleUser})
	}
	return auth.RequestContext{Identity: identity, Locale: auth.DefaultLocale}
}

func anonymous() auth.RequestContext {
	return auth.RequestContext{Locale: auth.DefaultLocale}
}

func resolve(t *testing.T, p *Pipeline, q Query) bool {
	t.Helper()
	allowed, err := p.Resolve(context.Background(), q)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return allowed
}

func TestPipelineNoStrategyDenies(t *testing.T) {
	p := NewPipeline(&fakeLookups{})

	q := NewQuery(nil, auth.RoleUser, map[string]any{"limit": "10"}, adminOf("org-a"))
	if resolve(t, p, q) {
		t.Fatalf("query matching no strategy must deny")
	}
}

func TestParentOrgStrategy(t *testing.T) {
	p := NewPipeline(&fakeLookups{})
	org := &store.Organization{ID: "org-a", Name: "Org A"}

	if !resolve(t, p, NewQuery(org, auth.RoleUser, nil, userOf("org-a"))) {
		t.Fatalf("member of parent org should be allowed")
	}
	if resolve(t, p, NewQuery(org, auth.RoleAdmin, nil, userOf("org-a"))) {
		t.Fatalf("plain member must not satisfy admin requirement")
	}
	if resolve(t, p, NewQuery(org, auth.RoleUser, nil, userOf("org-b"))) {
		t.Fatalf("member of another org must be denied")
	}

	// Untyped parents are recognized through their type discriminator.
	mapParent := map[string]any{"__typename": "Organization", "id": "org-a"}
	if !resolve(t, p, NewQuery(mapParent, auth.RoleUser, nil, userOf("org-a"))) {
		t.Fatalf("discriminated map parent should be allowed")
	}
	other := map[string]any{"__typename": "Contact", "id": "c1"}
	if resolve(t, p, NewQuery(other, auth.RoleUser, nil, userOf("org-a"))) {
		t.Fatalf("non-organization parent matches no strategy and must deny")
	}
}

func TestOrgArgStrategy(t *testing.T) {
	p := NewPipeline(&fakeLookups{})

	if !resolve(t, p, NewQuery(nil, auth.RoleAdmin, map[string]any{"orgId": "org-a"}, adminOf("org-a"))) {
		t.Fatalf("admin of target org should be allowed")
	}
	if resolve(t, p, NewQuery(nil, auth.RoleUser, map[string]any{"orgId": "org-b"}, adminOf("org-a"))) {
		t.Fatalf("caller outside target org must be denied")
	}
}

func TestEntityLookupPrecedence(t *testing.T) {
	lookups := &fakeLookups{
		services:    map[string]*store.Service{"s1": {ID: "s1", OrgID: "org-s"}},
		engagements: map[string]*store.Engagement{"e1": {ID: "e1", OrgID: "org-e"}},
	}
	p := NewPipeline(lookups)

	// Both keys present: serviceId wins, engagementId is never consulted.
	args := map[string]any{"serviceId": "s1", "engagementId": "e1"}
	if !resolve(t, p, NewQuery(nil, auth.RoleUser, args, userOf("org-s"))) {
		t.Fatalf("service org member should be allowed")
	}
	if resolve(t, p, NewQuery(nil, auth.RoleUser, args, userOf("org-e"))) {
		t.Fatalf("engagement org member must be denied, serviceId takes precedence")
	}
	for _, name := range lookups.called {
		if name == "engagement" {
			t.Fatalf("engagement lookup must not run when serviceId is present")
		}
	}
}

func TestEntityLookupVariants(t *testing.T) {
	lookups := &fakeLookups{
		engagements: map[string]*store.Engagement{"e1": {ID: "e1", OrgID: "org-a"}},
		contacts:    map[string]*store.Contact{"c1": {ID: "c1", OrgID: "org-a"}},
		tags:        map[string]*store.Tag{"t1": {ID: "t1", OrgID: "org-a"}},
	}
	p := NewPipeline(lookups)

	for _, args := range []map[string]any{
		{"engagementId": "e1"},
		{"contactId": "c1"},
		{"tagId": "t1"},
	} {
		if !resolve(t, p, NewQuery(nil, auth.RoleUser, args, userOf("org-a"))) {
			t.Fatalf("member should be allowed for args %v", args)
		}
		if resolve(t, p, NewQuery(nil, auth.RoleUser, args, userOf("org-b"))) {
			t.Fatalf("outsider must be denied for args %v", args)
		}
	}
}

func TestEntityLookupAnswerDoubleHop(t *testing.T) {
	lookups := &fakeLookups{
		answers:  map[string]*store.ServiceAnswer{"a1": {ID: "a1", ServiceID: "s1"}},
		services: map[string]*store.Service{"s1": {ID: "s1", OrgID: "org-a"}},
	}
	p := NewPipeline(lookups)

	if !resolve(t, p, NewQuery(nil, auth.RoleUser, map[string]any{"answerId": "a1"}, userOf("org-a"))) {
		t.Fatalf("answer resolves through its service to org-a")
	}
}

func TestEntityLookupAnswerOrphanDenies(t *testing.T) {
	// The answer exists but its service is gone; authorization must deny,
	// not error.
	lookups := &fakeLookups{
		answers: map[string]*store.ServiceAnswer{"a1": {ID: "a1", ServiceID: "gone"}},
	}
	p := NewPipeline(lookups)

	if resolve(t, p, NewQuery(nil, auth.RoleUser, map[string]any{"answerId": "a1"}, adminOf("org-a"))) {
		t.Fatalf("orphan answer must deny")
	}
}

func TestEntityLookupMissDenies(t *testing.T) {
	p := NewPipeline(&fakeLookups{})

	if resolve(t, p, NewQuery(nil, auth.RoleUser, map[string]any{"contactId": "missing"}, adminOf("org-a"))) {
		t.Fatalf("missing entity must deny")
	}
}

func TestEntityLookupFailurePropagates(t *testing.T) {
	lookups := &fakeLookups{err: errors.New("connection refused")}
	p := NewPipeline(lookups)

	allowed, err := p.Resolve(context.Background(), NewQuery(nil, auth.RoleUser, map[string]any{"contactId": "c1"}, adminOf("org-a")))
	if err == nil {
		t.Fatalf("infrastructure failure must propagate")
	}
	if allowed {
		t.Fatalf("failed resolution must not allow")
	}
}

func TestInputOrgStrategy(t *testing.T) {
	p := NewPipeline(&fakeLookups{})

	for _, key := range []string{"engagement", "contact", "service", "tag"} {
		args := map[string]any{key: map[string]any{"orgId": "org-a", "name": "x"}}
		if !resolve(t, p, NewQuery(nil, auth.RoleUser, args, userOf("org-a"))) {
			t.Fatalf("input %q carrying orgId should authorize members", key)
		}
		if resolve(t, p, NewQuery(nil, auth.RoleUser, args, userOf("org-b"))) {
			t.Fatalf("input %q must deny outsiders", key)
		}
	}

	// An input object without an orgId matches no strategy and denies.
	args := map[string]any{"contact": map[string]any{"firstName": "Ada"}}
	if resolve(t, p, NewQuery(nil, auth.RoleUser, args, adminOf("org-a"))) {
		t.Fatalf("org-less input object must deny")
	}
}

func TestAnswerInputStrategy(t *testing.T) {
	lookups := &fakeLookups{
		services: map[string]*store.Service{"s1": {ID: "s1", OrgID: "org-a"}},
	}
	p := NewPipeline(lookups)

	args := map[string]any{"serviceAnswer": map[string]any{"serviceId": "s1", "value": "yes"}}
	if !resolve(t, p, NewQuery(nil, auth.RoleUser, args, userOf("org-a"))) {
		t.Fatalf("answer input resolves through its service")
	}
	if resolve(t, p, NewQuery(nil, auth.RoleUser, args, userOf("org-b"))) {
		t.Fatalf("outsider must be denied")
	}

	missing := map[string]any{"serviceAnswer": map[string]any{"serviceId": "gone"}}
	if resolve(t, p, NewQuery(nil, auth.RoleUser, missing, adminOf("org-a"))) {
		t.Fatalf("missing service must deny, not error")
	}

	noService := map[string]any{"serviceAnswer": map[string]any{"value": "yes"}}
	if resolve(t, p, NewQuery(nil, auth.RoleUser, noService, adminOf("org-a"))) {
		t.Fatalf("answer input without serviceId must deny")
	}
}

func TestUserScanStrategy(t *testing.T) {
	target := &store.User{ID: "target", Memberships: []auth.Membership{
		{OrgID: "org-a", Role: auth.RoleUser},
		{OrgID: "org-b", Role: auth.RoleUser},
	}}
	lookups := &fakeLookups{users: map[string]*store.User{"target": target}}
	p := NewPipeline(lookups)

	args := map[string]any{"userId": "target"}

	// Admin of any one org the target belongs to is enough.
	if !resolve(t, p, NewQuery(nil, auth.RoleUser, args, adminOf("org-a"))) {
		t.Fatalf("admin of org-a should act on a member of {org-a, org-b}")
	}
	if !resolve(t, p, NewQuery(nil, auth.RoleUser, args, adminOf("org-b"))) {
		t.Fatalf("admin of org-b should act on a member of {org-a, org-b}")
	}

	// The declared required role is ignored; user management always takes
	// admin.
	if resolve(t, p, NewQuery(nil, auth.RoleUser, args, userOf("org-a", "org-b"))) {
		t.Fatalf("non-admin caller must be denied regardless of declared role")
	}
	if resolve(t, p, NewQuery(nil, auth.RoleUser, args, adminOf("org-c"))) {
		t.Fatalf("admin of an unrelated org must be denied")
	}
	if resolve(t, p, NewQuery(nil, auth.RoleUser, map[string]any{"userId": "gone"}, adminOf("org-a"))) {
		t.Fatalf("missing target user must deny")
	}
}

func TestPipelineOrderOrgArgBeforeUserScan(t *testing.T) {
	target := &store.User{ID: "target", Memberships: []auth.Membership{{OrgID: "org-b", Role: auth.RoleUser}}}
	lookups := &fakeLookups{users: map[string]*store.User{"target": target}}
	p := NewPipeline(lookups)

	// Both orgId and userId present: the org-id strategy is registered
	// earlier and decides alone.
	args := map[string]any{"orgId": "org-a", "userId": "target"}
	if !resolve(t, p, NewQuery(nil, auth.RoleUser, args, userOf("org-a"))) {
		t.Fatalf("orgId strategy should decide before the user scan")
	}
	if len(lookups.called) != 0 {
		t.Fatalf("no lookup should run for an explicit orgId: %v", lookups.called)
	}
}

func TestAnonymousAlwaysDenied(t *testing.T) {
	lookups := &fakeLookups{
		services: map[string]*store.Service{"s1": {ID: "s1", OrgID: "org-a"}},
		users:    map[string]*store.User{"u2": {ID: "u2", Memberships: []auth.Membership{{OrgID: "org-a", Role: auth.RoleUser}}}},
	}
	p := NewPipeline(lookups)

	shapes := []Query{
		NewQuery(&store.Organization{ID: "org-a"}, auth.RoleUser, nil, anonymous()),
		NewQuery(nil, auth.RoleUser, map[string]any{"orgId": "org-a"}, anonymous()),
		NewQuery(nil, auth.RoleUser, map[string]any{"serviceId": "s1"}, anonymous()),
		NewQuery(nil, auth.RoleUser, map[string]any{"service": map[string]any{"orgId": "org-a"}}, anonymous()),
		NewQuery(nil, auth.RoleUser, map[string]any{"serviceAnswer": map[string]any{"serviceId": "s1"}}, anonymous()),
		NewQuery(nil, auth.RoleUser, map[string]any{"userId": "u2"}, anonymous()),
	}
	for i, q := range shapes {
		if resolve(t, p, q) {
			t.Fatalf("anonymous caller allowed by shape %d", i)
		}
	}
}

func TestNewQueryDefaultsRole(t *testing.T) {
	q := NewQuery(nil, "", nil, anonymous())
	if q.Required != auth.RoleUser {
		t.Fatalf("unspecified required role should default to user, got %q", q.Required)
	}
	q = NewQuery(nil, auth.RoleAdmin, nil, anonymous())
	if q.Required != auth.RoleAdmin {
		t.Fatalf("explicit admin requirement must be preserved")
	}
}
