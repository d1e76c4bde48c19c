// Package store defines the record types and lookup contracts the
// authorization core resolves organizations through. Implementations live in
// subpackages; tests use in-memory fakes.
package store

import (
	"context"
	"errors"
	"time"

	"caseflow.org/internal/auth"
)

// ErrNotFound reports a business not-found condition. Callers treat it as
// "cannot resolve", which flows into a deny, never into a retry.
var ErrNotFound = errors.New("store: not found")

// IsNotFound reports whether err is a business not-found condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Organization is the tenancy boundary every role check is scoped to.
type Organization struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is an account holding org-scoped role memberships.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Memberships  []auth.Membership
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity converts the record into the request-scoped identity shape.
func (u *User) Identity() *auth.Identity {
	if u == nil {
		return nil
	}
	memberships := make([]auth.Membership, len(u.Memberships))
	copy(memberships, u.Memberships)
	return &auth.Identity{ID: u.ID, Memberships: memberships}
}

// Engagement is a tracked support request owned by an organization.
type Engagement struct {
	ID        string
	OrgID     string
	ContactID string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Contact is a person an organization works with.
type Contact struct {
	ID        string
	OrgID     string
	FirstName string
	LastName  string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tag labels contacts and engagements within one organization.
type Tag struct {
	ID        string
	OrgID     string
	Name      string
	CreatedAt time.Time
}

// Service is an offering an organization tracks answers against.
type Service struct {
	ID        string
	OrgID     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ServiceAnswer records a response against a service. It carries no org id
// of its own; the owning org is reached through the referenced service.
type ServiceAnswer struct {
	ID           string
	ServiceID    string
	EngagementID string
	Value        string
	CreatedAt    time.Time
}

// Directory is the read-side lookup surface the authorization strategies and
// the identity builder depend on. Missing records surface as ErrNotFound;
// any other error is an infrastructure failure and propagates unmodified.
type Directory interface {
	OrganizationByID(ctx context.Context, id string) (*Organization, error)
	UserByID(ctx context.Context, id string) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	EngagementByID(ctx context.Context, id string) (*Engagement, error)
	ContactByID(ctx context.Context, id string) (*Contact, error)
	TagByID(ctx context.Context, id string) (*Tag, error)
	ServiceByID(ctx context.Context, id string) (*Service, error)
	ServiceAnswerByID(ctx context.Context, id string) (*ServiceAnswer, error)
}
