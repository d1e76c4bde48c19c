// Package pg implements the store contracts on PostgreSQL through the pgx
// stdlib driver.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"caseflow.org/internal/auth"
	"caseflow.org/internal/store"
)

var _ store.Directory = (*Store)(nil)

// Store holds the shared connection pool.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL with tuned pool defaults.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing pool (used by tests with sqlmock).
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the pool for readiness probes.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) OrganizationByID(ctx context.Context, id string) (*store.Organization, error) {
	var org store.Organization
	err := s.db.QueryRowContext(ctx, `
		select id, name, created_at, updated_at
		from organizations
		where id = $1
	`, id).Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, mapRowErr(err, "organization")
	}
	return &org, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*store.User, error) {
	var u store.User
	err := s.db.QueryRowContext(ctx, `
		select id, email, password_hash, created_at, updated_at
		from users
		where id = $1
	`, id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapRowErr(err, "user")
	}
	if err := s.loadMemberships(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*store.User, error) {
	var u store.User
	err := s.db.QueryRowContext(ctx, `
		select id, email, password_hash, created_at, updated_at
		from users
		where lower(email) = lower($1)
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapRowErr(err, "user")
	}
	if err := s.loadMemberships(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) loadMemberships(ctx context.Context, u *store.User) error {
	rows, err := s.db.QueryContext(ctx, `
		select organization_id, role
		from memberships
		where user_id = $1
	`, u.ID)
	if err != nil {
		return fmt.Errorf("load memberships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orgID string
			raw   string
		)
		if err := rows.Scan(&orgID, &raw); err != nil {
			return err
		}
		role, ok := auth.ParseRoleKind(raw)
		if !ok {
			// Unknown role kinds grant nothing; drop the row.
			continue
		}
		u.Memberships = append(u.Memberships, auth.Membership{OrgID: orgID, Role: role})
	}
	return rows.Err()
}

func (s *Store) EngagementByID(ctx context.Context, id string) (*store.Engagement, error) {
	var e store.Engagement
	err := s.db.QueryRowContext(ctx, `
		select id, organization_id, contact_id, status, created_at, updated_at
		from engagements
		where id = $1
	`, id).Scan(&e.ID, &e.OrgID, &e.ContactID, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, mapRowErr(err, "engagement")
	}
	return &e, nil
}

func (s *Store) ContactByID(ctx context.Context, id string) (*store.Contact, error) {
	var c store.Contact
	err := s.db.QueryRowContext(ctx, `
		select id, organization_id, first_name, last_name, email, created_at, updated_at
		from contacts
		where id = $1
	`, id).Scan(&c.ID, &c.OrgID, &c.FirstName, &c.LastName, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapRowErr(err, "contact")
	}
	return &c, nil
}

func (s *Store) TagByID(ctx context.Context, id string) (*store.Tag, error) {
	var t store.Tag
	err := s.db.QueryRowContext(ctx, `
		select id, organization_id, name, created_at
		from tags
		where id = $1
	`, id).Scan(&t.ID, &t.OrgID, &t.Name, &t.CreatedAt)
	if err != nil {
		return nil, mapRowErr(err, "tag")
	}
	return &t, nil
}

func (s *Store) ServiceByID(ctx context.Context, id string) (*store.Service, error) {
	var svc store.Service
	err := s.db.QueryRowContext(ctx, `
		select id, organization_id, name, created_at, updated_at
		from services
		where id = $1
	`, id).Scan(&svc.ID, &svc.OrgID, &svc.Name, &svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		return nil, mapRowErr(err, "service")
	}
	return &svc, nil
}

func (s *Store) ServiceAnswerByID(ctx context.Context, id string) (*store.ServiceAnswer, error) {
	var a store.ServiceAnswer
	err := s.db.QueryRowContext(ctx, `
		select id, service_id, engagement_id, value, created_at
		from service_answers
		where id = $1
	`, id).Scan(&a.ID, &a.ServiceID, &a.EngagementID, &a.Value, &a.CreatedAt)
	if err != nil {
		return nil, mapRowErr(err, "service answer")
	}
	return &a, nil
}

// IdentityByID satisfies auth.IdentityStore.
func (s *Store) IdentityByID(ctx context.Context, id string) (*auth.Identity, error) {
	u, err := s.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Identity(), nil
}

// CredentialsByEmail satisfies auth.CredentialStore.
func (s *Store) CredentialsByEmail(ctx context.Context, email string) (*auth.Credentials, error) {
	u, err := s.UserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &auth.Credentials{UserID: u.ID, Email: u.Email, PasswordHash: u.PasswordHash}, nil
}

// UpdatePassword satisfies auth.CredentialStore.
func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		update users set password_hash = $2, updated_at = now()
		where id = $1
	`, userID, passwordHash)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapRowErr(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", entity, store.ErrNotFound)
	}
	return err
}
