package tenant

import (
	"time"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/core/domain/value_objects/internet"
)

// Tenant is one organization on the platform. Every report, case and
// association row carries its id; the host middleware resolves it from
// the request domain.
type Tenant struct {
	id           uuid.UUID
	name         string
	domain       string
	contactEmail internet.Email
	isActive     bool
	createdAt    time.Time
	updatedAt    time.Time
}

type Option func(*Tenant)

func WithID(id uuid.UUID) Option {
	return func(t *Tenant) {
		t.id = id
	}
}

func WithDomain(domain string) Option {
	return func(t *Tenant) {
		t.domain = domain
	}
}

func WithContactEmail(e internet.Email) Option {
	return func(t *Tenant) {
		t.contactEmail = e
	}
}

func WithIsActive(isActive bool) Option {
	return func(t *Tenant) {
		t.isActive = isActive
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(t *Tenant) {
		t.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(t *Tenant) {
		t.updatedAt = updatedAt
	}
}

func New(name string, opts ...Option) *Tenant {
	t := &Tenant{
		id:        uuid.New(),
		name:      name,
		isActive:  true,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tenant) ID() uuid.UUID {
	return t.id
}

func (t *Tenant) Name() string {
	return t.name
}

func (t *Tenant) Domain() string {
	return t.domain
}

func (t *Tenant) ContactEmail() internet.Email {
	return t.contactEmail
}

func (t *Tenant) IsActive() bool {
	return t.isActive
}

func (t *Tenant) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Tenant) UpdatedAt() time.Time {
	return t.updatedAt
}

func (t *Tenant) SetName(name string) {
	t.name = name
	t.updatedAt = time.Now()
}

func (t *Tenant) SetDomain(domain string) {
	t.domain = domain
	t.updatedAt = time.Now()
}

func (t *Tenant) SetContactEmail(e internet.Email) {
	t.contactEmail = e
	t.updatedAt = time.Now()
}

func (t *Tenant) SetIsActive(isActive bool) {
	t.isActive = isActive
	t.updatedAt = time.Now()
}
