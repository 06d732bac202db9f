package user

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/core/domain/value_objects/internet"
)

// User is an operator account: intake officers, case managers, analysts.
// Authentication lives outside this service; callers identify themselves
// through the actor header and the account only carries identity and
// presentation preferences.
type User interface {
	ID() uuid.UUID
	TenantID() uuid.UUID
	FirstName() string
	LastName() string
	FullName() string
	Email() internet.Email
	UILanguage() UILanguage
	CreatedAt() time.Time
	UpdatedAt() time.Time

	Rename(firstName, lastName string) User
	SetEmail(email internet.Email) User
	SetUILanguage(language UILanguage) User
}

type Option func(u *userImpl)

func WithID(id uuid.UUID) Option {
	return func(u *userImpl) {
		u.id = id
	}
}

func WithTenantID(tenantID uuid.UUID) Option {
	return func(u *userImpl) {
		u.tenantID = tenantID
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(u *userImpl) {
		u.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(u *userImpl) {
		u.updatedAt = updatedAt
	}
}

func New(
	firstName, lastName string,
	email internet.Email,
	uiLanguage UILanguage,
	opts ...Option,
) User {
	u := &userImpl{
		id:         uuid.New(),
		firstName:  strings.TrimSpace(firstName),
		lastName:   strings.TrimSpace(lastName),
		email:      email,
		uiLanguage: uiLanguage,
		createdAt:  time.Now(),
		updatedAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type userImpl struct {
	id         uuid.UUID
	tenantID   uuid.UUID
	firstName  string
	lastName   string
	email      internet.Email
	uiLanguage UILanguage
	createdAt  time.Time
	updatedAt  time.Time
}

func (u *userImpl) ID() uuid.UUID {
	return u.id
}

func (u *userImpl) TenantID() uuid.UUID {
	return u.tenantID
}

func (u *userImpl) FirstName() string {
	return u.firstName
}

func (u *userImpl) LastName() string {
	return u.lastName
}

func (u *userImpl) FullName() string {
	return strings.TrimSpace(u.firstName + " " + u.lastName)
}

func (u *userImpl) Email() internet.Email {
	return u.email
}

func (u *userImpl) UILanguage() UILanguage {
	return u.uiLanguage
}

func (u *userImpl) CreatedAt() time.Time {
	return u.createdAt
}

func (u *userImpl) UpdatedAt() time.Time {
	return u.updatedAt
}

func (u *userImpl) Rename(firstName, lastName string) User {
	out := *u
	out.firstName = strings.TrimSpace(firstName)
	out.lastName = strings.TrimSpace(lastName)
	out.updatedAt = time.Now()
	return &out
}

func (u *userImpl) SetEmail(email internet.Email) User {
	out := *u
	out.email = email
	out.updatedAt = time.Now()
	return &out
}

func (u *userImpl) SetUILanguage(language UILanguage) User {
	out := *u
	out.uiLanguage = language
	out.updatedAt = time.Now()
	return &out
}
