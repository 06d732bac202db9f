package person

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type classifies the party. Set once at creation, immutable afterwards.
type Type string

const (
	TypeEmployee  Type = "EMPLOYEE"
	TypeExternal  Type = "EXTERNAL"
	TypeAnonymous Type = "ANONYMOUS"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeEmployee, TypeExternal, TypeAnonymous:
		return true
	}
	return false
}

// Source records where the record came from. Set once at creation.
type Source string

const (
	SourceHRIS   Source = "HRIS"
	SourceManual Source = "MANUAL"
	SourceIntake Source = "INTAKE"
)

func (s Source) IsValid() bool {
	switch s {
	case SourceHRIS, SourceManual, SourceIntake:
		return true
	}
	return false
}

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusMerged   Status = "MERGED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusMerged:
		return true
	}
	return false
}

// Person is a party referenced by reports and cases: an employee, an
// external contact, or the per-tenant anonymous placeholder. Identity
// fields stay mutable; type and source are fixed at creation. Persons are
// never deleted, a duplicate record is marked MERGED and points at the
// surviving one.
type Person struct {
	id           uuid.UUID
	tenantID     uuid.UUID
	personType   Type
	source       Source
	status       Status
	firstName    string
	lastName     string
	displayName  string
	email        string
	externalRef  string
	mergedIntoID uuid.UUID
	createdAt    time.Time
	updatedAt    time.Time
}

func New(tenantID uuid.UUID, personType Type, source Source, firstName, lastName string) Person {
	p := Person{
		id:         uuid.New(),
		tenantID:   tenantID,
		personType: personType,
		source:     source,
		status:     StatusActive,
		firstName:  strings.TrimSpace(firstName),
		lastName:   strings.TrimSpace(lastName),
		createdAt:  time.Now(),
		updatedAt:  time.Now(),
	}
	p.displayName = defaultDisplayName(p.firstName, p.lastName)
	return p
}

// NewAnonymous builds the per-tenant anonymous placeholder. The repository
// enforces the one-per-tenant rule with a partial unique index.
func NewAnonymous(tenantID uuid.UUID) Person {
	p := New(tenantID, TypeAnonymous, SourceIntake, "", "")
	p.displayName = "Anonymous"
	return p
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	personType Type,
	source Source,
	status Status,
	firstName string,
	lastName string,
	displayName string,
	email string,
	externalRef string,
	mergedIntoID uuid.UUID,
	createdAt time.Time,
	updatedAt time.Time,
) Person {
	return Person{
		id:           id,
		tenantID:     tenantID,
		personType:   personType,
		source:       source,
		status:       status,
		firstName:    firstName,
		lastName:     lastName,
		displayName:  displayName,
		email:        email,
		externalRef:  externalRef,
		mergedIntoID: mergedIntoID,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (p Person) ID() uuid.UUID           { return p.id }
func (p Person) TenantID() uuid.UUID     { return p.tenantID }
func (p Person) Type() Type              { return p.personType }
func (p Person) Source() Source          { return p.source }
func (p Person) Status() Status          { return p.status }
func (p Person) FirstName() string       { return p.firstName }
func (p Person) LastName() string        { return p.lastName }
func (p Person) DisplayName() string     { return p.displayName }
func (p Person) Email() string           { return p.email }
func (p Person) ExternalRef() string     { return p.externalRef }
func (p Person) MergedIntoID() uuid.UUID { return p.mergedIntoID }
func (p Person) CreatedAt() time.Time    { return p.createdAt }
func (p Person) UpdatedAt() time.Time    { return p.updatedAt }

func (p Person) IsAnonymous() bool { return p.personType == TypeAnonymous }
func (p Person) IsMerged() bool    { return p.status == StatusMerged }
func (p Person) IsZero() bool      { return p.id == uuid.Nil }

func (p Person) Rename(firstName, lastName string) Person {
	p.firstName = strings.TrimSpace(firstName)
	p.lastName = strings.TrimSpace(lastName)
	if p.displayName == "" {
		p.displayName = defaultDisplayName(p.firstName, p.lastName)
	}
	p.updatedAt = time.Now()
	return p
}

func (p Person) SetDisplayName(displayName string) Person {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = defaultDisplayName(p.firstName, p.lastName)
	}
	p.displayName = displayName
	p.updatedAt = time.Now()
	return p
}

func (p Person) SetEmail(email string) Person {
	p.email = strings.ToLower(strings.TrimSpace(email))
	p.updatedAt = time.Now()
	return p
}

func (p Person) SetExternalRef(ref string) Person {
	p.externalRef = strings.TrimSpace(ref)
	p.updatedAt = time.Now()
	return p
}

func (p Person) SetStatus(status Status) Person {
	p.status = status
	p.updatedAt = time.Now()
	return p
}

// MarkMerged tombstones the record and points it at the survivor. The
// record itself stays readable forever.
func (p Person) MarkMerged(into uuid.UUID) Person {
	p.status = StatusMerged
	p.mergedIntoID = into
	p.updatedAt = time.Now()
	return p
}

func defaultDisplayName(firstName, lastName string) string {
	return strings.TrimSpace(firstName + " " + lastName)
}
