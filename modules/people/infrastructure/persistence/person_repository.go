package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/caseweave/caseweave/modules/people/domain/aggregates/person"
	"github.com/caseweave/caseweave/modules/people/infrastructure/persistence/models"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/repo"
)

const (
	personFindQuery = `
        SELECT
            p.id,
            p.tenant_id,
            p.type,
            p.source,
            p.status,
            p.first_name,
            p.last_name,
            p.display_name,
            p.email,
            p.external_ref,
            p.merged_into_id,
            p.created_at,
            p.updated_at
        FROM persons p`

	personCountQuery = `SELECT COUNT(p.id) FROM persons p`

	personInsertQuery = `
        INSERT INTO persons (
            id, tenant_id, type, source, status, first_name, last_name,
            display_name, email, external_ref, merged_into_id, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	personUpdateQuery = `
        UPDATE persons
        SET status = $1, first_name = $2, last_name = $3, display_name = $4,
            email = $5, external_ref = $6, merged_into_id = $7, updated_at = $8
        WHERE id = $9 AND tenant_id = $10`
)

type PgPersonRepository struct{}

func NewPersonRepository() person.Repository {
	return &PgPersonRepository{}
}

func (g *PgPersonRepository) buildPersonFilters(ctx context.Context, params *person.FindParams) ([]string, []interface{}, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get tenant from context")
	}

	where := []string{"p.tenant_id = $1"}
	args := []interface{}{tenantID}

	if params.Type != "" {
		where = append(where, fmt.Sprintf("p.type = $%d", len(args)+1))
		args = append(args, string(params.Type))
	}

	if params.Status != "" {
		where = append(where, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, string(params.Status))
	}

	if params.Q != "" {
		index := len(args) + 1
		where = append(
			where,
			fmt.Sprintf(
				"(p.first_name ILIKE $%d OR p.last_name ILIKE $%d OR p.display_name ILIKE $%d OR p.external_ref ILIKE $%d)",
				index,
				index,
				index,
				index,
			),
		)
		args = append(args, "%"+params.Q+"%")
	}

	return where, args, nil
}

func (g *PgPersonRepository) GetPaginated(ctx context.Context, params *person.FindParams) ([]person.Person, int64, error) {
	if params == nil {
		params = &person.FindParams{}
	}

	where, args, err := g.buildPersonFilters(ctx, params)
	if err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	query := repo.Join(
		personFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY p.display_name, p.id",
		repo.FormatLimitOffset(limit, offset),
	)
	persons, err := g.queryPersons(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to get paginated persons")
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to get transaction")
	}

	countQuery := repo.Join(personCountQuery, repo.JoinWhere(where...))
	var total int64
	if err := tx.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count persons")
	}

	return persons, total, nil
}

func (g *PgPersonRepository) GetByID(ctx context.Context, id uuid.UUID) (person.Person, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return person.Person{}, errors.Wrap(err, "failed to get tenant from context")
	}

	persons, err := g.queryPersons(ctx, personFindQuery+" WHERE p.id = $1 AND p.tenant_id = $2", id, tenantID)
	if err != nil {
		return person.Person{}, errors.Wrap(err, fmt.Sprintf("failed to query person with id: %s", id))
	}

	if len(persons) == 0 {
		return person.Person{}, fmt.Errorf("id: %s: %w", id, person.ErrNotFound)
	}

	return persons[0], nil
}

func (g *PgPersonRepository) GetManyByIDs(ctx context.Context, ids []uuid.UUID) ([]person.Person, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}

	persons, err := g.queryPersons(ctx, personFindQuery+" WHERE p.tenant_id = $1 AND p.id = ANY($2)", tenantID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query persons by ids")
	}
	return persons, nil
}

func (g *PgPersonRepository) GetAnonymous(ctx context.Context) (person.Person, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return person.Person{}, errors.Wrap(err, "failed to get tenant from context")
	}

	persons, err := g.queryPersons(ctx, personFindQuery+" WHERE p.tenant_id = $1 AND p.type = $2", tenantID, string(person.TypeAnonymous))
	if err != nil {
		return person.Person{}, errors.Wrap(err, "failed to query anonymous placeholder")
	}

	if len(persons) == 0 {
		return person.Person{}, fmt.Errorf("anonymous placeholder: %w", person.ErrNotFound)
	}

	return persons[0], nil
}

func (g *PgPersonRepository) Create(ctx context.Context, data person.Person) (person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return person.Person{}, errors.Wrap(err, "failed to get tenant from context")
	}

	row := toDBPerson(data)
	row.TenantID = tenantID.String()

	if _, err := tx.Exec(
		ctx,
		personInsertQuery,
		row.ID,
		row.TenantID,
		row.Type,
		row.Source,
		row.Status,
		row.FirstName,
		row.LastName,
		row.DisplayName,
		row.Email,
		row.ExternalRef,
		row.MergedIntoID,
		row.CreatedAt,
		row.UpdatedAt,
	); err != nil {
		return person.Person{}, mapPersonPgError(err, "failed to create person")
	}

	return g.GetByID(ctx, data.ID())
}

func (g *PgPersonRepository) Update(ctx context.Context, data person.Person) (person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return person.Person{}, errors.Wrap(err, "failed to get tenant from context")
	}

	row := toDBPerson(data)
	if _, err := tx.Exec(
		ctx,
		personUpdateQuery,
		row.Status,
		row.FirstName,
		row.LastName,
		row.DisplayName,
		row.Email,
		row.ExternalRef,
		row.MergedIntoID,
		row.UpdatedAt,
		row.ID,
		tenantID.String(),
	); err != nil {
		return person.Person{}, mapPersonPgError(err, "failed to update person")
	}

	return g.GetByID(ctx, data.ID())
}

// mapPersonPgError translates unique violations into the domain sentinels;
// the constraint name tells the two partial indexes apart.
func mapPersonPgError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "persons_anonymous_singleton":
			return person.ErrAnonymousExists
		case "persons_tenant_external_ref_key":
			return person.ErrExternalRefTaken
		}
	}
	return errors.Wrap(err, msg)
}

func (g *PgPersonRepository) queryPersons(ctx context.Context, query string, args ...interface{}) ([]person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var persons []person.Person
	for rows.Next() {
		var row models.Person
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.Type,
			&row.Source,
			&row.Status,
			&row.FirstName,
			&row.LastName,
			&row.DisplayName,
			&row.Email,
			&row.ExternalRef,
			&row.MergedIntoID,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan person row")
		}
		entity, err := ToDomainPerson(&row)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map person row")
		}
		persons = append(persons, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return persons, nil
}
