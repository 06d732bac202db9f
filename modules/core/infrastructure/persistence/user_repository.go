package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/caseweave/caseweave/modules/core/domain/aggregates/user"
	"github.com/caseweave/caseweave/modules/core/infrastructure/persistence/models"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/repo"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUserEmailTaken = errors.New("user email already taken")
)

const (
	userFindQuery = `
        SELECT
            u.id,
            u.tenant_id,
            u.first_name,
            u.last_name,
            u.email,
            u.ui_language,
            u.created_at,
            u.updated_at
        FROM users u`

	userCountQuery = `SELECT COUNT(u.id) FROM users u`

	userExistsQuery = `SELECT 1 FROM users u`

	userInsertQuery = `
        INSERT INTO users (id, tenant_id, first_name, last_name, email, ui_language, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	userUpdateQuery = `
        UPDATE users
        SET first_name = $1, last_name = $2, email = $3, ui_language = $4, updated_at = $5
        WHERE id = $6 AND tenant_id = $7`

	userDeleteQuery = `DELETE FROM users WHERE id = $1 AND tenant_id = $2`
)

type PgUserRepository struct {
	fieldMap map[user.Field]string
}

func NewUserRepository() user.Repository {
	return &PgUserRepository{
		fieldMap: map[user.Field]string{
			user.FirstNameField: "u.first_name",
			user.LastNameField:  "u.last_name",
			user.EmailField:     "u.email",
			user.CreatedAtField: "u.created_at",
			user.UpdatedAtField: "u.updated_at",
		},
	}
}

func (g *PgUserRepository) buildUserFilters(ctx context.Context, params *user.FindParams) ([]string, []interface{}, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get tenant from context")
	}

	where := []string{"u.tenant_id = $1"}
	args := []interface{}{tenantID}

	for _, filter := range params.Filters {
		column, ok := g.fieldMap[filter.Column]
		if !ok {
			return nil, nil, errors.Wrap(fmt.Errorf("unknown filter field: %v", filter.Column), "invalid filter")
		}

		where = append(where, filter.Filter.String(column, len(args)+1))
		args = append(args, filter.Filter.Value()...)
	}

	if params.Search != "" {
		index := len(args) + 1
		where = append(
			where,
			fmt.Sprintf(
				"(u.first_name ILIKE $%d OR u.last_name ILIKE $%d OR u.email ILIKE $%d)",
				index,
				index,
				index,
			),
		)
		args = append(args, "%"+params.Search+"%")
	}

	return where, args, nil
}

func (g *PgUserRepository) GetPaginated(ctx context.Context, params *user.FindParams) ([]user.User, error) {
	where, args, err := g.buildUserFilters(ctx, params)
	if err != nil {
		return nil, err
	}

	query := repo.Join(
		userFindQuery,
		repo.JoinWhere(where...),
		params.SortBy.ToSQL(g.fieldMap),
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	users, err := g.queryUsers(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get paginated users")
	}
	return users, nil
}

func (g *PgUserRepository) Count(ctx context.Context, params *user.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	where, args, err := g.buildUserFilters(ctx, params)
	if err != nil {
		return 0, err
	}

	query := repo.Join(
		userCountQuery,
		repo.JoinWhere(where...),
	)

	var count int64
	err = tx.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}
	return count, nil
}

func (g *PgUserRepository) GetAll(ctx context.Context) ([]user.User, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}

	users, err := g.queryUsers(ctx, userFindQuery+" WHERE u.tenant_id = $1", tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get all users")
	}
	return users, nil
}

func (g *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	tenantID, err := composables.UseTenantID(ctx)

	var users []user.User
	if err == nil {
		users, err = g.queryUsers(ctx, userFindQuery+" WHERE u.id = $1 AND u.tenant_id = $2", id, tenantID)
	} else {
		users, err = g.queryUsers(ctx, userFindQuery+" WHERE u.id = $1", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to query user with id: %s", id))
	}

	if len(users) == 0 {
		return nil, fmt.Errorf("id: %s: %w", id, ErrUserNotFound)
	}

	return users[0], nil
}

func (g *PgUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}

	users, err := g.queryUsers(ctx, userFindQuery+" WHERE u.email = $1 AND u.tenant_id = $2", email, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to query user with email: %s", email))
	}

	if len(users) == 0 {
		return nil, fmt.Errorf("email: %s: %w", email, ErrUserNotFound)
	}

	return users[0], nil
}

func (g *PgUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to get transaction")
	}

	base := repo.Join(userExistsQuery, "WHERE u.email = $1")
	query := repo.Exists(base)

	exists := false
	if err := tx.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "checking email existence failed")
	}
	return exists, nil
}

func (g *PgUserRepository) Create(ctx context.Context, data user.User) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}

	dbUser := toDBUser(data)
	dbUser.TenantID = tenantID.String()

	if _, err := tx.Exec(
		ctx,
		userInsertQuery,
		dbUser.ID,
		dbUser.TenantID,
		dbUser.FirstName,
		dbUser.LastName,
		dbUser.Email,
		dbUser.UILanguage,
		dbUser.CreatedAt,
		dbUser.UpdatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrUserEmailTaken
		}
		return nil, errors.Wrap(err, "failed to create user")
	}

	return g.GetByID(ctx, data.ID())
}

func (g *PgUserRepository) Update(ctx context.Context, data user.User) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}

	dbUser := toDBUser(data)
	if _, err := tx.Exec(
		ctx,
		userUpdateQuery,
		dbUser.FirstName,
		dbUser.LastName,
		dbUser.Email,
		dbUser.UILanguage,
		dbUser.UpdatedAt,
		dbUser.ID,
		tenantID.String(),
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUserEmailTaken
		}
		return errors.Wrap(err, "failed to update user")
	}
	return nil
}

func (g *PgUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}

	if _, err := tx.Exec(ctx, userDeleteQuery, id, tenantID.String()); err != nil {
		return errors.Wrap(err, "failed to delete user")
	}
	return nil
}

func (g *PgUserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID,
			&u.TenantID,
			&u.FirstName,
			&u.LastName,
			&u.Email,
			&u.UILanguage,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user row")
		}
		entity, err := ToDomainUser(&u)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map user row")
		}
		users = append(users, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return users, nil
}
