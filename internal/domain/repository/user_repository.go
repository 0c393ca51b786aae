package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"userhub/internal/common"
	"userhub/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

// Tables: users (id, email, type, roles, created_at, updated_at),
// user_credentials (user_id, hashed_password),
// user_profiles (user_id, first_name, last_name, username).
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIDAndEmail(ctx context.Context, id, email string) (*model.User, error)
	FindAll(ctx context.Context) ([]*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userSelectColumns = `u.id, u.email, u.type, array_to_string(u.roles, ','),
	p.first_name, p.last_name, p.username, u.created_at, u.updated_at`

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, type, roles) VALUES ($1, $2, $3, string_to_array($4, ','))`,
		user.ID, user.Email, user.Type, rolesToCSV(user.Roles),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_credentials (user_id, hashed_password) VALUES ($1, $2)`,
		user.ID, user.HashedPassword,
	)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Create credential: %w", err)
	}

	if user.Profile != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_profiles (user_id, first_name, last_name, username) VALUES ($1, $2, $3, $4)`,
			user.ID, user.Profile.FirstName, user.Profile.LastName, user.Profile.Username,
		)
		if err != nil {
			return fmt.Errorf("pgUserRepository.Create profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgUserRepository.Create commit: %w", err)
	}
	return nil
}

// FindByEmail includes the credential record; it backs the login path.
func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userSelectColumns + `, c.hashed_password
	          FROM users u
	          JOIN user_credentials c ON c.user_id = u.id
	          LEFT JOIN user_profiles p ON p.user_id = u.id
	          WHERE u.email = $1`
	user, err := r.scanUser(r.db.QueryRowContext(ctx, query, email), true)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userSelectColumns + `
	          FROM users u
	          LEFT JOIN user_profiles p ON p.user_id = u.id
	          WHERE u.id = $1`
	user, err := r.scanUser(r.db.QueryRowContext(ctx, query, id), false)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByIDAndEmail(ctx context.Context, id, email string) (*model.User, error) {
	query := `SELECT ` + userSelectColumns + `
	          FROM users u
	          LEFT JOIN user_profiles p ON p.user_id = u.id
	          WHERE u.id = $1 AND u.email = $2`
	user, err := r.scanUser(r.db.QueryRowContext(ctx, query, id, email), false)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.FindByIDAndEmail: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userSelectColumns + `
	          FROM users u
	          LEFT JOIN user_profiles p ON p.user_id = u.id
	          ORDER BY u.created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := r.scanUser(rows, false)
		if err != nil {
			return nil, fmt.Errorf("pgUserRepository.FindAll: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgUserRepository.FindAll: %w", err)
	}
	return users, nil
}

func (r *pgUserRepository) Update(ctx context.Context, user *model.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET email = $2, type = $3, roles = string_to_array($4, ','), updated_at = now()
		 WHERE id = $1`,
		user.ID, user.Email, user.Type, rolesToCSV(user.Roles),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Update: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return common.ErrNotFound
	}

	if user.HashedPassword != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE user_credentials SET hashed_password = $2 WHERE user_id = $1`,
			user.ID, user.HashedPassword,
		)
		if err != nil {
			return fmt.Errorf("pgUserRepository.Update credential: %w", err)
		}
	}

	if user.Profile != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_profiles (user_id, first_name, last_name, username)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (user_id) DO UPDATE
			 SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, username = EXCLUDED.username`,
			user.ID, user.Profile.FirstName, user.Profile.LastName, user.Profile.Username,
		)
		if err != nil {
			return fmt.Errorf("pgUserRepository.Update profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgUserRepository.Update commit: %w", err)
	}
	return nil
}

func (r *pgUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Delete: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *pgUserRepository) scanUser(row rowScanner, withCredential bool) (*model.User, error) {
	user := &model.User{}
	var rolesCSV string
	var firstName, lastName, username sql.NullString

	dest := []interface{}{
		&user.ID, &user.Email, &user.Type, &rolesCSV,
		&firstName, &lastName, &username, &user.CreatedAt, &user.UpdatedAt,
	}
	if withCredential {
		dest = append(dest, &user.HashedPassword)
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}

	user.Roles = rolesFromCSV(rolesCSV)
	if firstName.Valid || lastName.Valid || username.Valid {
		user.Profile = &model.Profile{
			FirstName: firstName.String,
			LastName:  lastName.String,
			Username:  username.String,
		}
	}
	return user, nil
}

func rolesToCSV(roles []model.UserRole) string {
	parts := make([]string, 0, len(roles))
	for _, role := range roles {
		parts = append(parts, string(role))
	}
	return strings.Join(parts, ",")
}

func rolesFromCSV(csv string) []model.UserRole {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	roles := make([]model.UserRole, 0, len(parts))
	for _, part := range parts {
		roles = append(roles, model.UserRole(part))
	}
	return roles
}
