package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"blooddonation/internal/domain"
	"blooddonation/internal/infra"
	"blooddonation/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// Create inserts a user; the unique index on uid turns a second registration into ErrDuplicateIdentity.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) error {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertUser,
		user.ExternalID,
		user.Email,
		user.Name,
		user.AvatarURL,
		user.BloodGroup,
		user.District,
		user.Upazila,
		string(user.Role),
		string(user.Status),
	)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateIdentity
		}
		return classify("insert user", err)
	}
	return nil
}

// GetByExternalID fetches a user by uid.
func (r *UserRepositoryPG) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectUserByUID, externalID)
	u, err := scanUser(row)
	if err != nil {
		return nil, classify("select user", err)
	}
	return u, nil
}

func (r *UserRepositoryPG) UpdateRole(ctx context.Context, externalID string, role domain.UserRole) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateUserRole, externalID, string(role))
	if err != nil {
		return classify("update user role", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepositoryPG) UpdateStatus(ctx context.Context, externalID string, status domain.UserStatus) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateUserStatus, externalID, string(status))
	if err != nil {
		return classify("update user status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateProfile overwrites only the non-nil profile fields.
func (r *UserRepositoryPG) UpdateProfile(ctx context.Context, externalID string, update domain.ProfileUpdate) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QUpdateUserProfile,
		externalID,
		update.Name,
		update.AvatarURL,
		update.BloodGroup,
		update.District,
		update.Upazila,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, classify("update user profile", err)
	}
	return u, nil
}

func (r *UserRepositoryPG) List(ctx context.Context, filter domain.UserFilter, page domain.Page) ([]domain.User, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListUsers, string(filter.Status), string(filter.Role), page.Limit, page.Offset())
	if err != nil {
		return nil, classify("list users", err)
	}
	return collectUsers(rows)
}

func (r *UserRepositoryPG) Count(ctx context.Context, filter domain.UserFilter) (int, error) {
	var total int
	if err := r.sql.QueryRow(ctx, sqlinline.QCountUsers, string(filter.Status), string(filter.Role)).Scan(&total); err != nil {
		return 0, classify("count users", err)
	}
	return total, nil
}

// Search returns active users matching every non-empty criterion.
func (r *UserRepositoryPG) Search(ctx context.Context, criteria domain.DonorSearch) ([]domain.User, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSearchDonors, criteria.BloodGroup, criteria.District, criteria.Upazila)
	if err != nil {
		return nil, classify("search donors", err)
	}
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]domain.User, error) {
	defer rows.Close()
	items := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify("scan user", err)
		}
		items = append(items, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate users", err)
	}
	return items, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role, status string
	if err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.AvatarURL, &u.BloodGroup, &u.District, &u.Upazila, &role, &status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	u.Status = domain.UserStatus(status)
	return &u, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
