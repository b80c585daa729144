package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/otpgate/otpgate/internal/auth/entity"
)

const userColumns = `id, username, email, phone, password, role, status, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.Phone,
		&u.Password,
		&u.Role,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *DB) CreateUser(ctx context.Context, user entity.NewUser) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO auth_users (id, username, email, phone, password, role, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Username, user.Email, user.Phone, user.Password, user.Role, user.Status,
	)

	err = s.mapError(err)
	return err
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx,
		`SELECT `+userColumns+` FROM auth_users WHERE id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func (s *DB) GetUserByUsername(ctx context.Context, username string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByUsername")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx,
		`SELECT `+userColumns+` FROM auth_users WHERE username = $1`, username))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx,
		`SELECT `+userColumns+` FROM auth_users WHERE email = $1 AND email <> ''`, email))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func (s *DB) GetUserByPhone(ctx context.Context, phone string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByPhone")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx,
		`SELECT `+userColumns+` FROM auth_users WHERE phone = $1 AND phone <> ''`, phone))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

// GetUserByIdentifier resolves a login identifier against username, email,
// and phone in one round trip.
func (s *DB) GetUserByIdentifier(ctx context.Context, identifier string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByIdentifier")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx, `
		SELECT `+userColumns+` FROM auth_users
		WHERE username = $1
			OR (email = $1 AND email <> '')
			OR (phone = $1 AND phone <> '')
		LIMIT 1`, identifier))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func (s *DB) DeleteUser(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM auth_users WHERE id = $1`, id)

	err = s.mapError(err)
	return err
}

// UpdateUserStatus transitions the user from oldStatus to newStatus. It
// returns goerror.ErrNotFound when the user is missing or no longer in
// oldStatus.
func (s *DB) UpdateUserStatus(ctx context.Context, id int64, oldStatus, newStatus entity.UserStatus) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserStatus")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE auth_users SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		newStatus, id, oldStatus,
	)
	if err != nil {
		err = s.mapError(err)
		return err
	}

	if tag.RowsAffected() == 0 {
		err = s.mapError(pgx.ErrNoRows)
		return err
	}

	return nil
}

func (s *DB) GetUserList(ctx context.Context, filter entity.UserListFilter) (_ []entity.User, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "GetUserList")
	defer func() { s.endSpan(span, err) }()

	where := make([]string, 0, 2)
	args := make([]any, 0, 4)

	if filter.IsFilterBySearch {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf(`(username ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)`,
			len(args), len(args), len(args)))
	}
	if filter.IsFilterByStatus {
		args = append(args, filter.Statuses)
		where = append(where, fmt.Sprintf(`status = ANY($%d)`, len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var count int64
	if err = s.conn.QueryRow(ctx, `SELECT count(*) FROM auth_users`+clause, args...).Scan(&count); err != nil {
		return nil, 0, s.mapError(err)
	}

	offset := int64(filter.Page-1) * int64(filter.Size)
	if offset < 0 {
		offset = 0
	}

	rows, err := s.conn.Query(ctx, fmt.Sprintf(`
		SELECT `+userColumns+` FROM auth_users`+clause+`
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2),
		append(args, filter.Size, offset)...,
	)
	if err != nil {
		return nil, 0, s.mapError(err)
	}
	defer rows.Close()

	users := make([]entity.User, 0, filter.Size)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, s.mapError(err)
		}
		users = append(users, *user)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, s.mapError(err)
	}

	return users, count, nil
}

// DeleteUnverifiedUsersBefore removes accounts that never completed signup
// verification within the grace period.
func (s *DB) DeleteUnverifiedUsersBefore(ctx context.Context, cutoff time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteUnverifiedUsersBefore")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		DELETE FROM auth_users WHERE status = $1 AND created_at < $2`,
		entity.UserStatusUnverified, cutoff,
	)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (s *DB) GetUserStats(ctx context.Context) (_ *entity.UserStats, err error) {
	ctx, span := s.startSpan(ctx, "GetUserStats")
	defer func() { s.endSpan(span, err) }()

	var stats entity.UserStats
	err = s.conn.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM auth_users),
			(SELECT count(*) FROM auth_users WHERE status = $1),
			(SELECT count(*) FROM auth_users WHERE status = $2),
			(SELECT count(*) FROM auth_otp_challenges WHERE expires_at > now()),
			(SELECT count(*) FROM auth_refresh_tokens WHERE NOT revoked AND expires_at > now())`,
		entity.UserStatusActive, entity.UserStatusUnverified,
	).Scan(
		&stats.TotalUsers,
		&stats.VerifiedUsers,
		&stats.UnverifiedUsers,
		&stats.LiveOtpChallenges,
		&stats.ActiveSessions,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &stats, nil
}
