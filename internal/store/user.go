package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const userColumns = `id, username, email, password_hash, is_online, last_seen, joined_at, description, avatar_url, avatar_key`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsOnline, &u.LastSeen,
		&u.JoinedAt, &u.Description, &u.AvatarURL, &u.AvatarKey); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user, assigning an id when empty. The email is
// stored lower-cased. Returns ErrDuplicate if the username or email is taken.
func (db *DB) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(u.Email)
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, boolInt(u.IsOnline), u.LastSeen,
		u.JoinedAt, u.Description, u.AvatarURL, u.AvatarKey)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

func (db *DB) getUserWhere(ctx context.Context, where string, arg any) (*User, error) {
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser returns a user by id, or nil if absent.
func (db *DB) GetUser(ctx context.Context, id string) (*User, error) {
	return db.getUserWhere(ctx, `id = ?`, id)
}

// GetUserByEmail returns a user by email (case-insensitive), or nil if absent.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return db.getUserWhere(ctx, `email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

// GetUserByUsername returns a user by exact username, or nil if absent.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return db.getUserWhere(ctx, `username = ?`, username)
}

// UsernameTaken reports whether another user already holds username.
// The comparison is exact and case-sensitive.
func (db *DB) UsernameTaken(ctx context.Context, username, excludeID string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? AND id <> ?`, username, excludeID).Scan(&n)
	return n > 0, err
}

// UpdateUsername sets the username of a user.
func (db *DB) UpdateUsername(ctx context.Context, id, username string) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET username = ? WHERE id = ?`, username, id)
	if err != nil {
		return fmt.Errorf("update username: %w", translate(err))
	}
	return nil
}

// UpdateDescription sets the profile description of a user.
func (db *DB) UpdateDescription(ctx context.Context, id, description string) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET description = ? WHERE id = ?`, description, id)
	return err
}

// UpdateAvatar sets the avatar URL and blob key of a user.
func (db *DB) UpdateAvatar(ctx context.Context, id, url, key string) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET avatar_url = ?, avatar_key = ? WHERE id = ?`, url, key, id)
	return err
}

// UpdatePasswordHash replaces the stored credential of a user.
func (db *DB) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	return err
}

// SetPresence sets is_online and stamps last_seen. It returns false when the
// user does not exist.
func (db *DB) SetPresence(ctx context.Context, id string, online bool, at int64) (bool, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE users SET is_online = ?, last_seen = ? WHERE id = ?`, boolInt(online), at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// StaleUser is a user taken offline by MarkStaleOffline.
type StaleUser struct {
	ID       string
	LastSeen int64
}

// MarkStaleOffline clears is_online for users whose last_seen is older than
// before. last_seen is left as the final heartbeat.
func (db *DB) MarkStaleOffline(ctx context.Context, before int64) ([]StaleUser, error) {
	rows, err := db.QueryContext(ctx, `
		UPDATE users SET is_online = 0
		WHERE is_online = 1 AND last_seen < ?
		RETURNING id, last_seen`, before)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []StaleUser
	for rows.Next() {
		var u StaleUser
		if err := rows.Scan(&u.ID, &u.LastSeen); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountOnline returns the number of users flagged online.
func (db *DB) CountOnline(ctx context.Context) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE is_online = 1`).Scan(&n)
	return n, err
}

// ListUsers returns every user except excludeID, ordered by username.
func (db *DB) ListUsers(ctx context.Context, excludeID string, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id <> ?
		ORDER BY username
		LIMIT ?`, excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
