package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// EdgeFilter selects which contact requests ListContactEdges returns.
type EdgeFilter int

const (
	EdgeAccepted EdgeFilter = iota // accepted, either direction
	EdgeIncoming                   // pending, user is the recipient
	EdgeOutgoing                   // pending, user is the requester
)

// PairKey is the canonical key of the unordered pair {a, b}.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

const requestColumns = `id, from_id, to_id, status, created_at, COALESCE(accepted_at, 0)`

func scanRequest(row interface{ Scan(...any) error }) (*ContactRequest, error) {
	var r ContactRequest
	if err := row.Scan(&r.ID, &r.FromID, &r.ToID, &r.Status, &r.CreatedAt, &r.AcceptedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateContactRequest inserts a pending request, assigning an id when empty.
// The pair_key index guarantees at most one record per unordered pair;
// ErrDuplicate is returned when one already exists.
func (db *DB) CreateContactRequest(ctx context.Context, r *ContactRequest) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = RequestPending
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO contact_requests (id, from_id, to_id, pair_key, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.FromID, r.ToID, PairKey(r.FromID, r.ToID), r.Status, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert contact request: %w", translate(err))
	}
	return nil
}

// GetContactRequest returns a request by id, or nil if absent.
func (db *DB) GetContactRequest(ctx context.Context, id string) (*ContactRequest, error) {
	r, err := scanRequest(db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM contact_requests WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// FindContactRequest returns the request between a and b in either
// direction, or nil. If more than one is ever present the earliest wins.
func (db *DB) FindContactRequest(ctx context.Context, a, b string) (*ContactRequest, error) {
	r, err := scanRequest(db.QueryRowContext(ctx, `
		SELECT `+requestColumns+`
		FROM contact_requests
		WHERE pair_key = ?
		ORDER BY created_at ASC, id ASC
		LIMIT 1`, PairKey(a, b)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// AcceptContactRequest moves a pending request to accepted. It reports
// false when no pending row with id exists.
func (db *DB) AcceptContactRequest(ctx context.Context, id string, at int64) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE contact_requests SET status = ?, accepted_at = ?
		WHERE id = ? AND status = ?`, RequestAccepted, at, id, RequestPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteContactRequest removes a request regardless of status.
func (db *DB) DeleteContactRequest(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM contact_requests WHERE id = ?`, id)
	return err
}

// ListContactEdges returns requests touching userID joined with the other
// endpoint's user record. Accepted edges are newest accepted first, pending
// edges newest created first.
func (db *DB) ListContactEdges(ctx context.Context, userID string, filter EdgeFilter) ([]ContactEdge, error) {
	var where, order string
	switch filter {
	case EdgeAccepted:
		where = `r.status = 'accepted' AND (r.from_id = ?1 OR r.to_id = ?1)`
		order = `r.accepted_at DESC, r.id`
	case EdgeIncoming:
		where = `r.status = 'pending' AND r.to_id = ?1`
		order = `r.created_at DESC, r.id`
	case EdgeOutgoing:
		where = `r.status = 'pending' AND r.from_id = ?1`
		order = `r.created_at DESC, r.id`
	default:
		return nil, fmt.Errorf("unknown edge filter %d", filter)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT r.id, r.from_id, r.to_id, r.status, r.created_at, COALESCE(r.accepted_at, 0),
			u.id, u.username, u.email, u.is_online, u.last_seen, u.joined_at, u.description, u.avatar_url
		FROM contact_requests r
		LEFT JOIN users u ON u.id = CASE WHEN r.from_id = ?1 THEN r.to_id ELSE r.from_id END
		WHERE `+where+`
		ORDER BY `+order, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var edges []ContactEdge
	for rows.Next() {
		var (
			e                         ContactEdge
			pid, pname, pemail, pdesc sql.NullString
			pavatar                   sql.NullString
			ponline                   sql.NullBool
			pseen, pjoined            sql.NullInt64
		)
		r := &e.Request
		if err := rows.Scan(&r.ID, &r.FromID, &r.ToID, &r.Status, &r.CreatedAt, &r.AcceptedAt,
			&pid, &pname, &pemail, &ponline, &pseen, &pjoined, &pdesc, &pavatar); err != nil {
			return nil, err
		}
		if pid.Valid {
			e.Partner = &User{
				ID:          pid.String,
				Username:    pname.String,
				Email:       pemail.String,
				IsOnline:    ponline.Bool,
				LastSeen:    pseen.Int64,
				JoinedAt:    pjoined.Int64,
				Description: pdesc.String,
				AvatarURL:   pavatar.String,
			}
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
