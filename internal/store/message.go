package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const messageColumns = `m.id, m.sender_id, COALESCE(u.username, ''), m.recipient_id, m.body, m.sent_at,
	m.is_read, m.kind, m.attachment_url, m.attachment_name, m.attachment_mime`

const messageFrom = `FROM messages m LEFT JOIN users u ON u.id = m.sender_id`

func scanMessage(row interface{ Scan(...any) error }) (*Message, error) {
	var (
		m                   Message
		aURL, aName, aMime string
	)
	if err := row.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.RecipientID, &m.Body, &m.SentAt,
		&m.IsRead, &m.Kind, &aURL, &aName, &aMime); err != nil {
		return nil, err
	}
	if aURL != "" {
		m.Attachment = &Attachment{URL: aURL, Name: aName, MimeType: aMime}
	}
	return &m, nil
}

func collectMessages(rows *sql.Rows) ([]Message, error) {
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

// InsertMessage appends a message, assigning an id when empty.
func (db *DB) InsertMessage(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	var a Attachment
	if m.Attachment != nil {
		a = *m.Attachment
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, recipient_id, body, sent_at, is_read, kind,
			attachment_url, attachment_name, attachment_mime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.RecipientID, m.Body, m.SentAt, boolInt(m.IsRead), m.Kind,
		a.URL, a.Name, a.MimeType)
	if err != nil {
		return fmt.Errorf("insert message: %w", translate(err))
	}
	return nil
}

// GetMessage returns a message by id, or nil if absent.
func (db *DB) GetMessage(ctx context.Context, id string) (*Message, error) {
	m, err := scanMessage(db.QueryRowContext(ctx, `SELECT `+messageColumns+` `+messageFrom+` WHERE m.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListConversation returns the newest limit private messages between a and b
// in ascending send order.
func (db *DB) ListConversation(ctx context.Context, a, b string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `
		SELECT * FROM (
			SELECT `+messageColumns+`, m.seq
			`+messageFrom+`
			WHERE m.kind = 'private'
				AND ((m.sender_id = ?1 AND m.recipient_id = ?2) OR (m.sender_id = ?2 AND m.recipient_id = ?1))
			ORDER BY m.sent_at DESC, m.seq DESC
			LIMIT ?3
		) ORDER BY sent_at ASC, seq ASC`, a, b, limit)
	if err != nil {
		return nil, err
	}
	return collectConversation(rows)
}

// collectConversation scans rows that carry a trailing seq column.
func collectConversation(rows *sql.Rows) ([]Message, error) {
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var (
			m                  Message
			aURL, aName, aMime string
			seq                int64
		)
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.RecipientID, &m.Body, &m.SentAt,
			&m.IsRead, &m.Kind, &aURL, &aName, &aMime, &seq); err != nil {
			return nil, err
		}
		if aURL != "" {
			m.Attachment = &Attachment{URL: aURL, Name: aName, MimeType: aMime}
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// ListGlobal returns the newest limit global-room messages in ascending order.
func (db *DB) ListGlobal(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT * FROM (
			SELECT `+messageColumns+`, m.seq
			`+messageFrom+`
			WHERE m.kind = 'global'
			ORDER BY m.sent_at DESC, m.seq DESC
			LIMIT ?
		) ORDER BY sent_at ASC, seq ASC`, limit)
	if err != nil {
		return nil, err
	}
	return collectConversation(rows)
}

// MarkRead flips unread private messages from sender to recipient, returning
// how many changed.
func (db *DB) MarkRead(ctx context.Context, recipientID, senderID string) (int64, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE messages SET is_read = 1
		WHERE kind = 'private' AND recipient_id = ? AND sender_id = ? AND is_read = 0`,
		recipientID, senderID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UnreadCount returns the number of unread private messages from sender to recipient.
func (db *DB) UnreadCount(ctx context.Context, recipientID, senderID string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE kind = 'private' AND recipient_id = ? AND sender_id = ? AND is_read = 0`,
		recipientID, senderID).Scan(&n)
	return n, err
}

// LastMessage returns the newest private message between a and b, or nil.
func (db *DB) LastMessage(ctx context.Context, a, b string) (*Message, error) {
	m, err := scanMessage(db.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		`+messageFrom+`
		WHERE m.kind = 'private'
			AND ((m.sender_id = ?1 AND m.recipient_id = ?2) OR (m.sender_id = ?2 AND m.recipient_id = ?1))
		ORDER BY m.sent_at DESC, m.seq DESC
		LIMIT 1`, a, b))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecentPartners scans the newest scan private messages touching userID and
// returns the distinct counterpart ids, most recent first.
func (db *DB) RecentPartners(ctx context.Context, userID string, scan int) ([]string, error) {
	if scan <= 0 {
		scan = 200
	}
	rows, err := db.QueryContext(ctx, `
		SELECT CASE WHEN sender_id = ?1 THEN recipient_id ELSE sender_id END
		FROM messages
		WHERE kind = 'private' AND (sender_id = ?1 OR recipient_id = ?1)
		ORDER BY sent_at DESC, seq DESC
		LIMIT ?2`, userID, scan)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	seen := make(map[string]bool)
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if id == userID || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SearchMessages returns messages visible to userID whose body contains
// query, newest first. Global messages are visible to everyone.
func (db *DB) SearchMessages(ctx context.Context, userID, query string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + escapeLike(query) + "%"
	rows, err := db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		`+messageFrom+`
		WHERE m.body LIKE ?1 ESCAPE '\'
			AND (m.kind = 'global' OR m.sender_id = ?2 OR m.recipient_id = ?2)
		ORDER BY m.sent_at DESC, m.seq DESC
		LIMIT ?3`, pattern, userID, limit)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
