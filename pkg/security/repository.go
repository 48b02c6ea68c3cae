package security

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// execer is the part of pgxpool.Pool the repository needs.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// SecurityEventRepository appends security events to the audit table.
type SecurityEventRepository struct {
	db execer
}

func NewSecurityEventRepository(db execer) *SecurityEventRepository {
	return &SecurityEventRepository{db: db}
}

const insertSecurityEvent = `
	INSERT INTO security_events (
		event_type, service, environment, level, severity,
		subject_type, subject_value, ip_address, user_agent,
		request_id, details, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

// PersistEvent inserts a security event into the database
func (r *SecurityEventRepository) PersistEvent(ctx context.Context, event SecurityEvent) error {
	detailsJSON := []byte("null")
	if len(event.Details) > 0 {
		b, err := json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("marshal event details: %w", err)
		}
		detailsJSON = b
	}

	// ip_address is INET; an empty string would not parse.
	var ipAddr interface{}
	if event.IP != "" {
		ipAddr = event.IP
	}

	_, err := r.db.Exec(ctx, insertSecurityEvent,
		string(event.Event),
		event.Service,
		event.Environment,
		event.Level,
		string(event.Severity),
		nullable(event.SubjectType),
		nullable(event.SubjectValue),
		ipAddr,
		nullable(event.UserAgent),
		nullable(event.RequestID),
		detailsJSON,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to persist security event: %w", err)
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
