package queries

import "context"

type AuditQuerier interface {
	CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) error
	ListAuditLogs(ctx context.Context, limit int) ([]AuditLog, error)
}

type CreateAuditLogParams struct {
	Action     string
	Resource   string
	ResourceID string
	UserID     *int64
	IPAddress  string
	UserAgent  string
	StatusCode int
}

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) error {
	var userID interface{}
	if arg.UserID != nil {
		userID = *arg.UserID
	}
	_, err := q.exec(ctx, `INSERT INTO audit_logs (action, resource, resource_id, user_id, ip_address, user_agent, status_code, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Action, arg.Resource, arg.ResourceID, userID, arg.IPAddress, arg.UserAgent, arg.StatusCode, q.now())
	return err
}

// ListAuditLogs returns the most recent entries first.
func (q *Queries) ListAuditLogs(ctx context.Context, limit int) ([]AuditLog, error) {
	logs := []AuditLog{}
	err := q.selectAll(ctx, &logs, `SELECT id, action, resource, resource_id, user_id, ip_address, user_agent, status_code, created_at
FROM audit_logs ORDER BY id DESC LIMIT ?`, limit)
	return logs, err
}
