package observability

import (
	"context"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// AuditEvent names a security-relevant action.
type AuditEvent string

const (
	AuditRegister          AuditEvent = "auth.register"
	AuditLogin             AuditEvent = "auth.login"
	AuditLoginFailed       AuditEvent = "auth.login_failed"
	AuditLogout            AuditEvent = "auth.logout"
	AuditLogoutAll         AuditEvent = "auth.logout_all"
	AuditSessionRevoked    AuditEvent = "auth.session_revoked"
	AuditPrincipalGone     AuditEvent = "auth.principal_gone"
	AuditOwnerMismatch     AuditEvent = "auth.owner_mismatch"
	AuditPrincipalDeleted  AuditEvent = "principal.deleted"
	AuditScopesChanged     AuditEvent = "principal.scopes_changed"
	AuditTeamMemberRemoved AuditEvent = "team.member_removed"
	AuditHackerAccepted    AuditEvent = "hacker.accepted"
)

// Rejected reports whether the event records a refused credential.
func (e AuditEvent) Rejected() bool {
	switch e {
	case AuditLoginFailed, AuditSessionRevoked, AuditPrincipalGone, AuditOwnerMismatch:
		return true
	}
	return false
}

// Audit logs event with the request's identity fields and counts it.
// Rejections log at warn.
func Audit(r *http.Request, event AuditEvent, attrs ...any) {
	ctx := r.Context()
	base := []any{
		"event", string(event),
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimiddleware.GetReqID(ctx),
		"remote_ip", r.RemoteAddr,
	}
	base = append(base, attrs...)
	level := slog.LevelInfo
	if event.Rejected() {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "audit", base...)
	recordAuditEvent(ctx, event)
}

func recordAuditEvent(ctx context.Context, event AuditEvent) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.auditEventCounter.Add(ctx, 1, metricAttrs("event", string(event)))
}
