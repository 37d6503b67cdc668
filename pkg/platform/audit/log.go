package audit

import (
	"context"
	"log/slog"

	"viewergate/pkg/attrs"
	"viewergate/pkg/requestcontext"
)

// Log writes an audit line to the structured logger and emits the event to the
// publisher when one is configured. attrList holds slog key/value pairs; a
// subject or reason found there fills the event when it carries none.
func Log(ctx context.Context, logger *slog.Logger, emitter Emitter, event Event, attrList ...any) {
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Device == "" {
		event.Device = requestcontext.Device(ctx)
	}
	if event.Subject == "" {
		event.Subject = attrs.FirstString(attrList, "subject", "username", "ip")
	}
	if event.Reason == "" {
		event.Reason = attrs.ExtractString(attrList, "reason")
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}

	if logger != nil {
		args := append(attrList,
			"event", event.Action,
			"account_id", event.AccountID.String(),
			"request_id", event.RequestID,
			"log_type", "audit",
		)
		logger.InfoContext(ctx, event.Action, args...)
	}

	if emitter == nil {
		return
	}
	if err := emitter.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", event.Action, "error", err)
	}
}
