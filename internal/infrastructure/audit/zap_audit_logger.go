package audit

import (
	"context"

	"github.com/cuido/cuidosvc/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAuditLogger implements domain.AuditLogger by writing one structured
// log entry per event
type ZapAuditLogger struct {
	log *zap.Logger
}

// NewZapAuditLogger creates an audit logger writing under the "audit" name
func NewZapAuditLogger(log *zap.Logger) domain.AuditLogger {
	return &ZapAuditLogger{log: log.Named("audit")}
}

// LogEvent implements domain.AuditLogger
func (a *ZapAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) error {
	if cc := domain.ClientContextFrom(ctx); cc != nil && event.IPAddress == "" {
		event.WithClientContext(cc)
	}

	fields := []zap.Field{
		zap.String("event_type", string(event.EventType)),
		zap.Uint("user_id", event.UserID),
		zap.Time("timestamp", event.Timestamp),
		zap.Bool("success", event.Success),
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	if event.IPAddress != "" {
		fields = append(fields, zap.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.ErrorMsg != "" {
		fields = append(fields, zap.String("error", event.ErrorMsg))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}

	level := zapcore.InfoLevel
	if !event.Success {
		level = zapcore.WarnLevel
	}
	if ce := a.log.Check(level, "audit event"); ce != nil {
		ce.Write(fields...)
	}
	return nil
}
