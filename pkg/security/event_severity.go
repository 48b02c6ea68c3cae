package security

import "go.uber.org/zap/zapcore"

// Severity ranks a security event for triage. It is derived from the event
// type, never taken from input.
type Severity string

const (
	SeverityINFO   Severity = "INFO"
	SeverityMEDIUM Severity = "MEDIUM"
	SeverityWARN   Severity = "WARN"
	SeverityHIGH   Severity = "HIGH"
)

var eventSeverity = map[EventType]Severity{
	EventLoginSuccess:      SeverityINFO,
	EventAccountRegistered: SeverityINFO,
	EventFederatedLogin:    SeverityINFO,
	EventRoleAssigned:      SeverityINFO,

	EventForbiddenAccess: SeverityMEDIUM,
	EventUploadRejected:  SeverityMEDIUM,

	EventLoginFailed:        SeverityWARN,
	EventFederatedFailed:    SeverityWARN,
	EventRateLimitTriggered: SeverityWARN,
	EventUnauthorizedAccess: SeverityWARN,

	EventLoginBlocked: SeverityHIGH,
	EventBlockCreated: SeverityHIGH,
}

// GetSeverity returns the severity for an event type, MEDIUM when unmapped.
func GetSeverity(eventType EventType) Severity {
	if severity, ok := eventSeverity[eventType]; ok {
		return severity
	}
	return SeverityMEDIUM
}

// IsHighOrAbove reports whether the event should page someone.
func IsHighOrAbove(eventType EventType) bool {
	return GetSeverity(eventType) == SeverityHIGH
}

func levelFor(event EventType) zapcore.Level {
	switch GetSeverity(event) {
	case SeverityINFO:
		return zapcore.InfoLevel
	case SeverityHIGH:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}
