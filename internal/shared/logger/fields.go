package logger

import (
	"github.com/sirupsen/logrus"
)

// Standard field names shared by every structured log line this service emits.
const (
	// Request and Context Fields
	FieldCorrelationID = "correlation_id"
	FieldUserID        = "user_id"
	FieldService       = "service"
	FieldVersion       = "version"
	FieldEnvironment   = "environment"

	// RPC Fields
	FieldMethod    = "method"
	FieldLatencyMs = "latency_ms"

	// Database Fields
	FieldOperation    = "operation"
	FieldDuration     = "duration"
	FieldRowsAffected = "rows_affected"

	// System Fields
	FieldName      = "name"
	FieldComponent = "component"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldRole      = "role"

	// Security Fields
	FieldAction   = "action"
	FieldResource = "resource"
	FieldSourceIP = "source_ip"
)

// ServiceFields returns standard service context fields.
func ServiceFields(serviceName, version, environment string) logrus.Fields {
	return logrus.Fields{
		FieldService:     serviceName,
		FieldVersion:     version,
		FieldEnvironment: environment,
	}
}

// RequestContextFields returns the correlation/user fields attached to every
// RPC once a correlation ID has been established for it.
func RequestContextFields(correlationID, userID string) logrus.Fields {
	fields := logrus.Fields{
		FieldCorrelationID: correlationID,
	}
	if userID != "" {
		fields[FieldUserID] = userID
	}
	return fields
}

// SecurityFields returns standard security-event fields: who did what to
// which resource, and from where.
func SecurityFields(action, resource, userID, sourceIP string) logrus.Fields {
	fields := logrus.Fields{
		FieldComponent: "security",
		FieldAction:    action,
		FieldResource:  resource,
		FieldSourceIP:  sourceIP,
	}
	if userID != "" {
		fields[FieldUserID] = userID
	}
	return fields
}

// ErrorFields returns standard error fields.
func ErrorFields(err error) logrus.Fields {
	return logrus.Fields{
		FieldError: err.Error(),
	}
}

// ComponentFields returns fields for component-specific logging.
func ComponentFields(component, name, status string) logrus.Fields {
	return logrus.Fields{
		FieldComponent: component,
		FieldName:      name,
		FieldStatus:    status,
	}
}
