package logger

// Shared log field name constants, keeping field naming consistent
// across the project for log querying and analysis.
const (
	// FieldTraceID trace ID field
	FieldTraceID = "traceId"

	// FieldShareID share ID field
	FieldShareID = "shareId"

	// FieldUID user ID field
	FieldUID = "uid"

	// FieldAction operation type field
	FieldAction = "action"

	// FieldStatus share or connection status field
	FieldStatus = "status"

	// FieldAttempt reconnect attempt counter field
	FieldAttempt = "attempt"

	// FieldDuration elapsed time field
	FieldDuration = "duration"

	// FieldMethod method name field
	FieldMethod = "method"

	// FieldError error message field
	FieldError = "error"

	// FieldCount generic count field
	FieldCount = "count"

	// FieldPage pagination page field
	FieldPage = "page"
)
