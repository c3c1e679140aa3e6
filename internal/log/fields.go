package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldMosqueID   = "mosque_id"
	FieldKind       = "kind"
	FieldAmount     = "amount"
)

// Components.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAuth      = "auth"
	ComponentDonation  = "donation"
	ComponentStats     = "stats"
	ComponentStorage   = "storage"
	ComponentRateLimit = "rate_limit"
)
