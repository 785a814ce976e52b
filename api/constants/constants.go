package constants

// Common error messages
const (
	ErrInvalidJSON        = "invalid json or missing fields"
	ErrInvalidJSONShort   = "Invalid JSON"
	ErrInvalidRequestBody = "Invalid request body"
	ErrDB                 = "DB error"
	ErrFailedToQuery      = "Failed to query"
	ErrMethodNotAllowed   = "Method Not Allowed"
	ErrEmptyBatch         = "No transactions in request"
	ErrMissingFile        = "Missing or unreadable statement file"
	ErrUnsupportedFile    = "Unsupported file type, expected .xlsx or .xls"
	ErrSyncInProgress     = "A sync run is already in progress"
	ErrSyncFailed         = "Ledger sync failed"
	ErrExportFailed       = "Failed to build export file"
)

// DB / SQL error templates
const (
	ErrTxStartFailed  = "failed to start transaction: "
	ErrTxCommitFailed = "failed to commit transaction: "
	ErrQueryFailed    = "query failed: "
)

// Content Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeText = "Content-Type"
)

// Date formats
const (
	DateTimeFormat = "2006-01-02 15:04:05"
	DateFormat     = "2006-01-02"
	DateFormatAlt  = "02-01-2006"
)
