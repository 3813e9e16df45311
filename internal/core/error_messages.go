package core

// error_messages.go maps batch-level failures to user-facing messages.
//
// Row-level problems never reach this layer; they are diagnostics on the
// BatchResult. Codes:
//
//	FETCH001 - Source unavailable: the remote CSV could not be downloaded
//	FETCH002 - Source too large: the CSV exceeds the configured size limit
//	FETCH003 - No source: no upload and no source URL configured
//	FETCH004 - Invalid source: the source URL is not http or https
//	FILE001  - Unreadable input: the CSV could not be read
//	FILE002  - Invalid CSV: the header row is not valid CSV
//	FILE003  - Output unwritable: the converted JSON could not be written
//	REQ001   - Invalid timeframe: timeframe missing or not a positive integer
//	REQ002   - Invalid request: the form could not be parsed
//	BATCH001 - System busy: too many batches running
//	UPL004   - Request cancelled
//	UPL005   - Request timeout
//	ERR000   - Unknown error

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNoSource          = errors.New("no csv source configured")
	ErrInvalidSource     = errors.New("invalid csv source url")
	ErrSourceUnavailable = errors.New("csv source unavailable")
	ErrSourceTooLarge    = errors.New("csv source too large")
	ErrInputUnreadable   = errors.New("csv input unreadable")
	ErrInvalidCSV        = errors.New("invalid csv")
	ErrOutputUnwritable  = errors.New("converted output unwritable")
	ErrInvalidTimeframe  = errors.New("invalid timeframe")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrTooManyBatches    = errors.New("too many concurrent batches, please try again later")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorMapping struct {
	target error
	msg    UserMessage
}

// errorMappings is checked in order with errors.Is; the first match wins.
// ErrSourceTooLarge is listed before ErrSourceUnavailable because fetch
// failures wrap both.
var errorMappings = []errorMapping{
	{ErrSourceTooLarge, UserMessage{"The CSV file exceeds the maximum size", "Split the file or raise SOURCE_MAX_SIZE", "FETCH002"}},
	{ErrNoSource, UserMessage{"No CSV source was provided", "Upload a file or configure a source URL", "FETCH003"}},
	{ErrInvalidSource, UserMessage{"The CSV source URL is not valid", "Use an http or https URL", "FETCH004"}},
	{ErrSourceUnavailable, UserMessage{"The CSV file could not be downloaded", "Check the source URL and try again", "FETCH001"}},
	{ErrInvalidCSV, UserMessage{"The file is not a valid CSV", "Ensure the file is comma-separated with a header row", "FILE002"}},
	{ErrInputUnreadable, UserMessage{"The CSV file could not be read", "Please try again", "FILE001"}},
	{ErrOutputUnwritable, UserMessage{"The converted file could not be written", "Please try again or contact support", "FILE003"}},
	{ErrInvalidTimeframe, UserMessage{"Timeframe is missing or invalid", "Choose a timeframe in minutes", "REQ001"}},
	{ErrInvalidRequest, UserMessage{"The request could not be read", "Check the form fields and file size", "REQ002"}},
	{ErrTooManyBatches, UserMessage{"Too many conversions in progress", "Please wait a moment and try again", "BATCH001"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Try a smaller file or try again later", "UPL005"}},
}

var unknownError = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message. It returns the zero
// UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.msg
		}
	}
	// Transport errors that lost their wrapping still carry the text.
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "deadline exceeded") || strings.Contains(lower, "timeout") {
		return UserMessage{"Request timed out", "Try a smaller file or try again later", "UPL005"}
	}
	return unknownError
}
