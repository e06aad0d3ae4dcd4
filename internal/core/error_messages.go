package core

// error_messages.go maps technical errors to user-facing messages with a code that
// users can quote to support staff.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Action: Split the file or remove unused sheets
//	          Patterns: "file too large"
//
//	FILE002 - Invalid CSV: File is not valid delimited text
//	          Action: Export the sheet again as CSV (comma separated)
//	          Patterns: "invalid csv"
//
//	FILE003 - Invalid workbook: File is not a readable Excel workbook
//	          Action: Open the file in Excel and save it again as .xlsx
//	          Patterns: "invalid workbook"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a payroll file to upload
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The uploaded file is empty
//	          Action: Please upload a file with employee rows
//	          Patterns: "empty file"
//
//	FILE006 - Unsupported format: File type is not supported
//	          Action: Upload a .csv, .tsv, .txt or .xlsx file
//	          Patterns: "unsupported file format"
//
// # Extraction Errors (EXT001-EXT099)
//
//	EXT001 - Invalid alias overrides: The column alias file could not be used
//	         Action: Check the alias file against the documented format
//	         Patterns: "alias overrides"
//
//	EXT002 - Unknown field: An alias override names a field that does not exist
//	         Action: Use one of the field names listed by /api/fields
//	         Patterns: "unknown canonical field"
//
//	EXT003 - Unknown export format: Download format is not supported
//	         Action: Choose csv or xlsx
//	         Patterns: "unknown export format"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - System busy: Too many extractions in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent extractions"
//
//	UPL002 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	UPL003 - Request timeout: Extraction took too long
//	         Action: Try a smaller file or try again later
//	         Patterns: "context deadline exceeded", "timeout"
//
// # Storage Errors (DB001-DB099)
//
//	DB001 - Run history unavailable: Unable to reach the database
//	        Action: Extraction still works; history will resume shortly
//	        Patterns: "connection refused", "connection reset"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Patterns are matched case-insensitively with strings.Contains against the
// full error chain text. The first matching pattern wins, so specific
// patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgBusy = UserMessage{
		Message: "Too many extractions in progress",
		Action:  "Please wait a moment and try again",
		Code:    "UPL001",
	}
	msgTimeout = UserMessage{
		Message: "Extraction took too long",
		Action:  "Try a smaller file or try again later",
		Code:    "UPL003",
	}
	msgDatabase = UserMessage{
		Message: "Run history is unavailable",
		Action:  "Extraction still works; history will resume shortly",
		Code:    "DB001",
	}
)

// errorPatterns maps lower-case error fragments to user messages, specific
// before general.
var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file or remove unused sheets",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not valid delimited text",
			Action:  "Export the sheet again as CSV (comma separated)",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid workbook",
		msg: UserMessage{
			Message: "File is not a readable Excel workbook",
			Action:  "Open the file in Excel and save it again as .xlsx",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a payroll file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with employee rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "File type is not supported",
			Action:  "Upload a .csv, .tsv, .txt or .xlsx file",
			Code:    "FILE006",
		},
	},

	// Extraction errors
	{
		pattern: "unknown canonical field",
		msg: UserMessage{
			Message: "An alias override names a field that does not exist",
			Action:  "Use one of the field names listed by /api/fields",
			Code:    "EXT002",
		},
	},
	{
		pattern: "alias overrides",
		msg: UserMessage{
			Message: "The column alias file could not be used",
			Action:  "Check the alias file against the documented format",
			Code:    "EXT001",
		},
	},
	{
		pattern: "unknown export format",
		msg: UserMessage{
			Message: "Download format is not supported",
			Action:  "Choose csv or xlsx",
			Code:    "EXT003",
		},
	},

	// Upload errors. The busy pattern must precede the timeout patterns.
	{pattern: "too many concurrent extractions", msg: msgBusy},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL002",
		},
	},
	{pattern: "context deadline exceeded", msg: msgTimeout},
	{pattern: "timeout", msg: msgTimeout},

	// Storage errors
	{pattern: "connection refused", msg: msgDatabase},
	{pattern: "connection reset", msg: msgDatabase},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for a nil error and ERR000 when nothing matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
