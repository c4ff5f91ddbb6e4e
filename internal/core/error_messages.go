// Error Code Reference
//
// A table import failure is logged with a short code so operators can tell a
// bad file from a bad sink at a glance. Codes are grouped by category.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate row: a primary key value already exists
//	        Action: Reset the sink or load into a fresh database
//	        Patterns: "duplicate key", "unique constraint", "duplicate entry"
//
//	DB003 - Missing parent: a foreign key does not resolve
//	        Action: Check that the parent dictionary table loaded
//	        Patterns: "foreign key"
//
//	DB004 - Missing value: a NOT NULL column received NULL
//	        Patterns: "not null constraint", "cannot be null"
//
//	DB005 - Connection lost
//	        Patterns: "connection refused", "connection reset", "broken pipe"
//
//	DB007 - Deadlock
//	        Patterns: "deadlock"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL002 - Invalid number in an integer or float column
//	         Patterns: "invalid number", "invalid integer"
//
//	VAL004 - Source file lacks a destination column
//	         Patterns: "missing required column"
//
// # File Errors (FILE001-FILE099)
//
//	FILE002 - Malformed delimited file ("invalid csv")
//	FILE003 - No candidate encoding decodes the file ("encoding error")
//	FILE004 - Input file does not exist ("missing input")
//	FILE005 - File has no rows ("empty input")
//	FILE006 - Extension is not a spreadsheet or CSV ("unsupported file format")
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Destination table not found in the sink
//	         Action: Create the schema first (--schema builtin)
//	TBL002 - Table name has no registered definition ("unknown table")
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Run was cancelled ("context canceled")
//	RUN002 - Run timed out ("context deadline exceeded")
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches; the log line carries the original error.
//
// Patterns are matched case-insensitively using strings.Contains, first
// match wins.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides operator-facing error information.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for log searches
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgDuplicate = UserMessage{
		Message: "A row with this key already exists",
		Action:  "Reset the sink or load into a fresh database",
		Code:    "DB001",
	}
	msgForeignKey = UserMessage{
		Message: "Referenced parent row does not exist",
		Action:  "Check that the parent dictionary table loaded",
		Code:    "DB003",
	}
	msgNotNull = UserMessage{
		Message: "Required value is missing",
		Action:  "Check the key columns of the source file",
		Code:    "DB004",
	}
	msgConnection = UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Check the sink and re-run after a reset",
		Code:    "DB005",
	}
	msgInvalidNumber = UserMessage{
		Message: "Invalid number format detected",
		Action:  "Fix the value or leave the cell empty",
		Code:    "VAL002",
	}
	msgTableNotFound = UserMessage{
		Message: "Destination table not found",
		Action:  "Create the schema first (--schema builtin)",
		Code:    "TBL001",
	}
)

// errorPatterns is ordered: more specific patterns come first.
var errorPatterns = []errorPattern{
	// Constraint violations from postgres, sqlite and mysql wording.
	{pattern: "duplicate key", msg: msgDuplicate},
	{pattern: "unique constraint", msg: msgDuplicate},
	{pattern: "duplicate entry", msg: msgDuplicate},
	{pattern: "foreign key", msg: msgForeignKey},
	{pattern: "not null constraint", msg: msgNotNull},
	{pattern: "cannot be null", msg: msgNotNull},

	{pattern: "connection refused", msg: msgConnection},
	{pattern: "connection reset", msg: msgConnection},
	{pattern: "broken pipe", msg: msgConnection},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Make sure no other loader runs against the sink",
			Code:    "DB007",
		},
	},

	{pattern: "invalid number", msg: msgInvalidNumber},
	{pattern: "invalid integer", msg: msgInvalidNumber},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Source file lacks a destination column",
			Action:  "Check the header row of the source file",
			Code:    "VAL004",
		},
	},

	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "missing input",
		msg: UserMessage{
			Message: "Input file does not exist",
			Action:  "Check the data directory and manifest",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty input",
		msg: UserMessage{
			Message: "The input file has no rows",
			Action:  "Re-export the file with its data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "File format is not supported",
			Action:  "Provide .xlsx or .csv files",
			Code:    "FILE006",
		},
	},

	{pattern: "no such table", msg: msgTableNotFound},
	{pattern: "doesn't exist", msg: msgTableNotFound},
	{pattern: "does not exist", msg: msgTableNotFound},
	{
		pattern: "unknown table",
		msg: UserMessage{
			Message: "Unknown table",
			Action:  "Use one of the tables in the load order",
			Code:    "TBL002",
		},
	},

	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Run was cancelled",
			Action:  "Reset the sink before re-running",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Run timed out",
			Action:  "Raise CP_RUN_TIMEOUT or load fewer files",
			Code:    "RUN002",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the error attribute of the log line",
	Code:    "ERR000",
}

// MapError converts a technical error to an operator-facing message.
// Returns the ERR000 fallback when no pattern matches.
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

// ClassifyFailure returns the error code for a table import failure.
func ClassifyFailure(err error) string {
	return MapError(err).Code
}

// FormatUserError creates a formatted error string: "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
