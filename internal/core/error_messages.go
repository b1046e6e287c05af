package core

// error_messages.go maps technical errors to user-facing messages with a
// support code.
//
//	DATA001  Dataset not found          DataUnavailableError, file not found / unreadable
//	DATA002  Dataset is empty           DataUnavailableError, empty file / no data rows
//	DATA003  Dataset could not be read  DataUnavailableError, unparsable
//	SCH001   Required columns missing   SchemaError with Missing
//	SCH002   Required column empty      SchemaError with only Empty
//	FILE001  File too large             "file too large"
//	FILE002  No file provided           "no file provided"
//	FILE003  Unsupported file type      "unsupported file type"
//	FILE004  Invalid upload form        "invalid form"
//	UPL002   Too many uploads           ErrTooManyUploads
//	UPL004   Request cancelled          context.Canceled
//	UPL005   Request timed out          context.DeadlineExceeded
//	RATE001  Too many requests          "rate limit"
//	ERR000   Unknown error              fallback
//
// Typed errors are matched with errors.As/Is first; the remaining rules are
// case-insensitive substring patterns, first match wins.

import (
	"context"
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file or remove unused columns",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was uploaded",
			Action:  "Attach a CSV file in the \"file\" form field",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "Invalid file type",
			Action:  "Upload a .csv or .xlsx file",
			Code:    "FILE003",
		},
	},
	{
		pattern: "invalid form",
		msg: UserMessage{
			Message: "The upload form could not be read",
			Action:  "Send the file as multipart/form-data",
			Code:    "FILE004",
		},
	},
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

// MapError converts err into a UserMessage. A nil error yields the zero value.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var dataErr *DataUnavailableError
	if errors.As(err, &dataErr) {
		switch dataErr.Reason {
		case ReasonEmpty, ReasonNoRows:
			return UserMessage{
				Message: "The dataset contains no patient rows",
				Action:  "Upload a CSV with a header and at least one data row",
				Code:    "DATA002",
			}
		case ReasonUnparsable:
			return UserMessage{
				Message: "The dataset could not be parsed",
				Action:  "Ensure the file is comma-separated with consistent quoting",
				Code:    "DATA003",
			}
		default:
			return UserMessage{
				Message: "The dataset is not available",
				Action:  "Check that the data file exists and is readable",
				Code:    "DATA001",
			}
		}
	}

	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		cols := append(append([]string{}, schemaErr.Missing...), schemaErr.Empty...)
		if len(schemaErr.Missing) > 0 {
			return UserMessage{
				Message: "Required columns are missing: " + strings.Join(schemaErr.Missing, ", "),
				Action:  "Columns must be: " + strings.Join(SchemaColumns(), ", "),
				Code:    "SCH001",
			}
		}
		return UserMessage{
			Message: "Required columns have no values: " + strings.Join(cols, ", "),
			Action:  "Fill in the listed columns",
			Code:    "SCH002",
		}
	}

	switch {
	case errors.Is(err, ErrTooManyUploads):
		return UserMessage{
			Message: "The server is busy analyzing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		}
	case errors.Is(err, context.Canceled):
		return UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		}
	case errors.Is(err, context.DeadlineExceeded):
		return UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		}
	}

	lower := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(lower, p.pattern) {
			return p.msg
		}
	}

	return defaultMessage
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
