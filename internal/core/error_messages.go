package core

// error_messages.go maps technical errors to user-facing messages with codes
// that users can quote to support.
//
//	FILE001  file too large            FILE004  no file provided
//	FILE002  unsupported file type     FILE005  empty file
//	FILE003  unreadable encoding       FILE006  no delimiter found
//	IMP001   too many imports          IMP004   request timed out
//	IMP002   import not found          IMP005   unknown entity
//	IMP003   request cancelled         IMP006   import aborted
//	IMP007   import still running
//	DB001    duplicate key             DB003    connection refused
//	DB002    foreign key               DB004    connection reset
//	DB005    deadlock                  DB006    timeout
//	AUTH001  authentication required   AUTH002  admin role required
//	RATE001  rate limited              REQ001   invalid request body
//	REQ002   unknown template format   ERR000   unknown error
//
// Typed errors from this package are matched first; anything else is matched
// by case-insensitive substring, first pattern wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum size limit (50MB)",
		Action:  "Split the file into smaller files",
		Code:    "FILE001",
	}
	msgFileType = UserMessage{
		Message: "Only .csv and .txt files are accepted",
		Action:  "Export the spreadsheet as CSV or plain text",
		Code:    "FILE002",
	}
	msgEncoding = UserMessage{
		Message: "The file could not be read as text",
		Action:  "Save the file as UTF-8 or Windows (ANSI) text",
		Code:    "FILE003",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a file with at least one data line",
		Code:    "FILE005",
	}
	msgNoDelimiter = UserMessage{
		Message: "The file must contain data separated by semicolons or commas",
		Action:  "Download a template to see the expected layout",
		Code:    "FILE006",
	}
	msgAborted = UserMessage{
		Message: "The import stopped because of an internal error",
		Action:  "No rows were reported. Please try again or contact support",
		Code:    "IMP006",
	}
)

var errorPatterns = []errorPattern{
	// Store constraint errors
	{"duplicate key", UserMessage{"A record with this key already exists", "Review the file for values already registered", "DB001"}},
	{"violates unique", UserMessage{"A record with this key already exists", "Review the file for values already registered", "DB001"}},
	{"unique constraint", UserMessage{"A record with this key already exists", "Review the file for values already registered", "DB001"}},
	{"foreign key", UserMessage{"Referenced record does not exist", "Check that the bound user exists", "DB002"}},

	// Store connectivity
	{"connection refused", UserMessage{"Unable to connect to the database", "Please try again in a few moments", "DB003"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB004"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB005"}},

	// Request lifecycle (before the generic "timeout")
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "IMP003"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or try again later", "IMP004"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "DB006"}},

	// Files
	{"file too large", msgFileTooLarge},
	{"unsupported file type", msgFileType},
	{"decode error", msgEncoding},
	{"no file provided", UserMessage{"No file was selected", "Select a .csv or .txt file to import", "FILE004"}},
	{"empty file", msgEmptyFile},
	{"separator", msgNoDelimiter},

	// Imports
	{"too many imports", UserMessage{"The system is busy processing other imports", "Please wait a moment and try again", "IMP001"}},
	{"import not found", UserMessage{"Import not found", "The import may have expired. Please start a new one", "IMP002"}},
	{"unknown entity", UserMessage{"Unknown import type", "Use products or clients", "IMP005"}},
	{"import aborted", msgAborted},
	{"import still running", UserMessage{"The import has not finished yet", "Wait for the import to complete and try again", "IMP007"}},

	// Access
	{"authentication required", UserMessage{"You need to sign in", "Sign in and try again", "AUTH001"}},
	{"admin role required", UserMessage{"Only administrators can do this", "Ask an administrator to run the import", "AUTH002"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},

	// Requests
	{"invalid request body", UserMessage{"The request body could not be read", "Send a JSON object in the documented format", "REQ001"}},
	{"unknown template format", UserMessage{"Unknown template format", "Use semicolon, comma or xlsx", "REQ002"}},
}

// defaultMessage is returned when nothing matches. Support should check the
// logs for the original error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(&FormatError{Reason: "empty file"})
//	// msg.Code == "FILE005"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var de *DecodeError
	if errors.As(err, &de) {
		return msgEncoding
	}
	var fe *FormatError
	if errors.As(err, &fe) {
		if strings.Contains(fe.Reason, "empty") {
			return msgEmptyFile
		}
		return msgNoDelimiter
	}
	var fatal *FatalError
	if errors.As(err, &fatal) {
		return msgAborted
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
