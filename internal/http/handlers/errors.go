// Package handlers holds the HTTP endpoints. This file lists the stable,
// machine-readable error codes carried in every ErrorResponse; clients
// branch on these, not on messages.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_status",
//	  "message": "invalid mention status"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidStatus  = "invalid_status"
	ErrCodeInvalidType    = "invalid_mention_type"
	ErrCodeInvalidChannel = "invalid_channel"
	ErrCodeCreateFailed   = "create_failed"
	ErrCodeUpdateFailed   = "update_failed"
	ErrCodeListFailed     = "list_failed"
	ErrCodeUnknownReason  = "unknown_reason"
)
