// Package services holds the mention and notification business logic.
// This file centralizes service-level error values so callers can compare
// them with errors.Is and the HTTP layer can map them to status codes.
package services

import "errors"

var (
	// ErrInvalidStatus is returned when a status transition names a value
	// outside new, read, deleted and unapproved.
	ErrInvalidStatus = errors.New("invalid mention status")

	// ErrUnknownMentionType is returned for a task whose type is not part of
	// the mention vocabulary.
	ErrUnknownMentionType = errors.New("unknown mention type")

	// ErrInvalidChannel is returned when a preference names an unknown
	// delivery channel.
	ErrInvalidChannel = errors.New("unknown delivery channel")

	// ErrMissingTask is returned when a task lacks its type, sender or
	// target.
	ErrMissingTask = errors.New("mention task is incomplete")

	// ErrMemberNotFound is returned when a member lookup finds no row.
	ErrMemberNotFound = errors.New("member not found")
)
