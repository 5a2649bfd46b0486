package cli

import (
	"errors"

	"github.com/divehq/dive/internal/canvas"
	"github.com/divehq/dive/internal/lastresults"
	"github.com/divehq/dive/internal/object"
	"github.com/divehq/dive/internal/plugin"
	"github.com/divehq/dive/internal/store"
	"github.com/divehq/dive/internal/workspace"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by agents.
const (
	// Config errors
	ErrConfigInvalid = "CONFIG_INVALID"

	// Object errors
	ErrObjectNotFound   = "OBJECT_NOT_FOUND"
	ErrObjectExists     = "OBJECT_EXISTS"
	ErrObjectInvalid    = "OBJECT_INVALID"
	ErrProviderNotFound = "PROVIDER_NOT_FOUND"

	// Reference errors
	ErrRefNotFound = "REF_NOT_FOUND"

	// Tag and relation errors
	ErrTagNotFound      = "TAG_NOT_FOUND"
	ErrTagExists        = "TAG_EXISTS"
	ErrRelationNotFound = "RELATION_NOT_FOUND"

	// File errors
	ErrFileReadError = "FILE_READ_ERROR"

	// Database errors
	ErrDatabaseError = "DATABASE_ERROR"

	// Validation errors
	ErrValidationFailed = "VALIDATION_FAILED"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnFileMissing = "FILE_MISSING"
)

// errorCode maps errors returned by the workspace to stable codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, object.ErrInvalidID), errors.Is(err, workspace.ErrInvalidInput):
		return ErrInvalidInput
	case errors.Is(err, lastresults.ErrNoLastResults), errors.Is(err, lastresults.ErrNumberOutOfRange):
		return ErrRefNotFound
	case errors.Is(err, object.ErrProviderNotFound):
		return ErrProviderNotFound
	case errors.Is(err, object.ErrNotFound), errors.Is(err, store.ErrObjectNotFound):
		return ErrObjectNotFound
	case errors.Is(err, object.ErrExists):
		return ErrObjectExists
	case errors.Is(err, object.ErrInvalidContent), errors.Is(err, plugin.ErrNoRenderer):
		return ErrObjectInvalid
	case errors.Is(err, canvas.ErrInvalidDocument):
		return ErrValidationFailed
	case errors.Is(err, store.ErrTagNotFound):
		return ErrTagNotFound
	case errors.Is(err, store.ErrTagExists):
		return ErrTagExists
	case errors.Is(err, store.ErrRelationNotFound):
		return ErrRelationNotFound
	default:
		return ErrInternal
	}
}
