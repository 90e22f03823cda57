package domain

import "errors"

// ErrMissingReference is returned when a placeholder path or dataset is absent.
var ErrMissingReference = errors.New("missing reference")

// ErrDepthExceeded is returned when placeholder nesting hits the depth bound.
var ErrDepthExceeded = errors.New("resolution depth exceeded")

// ErrMalformedExpression is returned when a placeholder violates the grammar.
var ErrMalformedExpression = errors.New("malformed expression")

// ErrParseFailure is returned when every recovery stage failed.
var ErrParseFailure = errors.New("output could not be parsed")

// ErrMissingField is reported when a declared output field was not recovered.
var ErrMissingField = errors.New("declared field missing")

// ErrTypeMismatch is reported when a recovered field cannot be coerced to its declared type.
var ErrTypeMismatch = errors.New("declared type mismatch")

// ErrDatasetNotFound is returned by dataset loaders for unknown dataset names.
var ErrDatasetNotFound = errors.New("dataset not found")

// ErrSaveNotFound is returned when a save ID cannot be found in the attribute store.
var ErrSaveNotFound = errors.New("save not found")

// ErrTemplateNotFound is returned when a template ID cannot be found.
var ErrTemplateNotFound = errors.New("template not found")
