package domain

import "errors"

var (
	ErrRemoteUnavailable    = errors.New("remote service unavailable")
	ErrValidationIncomplete = errors.New("survey answers incomplete")
	ErrUnknownQuestion      = errors.New("unknown survey question")
	ErrUnknownOption        = errors.New("unknown survey option")
	ErrSchemaMissing        = errors.New("survey schema missing")
)
