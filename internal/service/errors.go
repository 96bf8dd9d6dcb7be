package service

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrForbidden           = errors.New("access denied")
	ErrMissingPrerequisite = errors.New("missing prerequisite")
)
