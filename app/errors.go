package app

import "github.com/ayoisaiah/annotrack/internal/apperr"

var (
	errEmptyUsername = &apperr.Error{
		Message: "username cannot be empty",
	}

	errCountArg = &apperr.Error{
		Message: "expected a single annotation count, e.g. 'annotrack count 17'",
	}

	errInvalidCount = &apperr.Error{
		Message: "annotation count must be a non-negative integer, got %q",
	}

	errInvalidSince = &apperr.Error{
		Message: "unable to parse --since value %q",
	}
)
