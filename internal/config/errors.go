package config

import "github.com/ayoisaiah/annotrack/internal/apperr"

var (
	errInitPaths = &apperr.Error{
		Message: "unable to resolve the annotrack directories",
	}

	errConfigOption = &apperr.Error{
		Message: "config option error",
	}

	errConfigValidation = &apperr.Error{
		Message: "config validation error",
	}

	errReadConfig = &apperr.Error{
		Message: "reading config file failed",
	}

	errWriteConfig = &apperr.Error{
		Message: "writing default config failed",
	}

	errDecodeConfig = &apperr.Error{
		Message: "decoding config file failed",
	}

	errInvalidURL = &apperr.Error{
		Message: "%s must be an absolute http(s) URL, got %q",
	}

	errInvalidPath = &apperr.Error{
		Message: "api.upload_path must start with '/', got %q",
	}

	errInvalidDuration = &apperr.Error{
		Message: "%s must be between %v and %v, got %v",
	}

	errInvalidLogLevel = &apperr.Error{
		Message: "unknown log level %q (must be debug, info, warn or error)",
	}

	errInvalidCLIDuration = &apperr.Error{
		Message: "invalid duration for --%s: %v",
	}
)
