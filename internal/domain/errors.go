package domain

import "errors"

var (
	ErrEmptyMessage       = errors.New("message is empty")
	ErrNoAPIKey           = errors.New("API key is not configured")
	ErrNoResponseBody     = errors.New("no response body")
	ErrPreferenceNotFound = errors.New("preference not found")
	ErrRunFailed          = errors.New("agent run failed")
	ErrRunInProgress      = errors.New("an agent run is already in progress")
)
