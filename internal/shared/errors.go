package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig  = fmt.Errorf("configuration not found")
	ErrInvalidConfig  = fmt.Errorf("invalid configuration")
	ErrMissingToken   = fmt.Errorf("missing server token")
	ErrInvalidMapping = fmt.Errorf("invalid path mapping")

	// API and service errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrNotFound         = fmt.Errorf("item not found")
	ErrSectionNotFound  = fmt.Errorf("library section not found")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")

	// Staging and restore errors
	ErrStagingConflict = fmt.Errorf("staging directory conflict")
	ErrCrossDevice     = fmt.Errorf("paths on different devices")
	ErrSourceMissing   = fmt.Errorf("source directory missing")
	ErrStagingMissing  = fmt.Errorf("staged directory missing")
	ErrInterrupted     = fmt.Errorf("interrupted")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
