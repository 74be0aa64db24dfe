package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Store errors
	ErrTaskNotFound = fmt.Errorf("task not found")
	ErrTaskSave     = fmt.Errorf("task save failed")
	ErrTaskFetch    = fmt.Errorf("task fetch failed")
	ErrProgressLoad = fmt.Errorf("progress load failed")
	ErrStoreClosed  = fmt.Errorf("store closed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
