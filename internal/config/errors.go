package config

import "errors"

var (
	// ErrInvalidBatchSize is returned when batch_size is not greater than 0
	ErrInvalidBatchSize = errors.New("batch_size must be greater than 0")
	// ErrInvalidTimeout is returned when request timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrInvalidMaxDepth is returned when max_depth is less than 1
	ErrInvalidMaxDepth = errors.New("max_depth must be at least 1")
	// ErrInvalidMaxPages is returned when max_pages is negative
	ErrInvalidMaxPages = errors.New("max_pages cannot be negative")
	// ErrEmptyDatabasePath is returned when database path is empty
	ErrEmptyDatabasePath = errors.New("database_path cannot be empty")
)
