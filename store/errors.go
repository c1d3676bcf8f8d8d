package store

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("store: required parameter is nil")

	// ErrCheckpointNotFound indicates no checkpoint exists for the requested height.
	ErrCheckpointNotFound = errors.New("store: checkpoint not found")

	// ErrDuplicateCheckpoint indicates a checkpoint at this height already exists.
	ErrDuplicateCheckpoint = errors.New("store: duplicate checkpoint")

	// ErrDuplicatePrice indicates the feed round is already stored.
	ErrDuplicatePrice = errors.New("store: duplicate price round")
)
