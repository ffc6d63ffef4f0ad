package models

import "errors"

// Common errors for repository operations.
var (
	// ErrCommandNotFound means no command_queue row has the requested id.
	ErrCommandNotFound = errors.New("command not found")

	// ErrStateNotFound means the device has no dout1_state row yet.
	ErrStateNotFound = errors.New("dout1 state not found")

	// ErrInvalidStatus means a status transition used an unknown status value.
	ErrInvalidStatus = errors.New("invalid command status")
)
