package domain

import "errors"

var (
	// ErrJobNotFound is returned for unknown or unavailable job ids
	ErrJobNotFound = errors.New("job not found")

	// ErrJobTerminal is returned when updating a completed or failed job
	ErrJobTerminal = errors.New("job already finished")

	// ErrEngineUnavailable means the external engine could not produce a result
	ErrEngineUnavailable = errors.New("model engine unavailable")

	// ErrMalformedEngineOutput means the engine ran but its output was unusable
	ErrMalformedEngineOutput = errors.New("malformed engine output")

	// ErrQueueFull means the job queue cannot take more work
	ErrQueueFull = errors.New("processing queue is full")
)
