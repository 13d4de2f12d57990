package h264encoder

import "errors"

var (
	// ErrNotInitialized is returned when EncodeFrame or End is called without Begin.
	ErrNotInitialized = errors.New("h264encoder: encoder not initialized")

	// ErrAlreadyStarted is returned when Begin is called twice without End.
	ErrAlreadyStarted = errors.New("h264encoder: encoding already started")

	// ErrInvalidSize is returned for non-positive dimensions or frame rates.
	ErrInvalidSize = errors.New("h264encoder: invalid frame size or rate")

	// ErrEncodingFailed is returned when ffmpeg rejects a frame or exits with an error.
	ErrEncodingFailed = errors.New("h264encoder: encoding failed")

	// ErrNoFrames is returned by End when no frame was written.
	ErrNoFrames = errors.New("h264encoder: no frames encoded")
)
