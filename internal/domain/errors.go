package domain

import "errors"

var (
	ErrImageNotFound   = errors.New("image not found")
	ErrInvalidImageID  = errors.New("invalid image id")
	ErrUnknownModel    = errors.New("unknown model")
	ErrDecodeFailed    = errors.New("image decode failed")
	ErrStorageFailed   = errors.New("storage operation failed")
	ErrConfiguration   = errors.New("configuration error")
	ErrInferenceFailed = errors.New("model inference failed")
	ErrJobNotFound     = errors.New("job not found")
	ErrQueueFailed     = errors.New("queue operation failed")
)
