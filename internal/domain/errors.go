package domain

import "errors"

var (
	ErrEmptyMessage        = errors.New("message has no text or image")
	ErrInvalidSubscription = errors.New("subscription endpoint is missing")
)
