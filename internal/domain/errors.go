package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidScope       = errors.New("invalid scope")
	ErrDuplicateActiveJob = errors.New("duplicate active job")
	ErrStartFailed        = errors.New("start generation failed")
	ErrPollTransient      = errors.New("transient poll error")
	ErrPollExhausted      = errors.New("poll retries exhausted")
	ErrSubscriberCallback = errors.New("subscriber callback failed")
)
