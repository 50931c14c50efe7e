package status

import "errors"

var (
	ErrNotFound           = errors.New("record: not found")
	ErrForbidden          = errors.New("actor: not allowed")
	ErrUnauthenticated    = errors.New("actor: not signed in")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidInput       = errors.New("input: validation failed")

	ErrTicketSolved      = errors.New("ticket: ticket is solved")
	ErrInvalidTransition = errors.New("ticket: invalid status transition")

	ErrEmptyDraft       = errors.New("composer: draft is empty")
	ErrNoTicketSelected = errors.New("composer: no ticket selected")
	ErrRecordingActive  = errors.New("composer: recording already in progress")
	ErrNotRecording     = errors.New("composer: no recording in progress")
	ErrMicrophoneDenied = errors.New("composer: microphone access denied")
	ErrEmptyRecording   = errors.New("composer: recording is empty")

	ErrSubscriptionClosed = errors.New("realtime: subscription closed")
	ErrRateLimited        = errors.New("rate limit: too many requests")
)
