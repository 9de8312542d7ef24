package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/peerrent/verification/internal/domain"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrCodeExpired     = errors.New("verification code expired or not requested")
	ErrTooManyAttempts = errors.New("too many failed attempts, request a new code")
	ErrInvalidToken    = errors.New("invalid or expired verification token")
	ErrNotSkippable    = errors.New("this step cannot be skipped")
)

// GateError signals that a step operation was attempted out of order. It is
// not a failure in the usual sense: handlers translate it into a redirect
// response rather than an error message, so the client simply lands on the
// right step.
type GateError struct {
	Result domain.GateResult
}

func (e *GateError) Error() string {
	if e.Result.RedirectTo == "" {
		return fmt.Sprintf("step %s is not available, go to the dashboard", e.Result.Step)
	}
	return fmt.Sprintf("step %s is not available, go to %s", e.Result.Step, e.Result.RedirectTo)
}

// CooldownError signals that a send/resend was requested before its cooldown
// elapsed.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting another code", int(e.Remaining.Seconds()))
}
