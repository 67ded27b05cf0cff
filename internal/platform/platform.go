// Package platform holds the device capabilities the screens depend on:
// alerts, permissions, the camera and the location fix. The terminal client
// backs them with prompts, image files and a configured position.
package platform

import (
	"context"
	"errors"

	"github.com/mkrupp/chatapp/internal/domain"
)

// ErrLocationUnavailable is returned when no position fix can be obtained.
var ErrLocationUnavailable = errors.New("Location unavailable") //nolint:stylecheck

// Permission names a runtime permission.
type Permission string

const (
	PermissionCamera   Permission = "camera"
	PermissionLocation Permission = "location"
)

// Permissions asks the user for runtime permissions.
type Permissions interface {
	Request(ctx context.Context, perm Permission) (bool, error)
}

// Camera takes a photo. It returns domain.ErrCaptureCanceled when the user backs out.
type Camera interface {
	Capture(ctx context.Context) (domain.Capture, error)
}

// Locator returns the current device position.
type Locator interface {
	CurrentPosition(ctx context.Context) (domain.Location, error)
}

// Prompter reads one answer from the user.
type Prompter interface {
	Prompt(ctx context.Context, label string) (string, error)
}

// PromptFunc adapts a plain function to Prompter.
type PromptFunc func(ctx context.Context, label string) (string, error)

// Prompt implements Prompter.
func (f PromptFunc) Prompt(ctx context.Context, label string) (string, error) {
	return f(ctx, label)
}

// Alerter shows a user-visible failure.
type Alerter interface {
	Alert(ctx context.Context, title, message string)
}

// AlertFunc adapts a plain function to Alerter.
type AlertFunc func(ctx context.Context, title, message string)

// Alert implements Alerter.
func (f AlertFunc) Alert(ctx context.Context, title, message string) {
	f(ctx, title, message)
}

// NopAlerter drops every alert.
type NopAlerter struct{}

// Alert implements Alerter.
func (NopAlerter) Alert(context.Context, string, string) {}
