package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMessage is returned when a text message has no content after trimming.
	ErrEmptyMessage = errors.New("empty message")
	// ErrPermissionDenied is returned when the user declines a platform permission.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrCaptureCanceled is returned by a camera when the user backs out.
	ErrCaptureCanceled = errors.New("capture canceled")
	// ErrAlreadyLocating is returned when a location request is already running.
	ErrAlreadyLocating = errors.New("already locating")
)

// MessageType is the kind of payload a chat message carries.
type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageLocation MessageType = "location"
)

// Sender tells who authored a message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderSystem Sender = "system"
)

// Location is a geographic position in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MapURL returns a link that opens the location in Google Maps.
func (l Location) MapURL() string {
	return fmt.Sprintf("https://www.google.com/maps?q=%v,%v", l.Latitude, l.Longitude)
}

// Message is a single chat entry. Exactly one payload field is set, matching Type.
type Message struct {
	ID       string      `json:"id"`
	Type     MessageType `json:"type"`
	Text     string      `json:"text,omitempty"`
	Image    *ImageRef   `json:"image,omitempty"`
	Location *Location   `json:"location,omitempty"`
	Sender   Sender      `json:"sender"`
}
