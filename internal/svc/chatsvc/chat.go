// Package chatsvc is the in-memory model behind the chat screen. Messages live
// only as long as the Chat; nothing is persisted or sent anywhere.
package chatsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mkrupp/chatapp/internal/domain"
	"github.com/mkrupp/chatapp/internal/infra/logging"
	"github.com/mkrupp/chatapp/internal/platform"
	"github.com/mkrupp/chatapp/internal/svc/imagesvc"
)

const (
	WelcomeText = "Hello! Welcome to the chat 👋"
	HintText    = "Tap below to start typing..."

	titlePermissionDenied = "Permission denied"
	titleError            = "Error"

	msgCameraPermission   = "Camera permission is required."
	msgLocationPermission = "Location permission is required."
	msgCameraFallback     = "Camera error"
	msgLocationFallback   = "Location error"
)

// Chat is an ordered list of messages plus the actions that append to it.
// It is safe for concurrent use.
type Chat struct {
	images  imagesvc.ImageService
	camera  platform.Camera
	locator platform.Locator
	perms   platform.Permissions
	alerter platform.Alerter
	log     logging.Logger

	locating atomic.Bool

	mu       sync.RWMutex
	messages []domain.Message
}

// NewChat creates a chat seeded with the welcome messages.
func NewChat(
	images imagesvc.ImageService,
	camera platform.Camera,
	locator platform.Locator,
	perms platform.Permissions,
	alerter platform.Alerter,
) *Chat {
	c := &Chat{
		images:  images,
		camera:  camera,
		locator: locator,
		perms:   perms,
		alerter: alerter,
		log:     logging.GetLogger("svc.chatsvc.chat"),
	}

	c.append(domain.Message{Type: domain.MessageText, Text: WelcomeText, Sender: domain.SenderSystem})
	c.append(domain.Message{Type: domain.MessageText, Text: HintText, Sender: domain.SenderSystem})

	return c
}

// Messages returns a copy of the messages in insertion order.
func (c *Chat) Messages() []domain.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]domain.Message(nil), c.messages...)
}

// Locating reports whether ShareLocation is waiting for a fix.
func (c *Chat) Locating() bool {
	return c.locating.Load()
}

// SendText appends a user text message. Surrounding whitespace is dropped;
// blank text adds nothing and returns domain.ErrEmptyMessage.
func (c *Chat) SendText(ctx context.Context, text string) (domain.Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.Message{}, domain.ErrEmptyMessage
	}

	msg := c.append(domain.Message{Type: domain.MessageText, Text: trimmed, Sender: domain.SenderUser})
	c.log.DebugContext(ctx, "text sent", "id", msg.ID)

	return msg, nil
}

// CaptureImage takes a photo and appends it as an image message.
// A canceled capture adds nothing and is not alerted.
func (c *Chat) CaptureImage(ctx context.Context) (_ domain.Message, err error) {
	defer func() {
		switch {
		case err == nil:
			c.log.DebugContext(ctx, "image sent")
		case errors.Is(err, domain.ErrCaptureCanceled):
			c.log.DebugContext(ctx, "capture canceled")
		default:
			c.log.ErrorContext(ctx, "capture image failed", "error", err)
		}
	}()

	if err := c.requirePermission(ctx, platform.PermissionCamera, msgCameraPermission); err != nil {
		return domain.Message{}, err
	}

	capture, err := c.camera.Capture(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrCaptureCanceled) {
			c.alerter.Alert(ctx, titleError, errorMessage(err, msgCameraFallback))
		}

		return domain.Message{}, fmt.Errorf("capture: %w", err)
	}

	ref, err := c.images.Store(ctx, capture)
	if err != nil {
		c.alerter.Alert(ctx, titleError, errorMessage(err, msgCameraFallback))

		return domain.Message{}, fmt.Errorf("store image: %w", err)
	}

	return c.append(domain.Message{Type: domain.MessageImage, Image: &ref, Sender: domain.SenderUser}), nil
}

// ShareLocation appends the current position as a location message. Only one
// request runs at a time; Locating is true while it waits.
func (c *Chat) ShareLocation(ctx context.Context) (_ domain.Message, err error) {
	defer func() {
		if err != nil {
			c.log.ErrorContext(ctx, "share location failed", "error", err)
		} else {
			c.log.DebugContext(ctx, "location sent")
		}
	}()

	if err := c.requirePermission(ctx, platform.PermissionLocation, msgLocationPermission); err != nil {
		return domain.Message{}, err
	}

	if !c.locating.CompareAndSwap(false, true) {
		return domain.Message{}, domain.ErrAlreadyLocating
	}
	defer c.locating.Store(false)

	loc, err := c.locator.CurrentPosition(ctx)
	if err != nil {
		c.alerter.Alert(ctx, titleError, errorMessage(err, msgLocationFallback))

		return domain.Message{}, fmt.Errorf("current position: %w", err)
	}

	return c.append(domain.Message{Type: domain.MessageLocation, Location: &loc, Sender: domain.SenderUser}), nil
}

func (c *Chat) requirePermission(ctx context.Context, perm platform.Permission, denied string) error {
	granted, err := c.perms.Request(ctx, perm)
	if err != nil {
		return fmt.Errorf("request %s permission: %w", perm, err)
	}

	if !granted {
		c.alerter.Alert(ctx, titlePermissionDenied, denied)

		return fmt.Errorf("%w: %s", domain.ErrPermissionDenied, perm)
	}

	return nil
}

func (c *Chat) append(msg domain.Message) domain.Message {
	msg.ID = newMessageID()

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()

	return msg
}

// newMessageID returns a time-ordered id. Falls back to a random one if the
// clock sequence cannot be read.
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

func errorMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}

	return err.Error()
}
