package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/mkrupp/chatapp/internal/domain"
)

// LocatorConfig holds the position reported by the fixed locator.
type LocatorConfig struct {
	Latitude  float64 `env:"LATITUDE" default:"0"`
	Longitude float64 `env:"LONGITUDE" default:"0"`

	// Enabled turns the location service on
	Enabled bool `env:"ENABLED" default:"true"`
	// Timeout bounds waiting for a fix
	Timeout time.Duration `env:"TIMEOUT" default:"60s"`
}

// FixedLocator reports the configured position.
type FixedLocator struct {
	cfg LocatorConfig
}

var _ Locator = (*FixedLocator)(nil)

// NewFixedLocator creates a locator reporting cfg's position.
func NewFixedLocator(cfg LocatorConfig) *FixedLocator {
	return &FixedLocator{cfg: cfg}
}

// CurrentPosition implements Locator.
func (l *FixedLocator) CurrentPosition(ctx context.Context) (domain.Location, error) {
	if !l.cfg.Enabled {
		return domain.Location{}, ErrLocationUnavailable
	}

	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	if err := ctx.Err(); err != nil {
		return domain.Location{}, fmt.Errorf("locate: %w", err)
	}

	return domain.Location{Latitude: l.cfg.Latitude, Longitude: l.cfg.Longitude}, nil
}
