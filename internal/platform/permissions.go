package platform

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// PermissionsConfig controls how permissions are granted.
type PermissionsConfig struct {
	// Ask makes the client prompt on first use; otherwise everything is granted.
	Ask bool `env:"ASK" default:"false"`
}

// PromptPermissions asks once per permission and remembers a grant for the
// rest of the process. A denial is asked again next time.
type PromptPermissions struct {
	prompter Prompter
	cfg      PermissionsConfig

	mu      sync.Mutex
	granted map[Permission]bool
}

var _ Permissions = (*PromptPermissions)(nil)

// NewPromptPermissions creates permissions backed by prompter.
func NewPromptPermissions(prompter Prompter, cfg PermissionsConfig) *PromptPermissions {
	return &PromptPermissions{
		prompter: prompter,
		cfg:      cfg,
		granted:  map[Permission]bool{},
	}
}

// Request implements Permissions.
func (p *PromptPermissions) Request(ctx context.Context, perm Permission) (bool, error) {
	if !p.cfg.Ask {
		return true, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.granted[perm] {
		return true, nil
	}

	answer, err := p.prompter.Prompt(ctx, fmt.Sprintf("Allow access to the %s? [y/N]", perm))
	if err != nil {
		return false, fmt.Errorf("prompt: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		p.granted[perm] = true

		return true, nil
	default:
		return false, nil
	}
}
