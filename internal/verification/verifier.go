// Package verification asks the captcha oracle whether a submission proof is
// genuine.
package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Verifier is a pass/fail oracle for submission proofs.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// Turnstile calls a Cloudflare Turnstile compatible siteverify endpoint.
type Turnstile struct {
	secret  string
	url     string
	timeout time.Duration
	logger  *zap.Logger
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
	Hostname   string   `json:"hostname"`
}

// NewTurnstile builds a verifier. With an empty secret every proof passes.
func NewTurnstile(secret, url string, timeout time.Duration, logger *zap.Logger) *Turnstile {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Turnstile{secret: secret, url: url, timeout: timeout, logger: logger}
}

// Enabled reports whether proofs are actually checked.
func (t *Turnstile) Enabled() bool {
	return t.secret != ""
}

func (t *Turnstile) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if !t.Enabled() {
		return true, nil
	}
	if token == "" {
		return false, nil
	}

	timeout := t.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return false, context.DeadlineExceeded
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("secret", t.secret)
	args.Set("response", token)
	if remoteIP != "" {
		args.Set("remoteip", remoteIP)
	}

	agent := fiber.Post(t.url)
	agent.Form(args)
	agent.Timeout(timeout)

	var out siteverifyResponse
	status, _, errs := agent.Struct(&out)
	if len(errs) > 0 {
		return false, errors.Join(errs...)
	}
	if status != fiber.StatusOK {
		return false, fmt.Errorf("siteverify returned status %d", status)
	}
	if !out.Success {
		t.logger.Debug("captcha rejected", zap.Strings("error_codes", out.ErrorCodes))
	}
	return out.Success, nil
}

// Static always returns the same verdict. Useful when wiring tests.
type Static bool

func (s Static) Verify(context.Context, string, string) (bool, error) {
	return bool(s), nil
}
