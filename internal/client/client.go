// Package client talks to the intake API over HTTP. It is what chat front
// ends use to drive the sync loop.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-intake/internal/api/dto"
	"github.com/spec-kit/legal-intake/internal/chatsync"
	"github.com/spec-kit/legal-intake/internal/domain"
	apperrors "github.com/spec-kit/legal-intake/pkg/util"
)

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	timeout time.Duration

	mu    sync.RWMutex
	token string
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

// SetToken replaces the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (dto.AuthResponse, error) {
	agent := fiber.Post(c.baseURL + "/auth/login")
	agent.JSON(dto.LoginRequest{Email: email, Password: password})
	resp, err := send[dto.AuthResponse](ctx, c, agent)
	if err != nil {
		return resp, err
	}
	c.SetToken(resp.Token)
	return resp, nil
}

// SendMessage appends body to a conversation. Clients pass an empty clientID.
func (c *Client) SendMessage(ctx context.Context, clientID, body string) (domain.Message, error) {
	agent := fiber.Post(c.baseURL + "/chat/messages")
	agent.JSON(dto.SendMessageRequest{Body: body, ClientID: clientID})
	resp, err := send[dto.MessageResponse](ctx, c, agent)
	if err != nil {
		return domain.Message{}, err
	}
	return resp.ToDomain(), nil
}

// ListMessages pages a conversation. A nil cursor asks for the latest page.
func (c *Client) ListMessages(ctx context.Context, clientID string, cursor *int64, limit int) ([]domain.Message, error) {
	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	if clientID != "" {
		args.Set("client_id", clientID)
	}
	if cursor != nil {
		args.Set("cursor", strconv.FormatInt(*cursor, 10))
	}
	if limit > 0 {
		args.Set("limit", strconv.Itoa(limit))
	}

	agent := fiber.Get(c.baseURL + "/chat/messages")
	agent.QueryStringBytes(args.QueryString())
	resp, err := send[[]dto.MessageResponse](ctx, c, agent)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, len(resp))
	for _, m := range resp {
		out = append(out, m.ToDomain())
	}
	return out, nil
}

// MarkRead flags one message as read.
func (c *Client) MarkRead(ctx context.Context, messageID string) (domain.Message, error) {
	agent := fiber.Put(c.baseURL + "/chat/messages/" + messageID + "/read")
	resp, err := send[dto.MessageResponse](ctx, c, agent)
	if err != nil {
		return domain.Message{}, err
	}
	return resp.ToDomain(), nil
}

// Fetcher adapts ListMessages to the sync loop.
func (c *Client) Fetcher(clientID string) chatsync.Fetcher {
	return func(ctx context.Context, cursor int64, limit int) ([]domain.Message, error) {
		return c.ListMessages(ctx, clientID, &cursor, limit)
	}
}

func send[T any](ctx context.Context, c *Client, agent *fiber.Agent) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(agent)
		return zero, apperrors.NewTransientFailure(err)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	agent.Timeout(timeout)
	if token := c.bearer(); token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return zero, apperrors.NewTransientFailure(errors.Join(errs...))
	}
	if status >= fiber.StatusBadRequest {
		return zero, decodeError(status, body)
	}

	var env dto.DataEnvelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, fmt.Errorf("decode response: %w", err)
	}
	return env.Data, nil
}

func decodeError(status int, body []byte) error {
	var env dto.ErrorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Code == "" {
		env.Error = dto.ErrorBody{Code: apperrors.CodeInternal, Message: fmt.Sprintf("unexpected status %d", status)}
	}
	remote := apperrors.NewDomainError(env.Error.Code, env.Error.Message, status, env.Error.Details)
	if status >= fiber.StatusInternalServerError {
		return apperrors.NewTransientFailure(remote)
	}
	return remote
}
