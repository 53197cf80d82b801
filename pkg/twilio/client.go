// Package twilio wraps the Twilio Go SDK for outbound SMS and webhook
// signature checks.
package twilio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	twiliosdk "github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/angelmondragon/crewtext-backend/pkg/config"
	"github.com/angelmondragon/crewtext-backend/pkg/logger"
)

// Sender is the surface the messaging layer depends on.
type Sender interface {
	SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error)
}

// RestError is the error the SDK returns for non-2xx responses.
type RestError = twclient.TwilioRestError

// messageAPI is the part of the generated v2010 API service the client calls.
type messageAPI interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type Client struct {
	api            messageAPI
	statusCallback string
	logg           *logger.Logger
	maxRetries     int
	backoff        time.Duration
	sleep          func(context.Context, time.Duration) error
}

type Option func(*Client)

// WithBackoff sets the initial delay between retries.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

func New(cfg config.TwilioConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	sid := strings.TrimSpace(cfg.AccountSID)
	token := strings.TrimSpace(cfg.AuthToken)
	if sid == "" {
		return nil, errors.New("twilio: account sid required")
	}
	if token == "" {
		return nil, errors.New("twilio: auth token required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := &twclient.Client{
		Credentials: twclient.NewCredentials(sid, token),
		HTTPClient:  &http.Client{Timeout: timeout},
	}
	transport.SetAccountSid(sid)
	rest := twiliosdk.NewRestClientWithParams(twiliosdk.ClientParams{
		Username:   sid,
		Password:   token,
		AccountSid: sid,
		Client:     transport,
	})
	return newClient(rest.Api, cfg, logg, opts...), nil
}

func newClient(api messageAPI, cfg config.TwilioConfig, logg *logger.Logger, opts ...Option) *Client {
	if logg == nil {
		logg = logger.Nop()
	}
	c := &Client{
		api:            api,
		statusCallback: strings.TrimSpace(cfg.StatusCallback),
		logg:           logg,
		maxRetries:     max(cfg.MaxRetries, 0),
		backoff:        time.Second,
		sleep:          sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type SendMessageRequest struct {
	To                string
	From              string
	Body              string
	StatusCallbackURL string
}

// Message is the subset of the provider's message resource callers use.
type Message struct {
	SID    string
	Status string
	To     string
	From   string
}

func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("twilio client unavailable")
	}

	req.To = strings.TrimSpace(req.To)
	req.From = strings.TrimSpace(req.From)
	req.Body = strings.TrimSpace(req.Body)
	req.StatusCallbackURL = strings.TrimSpace(req.StatusCallbackURL)
	if req.To == "" {
		return nil, errors.New("twilio: To required")
	}
	if req.From == "" {
		return nil, errors.New("twilio: From required")
	}
	if req.Body == "" {
		return nil, errors.New("twilio: Body required")
	}
	if req.StatusCallbackURL == "" {
		req.StatusCallbackURL = c.statusCallback
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(req.To)
	params.SetFrom(req.From)
	params.SetBody(req.Body)
	if req.StatusCallbackURL != "" {
		params.SetStatusCallback(req.StatusCallbackURL)
	}

	resp, err := c.createWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}
	return &Message{
		SID:    deref(resp.Sid),
		Status: deref(resp.Status),
		To:     req.To,
		From:   req.From,
	}, nil
}

func (c *Client) createWithRetry(ctx context.Context, params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	backoff := c.backoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := c.api.CreateMessage(params)
		if err == nil {
			return resp, nil
		}
		if !isRetryableError(err) || attempt == c.maxRetries {
			return nil, err
		}

		sleepFor := jitter(min(backoff, 10*time.Second))
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"attempt":     attempt + 1,
			"max_retries": c.maxRetries,
			"sleep":       sleepFor.String(),
		})
		c.logg.Warn(logCtx, fmt.Sprintf("twilio request retrying: %v", err))

		if err := c.sleep(ctx, sleepFor); err != nil {
			return nil, err
		}
		backoff *= 2
	}

	return nil, errors.New("unreachable retry loop")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
