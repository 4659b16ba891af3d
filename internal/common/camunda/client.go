package camunda

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tariff-workers/internal/common/config"
	"tariff-workers/internal/common/errors"
)

const connectTimeout = 10 * time.Second

// Backoff bounds the retries Do makes on broker calls.
type Backoff struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

// DefaultBackoff tries a gateway call up to four times, doubling from one
// second and capped at ten.
var DefaultBackoff = Backoff{Attempts: 4, Base: time.Second, Max: 10 * time.Second}

func (b Backoff) delay(attempt int) time.Duration {
	d := b.Base << attempt
	if d <= 0 || d > b.Max {
		return b.Max
	}
	return d
}

// Client is the gateway connection shared by every tariff job worker.
type Client struct {
	zb      zbc.Client
	address string
	backoff Backoff
}

// NewClient dials the gateway from the camunda config section and waits for
// a topology answer before returning.
func NewClient(cfg config.CamundaConfig) (*Client, error) {
	zb, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: cfg.Plaintext,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{zb: zb, address: cfg.BrokerAddress, backoff: DefaultBackoff}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := c.Do(ctx, "topology", c.topology); err != nil {
		_ = zb.Close()
		return nil, fmt.Errorf("gateway %s did not answer: %w", cfg.BrokerAddress, err)
	}
	return c, nil
}

// GetClient exposes the raw client for job workers and deployments.
func (c *Client) GetClient() zbc.Client {
	return c.zb
}

func (c *Client) Close() error {
	return c.zb.Close()
}

// Do runs one gateway call. Unavailable and timed-out calls are retried with
// backoff; anything else fails at once. The returned error is a
// StandardError: TIMEOUT_ERROR when the last failure was a deadline,
// EXTERNAL_SERVICE_ERROR otherwise.
func (c *Client) Do(ctx context.Context, op string, call func(context.Context) error) error {
	attempts := c.backoff.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; ; attempt++ {
		err := call(ctx)
		if err == nil {
			return nil
		}

		kind := classify(err)
		if kind == failPermanent || attempt == attempts-1 {
			return gatewayError(op, attempt, kind, err)
		}

		select {
		case <-time.After(c.backoff.delay(attempt)):
		case <-ctx.Done():
			return errors.NewTimeoutError("zeebe",
				fmt.Errorf("%s cancelled after %d attempts: %w", op, attempt+1, ctx.Err()))
		}
	}
}

// HealthCheck asks the gateway for its topology once, without retrying.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := c.topology(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

func (c *Client) topology(ctx context.Context) error {
	_, err := c.zb.NewTopologyCommand().Send(ctx)
	return err
}

type failure int

const (
	failPermanent failure = iota
	failUnavailable
	failTimeout
)

// classify reads the gRPC status first. Errors that lost their status on the
// way (wrapped transport errors, plain net errors) fall back to the message.
func classify(err error) failure {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return failTimeout
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.DeadlineExceeded:
			return failTimeout
		case codes.Unavailable, codes.ResourceExhausted:
			return failUnavailable
		case codes.Unknown:
		default:
			return failPermanent
		}
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"deadline exceeded", "timeout"} {
		if strings.Contains(msg, s) {
			return failTimeout
		}
	}
	for _, s := range []string{"unavailable", "connection refused", "connection reset", "broken pipe", "unreachable"} {
		if strings.Contains(msg, s) {
			return failUnavailable
		}
	}
	return failPermanent
}

func gatewayError(op string, attempt int, kind failure, err error) error {
	wrapped := fmt.Errorf("zeebe %s failed after %d attempts: %w", op, attempt+1, err)
	if kind == failTimeout {
		return errors.NewTimeoutError("zeebe", wrapped)
	}
	return errors.NewExternalServiceError("zeebe", wrapped)
}
