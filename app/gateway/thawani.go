// Package gateway talks to the Thawani hosted checkout API.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shashiranjanraj/souq/config"
	souqhttp "github.com/shashiranjanraj/souq/pkg/http"
	"github.com/shashiranjanraj/souq/pkg/logger"
	"github.com/shashiranjanraj/souq/pkg/metrics"
)

const apiKeyHeader = "thawani-api-key"

// Session lookup strategies.
const (
	LookupReference = "reference"
	LookupScan      = "scan"
)

var ErrSessionNotFound = errors.New("gateway: session not found")

// LineItem amounts are in the gateway's minor unit.
type LineItem struct {
	Name       string `json:"name"`
	ProductID  string `json:"productId,omitempty"`
	Quantity   int    `json:"quantity"`
	UnitAmount int64  `json:"unit_amount"`
}

type CreateSessionRequest struct {
	ClientReferenceID string         `json:"client_reference_id"`
	Mode              string         `json:"mode"`
	Products          []LineItem     `json:"products"`
	SuccessURL        string         `json:"success_url"`
	CancelURL         string         `json:"cancel_url"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

type Session struct {
	SessionID         string         `json:"session_id"`
	ClientReferenceID string         `json:"client_reference_id"`
	Products          []LineItem     `json:"products"`
	TotalAmount       int64          `json:"total_amount"`
	PaymentStatus     string         `json:"payment_status"`
	Metadata          map[string]any `json:"metadata"`
}

type envelope[T any] struct {
	Success     bool   `json:"success"`
	Code        int    `json:"code"`
	Description string `json:"description"`
	Data        T      `json:"data"`
}

// Client calls the gateway through pkg/http, so tests can swap its transport.
type Client struct {
	baseURL        string
	checkoutURL    string
	apiKey         string
	publishableKey string
	timeout        time.Duration
	lookup         string
	pageSize       int
}

func New(s config.GatewaySettings) *Client {
	if s.PageSize <= 0 {
		s.PageSize = 10
	}
	return &Client{
		baseURL:        s.BaseURL,
		checkoutURL:    s.CheckoutURL,
		apiKey:         s.APIKey,
		publishableKey: s.PublishableKey,
		timeout:        s.Timeout,
		lookup:         s.Lookup,
		pageSize:       s.PageSize,
	}
}

// CreateSession opens a checkout session.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (_ *Session, err error) {
	defer observe("create_session", time.Now(), &err)

	var env envelope[Session]
	if err := c.do(ctx, souqhttp.Post(c.baseURL+"/checkout/session").Body(req), &env); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if env.Data.SessionID == "" {
		return nil, fmt.Errorf("create session: response has no session_id (%s)", env.Description)
	}
	return &env.Data, nil
}

// GetSession fetches one session by id.
func (c *Client) GetSession(ctx context.Context, sessionID string) (_ *Session, err error) {
	defer observe("get_session", time.Now(), &err)

	var env envelope[Session]
	err = c.do(ctx, souqhttp.Get(c.baseURL+"/checkout/session/"+url.PathEscape(sessionID)), &env)
	if souqhttp.IsStatus(err, http.StatusNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return &env.Data, nil
}

// FindByReference locates the session created with a client reference id,
// either through the reference endpoint or by paging through every session.
func (c *Client) FindByReference(ctx context.Context, ref string) (_ *Session, err error) {
	defer observe("find_reference", time.Now(), &err)

	if c.lookup == LookupScan {
		return c.scan(ctx, ref)
	}

	var env envelope[Session]
	err = c.do(ctx, souqhttp.Get(c.baseURL+"/checkout/reference/"+url.PathEscape(ref)), &env)
	if souqhttp.IsStatus(err, http.StatusNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session by reference: %w", err)
	}
	if env.Data.SessionID == "" {
		return nil, ErrSessionNotFound
	}
	return &env.Data, nil
}

func (c *Client) scan(ctx context.Context, ref string) (*Session, error) {
	for skip := 0; ; skip += c.pageSize {
		req := souqhttp.Get(c.baseURL+"/checkout/session/").
			Query("limit", strconv.Itoa(c.pageSize)).
			Query("skip", strconv.Itoa(skip))

		var env envelope[[]Session]
		if err := c.do(ctx, req, &env); err != nil {
			return nil, fmt.Errorf("list sessions (skip %d): %w", skip, err)
		}
		for i := range env.Data {
			if env.Data[i].ClientReferenceID == ref {
				return &env.Data[i], nil
			}
		}
		if len(env.Data) < c.pageSize {
			logger.WithCtx(ctx).Debug("gateway: reference not found after scan", "reference", ref, "scanned", skip+len(env.Data))
			return nil, ErrSessionNotFound
		}
	}
}

// PaymentLink is the hosted page the customer is sent to.
func (c *Client) PaymentLink(sessionID string) string {
	return fmt.Sprintf("%s/pay/%s?key=%s", c.checkoutURL, url.PathEscape(sessionID), url.QueryEscape(c.publishableKey))
}

func observe(op string, start time.Time, err *error) {
	metrics.ObserveGateway(op, *err, start)
}

func (c *Client) do(ctx context.Context, req *souqhttp.Request, dest any) error {
	resp, err := req.WithContext(ctx).
		Header(apiKeyHeader, c.apiKey).
		Timeout(c.timeout).
		Send()
	if err != nil {
		return err
	}
	if err := resp.Throw(); err != nil {
		return err
	}
	return resp.JSON(dest)
}
