// Package edumon is the client of the Edumon school REST backend.
package edumon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/edumon-sync/internal/domain"
)

// DefaultTimeout bounds dialing, the TLS handshake and waiting for response headers.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// Client calls the Edumon REST API. Every call except Login carries the
// caller's bearer token.
type Client struct {
	base *url.URL
	http *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default bounded http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient parses baseURL (for example "https://edumon.example/api/") and
// builds a client whose network phases are each bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		base: base,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          10,
			},
			// Body reads are bounded too; a stalled transfer becomes an error.
			Timeout: 3 * timeout,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ── notifications ────────────────────────────────────────────────────────────

// ListNotifications fetches one page of the user's notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context, token string, page, limit int, unreadOnly bool) (*domain.NotificationPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if unreadOnly {
		q.Set("leida", "false")
	}
	var out domain.NotificationPage
	if err := c.do(ctx, "list notifications", http.MethodGet, "notificaciones", q, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkRead(ctx context.Context, token, id string) error {
	return c.do(ctx, "mark notification read", http.MethodPatch,
		"notificaciones/"+url.PathEscape(id)+"/marcar-leida", nil, token, nil, nil)
}

func (c *Client) DeleteNotification(ctx context.Context, token, id string) error {
	return c.do(ctx, "delete notification", http.MethodDelete,
		"notificaciones/"+url.PathEscape(id), nil, token, nil, nil)
}

// ── device ───────────────────────────────────────────────────────────────────

type fcmTokenBody struct {
	FCMToken string `json:"fcmToken"`
}

// RegisterFCMToken attaches the device push token to the logged-in user.
func (c *Client) RegisterFCMToken(ctx context.Context, token, fcmToken string) error {
	return c.do(ctx, "register fcm token", http.MethodPut, "usuarios/me/fcm-token", nil, token,
		fcmTokenBody{FCMToken: fcmToken}, nil)
}

// ── auth ─────────────────────────────────────────────────────────────────────

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// apiUser is the user object of the login response.
type apiUser struct {
	ID         string  `json:"_id"`
	ParentID   string  `json:"padreId"`
	Name       string  `json:"nombre"`
	LastName   string  `json:"apellido"`
	Cedula     *string `json:"cedula"`
	Email      string  `json:"email"`
	Phone      string  `json:"telefono"`
	Role       string  `json:"rol"`
	Photo      *string `json:"foto"`
	Status     string  `json:"estado"`
	FirstLogin bool    `json:"primerInicioSesion"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  apiUser `json:"usuario"`
}

// LoginResult is a successful authentication.
type LoginResult struct {
	Token      string
	User       domain.UserData
	FirstLogin bool
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var resp loginResponse
	if err := c.do(ctx, "login", http.MethodPost, "auth/login", nil, "",
		loginBody{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login: response carries no token: %w", domain.ErrUnavailable)
	}
	u := resp.User
	return &LoginResult{
		Token: resp.Token,
		User: domain.UserData{
			ID:       u.ID,
			ParentID: u.ParentID,
			Name:     u.Name,
			LastName: u.LastName,
			Cedula:   u.Cedula,
			Email:    u.Email,
			Phone:    u.Phone,
			Role:     u.Role,
			Photo:    u.Photo,
			Status:   u.Status,
		},
		FirstLogin: u.FirstLogin,
	}, nil
}

// ── transport ────────────────────────────────────────────────────────────────

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, token string, in, out any) error {
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	ref.RawQuery = query.Encode()
	u := c.base.ResolveReference(ref)

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w", op, newAPIError(resp))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w: %w", op, domain.ErrUnavailable, err)
	}
	return nil
}

// ── errors ───────────────────────────────────────────────────────────────────

// APIError is a non-2xx answer of the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("edumon api: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code onto a domain sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return domain.ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return domain.ErrConflict
	case e.StatusCode >= 500:
		return domain.ErrUnavailable
	default:
		return domain.ErrBadRequest
	}
}

// IsAPIError reports whether err carries a backend status and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func newAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
		Mensaje string `json:"mensaje"`
		Error   string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(raw, &payload) == nil {
		for _, m := range []string{payload.Message, payload.Mensaje, payload.Error} {
			if m != "" {
				msg = m
				break
			}
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
