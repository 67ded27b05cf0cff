package accountclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mkrupp/chatapp/internal/domain"
	context_ "github.com/mkrupp/chatapp/internal/infra/context"
	"github.com/mkrupp/chatapp/internal/infra/logging"
)

const (
	TraceIDHeader = "X-Request-ID"

	usersPath = "/Users"
)

// HTTPClientConfig holds configuration for the HTTP account client.
type HTTPClientConfig struct {
	// BaseURL is the root of the account service; requests go to {BaseURL}/Users
	BaseURL string `env:"BASE_URL" default:"http://localhost:3000"`
	// Timeout bounds a whole request including reading the body
	Timeout time.Duration `env:"TIMEOUT" default:"30s"`
}

// HTTPClient implements AccountClient with plain REST calls.
type HTTPClient struct {
	httpClient *http.Client
	log        logging.Logger
	cfg        HTTPClientConfig
}

var _ AccountClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTPClient with the given configuration.
// If httpClient is nil, a client with the configured timeout is used.
func NewHTTPClient(
	cfg HTTPClientConfig,
	httpClient *http.Client,
) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout} //nolint:exhaustruct
	}

	return &HTTPClient{
		httpClient: httpClient,
		log:        logging.GetLogger("svc.sessionsvc.account_client"),
		cfg:        cfg,
	}
}

// FindUsers implements AccountClient.FindUsers with GET /Users?email=&password=.
// Every set field of filter is sent, empty values included.
func (hc *HTTPClient) FindUsers(ctx context.Context, filter domain.UserFilter) (_ []domain.User, err error) {
	log := hc.log.With("filter", filter)

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "find users failed", "error", err)
		} else {
			log.DebugContext(ctx, "users found")
		}
	}()

	query := url.Values{}
	if filter.Email != nil {
		query.Set("email", *filter.Email)
	}

	if filter.Password != nil {
		query.Set("password", *filter.Password)
	}

	endpoint := hc.endpoint()
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	var users []domain.User
	if err := hc.do(req, &users); err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	if users == nil {
		users = []domain.User{}
	}

	return users, nil
}

// CreateUser implements AccountClient.CreateUser with POST /Users.
func (hc *HTTPClient) CreateUser(ctx context.Context, user domain.NewUser) (_ *domain.User, err error) {
	log := hc.log.With(logging.Group("user", "email", user.Email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "create user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user created")
		}
	}()

	body, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hc.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	var created domain.User
	if err := hc.do(req, &created); err != nil {
		return nil, fmt.Errorf("post user: %w", err)
	}

	return &created, nil
}

func (hc *HTTPClient) endpoint() string {
	return strings.TrimRight(hc.cfg.BaseURL, "/") + usersPath
}

// do sends req and decodes a 2xx JSON body into out. Every failure carries domain.ErrTransport.
func (hc *HTTPClient) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	if traceID, ok := context_.TraceIDFromContext(req.Context()); ok {
		req.Header.Set(TraceIDHeader, traceID)
	}

	resp, err := hc.httpClient.Do(req)
	if err != nil {
		return errors.Join(domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Join(domain.ErrTransport, &StatusError{StatusCode: resp.StatusCode})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(domain.ErrTransport, fmt.Errorf("decode response: %w", err))
	}

	return nil
}

// StatusError reports a non-2xx answer of the account service.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
}
