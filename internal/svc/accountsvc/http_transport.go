package accountsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/mkrupp/chatapp/internal/domain"
	"github.com/mkrupp/chatapp/internal/infra/logging"
	http_ "github.com/mkrupp/chatapp/internal/infra/transport/http"
)

// ErrMalformedUser is returned when a create request body cannot be decoded.
var ErrMalformedUser = errors.New("malformed user")

// maxBodySize caps create request bodies.
const maxBodySize = 1 << 16

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig

	// AllowedOrigins lists CORS origins, comma separated
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" default:"*"`
}

// HTTPTransport serves the /Users collection of the account service.
type HTTPTransport struct {
	accountSvc *AccountService
	router     chi.Router
	log        logging.Logger
	cfg        HTTPTransportConfig
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
// Routes:
// - GET /Users: list records, filtered by the email and password query params
// - POST /Users: create a record from a JSON body.
func NewHTTPTransport(
	accountSvc *AccountService,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	ht := &HTTPTransport{
		accountSvc: accountSvc,
		log:        logging.GetLogger("svc.accountsvc.http_transport"),
		cfg:        cfg,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{ //nolint:exhaustruct
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         60 * 15,
	}))

	r.Get("/Users", ht.HandleFindUsers)
	r.Post("/Users", ht.HandleCreateUser)

	ht.router = r

	return ht
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.router.ServeHTTP(w, r)
}

// HandleFindUsers lists the user records matching the query.
func (ht *HTTPTransport) HandleFindUsers(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleFindUsers(w, r)
}

func (ht *HTTPTransport) handleFindUsers(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "path", r.URL.Path))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "find users failed", "error", err)
		} else {
			log.DebugContext(ctx, "users listed")
		}
	}(r.Context())

	users, err := ht.accountSvc.FindUsers(r.Context(), parseUserFilter(r.URL.Query()))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("find users: %w", err)
	}

	return writeJSON(w, http.StatusOK, users)
}

// parseUserFilter filters on every param present in query, empty ones included.
func parseUserFilter(query url.Values) domain.UserFilter {
	var filter domain.UserFilter

	if query.Has("email") {
		email := query.Get("email")
		filter.Email = &email
	}

	if query.Has("password") {
		password := query.Get("password")
		filter.Password = &password
	}

	return filter
}

// HandleCreateUser creates a user record.
// Expects a JSON body {name, email, password}; answers 201 with the record.
func (ht *HTTPTransport) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleCreateUser(w, r)
}

func (ht *HTTPTransport) handleCreateUser(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "path", r.URL.Path))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "create user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user created")
		}
	}(r.Context())

	var body domain.NewUser

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&body); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return errors.Join(ErrMalformedUser, err)
	}

	log = log.With(logging.Group("user", "email", body.Email))

	user, err := ht.accountSvc.CreateUser(r.Context(), body)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("create user: %w", err)
	}

	return writeJSON(w, http.StatusCreated, user)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}
