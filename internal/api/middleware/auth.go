package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fabricadesoftware/vumock/internal/auth"
	"github.com/fabricadesoftware/vumock/internal/domain"
	"github.com/fabricadesoftware/vumock/internal/store"
)

// localStore is the key the authenticated database store is stored under.
const localStore = "store"

// Scope selects which key pair of a database a route authenticates with.
type Scope int

const (
	// ScopeServer is the management API, signed with the server key pair.
	ScopeServer Scope = iota
	// ScopeClient is the query API, signed with the client key pair.
	ScopeClient
)

// Auth verifies the VWS signature of a request and resolves the database
// store it addresses. The signature covers the method, the MD5 of the
// body, the content type, the date header and the path, so any later
// tampering invalidates it.
//
// The management API answers every failure with the standard JSON error;
// the query API reports missing or malformed headers as plain text the way
// the real endpoint does, and every query failure carries a
// WWW-Authenticate: VWS challenge.
func Auth(registry *store.Registry, scope Scope, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			if scope == ScopeClient {
				return plainUnauthorized("Authorization header missing.")
			}
			return domain.ErrAuthenticationFailure
		}

		accessKey, signature, ok := auth.Parse(header)
		if !ok {
			if scope == ScopeClient {
				return plainUnauthorized("Malformed auth header.")
			}
			return domain.ErrAuthenticationFailure.WithCause(auth.ErrMalformedHeader)
		}

		var (
			st        *store.Store
			found     bool
			secretKey string
		)
		switch scope {
		case ScopeServer:
			if st, found = registry.ByServerKey(accessKey); found {
				secretKey = st.Database().ServerSecretKey
			}
		case ScopeClient:
			if st, found = registry.ByClientKey(accessKey); found {
				secretKey = st.Database().ClientSecretKey
			}
		}
		if !found {
			if scope == ScopeClient {
				c.Set(fiber.HeaderWWWAuthenticate, "VWS")
			}
			return domain.ErrAuthenticationFailure.WithCause(auth.ErrUnknownAccessKey)
		}

		// The signature covers the bare media type: multipart boundaries
		// vary per request and are not part of the signed string.
		contentType, _, _ := strings.Cut(c.Get(fiber.HeaderContentType), ";")

		expected := auth.Signature(
			secretKey,
			c.Method(),
			c.Body(),
			contentType,
			c.Get("Date"),
			c.OriginalURL(),
		)
		if signature != expected {
			logger.Debug("signature mismatch",
				slog.String("access_key", accessKey),
				slog.String("path", c.Path()),
			)
			if scope == ScopeClient {
				c.Set(fiber.HeaderWWWAuthenticate, "VWS")
			}
			return domain.ErrAuthenticationFailure.WithCause(auth.ErrSignatureMismatch)
		}

		c.Locals(localStore, st)
		st.AddRequest()
		return c.Next()
	}
}

func plainUnauthorized(body string) error {
	return &domain.RawError{
		StatusCode:  fiber.StatusUnauthorized,
		ContentType: "text/plain; charset=ISO-8859-1",
		Body:        body,
		Header:      map[string]string{fiber.HeaderWWWAuthenticate: "VWS"},
	}
}

// StoreFrom retrieves the authenticated database store from the context.
func StoreFrom(c *fiber.Ctx) (*store.Store, error) {
	st, ok := c.Locals(localStore).(*store.Store)
	if !ok {
		return nil, domain.ErrAuthenticationFailure
	}
	return st, nil
}
