package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sweet-shop/internal/domain"
	apperrors "github.com/spec-kit/sweet-shop/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// TokenVerifier validates a bearer token into a principal.
type TokenVerifier interface {
	Verify(token string) (domain.Principal, error)
}

// Gate authenticates bearer credentials and authorizes roles. It never
// consults a store: the token itself carries the principal.
type Gate struct {
	tokens TokenVerifier
}

// NewGate constructs the access control gate.
func NewGate(tokens TokenVerifier) *Gate {
	return &Gate{tokens: tokens}
}

// Authenticate turns an Authorization header value into a verified principal.
func (g *Gate) Authenticate(authHeader string) (domain.Principal, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return domain.Principal{}, apperrors.NewUnauthorized("missing or malformed authorization header")
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return domain.Principal{}, apperrors.NewUnauthorized("missing or malformed authorization header")
	}

	principal, err := g.tokens.Verify(token)
	if err != nil {
		return domain.Principal{}, apperrors.NewUnauthorized(ErrInvalidToken.Error())
	}
	return principal, nil
}

// Handle enforces authentication for protected routes.
func (g *Gate) Handle(c *fiber.Ctx) error {
	principal, err := g.Authenticate(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller set by Handle.
func PrincipalFromContext(c *fiber.Ctx) (domain.Principal, bool) {
	principal, ok := c.Locals(principalKey).(domain.Principal)
	return principal, ok
}
