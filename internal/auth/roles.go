package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sweet-shop/internal/domain"
	apperrors "github.com/spec-kit/sweet-shop/pkg/util/errorutil"
)

// Authorize is the role predicate. It is only meaningful on a principal
// returned by Authenticate.
func Authorize(principal domain.Principal, required domain.Role) error {
	if principal.Role != required {
		return apperrors.NewForbidden("insufficient role")
	}
	return nil
}

// RequireRole rejects callers whose role differs from required. Must run after Gate.Handle.
func RequireRole(required domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := Authorize(principal, required); err != nil {
			return err
		}
		return c.Next()
	}
}
