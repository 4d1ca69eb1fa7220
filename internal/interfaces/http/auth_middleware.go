package http

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/pkg/jwt"
)

// Locals keys para los datos del token en Fiber.
const (
	LocalUserID    = "user_id"
	LocalCompanyID = "company_id"
	LocalRole      = "role"
	LocalUserName  = "user_name"
)

// AuthMiddleware valida el Bearer Token JWT y deja sus claims en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalCompanyID, claims.CompanyID)
		c.Locals(LocalRole, claims.Role)
		c.Locals(LocalUserName, claims.Name)
		return c.Next()
	}
}

// RequireRole autoriza solo a los roles indicados. Va DESPUÉS de AuthMiddleware.
//   - 401 MISSING_ROLE → el token no trae rol.
//   - 403 FORBIDDEN    → el rol no está permitido.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		if !slices.Contains(roles, role) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para este recurso"})
		}
		return c.Next()
	}
}

func local(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string { return local(c, LocalUserID) }

// GetCompanyID devuelve el CompanyID del contexto (después del middleware de auth).
func GetCompanyID(c *fiber.Ctx) string { return local(c, LocalCompanyID) }

// GetRole devuelve el rol del token.
func GetRole(c *fiber.Ctx) string { return local(c, LocalRole) }
