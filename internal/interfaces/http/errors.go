package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Los errores nombran el campo como lo ve el cliente (json/query), no el de Go.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// parseBody decodifica el JSON y valida las etiquetas validate.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return domain.NewValidation("body", "cuerpo inválido")
	}
	return validateStruct(out)
}

// parseQuery decodifica el query string y valida.
func parseQuery(c *fiber.Ctx, out any) error {
	if err := c.QueryParser(out); err != nil {
		return domain.NewValidation("query", "parámetros inválidos")
	}
	return validateStruct(out)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return domain.NewValidation(fieldPath(fe), "falla la regla "+fe.Tag())
	}
	return domain.NewValidation("", err.Error())
}

// fieldPath quita el nombre del struct raíz: "TransferRequest.items[0].qty" → "items[0].qty".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// writeError traduce la taxonomía de dominio a HTTP.
func writeError(c *fiber.Ctx, err error) error {
	status, body := mapError(err)
	if status >= fiber.StatusInternalServerError {
		ev := zerolog.Ctx(c.UserContext()).Error()
		if status == fiber.StatusServiceUnavailable {
			ev = zerolog.Ctx(c.UserContext()).Warn()
		}
		ev.Err(err).Str("path", c.Path()).Int("status", status).Msg("error en petición")
	}
	if status == fiber.StatusServiceUnavailable {
		c.Set(fiber.HeaderRetryAfter, "1")
	}
	return c.Status(status).JSON(body)
}

func mapError(err error) (int, dto.ErrorResponse) {
	var (
		insufficient *domain.InsufficientStockError
		notFound     *domain.NotFoundError
		validation   *domain.ValidationError
	)
	switch {
	case errors.As(err, &insufficient):
		return fiber.StatusConflict, dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: insufficient.Error(),
			Details: map[string]any{
				"product_id":   insufficient.ProductID,
				"product_name": insufficient.ProductName,
				"available":    insufficient.Available,
				"requested":    insufficient.Requested,
			},
		}
	case errors.As(err, &notFound):
		return fiber.StatusNotFound, dto.ErrorResponse{
			Code:    "NOT_FOUND",
			Message: notFound.Error(),
			Details: map[string]any{"resource": notFound.Resource, "id": notFound.ID},
		}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.As(err, &validation):
		resp := dto.ErrorResponse{Code: "VALIDATION", Message: validation.Error()}
		if validation.Field != "" {
			resp.Details = map[string]any{"field": validation.Field}
		}
		return fiber.StatusBadRequest, resp
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrIdempotencyInFlight):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "IDEMPOTENCY_IN_FLIGHT", Message: err.Error()}
	case errors.Is(err, domain.ErrIdempotencyKeyReused):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "IDEMPOTENCY_KEY_REUSED", Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"}
	case errors.Is(err, domain.ErrStorage):
		return fiber.StatusServiceUnavailable, dto.ErrorResponse{
			Code:    "STORAGE_UNAVAILABLE",
			Message: "almacenamiento no disponible, reintente",
			Details: map[string]any{"retryable": true},
		}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
}
