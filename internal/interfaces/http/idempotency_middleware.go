package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/idempotency"
)

// HeaderIdempotencyKey cabecera opcional de las operaciones del ledger.
const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyKeyLen = 200

// IdempotencyStore lo que el middleware necesita del almacenamiento de respuestas.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*idempotency.Response, bool, error)
	Acquire(ctx context.Context, key string) (func(), error)
	Save(ctx context.Context, key string, resp idempotency.Response) error
}

// Idempotency repite la respuesta guardada cuando el cliente reintenta con la misma clave.
// Sin store (Redis no configurado) o sin cabecera, la petición pasa tal cual. Las claves se
// aíslan por empresa, usuario y ruta; reutilizar una clave con otro cuerpo responde 422. Solo se guardan respuestas < 500: un fallo de
// almacenamiento debe poder reintentarse.
func Idempotency(store IdempotencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
		if store == nil || raw == "" {
			return c.Next()
		}
		if len(raw) > maxIdempotencyKeyLen {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "Idempotency-Key demasiado larga"})
		}
		ctx := c.UserContext()
		key := strings.Join([]string{GetCompanyID(c), GetUserID(c), c.Method(), c.Path(), raw}, ":")
		sum := sha256.Sum256(c.Body())
		bodyHash := hex.EncodeToString(sum[:])

		if saved, ok, err := store.Get(ctx, key); err != nil {
			return writeError(c, err)
		} else if ok {
			return replay(c, saved, bodyHash)
		}

		release, err := store.Acquire(ctx, key)
		if err != nil {
			return writeError(c, err)
		}
		defer release()

		// otra petición pudo terminar entre Get y Acquire
		if saved, ok, err := store.Get(ctx, key); err != nil {
			return writeError(c, err)
		} else if ok {
			return replay(c, saved, bodyHash)
		}

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			return nil
		}
		resp := idempotency.Response{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
			BodyHash:    bodyHash,
		}
		if err := store.Save(ctx, key, resp); err != nil {
			// la operación ya se confirmó: se responde igual y solo se pierde la repetición
			zerolog.Ctx(ctx).Warn().Err(err).Str("idempotency_key", raw).Msg("no se pudo guardar la respuesta idempotente")
		}
		return nil
	}
}

func replay(c *fiber.Ctx, saved *idempotency.Response, bodyHash string) error {
	if saved.BodyHash != "" && saved.BodyHash != bodyHash {
		return writeError(c, domain.ErrIdempotencyKeyReused)
	}
	c.Set("Idempotent-Replayed", "true")
	if saved.ContentType != "" {
		c.Set(fiber.HeaderContentType, saved.ContentType)
	}
	return c.Status(saved.Status).Send(saved.Body)
}
