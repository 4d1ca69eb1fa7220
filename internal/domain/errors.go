package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrDuplicate            = errors.New("recurso duplicado")
	ErrUnauthorized         = errors.New("no autorizado")
	ErrForbidden            = errors.New("acceso denegado")
	ErrInsufficientStock    = errors.New("stock insuficiente")
	ErrStorage              = errors.New("error de almacenamiento")
	ErrIdempotencyInFlight  = errors.New("operación en curso con la misma clave de idempotencia")
	ErrIdempotencyKeyReused = errors.New("la clave de idempotencia ya se usó con otro cuerpo")
)

// NotFoundError identifica el recurso y el id que no existe (producto, staff, categoría).
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFound construye un NotFoundError.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q no encontrado", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientStockError se devuelve cuando la cantidad pedida supera el stock de bodega
// o el saldo en poder del staff. Lleva lo necesario para armar el mensaje al usuario.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   int64
	Requested   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: disponible %d, solicitado %d",
		e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// Deficit cantidad que falta para cubrir la solicitud.
func (e *InsufficientStockError) Deficit() int64 { return e.Requested - e.Available }

// ValidationError entrada mal formada (cantidad <= 0, lista vacía, campo requerido).
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidation construye un ValidationError.
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// StorageError falla de la capa de persistencia (I/O, red, timeout). Es transitoria:
// el llamador puede reintentar, idealmente con la misma clave de idempotencia.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError envuelve err como falla de almacenamiento.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("almacenamiento (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Temporary indica que la operación puede reintentarse.
func (e *StorageError) Temporary() bool { return true }

// IsDomainError reporta si err pertenece a la taxonomía de dominio (no hay que reclasificarlo).
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidInput, ErrDuplicate, ErrUnauthorized,
		ErrForbidden, ErrInsufficientStock, ErrStorage, ErrIdempotencyInFlight, ErrIdempotencyKeyReused,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
