package entity

import "time"

// Roles válidos para StaffAccount.
const (
	RoleAdmin = "ADMIN" // origen/destino sin límite: no tiene inventario propio
	RoleStaff = "STAFF" // acumula un saldo derivado del ledger por producto
)

// StaffAccount persona que puede operar el sistema y, si es STAFF, tener mercancía en su poder.
type StaffAccount struct {
	ID           string
	CompanyID    string
	Name         string
	Mobile       string // identificador de login (también acepta Email)
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin indica si la cuenta tiene rol ADMIN.
func (s *StaffAccount) IsAdmin() bool { return s.Role == RoleAdmin }

// ValidRole reporta si role es uno de los roles soportados.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}
