package dto

import "time"

// CreateStaffRequest entrada para crear una cuenta (password en texto, se hashea en use case).
// Mobile o Email identifican el login; al menos uno es obligatorio.
type CreateStaffRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Mobile   string `json:"mobile" validate:"required_without=Email,omitempty,min=7,max=20"`
	Email    string `json:"email" validate:"required_without=Mobile,omitempty,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=ADMIN STAFF"`
}

// SignupRequest autorregistro. No lleva rol: toda cuenta registrada así es STAFF.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Mobile   string `json:"mobile" validate:"required_without=Email,omitempty,min=7,max=20"`
	Email    string `json:"email" validate:"required_without=Mobile,omitempty,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// StaffResponse salida de una cuenta (sin password).
type StaffResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Mobile    string    `json:"mobile,omitempty"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest entrada para login: móvil o email más contraseña.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token string `json:"token"`
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
