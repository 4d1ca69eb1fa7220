package entity

import "time"

// Category agrupa productos por acabado (Marble Look, Wood Look, Concrete Look...).
type Category struct {
	ID        string
	CompanyID string
	Name      string // único por empresa
	CreatedAt time.Time
	UpdatedAt time.Time
}
