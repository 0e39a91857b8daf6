package entity

import "time"

// Location ubicación física donde se almacena stock (bodega, pasillo, estante).
type Location struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
