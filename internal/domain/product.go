package domain

import "time"

type Product struct {
	ID        string    `json:"_id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand,omitempty"`
	Image     string    `json:"image,omitempty"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}
