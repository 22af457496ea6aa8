package domain

import "time"

// Product is the catalog record. ID is assigned by the store and never
// reused; Code is the globally unique business key. ImageRef, when set,
// references an object in the asset store.
type Product struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	ImageRef    string    `json:"imageRef,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
