package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	Code        string
	Name        string
	Description string
	Price       float64
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			Code:        "HMR-050",
			Name:        "Claw Hammer 500g",
			Description: "Fiberglass handle, anti-slip grip",
			Price:       12.90,
		},
		{
			Code:        "WRN-ADJ10",
			Name:        "Adjustable Wrench 10\"",
			Description: "Chrome vanadium, laser-etched scale",
			Price:       18.50,
		},
		{
			Code:        "SCR-PH2",
			Name:        "Phillips Screwdriver PH2",
			Description: "Magnetic tip",
			Price:       4.75,
		},
	}

	for _, p := range products {
		if err := insertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("insert product %s: %w", p.Code, err)
		}
	}

	return nil
}

func insertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (code, name, description, price)
VALUES ($1, $2, $3, $4)
ON CONFLICT (code) DO NOTHING
`
	_, err := pool.Exec(ctx, q, p.Code, p.Name, p.Description, p.Price)
	return err
}
