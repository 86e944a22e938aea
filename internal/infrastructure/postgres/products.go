package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"

	"github.com/jackc/pgx/v5"
)

const productColumns = `productid, name, price::text, stockqty, updatedat`

type productRepo struct{ tx pgx.Tx }

func scanProduct(row pgx.Row) (*dominv.Product, error) {
	var (
		p     dominv.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Stock, &p.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := money(price)
	if err != nil {
		return nil, err
	}
	p.UnitPrice = d
	return &p, nil
}

func (r productRepo) Get(ctx context.Context, productID string) (*dominv.Product, error) {
	p, err := scanProduct(r.tx.QueryRow(ctx,
		`SELECT `+productColumns+` FROM product WHERE productid = $1`, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, dominv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get product: %w", err)
	}
	return p, nil
}

func (r productRepo) List(ctx context.Context) ([]*dominv.Product, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+productColumns+` FROM product ORDER BY name, productid`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	defer rows.Close()

	var out []*dominv.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: list products: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r productRepo) Insert(ctx context.Context, p *dominv.Product) error {
	_, err := r.tx.Exec(ctx,
		`INSERT INTO product (productid, name, price, stockqty, updatedat) VALUES ($1, $2, $3::numeric, $4, $5)`,
		p.ID, p.Name, p.UnitPrice.String(), p.Stock, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return dominv.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("postgres: insert product: %w", err)
	}
	return nil
}

// Update writes catalog attributes only. Stock moves through Reserve and Release.
func (r productRepo) Update(ctx context.Context, p *dominv.Product) error {
	tag, err := r.tx.Exec(ctx,
		`UPDATE product SET name = $2, price = $3::numeric, updatedat = $4 WHERE productid = $1`,
		p.ID, p.Name, p.UnitPrice.String(), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dominv.ErrNotFound
	}
	return nil
}

// Reserve decrements only while enough stock remains, so the row lock taken by
// the UPDATE is the whole concurrency control.
func (r productRepo) Reserve(ctx context.Context, productID string, quantity int) (*dominv.Product, error) {
	if quantity <= 0 {
		return nil, dominv.ErrInvalidQuantity
	}
	p, err := scanProduct(r.tx.QueryRow(ctx,
		`UPDATE product SET stockqty = stockqty - $2, updatedat = now()
		 WHERE productid = $1 AND stockqty >= $2
		 RETURNING `+productColumns,
		productID, quantity,
	))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("postgres: reserve stock: %w", err)
	}

	current, gerr := r.Get(ctx, productID)
	if gerr != nil {
		return nil, gerr
	}
	return nil, &errs.OutOfStockError{
		ProductID: current.ID,
		Name:      current.Name,
		Requested: quantity,
		Available: current.Stock,
	}
}

func (r productRepo) Release(ctx context.Context, productID string, quantity int) (*dominv.Product, error) {
	if quantity <= 0 {
		return nil, dominv.ErrInvalidQuantity
	}
	p, err := scanProduct(r.tx.QueryRow(ctx,
		`UPDATE product SET stockqty = stockqty + $2, updatedat = now()
		 WHERE productid = $1
		 RETURNING `+productColumns,
		productID, quantity,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, dominv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: release stock: %w", err)
	}
	return p, nil
}
