package postgres

import (
	"context"
	"errors"
	"fmt"

	domcart "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/cart"

	"github.com/jackc/pgx/v5"
)

type cartRepo struct{ tx pgx.Tx }

// FindActive locks the cart row FOR UPDATE; concurrent mutations of the same
// cart queue behind it.
func (r cartRepo) FindActive(ctx context.Context, customerID string) (*domcart.Cart, error) {
	var (
		c     domcart.Cart
		total string
	)
	err := r.tx.QueryRow(ctx,
		`SELECT cartid, customerid, status, total::text, COALESCE(orderid, ''), createdat, updatedat
		 FROM cart WHERE customerid = $1 AND status = 'Active'
		 FOR UPDATE`,
		customerID,
	).Scan(&c.ID, &c.CustomerID, &c.Status, &total, &c.OrderID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domcart.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find active cart: %w", err)
	}
	if c.Total, err = money(total); err != nil {
		return nil, err
	}

	rows, err := r.tx.Query(ctx,
		`SELECT productid, quantity FROM cartitem WHERE cartid = $1 ORDER BY position`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("postgres: load cart items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it domcart.Item
		if err := rows.Scan(&it.ProductID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("postgres: load cart items: %w", err)
		}
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load cart items: %w", err)
	}
	return &c, nil
}

// Insert relies on the partial unique index: a second Active cart for the same
// customer is dropped and reported as a conflict.
func (r cartRepo) Insert(ctx context.Context, c *domcart.Cart) error {
	tag, err := r.tx.Exec(ctx,
		`INSERT INTO cart (cartid, customerid, status, total, orderid, createdat, updatedat)
		 VALUES ($1, $2, $3, $4::numeric, NULLIF($5, ''), $6, $7)
		 ON CONFLICT DO NOTHING`,
		c.ID, c.CustomerID, string(c.Status), c.Total.String(), c.OrderID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domcart.ErrConflict
	}
	return r.writeItems(ctx, c)
}

func (r cartRepo) Save(ctx context.Context, c *domcart.Cart) error {
	tag, err := r.tx.Exec(ctx,
		`UPDATE cart SET status = $2, total = $3::numeric, orderid = NULLIF($4, ''), updatedat = $5
		 WHERE cartid = $1`,
		c.ID, string(c.Status), c.Total.String(), c.OrderID, c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domcart.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("postgres: save cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domcart.ErrNotFound
	}
	return r.writeItems(ctx, c)
}

// writeItems replaces the cart's lines in one round trip.
func (r cartRepo) writeItems(ctx context.Context, c *domcart.Cart) error {
	b := &pgx.Batch{}
	b.Queue(`DELETE FROM cartitem WHERE cartid = $1`, c.ID)
	for i, it := range c.Items {
		b.Queue(`INSERT INTO cartitem (cartid, productid, quantity, position) VALUES ($1, $2, $3, $4)`,
			c.ID, it.ProductID, it.Quantity, i)
	}
	if err := r.tx.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("postgres: write cart items: %w", err)
	}
	return nil
}
