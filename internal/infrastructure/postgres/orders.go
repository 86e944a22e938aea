package postgres

import (
	"context"
	"errors"
	"fmt"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/order"

	"github.com/jackc/pgx/v5"
)

const orderColumns = `orderid, customerid, status, totalamount::text, shippingaddress, failurereason, orderdate, updatedat`

type orderRepo struct{ tx pgx.Tx }

func scanOrder(row pgx.Row) (*domorder.Order, error) {
	var (
		o     domorder.Order
		total string
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &total, &o.ShippingAddress,
		&o.FailureReason, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := money(total)
	if err != nil {
		return nil, err
	}
	o.TotalAmount = d
	return &o, nil
}

func (r orderRepo) Insert(ctx context.Context, o *domorder.Order) error {
	b := &pgx.Batch{}
	b.Queue(`INSERT INTO orders (orderid, customerid, status, totalamount, shippingaddress, failurereason, orderdate, updatedat)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`,
		o.ID, o.CustomerID, string(o.Status), o.TotalAmount.String(), o.ShippingAddress,
		o.FailureReason, o.CreatedAt, o.UpdatedAt,
	)
	for i, it := range o.Items {
		b.Queue(`INSERT INTO orderitem (orderid, productid, productname, quantity, unitpriceatorder, position)
			VALUES ($1, $2, $3, $4, $5::numeric, $6)`,
			o.ID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice.String(), i,
		)
	}
	err := r.tx.SendBatch(ctx, b).Close()
	if isUniqueViolation(err) {
		return domorder.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("postgres: insert order: %w", err)
	}
	return nil
}

// Get locks the order row for the rest of the transaction.
func (r orderRepo) Get(ctx context.Context, id string) (*domorder.Order, error) {
	o, err := scanOrder(r.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE orderid = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domorder.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get order: %w", err)
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// Update persists the lifecycle fields. The item snapshot is immutable.
func (r orderRepo) Update(ctx context.Context, o *domorder.Order) error {
	tag, err := r.tx.Exec(ctx,
		`UPDATE orders SET status = $2, failurereason = $3, updatedat = $4 WHERE orderid = $1`,
		o.ID, string(o.Status), o.FailureReason, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domorder.ErrNotFound
	}
	return nil
}

func (r orderRepo) ListByCustomer(ctx context.Context, customerID string) ([]*domorder.Order, error) {
	rows, err := r.tx.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customerid = $1 ORDER BY orderdate DESC, orderid DESC`,
		customerID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	var out []*domorder.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: list orders: %w", err)
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}

	// Rows must be closed before the connection can run the item queries.
	for _, o := range out {
		if o.Items, err = r.items(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r orderRepo) items(ctx context.Context, orderID string) ([]domorder.Item, error) {
	rows, err := r.tx.Query(ctx,
		`SELECT productid, productname, quantity, unitpriceatorder::text
		 FROM orderitem WHERE orderid = $1 ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("postgres: load order items: %w", err)
	}
	defer rows.Close()

	var out []domorder.Item
	for rows.Next() {
		var (
			it    domorder.Item
			price string
		)
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &price); err != nil {
			return nil, fmt.Errorf("postgres: load order items: %w", err)
		}
		if it.UnitPrice, err = money(price); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
