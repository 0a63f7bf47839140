package services

import (
	"context"
	"errors"

	"basket-share/db"
	"basket-share/models"

	"github.com/jackc/pgx/v5"
)

// rowQuerier is satisfied by both pgx.Tx and *pgxpool.Pool, so lookups
// can run inside or outside a guarded transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func basketIDByCode(ctx context.Context, q rowQuerier, code string) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `SELECT id FROM baskets WHERE basket_code = $1`, code).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrBasketNotFound
	}
	return id, err
}

// CreateBasket creates a new basket with a fresh 8-character code.
func CreateBasket(ctx context.Context) (*models.Basket, error) {
	code := newBasketCode()
	var id int64
	err := withWriteGuard(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
			INSERT INTO baskets (basket_code) VALUES ($1)
			RETURNING id`,
			code,
		).Scan(&id)
	})
	if err != nil {
		return nil, translate(err)
	}
	return &models.Basket{ID: id, Code: code}, nil
}

// JoinBasket adds a named participant to the basket with the given code.
// Duplicate names are allowed: two joins with the same name produce two
// distinct participant rows.
func JoinBasket(ctx context.Context, code, name string) error {
	if name == "" {
		return ErrNameRequired
	}
	err := withWriteGuard(ctx, func(tx pgx.Tx) error {
		basketID, err := basketIDByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO participants (basket_id, name) VALUES ($1, $2)`,
			basketID, name,
		)
		return err
	})
	if err != nil {
		return translate(err)
	}
	publish(code, "participant_joined", map[string]any{
		"basket_code": code,
		"name":        name,
	})
	return nil
}

// AddItem inserts an item into the basket with the given code. Price and
// quantity are stored as given; positivity is not enforced here.
func AddItem(ctx context.Context, code, product string, price float64, quantity int, addedBy string) (*models.Item, error) {
	var id int64
	err := withWriteGuard(ctx, func(tx pgx.Tx) error {
		basketID, err := basketIDByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		return tx.QueryRow(ctx, `
			INSERT INTO basket_items (basket_id, product, price, quantity, added_by)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			basketID, product, price, quantity, addedBy,
		).Scan(&id)
	})
	if err != nil {
		return nil, translate(err)
	}
	publish(code, "item_added", map[string]any{
		"basket_code": code,
		"product":     product,
		"price":       price,
		"quantity":    quantity,
	})
	return &models.Item{ID: id, Product: product, Price: price, Quantity: quantity, AddedBy: addedBy}, nil
}

// RemoveItem deletes one item from the basket with the given code. The
// delete is qualified by both item id and basket id: an id that lives in
// a different basket is reported as not found and left intact.
func RemoveItem(ctx context.Context, code string, itemID int64) error {
	err := withWriteGuard(ctx, func(tx pgx.Tx) error {
		basketID, err := basketIDByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		var found int64
		err = tx.QueryRow(ctx, `
			SELECT id FROM basket_items WHERE id = $1 AND basket_id = $2`,
			itemID, basketID,
		).Scan(&found)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			DELETE FROM basket_items WHERE id = $1 AND basket_id = $2`,
			itemID, basketID,
		)
		return err
	})
	if err != nil {
		return translate(err)
	}
	publish(code, "item_deleted", map[string]any{
		"basket_code": code,
		"item_id":     itemID,
	})
	return nil
}

// ListItems returns the basket's items in insertion order. Listing does
// not take the write guard; it only ever observes committed state, and
// the basket-exists check still applies.
func ListItems(ctx context.Context, code string) ([]models.Item, error) {
	basketID, err := basketIDByCode(ctx, db.Pool, code)
	if err != nil {
		return nil, translate(err)
	}
	rows, err := db.Pool.Query(ctx, `
		SELECT id, product, price, quantity, added_by FROM basket_items
		WHERE basket_id = $1
		ORDER BY id`,
		basketID,
	)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.ID, &it.Product, &it.Price, &it.Quantity, &it.AddedBy); err != nil {
			return nil, translate(err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return items, nil
}
