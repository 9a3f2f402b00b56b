package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	ordererrors "github.com/nhupane/gopasal/internal/order/errors"
)

const orderColumns = `id, user_id, total, shipping_address, phone, city, status,
	payment_method, payment_status, payment_ref, version, created_at, updated_at`

const itemColumns = `id, order_id, product_id, quantity, price_per_item, price, reviewed, created_at`

// PgStore implements OrderStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of OrderStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

func (p *PgStore) FindByID(ctx context.Context, id uuid.UUID) (*Order, []OrderItem, error) {
	order, err := scanOrder(p.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ordererrors.ErrOrderNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", ordererrors.ErrFailedToFindOrder, err)
	}

	items, err := p.findItems(ctx, p.db, id)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}

func (p *PgStore) FindByUserID(ctx context.Context, params FindByUserIDParams) ([]Order, error) {
	rows, err := p.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1
		 ORDER BY created_at DESC OFFSET $2 LIMIT $3`,
		params.UserID, params.Offset, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ordererrors.ErrFailedToFindUserOrders, err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (p *PgStore) FindAll(ctx context.Context, offset, limit int32) ([]Order, error) {
	rows, err := p.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer rows.Close()
	return scanOrders(rows)
}

// CreateOrder performs the whole creation as one transaction: a conditional
// stock decrement per item (only applied when stock >= quantity, so two
// concurrent orders can never both take the last unit), then the order and
// item inserts. Any failing item rolls back every decrement.
func (p *PgStore) CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, []OrderItem, error) {
	var createdOrder *Order
	var createdItems []OrderItem

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		type pricedItem struct {
			productID uuid.UUID
			quantity  int32
			unitPrice int64
		}
		priced := make([]pricedItem, 0, len(params.Items))
		var total int64

		for _, item := range params.Items {
			var unitPrice int64
			var name string
			err := tx.QueryRow(ctx,
				`UPDATE products
				 SET stock_quantity = stock_quantity - $2, version = version + 1, updated_at = now()
				 WHERE id = $1 AND stock_quantity >= $2
				 RETURNING price, name`,
				item.ProductID, item.Quantity).Scan(&unitPrice, &name)
			if err != nil {
				if !errors.Is(err, pgx.ErrNoRows) {
					return fmt.Errorf("%w: %v", ordererrors.ErrCreateOrder, err)
				}
				// Decrement matched no row: the product is either missing
				// or short on stock. Look it up to tell the two apart.
				var available int32
				lookupErr := tx.QueryRow(ctx,
					`SELECT name, stock_quantity FROM products WHERE id = $1`,
					item.ProductID).Scan(&name, &available)
				if errors.Is(lookupErr, pgx.ErrNoRows) {
					return fmt.Errorf("product %s: %w", item.ProductID, ordererrors.ErrProductNotFound)
				}
				if lookupErr != nil {
					return fmt.Errorf("%w: %v", ordererrors.ErrCreateOrder, lookupErr)
				}
				return fmt.Errorf("%w for %s. Available: %d, Requested: %d",
					ordererrors.ErrInsufficientStock, name, available, item.Quantity)
			}
			priced = append(priced, pricedItem{productID: item.ProductID, quantity: item.Quantity, unitPrice: unitPrice})
			total += unitPrice * int64(item.Quantity)
		}

		paymentStatus := PaymentPending
		if params.PaymentMethod == MethodOnline {
			paymentStatus = PaymentInitiated
		}

		order, err := scanOrder(tx.QueryRow(ctx,
			`INSERT INTO orders (user_id, total, shipping_address, phone, city, status, payment_method, payment_status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING `+orderColumns,
			params.UserID, total, params.ShippingAddress, params.Phone, params.City,
			StatusPending, params.PaymentMethod, paymentStatus))
		if err != nil {
			return fmt.Errorf("%w: %v", ordererrors.ErrCreateOrder, err)
		}

		items := make([]OrderItem, 0, len(priced))
		for _, pi := range priced {
			item, err := scanItem(tx.QueryRow(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, price_per_item, price)
				 VALUES ($1, $2, $3, $4, $5)
				 RETURNING `+itemColumns,
				order.ID, pi.productID, pi.quantity, pi.unitPrice, pi.unitPrice*int64(pi.quantity)))
			if err != nil {
				return fmt.Errorf("%w: %v", ordererrors.ErrCreateOrder, err)
			}
			items = append(items, *item)
		}

		createdOrder = order
		createdItems = items
		return nil
	})

	if txErr != nil {
		return nil, nil, txErr
	}
	return createdOrder, createdItems, nil
}

// CancelOrder restores stock and marks the order cancelled in one transaction.
// The order row is locked for the duration so a concurrent cancel or status
// update cannot interleave with the stock restoration.
func (p *PgStore) CancelOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	var cancelled *Order

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		status, err := lockOrderStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if status != StatusPending {
			return ordererrors.ErrNotCancellable
		}

		rows, err := tx.Query(ctx,
			`SELECT product_id, quantity FROM order_items WHERE order_id = $1`, id)
		if err != nil {
			return fmt.Errorf("%w: %v", ordererrors.ErrCancelOrder, err)
		}
		type restore struct {
			productID uuid.UUID
			quantity  int32
		}
		var restores []restore
		for rows.Next() {
			var r restore
			if err := rows.Scan(&r.productID, &r.quantity); err != nil {
				rows.Close()
				return fmt.Errorf("%w: %v", ordererrors.ErrCancelOrder, err)
			}
			restores = append(restores, r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("%w: %v", ordererrors.ErrCancelOrder, err)
		}

		for _, r := range restores {
			if _, err := tx.Exec(ctx,
				`UPDATE products
				 SET stock_quantity = stock_quantity + $2, version = version + 1, updated_at = now()
				 WHERE id = $1`,
				r.productID, r.quantity); err != nil {
				return fmt.Errorf("%w: %v", ordererrors.ErrCancelOrder, err)
			}
		}

		order, err := scanOrder(tx.QueryRow(ctx,
			`UPDATE orders SET status = $2, version = version + 1, updated_at = now()
			 WHERE id = $1 RETURNING `+orderColumns,
			id, StatusCancelled))
		if err != nil {
			return fmt.Errorf("%w: %v", ordererrors.ErrCancelOrder, err)
		}
		cancelled = order
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return cancelled, nil
}

func (p *PgStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Order, error) {
	var updated *Order

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		current, err := lockOrderStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == status {
			// Re-applying the current status is a no-op, not an error.
			order, err := scanOrder(tx.QueryRow(ctx,
				`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
			if err != nil {
				return fmt.Errorf("%w: %v", ordererrors.ErrUpdateOrder, err)
			}
			updated = order
			return nil
		}
		if !CanTransition(current, status) {
			return fmt.Errorf("%w: %s -> %s", ordererrors.ErrInvalidTransition, current, status)
		}

		order, err := scanOrder(tx.QueryRow(ctx,
			`UPDATE orders SET status = $2, version = version + 1, updated_at = now()
			 WHERE id = $1 RETURNING `+orderColumns,
			id, status))
		if err != nil {
			return fmt.Errorf("%w: %v", ordererrors.ErrUpdateOrder, err)
		}
		updated = order
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

func (p *PgStore) MarkPaymentInitiated(ctx context.Context, id uuid.UUID, ref string) (*Order, error) {
	var updated *Order

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		var paymentStatus string
		err := tx.QueryRow(ctx,
			`SELECT payment_status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&paymentStatus)
		if errors.Is(err, pgx.ErrNoRows) {
			return ordererrors.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ordererrors.ErrUpdateOrder, err)
		}
		if paymentStatus == PaymentCompleted {
			return ordererrors.ErrAlreadyPaid
		}

		order, err := scanOrder(tx.QueryRow(ctx,
			`UPDATE orders
			 SET payment_status = $2, payment_method = $3, payment_ref = $4, version = version + 1, updated_at = now()
			 WHERE id = $1 RETURNING `+orderColumns,
			id, PaymentInitiated, MethodOnline, ref))
		if err != nil {
			return fmt.Errorf("%w: %v", ordererrors.ErrUpdateOrder, err)
		}
		updated = order
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// MarkPaymentCompleted is idempotent: confirming an already-completed order
// returns it unchanged. Stock is never mutated here; it was taken at
// creation time.
func (p *PgStore) MarkPaymentCompleted(ctx context.Context, id uuid.UUID, ref string) (*Order, bool, error) {
	var updated *Order
	var changed bool

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		var paymentStatus, status string
		err := tx.QueryRow(ctx,
			`SELECT payment_status, status FROM orders WHERE id = $1 FOR UPDATE`, id).
			Scan(&paymentStatus, &status)
		if errors.Is(err, pgx.ErrNoRows) {
			return ordererrors.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ordererrors.ErrUpdateOrder, err)
		}

		if paymentStatus == PaymentCompleted {
			order, err := scanOrder(tx.QueryRow(ctx,
				`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
			if err != nil {
				return fmt.Errorf("%w: %v", ordererrors.ErrUpdateOrder, err)
			}
			updated = order
			return nil
		}

		nextStatus := status
		if status == StatusPending {
			nextStatus = StatusProcessing
		}
		order, err := scanOrder(tx.QueryRow(ctx,
			`UPDATE orders
			 SET payment_status = $2, payment_ref = $3, status = $4, version = version + 1, updated_at = now()
			 WHERE id = $1 RETURNING `+orderColumns,
			id, PaymentCompleted, ref, nextStatus))
		if err != nil {
			return fmt.Errorf("%w: %v", ordererrors.ErrUpdateOrder, err)
		}
		updated = order
		changed = true
		return nil
	})

	if txErr != nil {
		return nil, false, txErr
	}
	return updated, changed, nil
}

func (p *PgStore) MarkPaymentFailed(ctx context.Context, id uuid.UUID, ref string) (*Order, error) {
	var updated *Order

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		var paymentStatus string
		err := tx.QueryRow(ctx,
			`SELECT payment_status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&paymentStatus)
		if errors.Is(err, pgx.ErrNoRows) {
			return ordererrors.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ordererrors.ErrUpdateOrder, err)
		}
		if paymentStatus == PaymentCompleted {
			// A completed payment never regresses to failed.
			order, err := scanOrder(tx.QueryRow(ctx,
				`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
			if err != nil {
				return fmt.Errorf("%w: %v", ordererrors.ErrUpdateOrder, err)
			}
			updated = order
			return nil
		}

		order, err := scanOrder(tx.QueryRow(ctx,
			`UPDATE orders
			 SET payment_status = $2, payment_ref = $3, version = version + 1, updated_at = now()
			 WHERE id = $1 RETURNING `+orderColumns,
			id, PaymentFailed, ref))
		if err != nil {
			return fmt.Errorf("%w: %v", ordererrors.ErrUpdateOrder, err)
		}
		updated = order
		return nil
	})

	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// lockOrderStatus locks the order row and returns its current status.
func lockOrderStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID) (string, error) {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ordererrors.ErrOrderNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ordererrors.ErrFailedToFindOrder, err)
	}
	return status, nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (p *PgStore) findItems(ctx context.Context, q queryer, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.Query(ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (p *PgStore) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return ordererrors.ErrTransactionBegin
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return ordererrors.ErrTransactionRollback
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return ordererrors.ErrTransactionCommit
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Total, &o.ShippingAddress, &o.Phone, &o.City,
		&o.Status, &o.PaymentMethod, &o.PaymentStatus, &o.PaymentRef, &o.Version,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanItem(row rowScanner) (*OrderItem, error) {
	var i OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Quantity, &i.PricePerItem,
		&i.Price, &i.Reviewed, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	var orders []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}
