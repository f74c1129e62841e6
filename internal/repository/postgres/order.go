package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const orderColumns = `id, user_id, items, shipping_address, payment_method, payment_result,
		items_price, tax_price, shipping_price, total_price,
		is_paid, paid_at, is_delivered, delivered_at, created_at, updated_at`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
// Items, shipping address and payment result are stored as JSONB.
type OrderRepository struct {
	db database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(db database.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}
	addressJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	query := `
		INSERT INTO orders (id, user_id, items, shipping_address, payment_method,
			items_price, tax_price, shipping_price, total_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	ctx, end := database.TraceQuery(ctx, "CreateOrder", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		o.ID,
		o.UserID,
		itemsJSON,
		addressJSON,
		o.PaymentMethod,
		o.ItemsPrice,
		o.TaxPrice,
		o.ShippingPrice,
		o.TotalPrice,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return apperrors.Persistence("insert order", err)
	}
	return nil
}

// GetByID retrieves an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (_ *domain.Order, err error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetOrder", query)
	defer func() { end(err) }()

	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, apperrors.Persistence("get order", err)
	}
	return o, nil
}

// List returns a page of orders, newest first, with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) (_ []domain.Order, _ int, err error) {
	var (
		where string
		args  []any
	)
	if filter.UserID != nil {
		where = "WHERE user_id = $1"
		args = append(args, *filter.UserID)
	}

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	query := fmt.Sprintf(`
		SELECT %s,
			count(*) OVER() AS total_count
		FROM orders
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)+1, len(args)+2,
	)

	ctx, end := database.TraceQuery(ctx, "ListOrders", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, apperrors.Persistence("list orders", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	total := 0
	for rows.Next() {
		o, err := scanOrder(rows, &total)
		if err != nil {
			return nil, 0, apperrors.Persistence("scan order row", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Persistence("iterate order rows", err)
	}
	return orders, total, nil
}

// MarkPaid stores the payment fields. The update only matches an unpaid
// order, so two concurrent payments cannot both succeed.
func (r *OrderRepository) MarkPaid(ctx context.Context, o *domain.Order) (err error) {
	resultJSON, err := json.Marshal(o.PaymentResult)
	if err != nil {
		return fmt.Errorf("marshal payment result: %w", err)
	}

	query := `
		UPDATE orders
		SET is_paid = TRUE, paid_at = $2, payment_result = $3, updated_at = $4
		WHERE id = $1 AND NOT is_paid`

	ctx, end := database.TraceQuery(ctx, "MarkOrderPaid", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query, o.ID, o.PaidAt, resultJSON, o.UpdatedAt)
	if err != nil {
		return apperrors.Persistence("mark order paid", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, o.ID); err != nil {
		return err
	}
	return domain.ErrOrderAlreadyPaid
}

// MarkDelivered stores the delivery fields of a paid, undelivered order.
func (r *OrderRepository) MarkDelivered(ctx context.Context, o *domain.Order) (err error) {
	query := `
		UPDATE orders
		SET is_delivered = TRUE, delivered_at = $2, updated_at = $3
		WHERE id = $1 AND is_paid AND NOT is_delivered`

	ctx, end := database.TraceQuery(ctx, "MarkOrderDelivered", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query, o.ID, o.DeliveredAt, o.UpdatedAt)
	if err != nil {
		return apperrors.Persistence("mark order delivered", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	current, err := r.GetByID(ctx, o.ID)
	if err != nil {
		return err
	}
	if !current.IsPaid {
		return domain.ErrOrderNotPaid
	}
	return domain.ErrOrderAlreadyDelivered
}

// Count returns the number of orders.
func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&n); err != nil {
		return 0, apperrors.Persistence("count orders", err)
	}
	return n, nil
}

// TotalSales sums the total price of all orders.
func (r *OrderRepository) TotalSales(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(total_price), 0)::BIGINT FROM orders`).Scan(&total); err != nil {
		return 0, apperrors.Persistence("sum order totals", err)
	}
	return total, nil
}

// SalesByDate sums paid order totals per UTC calendar day.
func (r *OrderRepository) SalesByDate(ctx context.Context, since time.Time) (_ []domain.SalesTotal, err error) {
	query := `
		SELECT to_char(paid_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
			SUM(total_price)::BIGINT AS total_sales
		FROM orders
		WHERE is_paid AND paid_at >= $1
		GROUP BY day
		ORDER BY day`

	ctx, end := database.TraceQuery(ctx, "SalesByDate", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, apperrors.Persistence("sales by date", err)
	}
	defer rows.Close()

	totals := []domain.SalesTotal{}
	for rows.Next() {
		var st domain.SalesTotal
		if err := rows.Scan(&st.Date, &st.TotalSales); err != nil {
			return nil, apperrors.Persistence("scan sales row", err)
		}
		totals = append(totals, st)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Persistence("iterate sales rows", err)
	}
	return totals, nil
}

func scanOrder(row pgx.Row, extra ...any) (*domain.Order, error) {
	var (
		o                                  domain.Order
		itemsJSON, addressJSON, resultJSON []byte
	)
	dest := []any{
		&o.ID,
		&o.UserID,
		&itemsJSON,
		&addressJSON,
		&o.PaymentMethod,
		&resultJSON,
		&o.ItemsPrice,
		&o.TaxPrice,
		&o.ShippingPrice,
		&o.TotalPrice,
		&o.IsPaid,
		&o.PaidAt,
		&o.IsDelivered,
		&o.DeliveredAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(addressJSON, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	if len(resultJSON) > 0 && string(resultJSON) != "null" {
		o.PaymentResult = &domain.PaymentResult{}
		if err := json.Unmarshal(resultJSON, o.PaymentResult); err != nil {
			return nil, fmt.Errorf("unmarshal payment result: %w", err)
		}
	}
	return &o, nil
}
