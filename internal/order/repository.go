package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrLineNotFound     = errors.New("order line not found")
	ErrDuplicateLine    = errors.New("order already has a line for this product")
	ErrInvalidStatus    = errors.New("invalid order status")
)

type Repository interface {
	Create(ctx context.Context, customerID int64, lines []LineInput, shippingAddress, paymentMethod string) (*Order, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	AddLine(ctx context.Context, orderID int64, line LineInput) (*Line, error)
	UpdateLineQuantity(ctx context.Context, lineID int64, quantity int) error
	DeleteLine(ctx context.Context, lineID int64) error
	RecalculateTotal(ctx context.Context, orderID int64) (decimal.Decimal, error)
	Count(ctx context.Context) (int64, error)
	TotalSales(ctx context.Context) (decimal.Decimal, error)
}

// dbtx is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the total
// recalculation can run both inside and outside a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, customerID int64, lines []LineInput, shippingAddress, paymentMethod string) (o *Order, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Int64("customer_id", customerID).Msg("repository: failed to rollback order creation")
			}
		}
	}()

	queryOrder := `
		INSERT INTO pedidos (id_cliente, direccion_envio, metodo_pago)
		VALUES ($1, $2, $3)
		RETURNING id_pedido, fecha_pedido, total, estado
	`

	o = &Order{CustomerID: customerID, ShippingAddress: shippingAddress, PaymentMethod: paymentMethod}
	err = tx.QueryRow(ctx, queryOrder, customerID, shippingAddress, paymentMethod).
		Scan(&o.ID, &o.CreatedAt, &o.Total, &o.Status)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("repository: failed to insert order: %w", err)
	}

	o.Lines = make([]Line, 0, len(lines))
	for _, in := range lines {
		var line Line
		line, err = insertLine(ctx, tx, o.ID, in)
		if err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, line)

		// The total is recomputed from all current lines after every
		// insertion, never incremented.
		o.Total, err = recalculateTotal(ctx, tx, o.ID)
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository: failed to commit order creation: %w", err)
	}

	return o, nil
}

// insertLine resolves the product, snapshots its price when the input carries
// none, computes the subtotal and inserts the row.
func insertLine(ctx context.Context, q dbtx, orderID int64, in LineInput) (Line, error) {
	line := Line{OrderID: orderID, ProductID: in.ProductID, Quantity: in.Quantity}

	err := q.QueryRow(ctx, `SELECT nombre, precio FROM productos WHERE id_producto = $1`, in.ProductID).
		Scan(&line.ProductName, &line.ProductPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Line{}, fmt.Errorf("product %d: %w", in.ProductID, ErrProductNotFound)
		}
		return Line{}, fmt.Errorf("repository: failed to select product %d: %w", in.ProductID, err)
	}

	if in.UnitPrice != nil {
		line.UnitPrice = *in.UnitPrice
	} else {
		line.UnitPrice = line.ProductPrice
	}
	line.Subtotal = Subtotal(line.UnitPrice, line.Quantity)

	queryLine := `
		INSERT INTO detalle_pedido (id_pedido, id_producto, cantidad, precio_unitario, subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id_detalle
	`
	err = q.QueryRow(ctx, queryLine, orderID, in.ProductID, in.Quantity, line.UnitPrice, line.Subtotal).
		Scan(&line.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return Line{}, fmt.Errorf("product %d: %w", in.ProductID, ErrDuplicateLine)
		}
		return Line{}, fmt.Errorf("repository: failed to insert order line for order %d: %w", orderID, err)
	}

	return line, nil
}

// recalculateTotal rewrites the order total as the sum of its current line
// subtotals. Every line mutation goes through here.
func recalculateTotal(ctx context.Context, q dbtx, orderID int64) (decimal.Decimal, error) {
	query := `
		UPDATE pedidos
		SET total = COALESCE((SELECT SUM(subtotal) FROM detalle_pedido WHERE id_pedido = $1), 0)
		WHERE id_pedido = $1
		RETURNING total
	`

	var total decimal.Decimal
	if err := q.QueryRow(ctx, query, orderID).Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrOrderNotFound
		}
		return decimal.Zero, fmt.Errorf("repository: failed to recalculate total for order %d: %w", orderID, err)
	}

	return total, nil
}

func (r *postgresRepository) RecalculateTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	return recalculateTotal(ctx, r.db, orderID)
}

const lineColumns = `
	d.id_detalle, d.id_pedido, d.id_producto, p.nombre, p.precio,
	d.cantidad, d.precio_unitario, d.subtotal
`

func scanLine(row pgx.Row) (Line, error) {
	var l Line
	err := row.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.ProductPrice,
		&l.Quantity, &l.UnitPrice, &l.Subtotal)
	return l, err
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Order, error) {
	queryOrder := `
		SELECT id_pedido, id_cliente, fecha_pedido, total, estado, direccion_envio, metodo_pago
		FROM pedidos
		WHERE id_pedido = $1
	`

	var o Order
	err := r.db.QueryRow(ctx, queryOrder, id).Scan(
		&o.ID, &o.CustomerID, &o.CreatedAt, &o.Total, &o.Status, &o.ShippingAddress, &o.PaymentMethod)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order %d: %w", id, err)
	}

	queryLines := `
		SELECT ` + lineColumns + `
		FROM detalle_pedido d
		JOIN productos p ON p.id_producto = d.id_producto
		WHERE d.id_pedido = $1
		ORDER BY d.id_detalle
	`

	rows, err := r.db.Query(ctx, queryLines, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query lines for order %d: %w", id, err)
	}
	defer rows.Close()

	o.Lines = make([]Line, 0)
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan line for order %d: %w", id, err)
		}
		o.Lines = append(o.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating lines for order %d: %w", id, err)
	}

	// Lines edited outside this repository leave the stored total stale until
	// the next recalculation; surface the drift instead of hiding it.
	if computed := TotalOf(o.Lines); !computed.Equal(o.Total) {
		log.Warn().Int64("order_id", id).
			Str("stored_total", o.Total.String()).
			Str("computed_total", computed.String()).
			Msg("repository: order total out of sync with line subtotals")
	}

	return &o, nil
}

func (r *postgresRepository) GetByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	queryOrders := `
		SELECT id_pedido, id_cliente, fecha_pedido, total, estado, direccion_envio, metodo_pago
		FROM pedidos
		WHERE id_cliente = $1
		ORDER BY fecha_pedido DESC
	`

	rows, err := r.db.Query(ctx, queryOrders, customerID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for customer %d: %w", customerID, err)
	}
	defer rows.Close()

	ordersMap := make(map[int64]*Order)
	var orderIDs []int64
	for rows.Next() {
		var o Order
		err := rows.Scan(&o.ID, &o.CustomerID, &o.CreatedAt, &o.Total, &o.Status, &o.ShippingAddress, &o.PaymentMethod)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order for customer %d: %w", customerID, err)
		}
		o.Lines = make([]Line, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders for customer %d: %w", customerID, err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	queryLines := `
		SELECT ` + lineColumns + `
		FROM detalle_pedido d
		JOIN productos p ON p.id_producto = d.id_producto
		WHERE d.id_pedido = ANY($1)
		ORDER BY d.id_detalle
	`

	lineRows, err := r.db.Query(ctx, queryLines, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query lines for customer %d: %w", customerID, err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		line, err := scanLine(lineRows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan line for customer %d: %w", customerID, err)
		}
		if o, ok := ordersMap[line.OrderID]; ok {
			o.Lines = append(o.Lines, line)
		}
	}
	if err := lineRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating lines for customer %d: %w", customerID, err)
	}

	orders := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *ordersMap[id])
	}

	return orders, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	cmdTag, err := r.db.Exec(ctx, `UPDATE pedidos SET estado = $1 WHERE id_pedido = $2`, status.String(), id)
	if err != nil {
		return fmt.Errorf("repository: failed to update status of order %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *postgresRepository) AddLine(ctx context.Context, orderID int64, in LineInput) (l *Line, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Int64("order_id", orderID).Msg("repository: failed to rollback line insert")
			}
		}
	}()

	line, err := insertLine(ctx, tx, orderID, in)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if _, err = recalculateTotal(ctx, tx, orderID); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository: failed to commit line insert: %w", err)
	}

	return &line, nil
}

func (r *postgresRepository) UpdateLineQuantity(ctx context.Context, lineID int64, quantity int) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Int64("line_id", lineID).Msg("repository: failed to rollback line update")
			}
		}
	}()

	// The subtotal is rederived from the snapshotted unit price, never from
	// the product's current price.
	query := `
		UPDATE detalle_pedido
		SET cantidad = $1, subtotal = ROUND(precio_unitario * $1, 2)
		WHERE id_detalle = $2
		RETURNING id_pedido
	`

	var orderID int64
	err = tx.QueryRow(ctx, query, quantity, lineID).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLineNotFound
		}
		return fmt.Errorf("repository: failed to update line %d: %w", lineID, err)
	}

	if _, err = recalculateTotal(ctx, tx, orderID); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit line update: %w", err)
	}

	return nil
}

func (r *postgresRepository) DeleteLine(ctx context.Context, lineID int64) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Int64("line_id", lineID).Msg("repository: failed to rollback line delete")
			}
		}
	}()

	var orderID int64
	err = tx.QueryRow(ctx, `DELETE FROM detalle_pedido WHERE id_detalle = $1 RETURNING id_pedido`, lineID).
		Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLineNotFound
		}
		return fmt.Errorf("repository: failed to delete line %d: %w", lineID, err)
	}

	if _, err = recalculateTotal(ctx, tx, orderID); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit line delete: %w", err)
	}

	return nil
}

func (r *postgresRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM pedidos`).Scan(&count); err != nil {
		return 0, fmt.Errorf("repository: failed to count orders: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(total), 0) FROM pedidos`).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("repository: failed to sum order totals: %w", err)
	}
	return total, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
