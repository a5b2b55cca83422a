package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound    = errors.New("customer not found")
	ErrEmailExists = errors.New("customer email already exists")
)

type Repository interface {
	Create(ctx context.Context, c *Customer) (int64, error)
	GetByID(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
	Update(ctx context.Context, id int64, upd Update) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	OrderStats(ctx context.Context, id int64) (OrderStats, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, c *Customer) (int64, error) {
	query := `
		INSERT INTO clientes (nombre, email, telefono)
		VALUES ($1, $2, $3)
		RETURNING id_cliente, fecha_registro
	`

	err := r.db.QueryRow(ctx, query, c.Name, c.Email, c.Phone).Scan(&c.ID, &c.RegisteredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailExists
		}
		return 0, fmt.Errorf("repository: failed to insert customer: %w", err)
	}

	return c.ID, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Customer, error) {
	query := `
		SELECT id_cliente, nombre, email, telefono, fecha_registro
		FROM clientes
		WHERE id_cliente = $1
	`

	var c Customer
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select customer %d: %w", id, err)
	}

	return &c, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Customer, error) {
	query := `
		SELECT id_cliente, nombre, email, telefono, fecha_registro
		FROM clientes
		ORDER BY fecha_registro DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query customers: %w", err)
	}
	defer rows.Close()

	customers := make([]Customer, 0)
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.RegisteredAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating customers: %w", err)
	}

	return customers, nil
}

func (r *postgresRepository) Update(ctx context.Context, id int64, upd Update) error {
	query := `
		UPDATE clientes
		SET nombre   = COALESCE($1, nombre),
		    email    = COALESCE($2, email),
		    telefono = COALESCE($3, telefono)
		WHERE id_cliente = $4
	`

	cmdTag, err := r.db.Exec(ctx, query, upd.Name, upd.Email, upd.Phone, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("repository: failed to update customer %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	// Orders and order lines go with the row via ON DELETE CASCADE.
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM clientes WHERE id_cliente = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete customer %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *postgresRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM clientes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("repository: failed to count customers: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) OrderStats(ctx context.Context, id int64) (OrderStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(total), 0)
		FROM pedidos
		WHERE id_cliente = $1
	`

	var stats OrderStats
	err := r.db.QueryRow(ctx, query, id).Scan(&stats.OrderCount, &stats.TotalSpent)
	if err != nil {
		return OrderStats{}, fmt.Errorf("repository: failed to aggregate orders for customer %d: %w", id, err)
	}

	return stats, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
