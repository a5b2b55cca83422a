package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("product not found")

type Repository interface {
	Create(ctx context.Context, p *Product) (int64, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, id int64, upd Update) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, p *Product) (int64, error) {
	query := `
		INSERT INTO productos (nombre, precio, descripcion, stock, activo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id_producto, fecha_creacion
	`

	err := r.db.QueryRow(ctx, query, p.Name, p.Price, p.Description, p.Stock, p.Active).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to insert product: %w", err)
	}

	return p.ID, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	query := `
		SELECT id_producto, nombre, precio, descripcion, stock, activo, fecha_creacion
		FROM productos
		WHERE id_producto = $1
	`

	var p Product
	err := r.db.QueryRow(ctx, query, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.Stock, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product %d: %w", id, err)
	}

	return &p, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Product, error) {
	query := `
		SELECT id_producto, nombre, precio, descripcion, stock, activo, fecha_creacion
		FROM productos
		ORDER BY nombre
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.Stock, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}

	return products, nil
}

func (r *postgresRepository) Update(ctx context.Context, id int64, upd Update) error {
	query := `
		UPDATE productos
		SET nombre      = COALESCE($1, nombre),
		    precio      = COALESCE($2, precio),
		    descripcion = COALESCE($3, descripcion),
		    stock       = COALESCE($4, stock),
		    activo      = COALESCE($5, activo)
		WHERE id_producto = $6
	`

	cmdTag, err := r.db.Exec(ctx, query, upd.Name, upd.Price, upd.Description, upd.Stock, upd.Active, id)
	if err != nil {
		return fmt.Errorf("repository: failed to update product %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM productos WHERE id_producto = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete product %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *postgresRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM productos`).Scan(&count); err != nil {
		return 0, fmt.Errorf("repository: failed to count products: %w", err)
	}
	return count, nil
}
