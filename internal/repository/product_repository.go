package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/order-service/internal/domain"
)

// ProductRepository encapsulates catalog persistence.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	ListAvailable(ctx context.Context) ([]domain.Product, error)
	SearchByName(ctx context.Context, name string) ([]domain.Product, error)
	ListByPriceRange(ctx context.Context, min, max decimal.Decimal) ([]domain.Product, error)
	AdjustStock(ctx context.Context, id int64, delta int) (*domain.Product, error)
}

type productRepository struct {
	db DBTX
}

// NewProductRepository instantiates repository.
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, description, price, stock, image, created_at, updated_at`

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	const query = `
        INSERT INTO products (name, description, price, stock, image)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.Image,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	const query = `
        UPDATE products SET name=$1, description=$2, price=$3, stock=$4, image=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.Image,
		product.ID,
	).Scan(&product.UpdatedAt)
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id=$1`
	var product domain.Product
	if err := scanProduct(r.db.QueryRow(ctx, query, id), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id`
	return r.fetchMany(ctx, query)
}

func (r *productRepository) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE stock > 0 ORDER BY id`
	return r.fetchMany(ctx, query)
}

func (r *productRepository) SearchByName(ctx context.Context, name string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE LOWER(name) LIKE $1 ORDER BY id`
	pattern := "%" + strings.ToLower(strings.TrimSpace(name)) + "%"
	return r.fetchMany(ctx, query, pattern)
}

func (r *productRepository) ListByPriceRange(ctx context.Context, min, max decimal.Decimal) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE price BETWEEN $1 AND $2 ORDER BY price ASC`
	return r.fetchMany(ctx, query, min, max)
}

// AdjustStock applies the delta only when the resulting stock stays
// non-negative; pgx.ErrNoRows signals either a missing product or a stock
// underflow, which the caller disambiguates.
func (r *productRepository) AdjustStock(ctx context.Context, id int64, delta int) (*domain.Product, error) {
	const query = `
        UPDATE products SET stock = stock + $2, updated_at=NOW()
        WHERE id=$1 AND stock + $2 >= 0
        RETURNING ` + productColumns
	var product domain.Product
	if err := scanProduct(r.db.QueryRow(ctx, query, id, delta), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) fetchMany(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		var product domain.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, err
		}
		result = append(result, product)
	}
	return result, rows.Err()
}

func scanProduct(row pgx.Row, product *domain.Product) error {
	return row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.Image,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
}
