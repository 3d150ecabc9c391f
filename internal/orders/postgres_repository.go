package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chetanmadiwalar/AgroHub-sub000/internal/domain"
	"github.com/chetanmadiwalar/AgroHub-sub000/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const orderColumns = `id, buyer_id, seller_id, group_token, items, shipping_address, payment_method,
	items_price, shipping_price, tax_price, total_price, status, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(cred *Credentials) (*PostgresRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	logger.L().Info().Str("host", cred.Host).Str("db", cred.DBName).Msg("connected to postgres")
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *PostgresRepository) CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.OrderID, error) {
	itemsJSON, err := json.Marshal(payload.Items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal order items: %w", err)
	}
	addressJSON, err := json.Marshal(payload.ShippingAddress)
	if err != nil {
		return "", fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	id := domain.OrderID(uuid.NewString())
	query := `INSERT INTO orders (id, buyer_id, seller_id, group_token, items, shipping_address, payment_method,
	          items_price, shipping_price, tax_price, total_price, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`

	_, insertErr := r.db.ExecContext(ctx, query,
		id.String(),
		payload.BuyerID,
		payload.SellerID,
		payload.GroupToken,
		itemsJSON,
		addressJSON,
		payload.PaymentMethod,
		payload.ItemsPrice,
		payload.ShippingPrice,
		payload.TaxPrice,
		payload.TotalPrice,
		domain.OrderStatusPending)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return "", ErrDuplicateOrder
		}
		return "", fmt.Errorf("insert order: %w", insertErr)
	}
	return id, nil
}

func (r *PostgresRepository) GetOrderByID(ctx context.Context, id domain.OrderID) (*domain.Order, error) {
	if _, err := uuid.Parse(id.String()); err != nil {
		return nil, ErrOrderNotFound
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

func (r *PostgresRepository) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC`, buyerID)
}

func (r *PostgresRepository) ListOrdersBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE seller_id = $1 ORDER BY created_at DESC`, sellerID)
}

func (r *PostgresRepository) ListOrdersByGroupToken(ctx context.Context, groupToken string) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE group_token = $1 ORDER BY created_at DESC`, groupToken)
}

func (r *PostgresRepository) MarkForReview(ctx context.Context, ids []domain.OrderID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id.String()); err == nil {
			raw = append(raw, id.String())
		}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = ANY($2::uuid[])`,
		domain.OrderStatusNeedsReview, pq.Array(raw))
	if err != nil {
		return 0, fmt.Errorf("mark orders for review: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg string) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order       domain.Order
		itemsJSON   []byte
		addressJSON []byte
	)
	err := row.Scan(
		&order.ID,
		&order.BuyerID,
		&order.SellerID,
		&order.GroupToken,
		&itemsJSON,
		&addressJSON,
		&order.PaymentMethod,
		&order.ItemsPrice,
		&order.ShippingPrice,
		&order.TaxPrice,
		&order.TotalPrice,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	return &order, nil
}
