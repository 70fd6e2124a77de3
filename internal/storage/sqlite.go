package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dshills/storebot/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys; order_items relies on ON DELETE RESTRICT
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func parsePrice(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid stored price %q: %w", raw, err)
	}
	return d, nil
}

// User operations

func (s *SQLiteStore) UpsertUser(ctx context.Context, user *types.User) error {
	query := `
		INSERT INTO users (user_id, username, first_name, last_name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name
	`
	if _, err := s.db.ExecContext(ctx, query, user.ID, user.Username, user.FirstName, user.LastName); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*types.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, username, first_name, last_name, created_at FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*types.User
	for rows.Next() {
		var u types.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// Product operations

func (s *SQLiteStore) CreateProduct(ctx context.Context, product *types.Product) error {
	query := `
		INSERT INTO products (name, description, price, category, brand, image_ref, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		product.Name, product.Description, product.Price.String(),
		product.Category, product.Brand, product.ImageRef, product.Active)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	product.ID = id
	return nil
}

const productColumns = `id, name, description, price, category, brand, image_ref, is_active, created_at`

func scanProduct(scan func(dest ...interface{}) error) (*types.Product, error) {
	var p types.Product
	var price string
	var imageRef sql.NullString
	err := scan(&p.ID, &p.Name, &p.Description, &price, &p.Category, &p.Brand, &imageRef, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.ImageRef = imageRef.String
	p.Price, err = parsePrice(price)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) GetProduct(ctx context.Context, id int64) (*types.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	product, err := scanProduct(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *SQLiteStore) listProducts(ctx context.Context, query string, args ...interface{}) ([]*types.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*types.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *SQLiteStore) ListProductsByCategory(ctx context.Context, category string) ([]*types.Product, error) {
	return s.listProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE category = ? AND is_active = 1 ORDER BY id`, category)
}

func (s *SQLiteStore) ListAllProducts(ctx context.Context) ([]*types.Product, error) {
	return s.listProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id DESC`)
}

func (s *SQLiteStore) UpdateProduct(ctx context.Context, product *types.Product) error {
	query := `
		UPDATE products
		SET name = ?, description = ?, price = ?, category = ?, brand = ?, image_ref = ?, is_active = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		product.Name, product.Description, product.Price.String(),
		product.Category, product.Brand, product.ImageRef, product.Active, product.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteProduct(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		// Foreign key restriction: the product appears in order_items
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ToggleProductActive(ctx context.Context, id int64) (bool, error) {
	var active bool
	err := s.db.QueryRowContext(ctx,
		`UPDATE products SET is_active = NOT is_active WHERE id = ? RETURNING is_active`, id).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle product %d: %w", id, err)
	}
	return active, nil
}

func (s *SQLiteStore) listDistinct(ctx context.Context, column string) ([]string, error) {
	// column is one of two compile-time constants, never user input
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT `+column+` FROM products WHERE is_active = 1 ORDER BY `+column)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s values: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]string, error) {
	return s.listDistinct(ctx, "category")
}

func (s *SQLiteStore) ListBrands(ctx context.Context) ([]string, error) {
	return s.listDistinct(ctx, "brand")
}

// Cart operations

func (s *SQLiteStore) AddToCart(ctx context.Context, userID, productID int64) error {
	query := `
		INSERT INTO cart (user_id, product_id, quantity)
		VALUES (?, ?, 1)
		ON CONFLICT(user_id, product_id) DO UPDATE SET quantity = quantity + 1
	`
	if _, err := s.db.ExecContext(ctx, query, userID, productID); err != nil {
		return fmt.Errorf("failed to add to cart: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CartQuantity(ctx context.Context, userID, productID int64) (int, error) {
	var qty int
	err := s.db.QueryRowContext(ctx,
		`SELECT quantity FROM cart WHERE user_id = ? AND product_id = ?`, userID, productID).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return qty, nil
}

func (s *SQLiteStore) SetCartQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, userID, productID)
	}
	query := `
		INSERT INTO cart (user_id, product_id, quantity)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, product_id) DO UPDATE SET quantity = excluded.quantity
	`
	if _, err := s.db.ExecContext(ctx, query, userID, productID, quantity); err != nil {
		return fmt.Errorf("failed to set cart quantity: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RemoveFromCart(ctx context.Context, userID, productID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM cart WHERE user_id = ? AND product_id = ?`, userID, productID); err != nil {
		return fmt.Errorf("failed to remove from cart: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCart(ctx context.Context, userID int64) ([]types.CartLine, error) {
	query := `
		SELECT c.product_id, p.name, p.price, c.quantity, COALESCE(p.image_ref, '')
		FROM cart c
		JOIN products p ON c.product_id = p.id
		WHERE c.user_id = ?
		ORDER BY c.added_at, c.product_id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	defer rows.Close()

	var lines []types.CartLine
	for rows.Next() {
		var line types.CartLine
		var price string
		if err := rows.Scan(&line.ProductID, &line.Name, &price, &line.Quantity, &line.ImageRef); err != nil {
			return nil, err
		}
		if line.Price, err = parsePrice(price); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (s *SQLiteStore) ClearCart(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Order operations

// CreateOrder assigns the next ORD-NNN id and persists the order with its
// item snapshots in one transaction. On success order.ID and order.CreatedAt
// are populated.
func (s *SQLiteStore) CreateOrder(ctx context.Context, order *types.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`UPDATE order_seq SET next = next + 1 WHERE id = 1 RETURNING next`).Scan(&seq); err != nil {
		return fmt.Errorf("failed to advance order sequence: %w", err)
	}
	order.ID = fmt.Sprintf("ORD-%03d", seq)

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (order_id, user_id, customer_name, customer_phone, customer_address, total_amount, status, payment_method, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.CustomerName, order.CustomerPhone, order.CustomerAddr,
		order.Total.String(), string(order.Status), string(order.Payment), now)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, unit_price, quantity)
			VALUES (?, ?, ?, ?, ?)`,
			order.ID, item.ProductID, item.Name, item.UnitPrice.String(), item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	order.CreatedAt = now
	return nil
}

const orderColumns = `order_id, user_id, customer_name, customer_phone, customer_address, total_amount, status, payment_method, created_at`

func scanOrder(scan func(dest ...interface{}) error) (*types.Order, error) {
	var o types.Order
	var total, status, payment string
	err := scan(&o.ID, &o.UserID, &o.CustomerName, &o.CustomerPhone, &o.CustomerAddr,
		&total, &status, &payment, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	if o.Total, err = parsePrice(total); err != nil {
		return nil, err
	}
	o.Status = types.OrderStatus(status)
	o.Payment = types.PaymentMethod(payment)
	return &o, nil
}

func (s *SQLiteStore) loadOrderItems(ctx context.Context, q querier, orderID string) ([]types.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT product_id, name, unit_price, quantity
		FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	var items []types.OrderItem
	for rows.Next() {
		var it types.OrderItem
		var price string
		if err := rows.Scan(&it.ProductID, &it.Name, &price, &it.Quantity); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = parsePrice(price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*types.Order, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, id)
	order, err := scanOrder(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if order.Items, err = s.loadOrderItems(ctx, s.db, id); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *SQLiteStore) listOrders(ctx context.Context, query string, args ...interface{}) ([]*types.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*types.Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		if o.Items, err = s.loadOrderItems(ctx, s.db, o.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *SQLiteStore) ListOrdersForUser(ctx context.Context, userID int64) ([]*types.Order, error) {
	return s.listOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC, order_id DESC`, userID)
}

func (s *SQLiteStore) ListAllOrders(ctx context.Context) ([]*types.Order, error) {
	return s.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, order_id DESC`)
}

func (s *SQLiteStore) UpdateOrderStatus(ctx context.Context, id string, status types.OrderStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE order_id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
