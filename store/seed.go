package store

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// SeedCounts controls how much sample data Seed generates per table.
type SeedCounts struct {
	Users      int
	Products   int
	Orders     int
	OrderItems int
	Reviews    int
	Suppliers  int
}

// DefaultSeedCounts returns a dataset small enough for local demos.
func DefaultSeedCounts() SeedCounts {
	return SeedCounts{
		Users:      1000,
		Products:   200,
		Orders:     2000,
		OrderItems: 4000,
		Reviews:    1000,
		Suppliers:  25,
	}
}

var (
	seedFirstNames = []string{
		"John", "Jane", "Michael", "Sarah", "David", "Emily", "Robert", "Jessica",
		"William", "Ashley", "James", "Amanda", "Christopher", "Jennifer", "Daniel",
		"Lisa", "Matthew", "Nancy", "Anthony", "Karen",
	}
	seedLastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
		"Davis", "Rodriguez", "Martinez", "Wilson", "Anderson", "Thomas", "Taylor",
		"Moore", "Jackson", "Martin", "Lee", "Perez", "Thompson",
	}
	seedCities = []string{
		"New York", "Los Angeles", "Chicago", "Houston", "Phoenix", "Philadelphia",
		"San Antonio", "San Diego", "Dallas", "San Jose", "Austin", "Seattle",
		"Denver", "Boston", "Nashville",
	}
	seedStates = []string{"CA", "TX", "FL", "NY", "PA", "IL", "OH", "GA", "NC", "MI", "WA", "AZ", "MA", "TN", "CO"}
	seedBrands = []string{
		"Apple", "Samsung", "Nike", "Adidas", "Sony", "Microsoft", "Google",
		"Amazon", "Dell", "HP", "Lenovo", "Canon",
	}
	seedSubscriptions   = []string{"free", "premium", "enterprise"}
	seedOrderStatuses   = []string{"pending", "processing", "shipped", "delivered", "cancelled"}
	seedPaymentMethods  = []string{"credit_card", "debit_card", "paypal", "apple_pay"}
	seedPaymentStatuses = []string{"pending", "paid", "failed", "refunded"}

	seedCategories = []struct{ name, description string }{
		{"Electronics", "Electronic devices and gadgets"},
		{"Clothing", "Apparel and accessories"},
		{"Home & Garden", "Home improvement and garden supplies"},
		{"Sports & Outdoors", "Sports equipment and outdoor gear"},
		{"Books", "Books and educational materials"},
		{"Health & Beauty", "Health and beauty products"},
		{"Automotive", "Car parts and accessories"},
		{"Toys & Games", "Toys and gaming products"},
		{"Food & Beverages", "Food and drink products"},
		{"Office Supplies", "Office and business supplies"},
	}
)

var seedDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		first_name VARCHAR(50) NOT NULL,
		last_name VARCHAR(50) NOT NULL,
		email VARCHAR(100) UNIQUE NOT NULL,
		phone VARCHAR(20),
		age INTEGER,
		city VARCHAR(50),
		state VARCHAR(50),
		country VARCHAR(50),
		registration_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_login TIMESTAMP,
		is_active BOOLEAN DEFAULT true,
		subscription_type VARCHAR(20) DEFAULT 'free'
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		description TEXT,
		parent_category_id INTEGER REFERENCES categories(id),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		description TEXT,
		price DECIMAL(10,2) NOT NULL,
		cost DECIMAL(10,2),
		category_id INTEGER REFERENCES categories(id),
		brand VARCHAR(100),
		sku VARCHAR(50) UNIQUE,
		stock_quantity INTEGER DEFAULT 0,
		rating DECIMAL(3,2),
		review_count INTEGER DEFAULT 0,
		is_active BOOLEAN DEFAULT true,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id SERIAL PRIMARY KEY,
		user_id INTEGER REFERENCES users(id),
		order_number VARCHAR(50) UNIQUE NOT NULL,
		order_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		status VARCHAR(20) DEFAULT 'pending',
		total_amount DECIMAL(12,2) NOT NULL,
		tax_amount DECIMAL(10,2) DEFAULT 0,
		shipping_amount DECIMAL(10,2) DEFAULT 0,
		payment_method VARCHAR(50),
		payment_status VARCHAR(20) DEFAULT 'pending'
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id SERIAL PRIMARY KEY,
		order_id INTEGER REFERENCES orders(id),
		product_id INTEGER REFERENCES products(id),
		quantity INTEGER NOT NULL,
		unit_price DECIMAL(10,2) NOT NULL,
		total_price DECIMAL(12,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id SERIAL PRIMARY KEY,
		user_id INTEGER REFERENCES users(id),
		product_id INTEGER REFERENCES products(id),
		rating INTEGER CHECK (rating >= 1 AND rating <= 5),
		title VARCHAR(200),
		comment TEXT,
		is_verified BOOLEAN DEFAULT false,
		helpful_count INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS suppliers (
		id SERIAL PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		contact_person VARCHAR(100),
		email VARCHAR(100),
		phone VARCHAR(20),
		city VARCHAR(50),
		country VARCHAR(50),
		rating DECIMAL(3,2),
		is_active BOOLEAN DEFAULT true,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		id SERIAL PRIMARY KEY,
		product_id INTEGER REFERENCES products(id),
		supplier_id INTEGER REFERENCES suppliers(id),
		quantity INTEGER NOT NULL,
		reserved_quantity INTEGER DEFAULT 0,
		reorder_level INTEGER DEFAULT 10,
		last_restocked TIMESTAMP,
		location VARCHAR(100)
	)`,
}

// Seed creates the demo tables and fills them with randomized sample data.
// Existing tables are kept; rows are appended, so run it against a fresh
// database.
func (s *PostgresStore) Seed(ctx context.Context, counts SeedCounts) error {
	for _, ddl := range seedDDL {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, c := range seedCategories {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO categories (name, description) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			c.name, c.description); err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}
	}

	if err := s.seedUsers(ctx, rng, counts.Users); err != nil {
		return err
	}
	if err := s.seedProducts(ctx, rng, counts.Products); err != nil {
		return err
	}
	if err := s.seedOrders(ctx, rng, counts.Orders, counts.Users); err != nil {
		return err
	}
	if err := s.seedOrderItems(ctx, rng, counts.OrderItems, counts.Orders, counts.Products); err != nil {
		return err
	}
	if err := s.seedReviews(ctx, rng, counts.Reviews, counts.Users, counts.Products); err != nil {
		return err
	}
	return s.seedSuppliers(ctx, rng, counts.Suppliers, counts.Products)
}

func (s *PostgresStore) seedUsers(ctx context.Context, rng *rand.Rand, n int) error {
	for i := 0; i < n; i++ {
		first := seedFirstNames[rng.Intn(len(seedFirstNames))]
		last := seedLastNames[rng.Intn(len(seedLastNames))]
		registered := time.Now().AddDate(0, 0, -rng.Intn(3650)-1)

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO users (first_name, last_name, email, age, city, state, country,
			                   registration_date, last_login, subscription_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			first, last,
			fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i),
			18+rng.Intn(63),
			seedCities[rng.Intn(len(seedCities))],
			seedStates[rng.Intn(len(seedStates))],
			"USA",
			registered,
			registered.AddDate(0, 0, rng.Intn(31)),
			seedSubscriptions[rng.Intn(len(seedSubscriptions))])
		if err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) seedProducts(ctx context.Context, rng *rand.Rand, n int) error {
	for i := 0; i < n; i++ {
		brand := seedBrands[rng.Intn(len(seedBrands))]
		price := 10 + rng.Float64()*1990

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO products (name, price, cost, category_id, brand, sku,
			                      stock_quantity, rating, review_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			fmt.Sprintf("%s Product %d", brand, i+1),
			round2(price),
			round2(price*(0.3+rng.Float64()*0.4)),
			1+rng.Intn(len(seedCategories)),
			brand,
			fmt.Sprintf("SKU-%06d", i+1),
			rng.Intn(1001),
			round2(1+rng.Float64()*4),
			rng.Intn(501))
		if err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) seedOrders(ctx context.Context, rng *rand.Rand, n, users int) error {
	if users == 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		total := 20 + rng.Float64()*1980

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO orders (user_id, order_number, order_date, status, total_amount,
			                    tax_amount, shipping_amount, payment_method, payment_status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			1+rng.Intn(users),
			fmt.Sprintf("ORD-%08d", i+1),
			time.Now().AddDate(0, 0, -rng.Intn(365)-1),
			seedOrderStatuses[rng.Intn(len(seedOrderStatuses))],
			round2(total),
			round2(total*0.08),
			round2(5+rng.Float64()*45),
			seedPaymentMethods[rng.Intn(len(seedPaymentMethods))],
			seedPaymentStatuses[rng.Intn(len(seedPaymentStatuses))])
		if err != nil {
			return fmt.Errorf("failed to seed orders: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) seedOrderItems(ctx context.Context, rng *rand.Rand, n, orders, products int) error {
	if orders == 0 || products == 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		quantity := 1 + rng.Intn(10)
		unitPrice := 10 + rng.Float64()*490

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5)`,
			1+rng.Intn(orders),
			1+rng.Intn(products),
			quantity,
			round2(unitPrice),
			round2(unitPrice*float64(quantity)))
		if err != nil {
			return fmt.Errorf("failed to seed order items: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) seedReviews(ctx context.Context, rng *rand.Rand, n, users, products int) error {
	if users == 0 || products == 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		userID := 1 + rng.Intn(users)
		productID := 1 + rng.Intn(products)

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO reviews (user_id, product_id, rating, title, comment,
			                     is_verified, helpful_count, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			userID, productID,
			1+rng.Intn(5),
			fmt.Sprintf("Review %d", i+1),
			fmt.Sprintf("This is a review for product %d by user %d.", productID, userID),
			rng.Intn(2) == 0,
			rng.Intn(51),
			time.Now().AddDate(0, 0, -rng.Intn(365)-1))
		if err != nil {
			return fmt.Errorf("failed to seed reviews: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) seedSuppliers(ctx context.Context, rng *rand.Rand, n, products int) error {
	for i := 0; i < n; i++ {
		supplierID := 0
		err := s.db.QueryRowContext(ctx, `
			INSERT INTO suppliers (name, contact_person, email, city, country, rating)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			fmt.Sprintf("Supplier %d Inc.", i+1),
			fmt.Sprintf("%s %s", seedFirstNames[rng.Intn(len(seedFirstNames))], seedLastNames[rng.Intn(len(seedLastNames))]),
			fmt.Sprintf("contact%d@supplier.example.com", i+1),
			seedCities[rng.Intn(len(seedCities))],
			"USA",
			round2(1+rng.Float64()*4)).Scan(&supplierID)
		if err != nil {
			return fmt.Errorf("failed to seed suppliers: %w", err)
		}

		if products == 0 {
			continue
		}
		// A few inventory rows per supplier.
		for j := 0; j < 4; j++ {
			_, err := s.db.ExecContext(ctx, `
				INSERT INTO inventory (product_id, supplier_id, quantity, reorder_level, last_restocked, location)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				1+rng.Intn(products),
				supplierID,
				rng.Intn(500),
				10+rng.Intn(40),
				time.Now().AddDate(0, 0, -rng.Intn(90)),
				fmt.Sprintf("Warehouse %c", 'A'+rng.Intn(5)))
			if err != nil {
				return fmt.Errorf("failed to seed inventory: %w", err)
			}
		}
	}
	return nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
