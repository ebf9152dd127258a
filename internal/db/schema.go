package db

import "context"

// InitSchema creates the tables on first run. Statements are idempotent so
// restarting against an existing database is a no-op. participants.company_id
// carries no FK because companies and participants reference each other.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS participants (
		id BIGSERIAL PRIMARY KEY,
		telegram_id BIGINT UNIQUE NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('admin','worker')),
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		uuid TEXT UNIQUE NOT NULL,
		company_id BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS companies (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		admin_id BIGINT NOT NULL REFERENCES participants(telegram_id)
	)`,
	`CREATE TABLE IF NOT EXISTS restaurants (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		admin_id BIGINT NOT NULL REFERENCES participants(telegram_id)
	)`,
	`CREATE TABLE IF NOT EXISTS menu_items (
		id BIGSERIAL PRIMARY KEY,
		restaurant_id BIGINT NOT NULL REFERENCES restaurants(id),
		name TEXT NOT NULL,
		price_cents BIGINT NOT NULL CHECK (price_cents >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS group_orders (
		id BIGSERIAL PRIMARY KEY,
		group_id TEXT UNIQUE NOT NULL,
		restaurant_id BIGINT NOT NULL REFERENCES restaurants(id),
		status TEXT NOT NULL DEFAULT 'open',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES group_orders(id),
		group_id TEXT NOT NULL,
		menu_item_id BIGINT NOT NULL REFERENCES menu_items(id),
		worker_id BIGINT NOT NULL REFERENCES participants(telegram_id),
		quantity INT NOT NULL CHECK (quantity > 0),
		is_paid BOOLEAN NOT NULL DEFAULT FALSE,
		paid_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_lines_group_worker
		ON order_lines (group_id, worker_id)`,
}

func (c *Conn) InitSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := c.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
