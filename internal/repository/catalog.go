package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"group-order-bot/internal/domain"
)

type CatalogInterface interface {
	AddRestaurant(ctx context.Context, adminID int64, name string) (int64, error)
	GetRestaurant(ctx context.Context, id int64) (*domain.Restaurant, error)
	ListRestaurants(ctx context.Context, adminID int64) ([]domain.Restaurant, error)
	AddMenuItem(ctx context.Context, item domain.MenuItem) (int64, error)
	ListMenuItems(ctx context.Context, restaurantID int64) ([]domain.MenuItem, error)
}

type Catalog struct {
	db *pgxpool.Pool
}

func NewCatalog(db *pgxpool.Pool) CatalogInterface {
	return &Catalog{db: db}
}

func (r *Catalog) AddRestaurant(ctx context.Context, adminID int64, name string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO restaurants (name, admin_id) VALUES ($1, $2) RETURNING id
	`, name, adminID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert restaurant: %w", err)
	}
	return id, nil
}

func (r *Catalog) GetRestaurant(ctx context.Context, id int64) (*domain.Restaurant, error) {
	var rest domain.Restaurant
	err := r.db.QueryRow(ctx, `SELECT id, name, admin_id FROM restaurants WHERE id=$1`, id).
		Scan(&rest.ID, &rest.Name, &rest.AdminID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	return &rest, nil
}

func (r *Catalog) ListRestaurants(ctx context.Context, adminID int64) ([]domain.Restaurant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, admin_id FROM restaurants WHERE admin_id=$1 ORDER BY id
	`, adminID)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	var out []domain.Restaurant
	for rows.Next() {
		var rest domain.Restaurant
		if err := rows.Scan(&rest.ID, &rest.Name, &rest.AdminID); err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	return out, rows.Err()
}

func (r *Catalog) AddMenuItem(ctx context.Context, item domain.MenuItem) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO menu_items (restaurant_id, name, price_cents)
		VALUES ($1, $2, $3) RETURNING id
	`, item.RestaurantID, item.Name, item.PriceCents).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert menu item: %w", err)
	}
	return id, nil
}

func (r *Catalog) ListMenuItems(ctx context.Context, restaurantID int64) ([]domain.MenuItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, restaurant_id, name, price_cents
		FROM menu_items WHERE restaurant_id=$1 ORDER BY id
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	var out []domain.MenuItem
	for rows.Next() {
		var m domain.MenuItem
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
