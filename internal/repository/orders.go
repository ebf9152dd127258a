package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"group-order-bot/internal/domain"
)

// GroupOrderSummary is the projection used for selection menus.
type GroupOrderSummary struct {
	GroupID        string
	RestaurantName string
	Status         domain.Status
}

// LedgerLine is one order line joined with its menu item and worker, as
// shown in the admin's detail view.
type LedgerLine struct {
	WorkerID   int64
	WorkerName string
	WorkerUUID string
	ItemName   string
	PriceCents int64
	Quantity   int
	Paid       bool
	PaidAt     *time.Time
}

// WorkerTotal is the aggregated amount due per worker within an order.
type WorkerTotal struct {
	WorkerID   int64
	TotalCents int64
}

type OrdersInterface interface {
	CreateGroupOrder(ctx context.Context, o domain.GroupOrder) (int64, error)
	GetByGroupID(ctx context.Context, groupID string) (*domain.GroupOrder, error)
	GetOpenByGroupID(ctx context.Context, groupID string) (*domain.GroupOrder, error)
	ListByAdmin(ctx context.Context, adminID int64) ([]GroupOrderSummary, error)
	ListOpen(ctx context.Context) ([]GroupOrderSummary, error)
	ListJoinedByWorker(ctx context.Context, workerID int64) ([]GroupOrderSummary, error)
	InsertLines(ctx context.Context, lines []domain.OrderLine) error
	UpdateStatus(ctx context.Context, groupID string, adminID int64, status domain.Status) error
	TogglePaid(ctx context.Context, groupID string, workerID int64) (bool, error)
	LedgerLines(ctx context.Context, groupID string) ([]LedgerLine, error)
	WorkerTotals(ctx context.Context, groupID string) ([]WorkerTotal, error)
	AdminFor(ctx context.Context, groupID string) (*domain.Participant, error)
}

type Orders struct {
	db *pgxpool.Pool
}

func NewOrders(db *pgxpool.Pool) OrdersInterface {
	return &Orders{db: db}
}

func (r *Orders) CreateGroupOrder(ctx context.Context, o domain.GroupOrder) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO group_orders (group_id, restaurant_id, status)
		VALUES ($1, $2, $3) RETURNING id
	`, o.GroupID, o.RestaurantID, o.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert group order: %w", err)
	}
	return id, nil
}

func (r *Orders) GetByGroupID(ctx context.Context, groupID string) (*domain.GroupOrder, error) {
	return r.get(ctx, `
		SELECT id, group_id, restaurant_id, status, created_at
		FROM group_orders WHERE group_id=$1
	`, groupID)
}

// GetOpenByGroupID returns the order only while it is still joinable.
func (r *Orders) GetOpenByGroupID(ctx context.Context, groupID string) (*domain.GroupOrder, error) {
	return r.get(ctx, `
		SELECT id, group_id, restaurant_id, status, created_at
		FROM group_orders WHERE group_id=$1 AND status='open'
	`, groupID)
}

func (r *Orders) get(ctx context.Context, query, groupID string) (*domain.GroupOrder, error) {
	var o domain.GroupOrder
	err := r.db.QueryRow(ctx, query, groupID).
		Scan(&o.ID, &o.GroupID, &o.RestaurantID, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group order: %w", err)
	}
	return &o, nil
}

func (r *Orders) ListByAdmin(ctx context.Context, adminID int64) ([]GroupOrderSummary, error) {
	return r.list(ctx, `
		SELECT o.group_id, r.name, o.status
		FROM group_orders o JOIN restaurants r ON o.restaurant_id = r.id
		WHERE r.admin_id=$1 ORDER BY o.created_at DESC
	`, adminID)
}

func (r *Orders) ListOpen(ctx context.Context) ([]GroupOrderSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT o.group_id, r.name, o.status
		FROM group_orders o JOIN restaurants r ON o.restaurant_id = r.id
		WHERE o.status='open' ORDER BY o.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func (r *Orders) ListJoinedByWorker(ctx context.Context, workerID int64) ([]GroupOrderSummary, error) {
	return r.list(ctx, `
		SELECT DISTINCT o.group_id, r.name, o.status
		FROM group_orders o
		JOIN order_lines l ON l.order_id = o.id
		JOIN restaurants r ON o.restaurant_id = r.id
		WHERE l.worker_id=$1
	`, workerID)
}

func (r *Orders) list(ctx context.Context, query string, arg int64) ([]GroupOrderSummary, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list group orders: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func scanSummaries(rows pgx.Rows) ([]GroupOrderSummary, error) {
	var out []GroupOrderSummary
	for rows.Next() {
		var s GroupOrderSummary
		if err := rows.Scan(&s.GroupID, &s.RestaurantName, &s.Status); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertLines writes a submission batch in one transaction; a failure on any
// line inserts nothing.
func (r *Orders) InsertLines(ctx context.Context, lines []domain.OrderLine) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, l := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_lines (order_id, group_id, menu_item_id, worker_id, quantity, is_paid)
			VALUES ($1, $2, $3, $4, $5, FALSE)
		`, l.OrderID, l.GroupID, l.MenuItemID, l.WorkerID, l.Quantity); err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// UpdateStatus moves the order to status, but only for the admin owning the
// order's restaurant.
func (r *Orders) UpdateStatus(ctx context.Context, groupID string, adminID int64, status domain.Status) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE group_orders o SET status=$3
		FROM restaurants r
		WHERE o.group_id=$1 AND o.restaurant_id = r.id AND r.admin_id=$2
	`, groupID, adminID, status)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByGroupID(ctx, groupID); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrNotOwner
	}
	return nil
}

// TogglePaid flips the paid flag for every line of (groupID, workerID) as one
// payment unit. The first line is locked and read inside the transaction, so
// two concurrent toggles serialize instead of both flipping from the same
// starting value. Returns the new paid state.
func (r *Orders) TogglePaid(ctx context.Context, groupID string, workerID int64) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var paid bool
	err = tx.QueryRow(ctx, `
		SELECT is_paid FROM order_lines
		WHERE group_id=$1 AND worker_id=$2
		ORDER BY id LIMIT 1
		FOR UPDATE
	`, groupID, workerID).Scan(&paid)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("read paid flag: %w", err)
	}

	newPaid := !paid
	if _, err := tx.Exec(ctx, `
		UPDATE order_lines
		SET is_paid=$3, paid_at = CASE WHEN $3 THEN now() ELSE NULL END
		WHERE group_id=$1 AND worker_id=$2
	`, groupID, workerID, newPaid); err != nil {
		return false, fmt.Errorf("flip paid flag: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return newPaid, nil
}

func (r *Orders) LedgerLines(ctx context.Context, groupID string) ([]LedgerLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.telegram_id, p.name, p.uuid, m.name, m.price_cents,
		       l.quantity, l.is_paid, l.paid_at
		FROM order_lines l
		JOIN menu_items m ON l.menu_item_id = m.id
		JOIN participants p ON l.worker_id = p.telegram_id
		WHERE l.group_id=$1
		ORDER BY p.name, l.id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("ledger lines: %w", err)
	}
	defer rows.Close()

	var out []LedgerLine
	for rows.Next() {
		var l LedgerLine
		if err := rows.Scan(&l.WorkerID, &l.WorkerName, &l.WorkerUUID,
			&l.ItemName, &l.PriceCents, &l.Quantity, &l.Paid, &l.PaidAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Orders) WorkerTotals(ctx context.Context, groupID string) ([]WorkerTotal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT l.worker_id, SUM(l.quantity * m.price_cents)
		FROM order_lines l JOIN menu_items m ON l.menu_item_id = m.id
		WHERE l.group_id=$1
		GROUP BY l.worker_id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("worker totals: %w", err)
	}
	defer rows.Close()

	var out []WorkerTotal
	for rows.Next() {
		var t WorkerTotal
		if err := rows.Scan(&t.WorkerID, &t.TotalCents); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AdminFor resolves the admin owning the restaurant of a group order.
func (r *Orders) AdminFor(ctx context.Context, groupID string) (*domain.Participant, error) {
	var p domain.Participant
	err := r.db.QueryRow(ctx, `
		SELECT p.telegram_id, p.role, p.name, p.phone, p.uuid, p.company_id
		FROM participants p
		JOIN restaurants r ON p.telegram_id = r.admin_id
		JOIN group_orders o ON r.id = o.restaurant_id
		WHERE o.group_id=$1
	`, groupID).Scan(&p.TelegramID, &p.Role, &p.Name, &p.Phone, &p.UUID, &p.CompanyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("admin for order: %w", err)
	}
	return &p, nil
}
