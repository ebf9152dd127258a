package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"group-order-bot/internal/domain"
)

type ParticipantsInterface interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.Participant, error)
	CreateWorker(ctx context.Context, p domain.Participant) error
	CreateAdminWithCompany(ctx context.Context, p domain.Participant, companyName string) (int64, error)
	ListWorkerIDs(ctx context.Context) ([]int64, error)
	ListCompanies(ctx context.Context) ([]domain.Company, error)
	GetCompany(ctx context.Context, id int64) (*domain.Company, error)
}

type Participants struct {
	db *pgxpool.Pool
}

func NewParticipants(db *pgxpool.Pool) ParticipantsInterface {
	return &Participants{db: db}
}

func (r *Participants) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.Participant, error) {
	var p domain.Participant
	err := r.db.QueryRow(ctx, `
		SELECT telegram_id, role, name, phone, uuid, company_id
		FROM participants WHERE telegram_id=$1
	`, telegramID).Scan(&p.TelegramID, &p.Role, &p.Name, &p.Phone, &p.UUID, &p.CompanyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return &p, nil
}

func (r *Participants) CreateWorker(ctx context.Context, p domain.Participant) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO participants (telegram_id, role, name, phone, uuid, company_id)
		VALUES ($1, 'worker', $2, $3, $4, $5)
	`, p.TelegramID, p.Name, p.Phone, p.UUID, p.CompanyID)
	if err != nil {
		return fmt.Errorf("insert worker: %w", err)
	}
	return nil
}

// CreateAdminWithCompany inserts the admin row, the company row and the link
// between them in one transaction; a failure anywhere leaves no orphan.
func (r *Participants) CreateAdminWithCompany(ctx context.Context, p domain.Participant, companyName string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO participants (telegram_id, role, name, phone, uuid)
		VALUES ($1, 'admin', $2, $3, $4)
	`, p.TelegramID, p.Name, p.Phone, p.UUID); err != nil {
		return 0, fmt.Errorf("insert admin: %w", err)
	}

	var companyID int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO companies (name, admin_id) VALUES ($1, $2) RETURNING id
	`, companyName, p.TelegramID).Scan(&companyID); err != nil {
		return 0, fmt.Errorf("insert company: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE participants SET company_id=$1 WHERE telegram_id=$2
	`, companyID, p.TelegramID); err != nil {
		return 0, fmt.Errorf("link admin to company: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return companyID, nil
}

func (r *Participants) ListWorkerIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT telegram_id FROM participants WHERE role='worker'`)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Participants) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, admin_id FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var out []domain.Company
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.AdminID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Participants) GetCompany(ctx context.Context, id int64) (*domain.Company, error) {
	var c domain.Company
	err := r.db.QueryRow(ctx, `SELECT id, name, admin_id FROM companies WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.AdminID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}
