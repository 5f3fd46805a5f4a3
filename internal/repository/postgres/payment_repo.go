package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lendora/lendora-backend/internal/domain"
)

// PaymentRepository implements domain.PaymentRepository using PostgreSQL.
// Payments are an append-only ledger: there is no update or delete.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create appends a payment to the ledger
func (r *PaymentRepository) Create(payment *domain.Payment) (*domain.Payment, error) {
	return r.create(context.Background(), r.pool, payment)
}

// CreateTx appends a payment to the ledger within a transaction
func (r *PaymentRepository) CreateTx(tx interface{}, payment *domain.Payment) (*domain.Payment, error) {
	pgxTx, ok := tx.(pgx.Tx)
	if !ok {
		return nil, errors.New("invalid transaction type")
	}
	return r.create(context.Background(), pgxTx, payment)
}

func (r *PaymentRepository) create(ctx context.Context, q querier, payment *domain.Payment) (*domain.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}

	query := `
		INSERT INTO loan_payments (id, loan_id, amount, payment_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, loan_id, amount, payment_date, created_at`

	var created domain.Payment
	err := q.QueryRow(ctx, query, payment.ID, payment.LoanID, payment.Amount, payment.PaymentDate).
		Scan(&created.ID, &created.LoanID, &created.Amount, &created.PaymentDate, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return &created, nil
}

// GetByLoanID returns the full ledger for a loan, ordered by payment date ascending
func (r *PaymentRepository) GetByLoanID(loanID uuid.UUID) ([]domain.Payment, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx, `
		SELECT id, loan_id, amount, payment_date, created_at
		FROM loan_payments
		WHERE loan_id = $1
		ORDER BY payment_date ASC, created_at ASC`,
		loanID,
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.LoanID, &p.Amount, &p.PaymentDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}
