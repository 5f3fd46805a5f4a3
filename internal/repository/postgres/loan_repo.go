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

const loanColumns = `id, tenant_id, borrower_name, principal_amount, rate_type, interest_rate,
	term_days, payment_frequency, processing_fee_percent, platform_fee_fixed, compounding,
	total_interest, total_fees, total_amount, installment_amount, num_installments,
	outstanding_balance, amount_paid, status, disbursement_date, notes,
	created_at, updated_at, deleted_at`

// LoanRepository implements domain.LoanRepository using PostgreSQL
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

// Create inserts a new loan record with its quote fields
func (r *LoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	ctx := context.Background()

	query := `
		INSERT INTO loans (
			id, tenant_id, borrower_name, principal_amount, rate_type, interest_rate,
			term_days, payment_frequency, processing_fee_percent, platform_fee_fixed, compounding,
			total_interest, total_fees, total_amount, installment_amount, num_installments,
			outstanding_balance, amount_paid, status, disbursement_date, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		RETURNING ` + loanColumns

	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, query,
		loan.ID, loan.TenantID, loan.BorrowerName, loan.Principal, loan.RateType, loan.AnnualRatePercent,
		loan.TermDays, loan.PaymentFrequency, loan.ProcessingFeePercent, loan.PlatformFeeFixed, loan.Compounding,
		loan.TotalInterest, loan.TotalFees, loan.TotalAmount, loan.InstallmentAmount, loan.NumberOfInstallments,
		loan.OutstandingBalance, loan.AmountPaid, loan.Status, loan.DisbursementDate, loan.Notes,
	)

	created, err := scanLoan(row)
	if err != nil {
		return nil, fmt.Errorf("create loan: %w", err)
	}
	return created, nil
}

// GetByID retrieves a loan by its ID within a tenant
func (r *LoanRepository) GetByID(tenantID int32, id uuid.UUID) (*domain.Loan, error) {
	ctx := context.Background()

	query := `SELECT ` + loanColumns + `
		FROM loans
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`

	loan, err := scanLoan(r.pool.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return loan, nil
}

// GetAllByTenant retrieves all loans for a tenant, newest first
func (r *LoanRepository) GetAllByTenant(tenantID int32) ([]*domain.Loan, error) {
	ctx := context.Background()

	query := `SELECT ` + loanColumns + `
		FROM loans
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	return scanLoans(rows)
}

// ListDisbursed retrieves disbursed loans across all tenants, used by the overdue sweep
func (r *LoanRepository) ListDisbursed() ([]*domain.Loan, error) {
	ctx := context.Background()

	query := `SELECT ` + loanColumns + `
		FROM loans
		WHERE status = $1 AND deleted_at IS NULL
		ORDER BY disbursement_date ASC`

	rows, err := r.pool.Query(ctx, query, domain.LoanStatusDisbursed)
	if err != nil {
		return nil, fmt.Errorf("list disbursed loans: %w", err)
	}
	defer rows.Close()

	return scanLoans(rows)
}

// Update persists the mutable fields of a loan
func (r *LoanRepository) Update(loan *domain.Loan) (*domain.Loan, error) {
	return r.update(context.Background(), r.pool, loan)
}

// UpdateTx persists the mutable fields of a loan within a transaction
func (r *LoanRepository) UpdateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	pgxTx, ok := tx.(pgx.Tx)
	if !ok {
		return nil, errors.New("invalid transaction type")
	}
	return r.update(context.Background(), pgxTx, loan)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *LoanRepository) update(ctx context.Context, q querier, loan *domain.Loan) (*domain.Loan, error) {
	query := `
		UPDATE loans SET
			borrower_name       = $3,
			outstanding_balance = $4,
			amount_paid         = $5,
			status              = $6,
			disbursement_date   = $7,
			notes               = $8,
			updated_at          = now()
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
		RETURNING ` + loanColumns

	row := q.QueryRow(ctx, query,
		loan.ID, loan.TenantID, loan.BorrowerName,
		loan.OutstandingBalance, loan.AmountPaid, loan.Status,
		loan.DisbursementDate, loan.Notes,
	)

	updated, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, fmt.Errorf("update loan: %w", err)
	}
	return updated, nil
}

// SoftDelete marks a loan as deleted without removing the row
func (r *LoanRepository) SoftDelete(tenantID int32, id uuid.UUID) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx, `
		UPDATE loans SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		id, tenantID,
	)
	if err != nil {
		return fmt.Errorf("soft delete loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var loan domain.Loan
	err := row.Scan(
		&loan.ID, &loan.TenantID, &loan.BorrowerName, &loan.Principal, &loan.RateType, &loan.AnnualRatePercent,
		&loan.TermDays, &loan.PaymentFrequency, &loan.ProcessingFeePercent, &loan.PlatformFeeFixed, &loan.Compounding,
		&loan.TotalInterest, &loan.TotalFees, &loan.TotalAmount, &loan.InstallmentAmount, &loan.NumberOfInstallments,
		&loan.OutstandingBalance, &loan.AmountPaid, &loan.Status, &loan.DisbursementDate, &loan.Notes,
		&loan.CreatedAt, &loan.UpdatedAt, &loan.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func scanLoans(rows pgx.Rows) ([]*domain.Loan, error) {
	loans := make([]*domain.Loan, 0)
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return loans, nil
}
