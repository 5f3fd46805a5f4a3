package testutil

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lendora/lendora-backend/internal/domain"
	"github.com/lendora/lendora-backend/internal/websocket"
)

// MockLoanRepository is a mock implementation of domain.LoanRepository
type MockLoanRepository struct {
	Loans    map[uuid.UUID]*domain.Loan
	CreateFn func(loan *domain.Loan) (*domain.Loan, error)
	UpdateFn func(loan *domain.Loan) (*domain.Loan, error)
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		Loans: make(map[uuid.UUID]*domain.Loan),
	}
}

// AddLoan seeds a loan into the mock store
func (m *MockLoanRepository) AddLoan(loan *domain.Loan) {
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	m.Loans[loan.ID] = loan
}

// Create creates a new loan
func (m *MockLoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	if m.CreateFn != nil {
		return m.CreateFn(loan)
	}
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	loan.CreatedAt = time.Now()
	loan.UpdatedAt = time.Now()
	m.Loans[loan.ID] = loan
	return loan, nil
}

// GetByID retrieves a loan by ID within a tenant
func (m *MockLoanRepository) GetByID(tenantID int32, id uuid.UUID) (*domain.Loan, error) {
	loan, ok := m.Loans[id]
	if !ok || loan.TenantID != tenantID || loan.DeletedAt != nil {
		return nil, domain.ErrLoanNotFound
	}
	return loan, nil
}

// GetAllByTenant retrieves all loans for a tenant
func (m *MockLoanRepository) GetAllByTenant(tenantID int32) ([]*domain.Loan, error) {
	loans := make([]*domain.Loan, 0)
	for _, loan := range m.Loans {
		if loan.TenantID == tenantID && loan.DeletedAt == nil {
			loans = append(loans, loan)
		}
	}
	sort.Slice(loans, func(i, j int) bool {
		return loans[i].CreatedAt.After(loans[j].CreatedAt)
	})
	return loans, nil
}

// ListDisbursed retrieves disbursed loans across all tenants
func (m *MockLoanRepository) ListDisbursed() ([]*domain.Loan, error) {
	loans := make([]*domain.Loan, 0)
	for _, loan := range m.Loans {
		if loan.Status == domain.LoanStatusDisbursed && loan.DeletedAt == nil {
			loans = append(loans, loan)
		}
	}
	return loans, nil
}

// Update updates a loan
func (m *MockLoanRepository) Update(loan *domain.Loan) (*domain.Loan, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(loan)
	}
	if _, ok := m.Loans[loan.ID]; !ok {
		return nil, domain.ErrLoanNotFound
	}
	loan.UpdatedAt = time.Now()
	m.Loans[loan.ID] = loan
	return loan, nil
}

// UpdateTx updates a loan, ignoring the transaction handle
func (m *MockLoanRepository) UpdateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	return m.Update(loan)
}

// SoftDelete marks a loan as deleted
func (m *MockLoanRepository) SoftDelete(tenantID int32, id uuid.UUID) error {
	loan, ok := m.Loans[id]
	if !ok || loan.TenantID != tenantID || loan.DeletedAt != nil {
		return domain.ErrLoanNotFound
	}
	now := time.Now()
	loan.DeletedAt = &now
	return nil
}

// MockPaymentRepository is a mock implementation of domain.PaymentRepository
type MockPaymentRepository struct {
	Payments []domain.Payment
	CreateFn func(payment *domain.Payment) (*domain.Payment, error)
}

// NewMockPaymentRepository creates a new MockPaymentRepository
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		Payments: make([]domain.Payment, 0),
	}
}

// AddPayment seeds a payment into the mock ledger
func (m *MockPaymentRepository) AddPayment(payment domain.Payment) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	m.Payments = append(m.Payments, payment)
}

// Create appends a payment to the ledger
func (m *MockPaymentRepository) Create(payment *domain.Payment) (*domain.Payment, error) {
	if m.CreateFn != nil {
		return m.CreateFn(payment)
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = time.Now()
	m.Payments = append(m.Payments, *payment)
	return payment, nil
}

// CreateTx appends a payment to the ledger, ignoring the transaction handle
func (m *MockPaymentRepository) CreateTx(tx interface{}, payment *domain.Payment) (*domain.Payment, error) {
	return m.Create(payment)
}

// GetByLoanID returns the ledger for a loan ordered by payment date ascending
func (m *MockPaymentRepository) GetByLoanID(loanID uuid.UUID) ([]domain.Payment, error) {
	payments := make([]domain.Payment, 0)
	for _, p := range m.Payments {
		if p.LoanID == loanID {
			payments = append(payments, p)
		}
	}
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].PaymentDate.Before(payments[j].PaymentDate)
	})
	return payments, nil
}

// MockEventPublisher records published events for assertions
type MockEventPublisher struct {
	Events []PublishedEvent
}

// PublishedEvent pairs a tenant with the event sent to it
type PublishedEvent struct {
	TenantID int32
	Type     string
	Entity   websocket.EntityType
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event
func (m *MockEventPublisher) Publish(tenantID int32, event websocket.Event) {
	m.Events = append(m.Events, PublishedEvent{TenantID: tenantID, Type: event.Type, Entity: event.Entity})
}
