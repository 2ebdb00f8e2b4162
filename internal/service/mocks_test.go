package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"aroundu-backend/internal/domain"
)

// MockTransactionRepo
type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
func (m *MockTransactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) UpdateStatus(ctx context.Context, id string, from, to domain.TransactionStatus, version int64) error {
	args := m.Called(ctx, id, from, to, version)
	return args.Error(0)
}
func (m *MockTransactionRepo) HoldEscrow(ctx context.Context, id, holdRef string, version int64) error {
	args := m.Called(ctx, id, holdRef, version)
	return args.Error(0)
}
func (m *MockTransactionRepo) SetEscrowState(ctx context.Context, id string, from, to domain.EscrowState) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}
func (m *MockTransactionRepo) SetDisputeReason(ctx context.Context, id, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}
func (m *MockTransactionRepo) HasOverlapping(ctx context.Context, itemID, startDate, endDate string) (bool, error) {
	args := m.Called(ctx, itemID, startDate, endDate)
	return args.Bool(0), args.Error(1)
}
func (m *MockTransactionRepo) ListByRenter(ctx context.Context, renterID string, status string, page, pageSize int64) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, renterID, status, page, pageSize)
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}
func (m *MockTransactionRepo) ListByOwner(ctx context.Context, ownerID string, status string, page, pageSize int64) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, ownerID, status, page, pageSize)
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}
func (m *MockTransactionRepo) ListOverdueActive(ctx context.Context, today string) ([]domain.Transaction, error) {
	args := m.Called(ctx, today)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

// MockItemRepo
type MockItemRepo struct {
	mock.Mock
}

func (m *MockItemRepo) Create(ctx context.Context, item *domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
func (m *MockItemRepo) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}
func (m *MockItemRepo) Update(ctx context.Context, item *domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
func (m *MockItemRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockItemRepo) Search(ctx context.Context, query, category string, maxPriceCents, page, pageSize int64) ([]domain.Item, int64, error) {
	args := m.Called(ctx, query, category, maxPriceCents, page, pageSize)
	return args.Get(0).([]domain.Item), args.Get(1).(int64), args.Error(2)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) UpdateTrustScore(ctx context.Context, id string, score, version int64) error {
	args := m.Called(ctx, id, score, version)
	return args.Error(0)
}

// MockProofRepo
type MockProofRepo struct {
	mock.Mock
}

func (m *MockProofRepo) Create(ctx context.Context, proof *domain.Proof) error {
	args := m.Called(ctx, proof)
	return args.Error(0)
}
func (m *MockProofRepo) ListByTx(ctx context.Context, txID string) ([]domain.Proof, error) {
	args := m.Called(ctx, txID)
	return args.Get(0).([]domain.Proof), args.Error(1)
}
func (m *MockProofRepo) Exists(ctx context.Context, txID string, phase domain.HandoverPhase, party domain.ProofParty) (bool, error) {
	args := m.Called(ctx, txID, phase, party)
	return args.Bool(0), args.Error(1)
}
func (m *MockProofRepo) ListOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Proof, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]domain.Proof), args.Error(1)
}
func (m *MockProofRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProximityCodeRepo
type MockProximityCodeRepo struct {
	mock.Mock
}

func (m *MockProximityCodeRepo) Create(ctx context.Context, code *domain.ProximityCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}
func (m *MockProximityCodeRepo) GetActive(ctx context.Context, txID string, phase domain.HandoverPhase) (*domain.ProximityCode, error) {
	args := m.Called(ctx, txID, phase)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProximityCode), args.Error(1)
}
func (m *MockProximityCodeRepo) Consume(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockProximityCodeRepo) IncrementAttempts(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockProximityCodeRepo) HasConsumed(ctx context.Context, txID string, phase domain.HandoverPhase) (bool, error) {
	args := m.Called(ctx, txID, phase)
	return args.Bool(0), args.Error(1)
}
func (m *MockProximityCodeRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockChecklistRepo
type MockChecklistRepo struct {
	mock.Mock
}

func (m *MockChecklistRepo) Upsert(ctx context.Context, txID string, phase domain.HandoverPhase, answers domain.Checklist) error {
	args := m.Called(ctx, txID, phase, answers)
	return args.Error(0)
}
func (m *MockChecklistRepo) Get(ctx context.Context, txID string, phase domain.HandoverPhase) (domain.Checklist, error) {
	args := m.Called(ctx, txID, phase)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Checklist), args.Error(1)
}

// MockEscrowRepo
type MockEscrowRepo struct {
	mock.Mock
}

func (m *MockEscrowRepo) CreateEntry(ctx context.Context, entry *domain.EscrowEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
func (m *MockEscrowRepo) GetHold(ctx context.Context, txID string) (*domain.EscrowEntry, error) {
	args := m.Called(ctx, txID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EscrowEntry), args.Error(1)
}
func (m *MockEscrowRepo) ListByTx(ctx context.Context, txID string) ([]domain.EscrowEntry, error) {
	args := m.Called(ctx, txID)
	return args.Get(0).([]domain.EscrowEntry), args.Error(1)
}

// MockEventRepo
type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) Create(ctx context.Context, event *domain.StatusChange) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
func (m *MockEventRepo) ListUndispatched(ctx context.Context, limit int64) ([]domain.StatusChange, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.StatusChange), args.Error(1)
}
func (m *MockEventRepo) MarkDispatched(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTrustRepo
type MockTrustRepo struct {
	mock.Mock
}

func (m *MockTrustRepo) CreateEntry(ctx context.Context, entry *domain.TrustScoreEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
func (m *MockTrustRepo) CountOutcomes(ctx context.Context, userID string) (int64, int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}
func (m *MockTrustRepo) ListByUser(ctx context.Context, userID string, page, pageSize int64) ([]domain.TrustScoreEntry, int64, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.TrustScoreEntry), args.Get(1).(int64), args.Error(2)
}

// MockPaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Hold(ctx context.Context, amountCents int64, payerID string) (string, error) {
	args := m.Called(ctx, amountCents, payerID)
	return args.String(0), args.Error(1)
}
func (m *MockPaymentGateway) Capture(ctx context.Context, holdRef string) error {
	args := m.Called(ctx, holdRef)
	return args.Error(0)
}
func (m *MockPaymentGateway) Refund(ctx context.Context, holdRef string) error {
	args := m.Called(ctx, holdRef)
	return args.Error(0)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendStatusNotification(ctx context.Context, email, name, itemTitle string, status domain.TransactionStatus) error {
	args := m.Called(ctx, email, name, itemTitle, status)
	return args.Error(0)
}
func (m *MockEmailService) SendProximityCode(ctx context.Context, email, name, code string, phase domain.HandoverPhase) error {
	args := m.Called(ctx, email, name, code, phase)
	return args.Error(0)
}
func (m *MockEmailService) SendDisputeNotification(ctx context.Context, email, name, itemTitle, reason string) error {
	args := m.Called(ctx, email, name, itemTitle, reason)
	return args.Error(0)
}
func (m *MockEmailService) SendReturnReminder(ctx context.Context, email, name, itemTitle, endDate string) error {
	args := m.Called(ctx, email, name, itemTitle, endDate)
	return args.Error(0)
}

// MockVerificationService
type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) IssueCode(ctx context.Context, txID string, phase domain.HandoverPhase) (string, error) {
	args := m.Called(ctx, txID, phase)
	return args.String(0), args.Error(1)
}
func (m *MockVerificationService) VerifyCode(ctx context.Context, txID string, phase domain.HandoverPhase, submitted string) (int64, error) {
	args := m.Called(ctx, txID, phase, submitted)
	return args.Get(0).(int64), args.Error(1)
}
