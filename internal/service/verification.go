package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/logger"
	"aroundu-backend/internal/repository"
)

type verificationService struct {
	codes   repository.ProximityCodeRepository
	codeLen int
	ttl     time.Duration
}

// NewVerificationService creates the proximity code issuer/checker.
func NewVerificationService(codes repository.ProximityCodeRepository, codeLen int, ttl time.Duration) VerificationService {
	return &verificationService{
		codes:   codes,
		codeLen: codeLen,
		ttl:     ttl,
	}
}

func (s *verificationService) IssueCode(ctx context.Context, txID string, phase domain.HandoverPhase) (string, error) {
	existing, err := s.codes.GetActive(ctx, txID, phase)
	if err == nil && !existing.Expired(time.Now()) {
		return "", domain.NewError(domain.ErrAlreadyIssued,
			"an active proximity code already exists for the %s handover", strings.ToLower(string(phase)))
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("checking for active proximity code: %w", err)
	}

	plaintext, err := generateNumericCode(s.codeLen)
	if err != nil {
		return "", fmt.Errorf("generating proximity code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing proximity code: %w", err)
	}

	code := &domain.ProximityCode{
		ID:        uuid.New().String(),
		TxID:      txID,
		Phase:     phase,
		CodeHash:  string(hash),
		ExpiresOn: time.Now().Add(s.ttl),
	}
	if err := s.codes.Create(ctx, code); err != nil {
		return "", fmt.Errorf("storing proximity code: %w", err)
	}

	logger.InfoContext(ctx, "proximity code issued", "tx_id", txID, "phase", phase)
	return plaintext, nil
}

func (s *verificationService) VerifyCode(ctx context.Context, txID string, phase domain.HandoverPhase, submitted string) (int64, error) {
	code, err := s.codes.GetActive(ctx, txID, phase)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, domain.NewError(domain.ErrAuthFailure, "no active proximity code for this transaction")
	}
	if err != nil {
		return 0, fmt.Errorf("fetching proximity code: %w", err)
	}
	if code.Expired(time.Now()) {
		return code.Attempts, domain.NewError(domain.ErrAuthFailure, "proximity code has expired")
	}

	if bcrypt.CompareHashAndPassword([]byte(code.CodeHash), []byte(submitted)) != nil {
		attempts, aerr := s.codes.IncrementAttempts(ctx, code.ID)
		if aerr != nil {
			logger.ErrorContext(ctx, "failed to record proximity code attempt", "tx_id", txID, "error", aerr)
			attempts = code.Attempts + 1
		}
		return attempts, domain.NewError(domain.ErrAuthFailure, "incorrect proximity code")
	}

	// Consume flips the single-use flag atomically; a concurrent correct
	// submission loses here, so the code matches at most once.
	if err := s.codes.Consume(ctx, code.ID); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return code.Attempts, domain.NewError(domain.ErrAuthFailure, "proximity code already used")
		}
		return code.Attempts, fmt.Errorf("consuming proximity code: %w", err)
	}

	logger.InfoContext(ctx, "proximity code verified", "tx_id", txID, "phase", phase)
	return code.Attempts, nil
}

// generateNumericCode draws each digit from crypto/rand.
func generateNumericCode(length int) (string, error) {
	const digits = "0123456789"
	ten := big.NewInt(int64(len(digits)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = digits[n.Int64()]
	}
	return string(buf), nil
}
