package redeem

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"smmpanel/internal/repository"
)

var (
	// ErrCodeNotFound is returned for unknown codes.
	ErrCodeNotFound = errors.New("redeem code not found")
	// ErrCodeExpired is returned for codes past their expiry.
	ErrCodeExpired = errors.New("redeem code expired")
	// ErrQuotaExhausted is returned once all claims are consumed.
	ErrQuotaExhausted = errors.New("redeem code quota exhausted")
	// ErrAlreadyRedeemed is returned on a second claim by the same user.
	ErrAlreadyRedeemed = errors.New("redeem code already used by this user")
)

// Service implements redeem code claims: at most one claim per (user, code),
// total claims never exceeding the quota, balance credited in the same
// transaction as the redemption record.
type Service struct {
	db    *gorm.DB
	users *repository.UserRepository
	codes *repository.RedeemRepository
}

func NewService(db *gorm.DB, users *repository.UserRepository, codes *repository.RedeemRepository) *Service {
	return &Service{db: db, users: users, codes: codes}
}

// Claim redeems a code for the user and returns the credited amount.
func (s *Service) Claim(userID uint, code string) (decimal.Decimal, error) {
	var amount decimal.Decimal

	err := s.db.Transaction(func(tx *gorm.DB) error {
		rc, err := s.codes.LockedByCodeTx(tx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCodeNotFound
			}
			return err
		}
		if rc.Expired(time.Now()) {
			return ErrCodeExpired
		}
		if rc.Used >= rc.Quota {
			return ErrQuotaExhausted
		}

		claimed, err := s.codes.ClaimedTx(tx, rc.ID, userID)
		if err != nil {
			return err
		}
		if claimed {
			return ErrAlreadyRedeemed
		}

		// The unique (code_id, user_id) index backs this up under races.
		if err := s.codes.RecordClaimTx(tx, rc.ID, userID); err != nil {
			return err
		}
		amount = rc.Amount
		return s.users.Credit(tx, userID, rc.Amount)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}
