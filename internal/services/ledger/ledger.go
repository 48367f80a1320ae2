package ledger

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/MyelinBots/resellboost-go/internal/metrics"
	"github.com/MyelinBots/resellboost-go/internal/models"
	"github.com/MyelinBots/resellboost-go/internal/store"
)

var (
	ErrUnknownKind      = errors.New("unknown transaction kind")
	ErrFractionalAmount = errors.New("fractional amount for an integer balance")
	ErrNonFiniteAmount  = errors.New("amount is not a finite number")
)

// Finite reports whether v is neither NaN nor an infinity.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Ledger is the only mutation path for numeric UserRecord balances. It never flushes;
// callers save the users document once their handler is done.
type Ledger struct {
	repo   store.Repository
	maxLog int
	now    func() time.Time
}

func New(repo store.Repository, maxLog int) *Ledger {
	return &Ledger{repo: repo, maxLog: maxLog, now: time.Now}
}

func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Apply books amount on the user's kind balance, creating the user on first sight.
func (l *Ledger) Apply(userID string, kind models.Kind, amount float64, description string) (*models.UserRecord, error) {
	u := l.repo.GetOrCreateUser(userID)
	if err := l.ApplyTo(u, kind, amount, description); err != nil {
		return u, err
	}
	return u, nil
}

// ApplyTo is Apply for a record the caller already holds.
func (l *Ledger) ApplyTo(u *models.UserRecord, kind models.Kind, amount float64, description string) error {
	if err := addToBalance(u, kind, amount); err != nil {
		return fmt.Errorf("apply %s %v to %s: %w", kind, amount, u.ID, err)
	}

	u.TransactionLog = append(u.TransactionLog, models.Transaction{
		Timestamp:   l.now().Unix(),
		Kind:        kind,
		Amount:      amount,
		Description: description,
	})
	if l.maxLog > 0 && len(u.TransactionLog) > l.maxLog {
		drop := len(u.TransactionLog) - l.maxLog
		u.TransactionLog = append([]models.Transaction(nil), u.TransactionLog[drop:]...)
	}

	metrics.Transactions.WithLabelValues(string(kind)).Inc()
	return nil
}

// addToBalance validates before touching anything so a rejected call leaves u unchanged.
func addToBalance(u *models.UserRecord, kind models.Kind, amount float64) error {
	if !Finite(amount) {
		return ErrNonFiniteAmount
	}
	if f := floatField(u, kind); f != nil {
		*f += amount
		return nil
	}
	i := intField(u, kind)
	if i == nil {
		return ErrUnknownKind
	}
	if amount != math.Trunc(amount) {
		return ErrFractionalAmount
	}
	*i += int64(amount)
	return nil
}

func floatField(u *models.UserRecord, kind models.Kind) *float64 {
	switch kind {
	case models.KindStoreCredit:
		return &u.StoreCredit
	case models.KindPurchaseTotalValue:
		return &u.PurchaseTotalValue
	case models.KindAffiliateEarnings:
		return &u.AffiliateEarnings
	case models.KindWeeklyAffiliateEarnings:
		return &u.WeeklyAffiliateEarnings
	}
	return nil
}

func intField(u *models.UserRecord, kind models.Kind) *int64 {
	switch kind {
	case models.KindXP:
		return &u.XP
	case models.KindWeeklyXP:
		return &u.WeeklyXP
	case models.KindMessageCount:
		return &u.MessageCount
	case models.KindPurchaseCount:
		return &u.PurchaseCount
	case models.KindWarnings:
		return &u.Warnings
	case models.KindReferralCount:
		return &u.ReferralCount
	case models.KindAffiliateSaleCount:
		return &u.AffiliateSaleCount
	case models.KindCashoutCount:
		return &u.CashoutCount
	}
	return nil
}

// Balance reads the current value of kind, for reporting.
func Balance(u *models.UserRecord, kind models.Kind) (float64, bool) {
	if f := floatField(u, kind); f != nil {
		return *f, true
	}
	if i := intField(u, kind); i != nil {
		return float64(*i), true
	}
	return 0, false
}
