package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	applog "bilancio/internal/log"
)

// EventPublisher receives ledger events after each successful mutation.
type EventPublisher interface {
	PublishEvent(ctx context.Context, msg *amqp.EventMessage) error
}

// NewTransaction is raw user input for LedgerService.AddTransaction.
type NewTransaction struct {
	Date     string
	Category string
	Amount   string
	Kind     core.Kind
}

// RemoveResult reports a deletion. IncomeRequired is set when the removed
// entry was the last income, so the caller must switch its kind selector
// back to Income and disable expense entry.
type RemoveResult struct {
	Removed        core.Transaction
	Index          int
	IncomeRequired bool
}

// Snapshot is an immutable copy of the ledger state for rendering.
type Snapshot struct {
	Transactions []core.Transaction
	Balance      decimal.Decimal
	HasIncome    bool
	Version      uint64
}

func (s Snapshot) Len() int {
	return len(s.Transactions)
}

// AllowedKinds lists the kinds the form may offer right now.
func (s Snapshot) AllowedKinds() []core.Kind {
	if s.HasIncome {
		return []core.Kind{core.Income, core.Expense}
	}
	return []core.Kind{core.Income}
}

// LedgerService owns the ledger on behalf of concurrent HTTP handlers:
// every call takes the lock, and reads hand out copies only.
type LedgerService struct {
	mu        sync.Mutex
	ledger    *ledger.Ledger
	version   uint64
	publisher EventPublisher
	logger    *applog.StructuredLogger

	// set by the gate listener while RemoveAt runs under mu
	gateClosed bool
}

// NewLedgerService creates an empty ledger. A nil publisher disables events.
func NewLedgerService(publisher EventPublisher, logger *applog.Logger, strictCategories bool) *LedgerService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	s := &LedgerService{
		publisher: publisher,
		logger:    applog.NewStructuredLogger(logger.WithComponent(applog.ComponentLedger)),
	}

	opts := []ledger.Option{
		ledger.WithGateListener(ledger.GateListenerFunc(func(core.Transaction) {
			s.gateClosed = true
		})),
	}
	if strictCategories {
		opts = append(opts, ledger.WithStrictCategories())
	}
	s.ledger = ledger.New(opts...)
	return s
}

// AddTransaction validates and records a transaction.
func (s *LedgerService) AddTransaction(ctx context.Context, in NewTransaction) (core.Transaction, error) {
	s.mu.Lock()
	t, err := s.ledger.Add(in.Date, in.Category, in.Amount, in.Kind)
	if err != nil {
		s.mu.Unlock()
		return core.Transaction{}, fmt.Errorf("add %s: %w", in.Kind, err)
	}
	s.version++
	version := s.version
	index := s.ledger.Len() - 1
	balance := s.ledger.Balance()
	s.mu.Unlock()

	s.logger.LogTransactionAdded(ctx, t.Date.String(), t.Kind.String(), t.Category, t.Amount.String(), version)

	msg := eventFor(amqp.EventTransactionAdded, index, t, balance, version)
	s.publish(ctx, msg)

	return t, nil
}

// RemoveTransaction deletes the transaction at index.
func (s *LedgerService) RemoveTransaction(ctx context.Context, index int) (RemoveResult, error) {
	s.mu.Lock()
	s.gateClosed = false
	removed, err := s.ledger.RemoveAt(index)
	if err != nil {
		s.mu.Unlock()
		return RemoveResult{}, fmt.Errorf("remove index %d: %w", index, err)
	}
	s.version++
	version := s.version
	balance := s.ledger.Balance()
	res := RemoveResult{Removed: removed, Index: index, IncomeRequired: s.gateClosed}
	s.mu.Unlock()

	s.logger.LogTransactionRemoved(ctx, index, removed.Kind.String(), removed.Category, removed.Amount.String(), res.IncomeRequired)

	s.publish(ctx, eventFor(amqp.EventTransactionRemoved, index, removed, balance, version))
	if res.IncomeRequired {
		s.publish(ctx, eventFor(amqp.EventIncomeRequired, index, removed, balance, version))
	}

	return res, nil
}

// Snapshot returns a consistent copy of the list and its derived values.
func (s *LedgerService) Snapshot(_ context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Transactions: s.ledger.Transactions(),
		Balance:      s.ledger.Balance(),
		HasIncome:    s.ledger.HasIncome(),
		Version:      s.version,
	}
}

// Version returns the mutation counter; it changes on every add and remove.
func (s *LedgerService) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// CategorySummary returns expense totals per category with the version
// they were computed at.
func (s *LedgerService) CategorySummary(_ context.Context) (map[string]decimal.Decimal, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.CategorySummary(), s.version
}

// BalanceSeries returns the running balance with the version it was
// computed at.
func (s *LedgerService) BalanceSeries(_ context.Context) ([]ledger.SeriesPoint, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.BalanceSeries(), s.version
}

// publish never fails the user operation; the ledger has already changed.
func (s *LedgerService) publish(ctx context.Context, msg *amqp.EventMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, msg); err != nil {
		fields := applog.NewFields()
		fields[applog.FieldEventType] = msg.Type
		fields[applog.FieldEventID] = msg.ID
		s.logger.LogError(ctx, "Failed to publish ledger event", err, applog.ComponentEvents, applog.OpPublish, fields)
	}
}

func eventFor(eventType string, index int, t core.Transaction, balance decimal.Decimal, version uint64) *amqp.EventMessage {
	msg := amqp.NewEventMessage(eventType)
	msg.Index = index
	msg.Date = t.Date.String()
	msg.Kind = t.Kind.String()
	msg.Category = t.Category
	msg.Amount = t.Amount
	msg.Balance = balance
	msg.Version = version
	return msg
}
