// Package reward grants tokens for published records. A record is first
// marked published in its RecordStore; only after that call succeeds is the
// reward minted, in one synchronous ledger operation.
package reward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/tokenledger/account"
	"github.com/xraph/tokenledger/id"
	"github.com/xraph/tokenledger/metadata"
	"github.com/xraph/tokenledger/types"
)

// DefaultPublishReward is the whole-token reward for publishing a record.
const DefaultPublishReward = 10

var (
	// ErrRecordNotFound is returned by a RecordStore for unknown records.
	ErrRecordNotFound = errors.New("reward: record not found")

	// ErrAlreadyPublished is returned by a RecordStore when the record was
	// published before. No reward is granted twice for one record.
	ErrAlreadyPublished = errors.New("reward: record already published")

	// ErrZeroReward is returned when a grant would mint nothing.
	ErrZeroReward = errors.New("reward: reward amount is zero")
)

// RecordStore flips the published flag of an owner's record.
type RecordStore interface {
	MarkPublished(ctx context.Context, owner account.Principal, recordID string) error
}

// Minter is the slice of the ledger a Rewarder needs.
type Minter interface {
	Mint(ctx context.Context, caller account.Principal, to account.Account, amount types.Amount) (uint64, error)
	TokenInfo() metadata.TokenInfo
}

// Grant describes one minted reward.
type Grant struct {
	ID        id.RewardGrantID  `json:"id"`
	Owner     account.Principal `json:"owner"`
	RecordID  string            `json:"record_id,omitempty"`
	Amount    types.Amount      `json:"amount"`
	Index     uint64            `json:"index"`
	GrantedAt time.Time         `json:"granted_at"`
}

// Option configures a Rewarder.
type Option func(*Rewarder)

// WithMinterPrincipal sets the caller recorded on reward mints.
func WithMinterPrincipal(p account.Principal) Option {
	return func(r *Rewarder) { r.minter = p }
}

// WithPublishReward sets the whole-token reward per published record.
func WithPublishReward(tokens uint64) Option {
	return func(r *Rewarder) { r.publishTokens = tokens }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Rewarder) { r.logger = l }
}

// Rewarder mints rewards on a ledger.
type Rewarder struct {
	ledger        Minter
	records       RecordStore
	minter        account.Principal
	publishTokens uint64
	logger        *slog.Logger
}

// New creates a Rewarder minting on ledger.
func New(ledger Minter, records RecordStore, opts ...Option) *Rewarder {
	r := &Rewarder{
		ledger:        ledger,
		records:       records,
		minter:        account.Anonymous,
		publishTokens: DefaultPublishReward,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PublishReward returns the reward for one published record in base units.
func (r *Rewarder) PublishReward() (types.Amount, error) {
	amount, ok := types.Tokens(r.publishTokens, r.ledger.TokenInfo().Decimals)
	if !ok {
		return types.Zero, fmt.Errorf("reward: publish reward: %w", types.ErrOverflow)
	}
	return amount, nil
}

// Publish marks recordID published for owner and mints the publish reward
// to owner's default account. When MarkPublished fails nothing is minted.
func (r *Rewarder) Publish(ctx context.Context, owner account.Principal, recordID string) (*Grant, error) {
	amount, err := r.PublishReward()
	if err != nil {
		return nil, err
	}
	if err := r.records.MarkPublished(ctx, owner, recordID); err != nil {
		return nil, fmt.Errorf("reward: publish %q: %w", recordID, err)
	}

	g, err := r.grant(ctx, owner, amount)
	if err != nil {
		// The record stays published; the mint failure is surfaced to
		// the caller, who may retry with Reward.
		r.logger.Error("reward: mint after publish failed",
			"owner", owner.String(),
			"record_id", recordID,
			"error", err,
		)
		return nil, err
	}
	g.RecordID = recordID
	return g, nil
}

// Reward mints amount base units to owner's default account.
func (r *Rewarder) Reward(ctx context.Context, owner account.Principal, amount types.Amount) (*Grant, error) {
	return r.grant(ctx, owner, amount)
}

func (r *Rewarder) grant(ctx context.Context, owner account.Principal, amount types.Amount) (*Grant, error) {
	if amount.IsZero() {
		return nil, ErrZeroReward
	}
	index, err := r.ledger.Mint(ctx, r.minter, account.New(owner), amount)
	if err != nil {
		return nil, fmt.Errorf("reward: mint: %w", err)
	}

	g := &Grant{
		ID:        id.NewRewardGrantID(),
		Owner:     owner,
		Amount:    amount,
		Index:     index,
		GrantedAt: time.Now().UTC(),
	}
	r.logger.Debug("reward granted",
		"grant_id", g.ID.String(),
		"owner", owner.String(),
		"amount", amount.String(),
		"index", index,
	)
	return g, nil
}
