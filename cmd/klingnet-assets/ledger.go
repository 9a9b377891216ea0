package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Klingon-tech/klingnet-assets/config"
	"github.com/Klingon-tech/klingnet-assets/internal/asset"
	"github.com/Klingon-tech/klingnet-assets/internal/lock"
	"github.com/Klingon-tech/klingnet-assets/internal/log"
	"github.com/Klingon-tech/klingnet-assets/internal/storage"
	"github.com/Klingon-tech/klingnet-assets/internal/vault"
	"github.com/Klingon-tech/klingnet-assets/internal/wallet"
	"github.com/Klingon-tech/klingnet-assets/pkg/tx"
	"github.com/redis/go-redis/v9"
)

// Key prefixes inside the shared database.
var (
	prefixVault    = []byte("v/")
	prefixRegistry = []byte("r/")
)

// cleanup runs before fatal exits so the database is closed cleanly.
var cleanup func()

// ledger is the local view of the asset ledger: the vault of unconsumed
// states and the product registry, sharing one database.
type ledger struct {
	db       storage.DB
	locker   lock.Locker
	vault    *vault.Vault
	registry *asset.Registry
}

func openLedger(cfg *config.Config) (*ledger, error) {
	var db storage.DB
	switch cfg.Vault.Backend {
	case config.BackendMemory:
		log.CLI.Warn().Msg("Using in-memory vault; nothing will be kept after exit")
		db = storage.NewMemory()
	default:
		bdb, err := storage.NewBadger(cfg.VaultDir())
		if err != nil {
			return nil, err
		}
		db = bdb
	}

	var locker lock.Locker
	switch cfg.Lock.Backend {
	case config.LockRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Lock.RedisAddr,
			Password: cfg.Lock.RedisPassword,
			DB:       cfg.Lock.RedisDB,
		})
		locker = lock.NewRedisLocker(client, cfg.Lock.Expiry)
	default:
		locker = lock.NewMemoryLocker()
	}

	log.CLI.Debug().
		Str("vault", cfg.Vault.Backend).
		Str("lock", cfg.Lock.Backend).
		Str("datadir", cfg.DataDir).
		Msg("Ledger opened")

	return &ledger{
		db:       db,
		locker:   locker,
		vault:    vault.New(storage.NewPrefixDB(db, prefixVault), locker, cfg.Selection),
		registry: asset.NewRegistry(storage.NewPrefixDB(db, prefixRegistry)),
	}, nil
}

func (l *ledger) close() {
	if c, ok := l.locker.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.CLI.Warn().Err(err).Msg("Close locker")
		}
	}
	if err := l.db.Close(); err != nil {
		log.CLI.Warn().Err(err).Msg("Close database")
	}
}

// withLedger opens the ledger, runs fn and closes the ledger again.
func withLedger(cfg *config.Config, fn func(*ledger)) {
	l, err := openLedger(cfg)
	if err != nil {
		fatal("open vault: %v", err)
	}
	cleanup = l.close
	fn(l)
	cleanup = nil
	l.close()
}

// finalize signs the builder's transaction with the wallet, checks it the
// way a counterparty would, and records it. The builder's soft locks are
// released whether or not it succeeds.
func (l *ledger) finalize(ctx context.Context, w *wallet.Wallet, b *tx.Builder) (*tx.LedgerTransaction, error) {
	ltx, err := l.check(w, b)
	if err != nil {
		l.release(ctx, b)
		return nil, err
	}
	if err := l.vault.Record(ctx, ltx); err != nil {
		l.release(ctx, b)
		return nil, fmt.Errorf("record: %w", err)
	}
	// Pool states reserved but not spent are handed back.
	l.release(ctx, b)
	if err := l.registry.RecordIssuance(ltx); err != nil {
		return nil, fmt.Errorf("record issuance: %w", err)
	}
	log.CLI.Info().
		Str("tx", ltx.ID.String()).
		Int("inputs", len(ltx.Inputs)).
		Int("outputs", len(ltx.Outputs)).
		Msg("Transaction recorded")
	return ltx, nil
}

func (l *ledger) check(w *wallet.Wallet, b *tx.Builder) (*tx.LedgerTransaction, error) {
	signers, err := w.Signers()
	if err != nil {
		return nil, fmt.Errorf("wallet signers: %w", err)
	}
	if err := b.Sign(signers...); err != nil {
		return nil, err
	}
	t := b.Build()
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if err := t.VerifySignatures(); err != nil {
		return nil, fmt.Errorf("signatures: %w", err)
	}
	ltx, err := t.Resolve(l.vault)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	if err := asset.Verify(ltx); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	return ltx, nil
}

func (l *ledger) release(ctx context.Context, b *tx.Builder) {
	if err := l.vault.Release(ctx, b.LockID()); err != nil {
		log.CLI.Warn().Err(err).Str("lock", b.LockID().String()).Msg("Release soft locks")
	}
}
