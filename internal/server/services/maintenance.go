package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fakhri2406/creadev/internal/dbx"
	"github.com/fakhri2406/creadev/internal/logging"
	"github.com/fakhri2406/creadev/internal/server/repositories/repomanager"
)

// PurgeResult counts the records removed by one purge.
type PurgeResult struct {
	RevokedTokens int64 `json:"revokedTokens"`
	RefreshTokens int64 `json:"refreshTokens"`
}

// Maintenance deletes revocation and refresh-token records whose expiry has
// passed. Nothing depends on it for correctness: expired records are
// rejected on their own.
type Maintenance struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
	logger      logging.Logger
}

func NewMaintenance(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *Maintenance {
	return &Maintenance{
		db:          db,
		repomanager: m,
		now:         time.Now,
		logger:      logger.With("module", "maintenance"),
	}
}

func (m *Maintenance) PurgeExpired(ctx context.Context) (*PurgeResult, error) {
	now := m.now()
	res := &PurgeResult{}

	err := dbx.WithTx(ctx, m.db, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if res.RevokedTokens, err = m.repomanager.RevokedTokens(tx).DeleteExpired(ctx, now); err != nil {
			return fmt.Errorf("error purging revoked tokens: %w", err)
		}
		if res.RefreshTokens, err = m.repomanager.RefreshTokens(tx).DeleteExpired(ctx, now); err != nil {
			return fmt.Errorf("error purging refresh tokens: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info(ctx, "expired tokens purged", "revoked", res.RevokedTokens, "refresh", res.RefreshTokens)
	return res, nil
}

// RunPurgeLoop calls PurgeExpired every interval until ctx is cancelled.
// Failures are logged and retried on the next tick.
func (m *Maintenance) RunPurgeLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.PurgeExpired(ctx); err != nil {
				m.logger.Error(ctx, "purge failed", "error", err)
			}
		}
	}
}
