package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/cryptox"
	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/logging"
	"github.com/dmitrijs2005/bookkeeper/internal/server/backup"
	"github.com/dmitrijs2005/bookkeeper/internal/server/events"
	"github.com/dmitrijs2005/bookkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/repomanager"
)

// Archive stores serialized backups outside the database.
type Archive interface {
	Put(ctx context.Context, ownerID int64, data []byte) (string, error)
	Get(ctx context.Context, ownerID int64, key string) ([]byte, error)
	PresignGet(ctx context.Context, ownerID int64, key string) (string, error)
}

// DeletionSummary describes an erased account. Counts is the row snapshot
// taken right before the deletion.
type DeletionSummary struct {
	OwnerID   int64                       `json:"owner_id"`
	Username  string                      `json:"username"`
	Counts    map[backup.Collection]int64 `json:"counts"`
	DeletedAt time.Time                   `json:"deleted_at"`
}

// ArchiveResult points at an archived backup.
type ArchiveResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int    `json:"size"`
}

// AccountService exposes the whole-account operations: export, import,
// erasure and the object-storage archive built on top of the first two.
type AccountService struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	logger  logging.Logger
	archive Archive
	events  events.Publisher
	metrics *metrics.Recorder
	now     func() time.Time
}

type AccountOption func(*AccountService)

func WithArchive(a Archive) AccountOption {
	return func(s *AccountService) { s.archive = a }
}

func WithEvents(p events.Publisher) AccountOption {
	return func(s *AccountService) { s.events = p }
}

func WithRecorder(r *metrics.Recorder) AccountOption {
	return func(s *AccountService) { s.metrics = r }
}

func WithNow(now func() time.Time) AccountOption {
	return func(s *AccountService) { s.now = now }
}

func NewAccountService(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger, opts ...AccountOption) *AccountService {
	s := &AccountService{
		db:     db,
		repos:  repos,
		logger: logger.With("module", "account"),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.events == nil {
		s.logger.Warn(context.Background(), "audit events disabled, no publisher configured")
	}
	return s
}

func (s *AccountService) engine(db dbx.DBTX) *backup.Engine {
	return backup.NewEngine(db, s.repos, s.logger,
		backup.WithClock(s.now),
		backup.WithMetrics(s.metrics),
	)
}

// Export assembles the backup document of ownerID.
func (s *AccountService) Export(ctx context.Context, ownerID int64) (doc *backup.Document, stats *backup.ExportStats, err error) {
	defer func(start time.Time) { s.metrics.ObserveRun("export", start, err) }(time.Now())

	doc, stats, err = s.engine(s.db).Export(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.DocumentSize(stats.Size)

	s.publish(ctx, events.Event{
		Type:    events.AccountExported,
		OwnerID: ownerID,
		Counts:  toEventCounts(stats.Counts),
		Size:    stats.Size,
	})
	return doc, stats, nil
}

// Import restores doc into ownerID using mode.
func (s *AccountService) Import(ctx context.Context, ownerID int64, doc *backup.Document, mode backup.Mode) (res *backup.ImportResult, err error) {
	defer func(start time.Time) { s.metrics.ObserveRun("import", start, err) }(time.Now())

	res, err = s.engine(s.db).Import(ctx, ownerID, doc, mode)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.AccountImported,
		OwnerID: ownerID,
		Mode:    string(res.Mode),
		Counts:  toEventCounts(res.Counts),
		Errors:  len(res.Errors),
	})
	return res, nil
}

// Erase deletes ownerID and everything it owns after checking password.
// A wrong password or an unknown owner yields common.ErrorUnauthorized and
// changes nothing. The deletion runs in one transaction.
func (s *AccountService) Erase(ctx context.Context, ownerID int64, password string) (summary *DeletionSummary, err error) {
	defer func(start time.Time) { s.metrics.ObserveRun("erase", start, err) }(time.Now())

	user, err := s.repos.Users(s.db).GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("load account %d: %w", ownerID, err)
	}
	if !cryptox.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		s.logger.Warn(ctx, "erase refused, wrong password", "owner_id", ownerID)
		return nil, common.ErrorUnauthorized
	}

	counts, err := s.engine(s.db).Snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if !s.repos.CascadeDeletes() {
			if _, err := s.engine(tx).Purge(ctx, ownerID); err != nil {
				return err
			}
			if _, err := s.repos.RefreshTokens(tx).DeleteForUser(ctx, ownerID); err != nil {
				return fmt.Errorf("revoke refresh tokens: %w", err)
			}
		}
		return s.repos.Users(tx).Delete(ctx, ownerID)
	})
	if err != nil {
		s.logger.Error(ctx, "erase failed", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("erase account %d: %w", ownerID, err)
	}

	summary = &DeletionSummary{
		OwnerID:   ownerID,
		Username:  user.Username,
		Counts:    counts,
		DeletedAt: s.now().UTC(),
	}
	s.logger.Info(ctx, "account erased", "owner_id", ownerID, "username", user.Username)

	s.publish(ctx, events.Event{
		Type:    events.AccountErased,
		OwnerID: ownerID,
		Counts:  toEventCounts(counts),
	})
	return summary, nil
}

// Archive exports ownerID and stores the document in object storage.
func (s *AccountService) Archive(ctx context.Context, ownerID int64) (*ArchiveResult, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("archive: %w", common.ErrFeatureDisabled)
	}

	doc, _, err := s.Export(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	data, err := doc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	key, err := s.archive.Put(ctx, ownerID, data)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	url, err := s.archive.PresignGet(ctx, ownerID, key)
	if err != nil {
		// The object is stored; a missing link is not fatal.
		s.logger.Warn(ctx, "presign failed", "key", key, "error", err)
	}

	s.logger.Info(ctx, "account archived", "owner_id", ownerID, "key", key, "size", len(data))
	return &ArchiveResult{Key: key, URL: url, Size: len(data)}, nil
}

// RestoreArchive imports the archived document stored under key.
func (s *AccountService) RestoreArchive(ctx context.Context, ownerID int64, key string, mode backup.Mode) (*backup.ImportResult, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("restore: %w", common.ErrFeatureDisabled)
	}

	data, err := s.archive.Get(ctx, ownerID, key)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	doc, err := backup.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, ownerID, doc, mode)
}

func (s *AccountService) publish(ctx context.Context, ev events.Event) {
	if s.events == nil {
		return
	}
	ev.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Error(ctx, "publish event failed", "type", ev.Type, "owner_id", ev.OwnerID, "error", err)
	}
}

func toEventCounts[N int | int64](counts map[backup.Collection]N) map[string]int64 {
	out := make(map[string]int64, len(counts))
	for c, n := range counts {
		out[string(c)] = int64(n)
	}
	return out
}
