// Package backup writes the persisted collections to a JSON document and reads
// them back. Wallet secrets stay encrypted in the document, the cipher salt
// travels along in the settings collection.
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/go-co-op/gocron/v2"

	"github.com/AvaProtocol/ap-airdrop/model"
	applog "github.com/AvaProtocol/ap-airdrop/pkg/logger"
	"github.com/AvaProtocol/ap-airdrop/version"
)

const backupFileName = "full-backup.json"

// Collections is implemented by the wallet store
type Collections interface {
	DumpCollections() (map[string][]json.RawMessage, error)
	RestoreCollections(passphrase string, data map[string][]json.RawMessage) error
}

// Document is the bulk backup format
type Document struct {
	Version   string                       `json:"version"`
	Timestamp time.Time                    `json:"timestamp"`
	Data      map[string][]json.RawMessage `json:"data"`
}

type Service struct {
	logger     logging.Logger
	store      Collections
	passphrase string
	backupDir  string

	mu        sync.Mutex
	scheduler gocron.Scheduler
	now       func() time.Time
}

func NewService(logger logging.Logger, store Collections, passphrase, backupDir string) *Service {
	return &Service{
		logger:     applog.Ensure(logger),
		store:      store,
		passphrase: passphrase,
		backupDir:  backupDir,
		now:        time.Now,
	}
}

func (s *Service) StartPeriodicBackup(interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler != nil {
		return fmt.Errorf("backup service already running")
	}
	if interval <= 0 {
		return fmt.Errorf("backup interval must be positive, got %v", interval)
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if backupFile, err := s.PerformBackup(); err != nil {
				s.logger.Error("periodic backup failed", "error", err)
			} else {
				s.logger.Info("periodic backup completed", "file", backupFile)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("failed to schedule backup: %w", err)
	}

	scheduler.Start()
	s.scheduler = scheduler

	s.logger.Info("started periodic backup", "interval", interval, "dir", s.backupDir)
	return nil
}

func (s *Service) StopPeriodicBackup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return
	}

	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Warn("backup scheduler did not shut down cleanly", "error", err)
	}
	s.scheduler = nil
	s.logger.Info("stopped periodic backup")
}

func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scheduler != nil
}

// PerformBackup writes a full backup to <backupDir>/<timestamp>/full-backup.json
func (s *Service) PerformBackup() (string, error) {
	timestamp := s.now().UTC().Format("06-01-02-15-04-05")
	backupPath := filepath.Join(s.backupDir, timestamp)

	if err := os.MkdirAll(backupPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup timestamp directory: %w", err)
	}

	backupFile := filepath.Join(backupPath, backupFileName)
	f, err := os.OpenFile(backupFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	s.logger.Info("running backup", "file", backupFile)
	if err := s.Write(f); err != nil {
		return "", err
	}

	return backupFile, nil
}

// Write dumps every collection as a backup document into w
func (s *Service) Write(w io.Writer) error {
	data, err := s.store.DumpCollections()
	if err != nil {
		return fmt.Errorf("backup operation failed: %w", err)
	}

	doc := &Document{
		Version:   version.Get(),
		Timestamp: s.now().UTC(),
		Data:      data,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("cannot write backup: %w", err)
	}

	return nil
}

// Restore reads a backup document from r and replaces every collection it names.
// Collections absent from the document are left alone.
func (s *Service) Restore(r io.Reader) (*Document, error) {
	doc := &Document{}
	if err := json.NewDecoder(r).Decode(doc); err != nil {
		return nil, model.WrapError(model.ValidationError, "backup document is not valid JSON", err)
	}

	if doc.Data == nil {
		return nil, model.NewValidationError("backup document has no data")
	}

	if err := s.store.RestoreCollections(s.passphrase, doc.Data); err != nil {
		return nil, err
	}

	s.logger.Info("restored backup",
		"version", doc.Version,
		"taken_at", doc.Timestamp,
		"collections", len(doc.Data),
	)
	return doc, nil
}

func (s *Service) RestoreFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open backup %s: %w", path, err)
	}
	defer f.Close()

	return s.Restore(f)
}
