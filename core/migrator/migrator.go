package migrator

import (
	"fmt"
	"sync"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"

	applog "github.com/AvaProtocol/ap-airdrop/pkg/logger"
	"github.com/AvaProtocol/ap-airdrop/storage"
)

// MigrationFunc is a function that performs a database migration. It returns the
// number of records updated and an error if the migration fails.
type MigrationFunc func(db storage.Storage) (int, error)

// Migration represents a database migration function
type Migration struct {
	Name     string
	Function MigrationFunc
}

// Backuper takes a full backup before pending migrations run
type Backuper interface {
	PerformBackup() (string, error)
}

// Migrator handles database migrations
type Migrator struct {
	db         storage.Storage
	migrations []Migration
	backup     Backuper
	logger     sdklogging.Logger
	mu         sync.Mutex
}

func NewMigrator(db storage.Storage, backup Backuper, logger sdklogging.Logger, migrations []Migration) *Migrator {
	return &Migrator{
		db:         db,
		migrations: append([]Migration{}, migrations...),
		backup:     backup,
		logger:     applog.Ensure(logger),
	}
}

// MigrationKey is where the completion record of a migration is kept
func MigrationKey(name string) []byte {
	return []byte(fmt.Sprintf("migration:%s", name))
}

// Register adds a new migration to the list
func (m *Migrator) Register(name string, fn MigrationFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.migrations = append(m.migrations, Migration{
		Name:     name,
		Function: fn,
	})
}

func (m *Migrator) applied(name string) bool {
	exists, err := m.db.Exist(MigrationKey(name))
	return err == nil && exists
}

// Run executes every registered migration that has not been applied yet. A
// backup is taken first when at least one is pending.
func (m *Migrator) Run() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := 0
	for _, migration := range m.migrations {
		if !m.applied(migration.Name) {
			pending++
		}
	}

	if pending == 0 {
		return nil
	}

	if m.backup != nil {
		m.logger.Info("pending migrations found, creating database backup before proceeding", "pending", pending)
		backupFile, err := m.backup.PerformBackup()
		if err != nil {
			return fmt.Errorf("failed to create backup before migrations: %w", err)
		}
		m.logger.Info("database backup created", "path", backupFile)
	}

	for _, migration := range m.migrations {
		if m.applied(migration.Name) {
			m.logger.Debug("migration already applied, skipping", "migration", migration.Name)
			continue
		}

		m.logger.Info("running migration", "migration", migration.Name)
		recordsUpdated, err := migration.Function(m.db)
		if err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.Name, err)
		}
		m.logger.Info("migration completed", "migration", migration.Name, "records", recordsUpdated)

		record := fmt.Sprintf("records=%d,ts=%d", recordsUpdated, time.Now().UnixMilli())
		if err := m.db.Set(MigrationKey(migration.Name), []byte(record)); err != nil {
			return fmt.Errorf("failed to mark migration as complete in database: %w", err)
		}
	}

	return nil
}
