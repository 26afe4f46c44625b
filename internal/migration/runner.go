package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Runner applies GORM auto-migrations followed by plain SQL files.
type Runner struct {
	db          *gorm.DB
	autoMigrate func() error
	logger      *logrus.Logger
}

func NewRunner(db *gorm.DB, autoMigrate func() error, logger *logrus.Logger) *Runner {
	return &Runner{
		db:          db,
		autoMigrate: autoMigrate,
		logger:      logger,
	}
}

// RunMigrations executes the auto-migrations and every *.sql file in
// migrationsPath in lexical order. A missing directory is not an error.
func (r *Runner) RunMigrations(migrationsPath string) error {
	r.logger.Info("Starting database migrations...")

	if r.autoMigrate != nil {
		if err := r.autoMigrate(); err != nil {
			return fmt.Errorf("GORM auto-migration failed: %w", err)
		}
	}

	if err := r.runSQLMigrations(migrationsPath); err != nil {
		return fmt.Errorf("SQL migrations failed: %w", err)
	}

	r.logger.Info("Database migrations completed successfully")
	return nil
}

// SQLFiles lists the migration files that would run, in order.
func SQLFiles(migrationsPath string) ([]string, error) {
	entries, err := os.ReadDir(migrationsPath)
	if err != nil {
		return nil, err
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)
	return sqlFiles, nil
}

func (r *Runner) runSQLMigrations(migrationsPath string) error {
	sqlFiles, err := SQLFiles(migrationsPath)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.WithField("path", migrationsPath).Debug("No SQL migrations directory")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, fileName := range sqlFiles {
		if err := r.runSQLFile(filepath.Join(migrationsPath, fileName)); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", fileName, err)
		}
		r.logger.WithField("file", fileName).Info("Migration executed successfully")
	}

	return nil
}

func (r *Runner) runSQLFile(filePath string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	return r.db.Exec(string(content)).Error
}
