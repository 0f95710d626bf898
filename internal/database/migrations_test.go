package database

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func migrationLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestNewMigratorMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")

	_, err := NewMigrator("postgres://localhost:5432/risk?sslmode=disable", dir, migrationLogger())
	assert.Error(t, err)
}

func TestNewMigratorUnknownDatabaseScheme(t *testing.T) {
	_, err := NewMigrator("bogus://localhost/risk", t.TempDir(), migrationLogger())
	assert.Error(t, err)
}
