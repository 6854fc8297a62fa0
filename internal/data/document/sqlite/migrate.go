package sqlite

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate creates the document table named table when it does not exist yet.
func Migrate(ctx context.Context, db *gorm.DB, table string, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}
	if table == "" {
		return eris.New("table name is required")
	}

	logFields := logrus.Fields{"component": "document.migrate", "table": table}
	if logger != nil {
		logger.WithFields(logFields).Info("applying document schema")
	}

	if err := db.WithContext(ctx).Table(table).AutoMigrate(&DocumentRecord{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("document schema migration failed")
		}
		return eris.Wrapf(err, "auto migrating document table %s", table)
	}

	if logger != nil {
		logger.WithFields(logFields).Info("document schema migration complete")
	}

	return nil
}
