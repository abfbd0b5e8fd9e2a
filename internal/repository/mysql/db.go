package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fittrack/backend/internal/domain"
)

// ConnectDB opens a GORM connection to MySQL using the provided DSN.
func ConnectDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates every table this package owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userRow{},
		&profileRow{},
		&progressRow{},
		&planRow{},
		&planDayRow{},
		&dayItemRow{},
		&analysisRow{},
	)
}

// store carries the shared GORM handle and the transaction helper. Every
// repository operation runs inside an explicit transaction at a
// caller-chosen isolation level; on any error the transaction is rolled
// back and the error returned to the coordinator, which absorbs it.
type store struct {
	db *gorm.DB
}

func (s store) inTx(ctx context.Context, iso sql.IsolationLevel, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: iso})
}

// Isolation levels per operation kind.
const (
	isoRead   = sql.LevelRepeatableRead // PK/unique reads and correlation lookups
	isoCreate = sql.LevelSerializable   // creates racing a duplicate-name check
	isoSimple = sql.LevelReadCommitted  // status-insensitive creates/updates
	isoDelete = sql.LevelSerializable   // no half-deleted cascade observable
)

// parseNumeric converts an ID of unknown origin to a relational key. A
// non-numeric ID is a key from the other store and maps to ErrNotFound.
func parseNumeric(id string) (uint, error) {
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil || n == 0 {
		return 0, domain.ErrNotFound
	}
	return uint(n), nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrConflict
	}
	return err
}
