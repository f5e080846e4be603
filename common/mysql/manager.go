package mysql

import (
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type ISQLManager interface {
	DB() *gorm.DB
	Migrate(models ...interface{}) error
	Upsert(entity interface{}) error
	First(holder interface{}) error
	DeleteAll(model interface{}) error
	Close() error
}

type SQLManager struct {
	db *gorm.DB
}

func DSN(server, username, password, database string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local", username, password, server, database)
}

func NewSQLManager(server, username, password, database string) (*SQLManager, error) {
	return NewSQLManagerWithDialector(mysql.Open(DSN(server, username, password, database)))
}

// NewSQLManagerWithDialector opens any gorm dialector; the broker only ships
// the mysql one.
func NewSQLManagerWithDialector(dialector gorm.Dialector) (*SQLManager, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to open sql connection")
	}
	return &SQLManager{db}, nil
}

func (m *SQLManager) DB() *gorm.DB {
	return m.db
}

func (m *SQLManager) Migrate(models ...interface{}) error {
	return errors.Wrap(m.db.AutoMigrate(models...), "auto migrate")
}

// Upsert inserts entity or overwrites every column of the row sharing its
// primary key.
func (m *SQLManager) Upsert(entity interface{}) error {
	return m.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(entity).Error
}

// First loads the row matching the primary key set on holder.
func (m *SQLManager) First(holder interface{}) error {
	return m.db.Where(holder).First(holder).Error
}

func (m *SQLManager) DeleteAll(model interface{}) error {
	return m.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func (m *SQLManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
