package storage

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"tollbooth/internal/config"
	logger2 "tollbooth/internal/logger"
)

// Open 按配置打开 sqlite 数据库并完成迁移
func Open(cfg config.SqliteConfig, l logger2.Logger) (*gorm.DB, error) {
	if l == nil {
		l = logger2.NewNop()
	}
	dsn := cfg.Dsn
	if dsn == "" {
		dsn = "db.sqlite3"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: NewGormLogger(l),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: cfg.Prefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&FlowRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close 关闭底层连接
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
