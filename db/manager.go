package db

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"messagely/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

// Manager держит подключение ORM (мастер + реплики)
type Manager struct {
	ORM *gorm.DB
}

func dsnFromConfig(dbConf config.DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.Port, dbConf.User, dbConf.Password, dbConf.DBName,
	)
}

func dialector(conf config.DatabaseConfig) (gorm.Dialector, error) {
	switch conf.Driver {
	case "postgres":
		if conf.Master.Host == "" {
			return nil, fmt.Errorf("master database configuration is missing")
		}
		return postgres.Open(dsnFromConfig(conf.Master)), nil
	case "sqlite":
		if conf.Path == "" {
			return nil, fmt.Errorf("sqlite path is missing")
		}
		return sqlite.Open(conf.Path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", conf.Driver)
	}
}

// newGormLogger - только предупреждения и ошибки; ErrRecordNotFound штатно превращается в 404 и не логируется
func newGormLogger(out io.Writer) logger.Interface {
	return logger.New(log.New(out, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// ConnectDB открывает мастер, регистрирует реплики для чтения и применяет миграции
func ConnectDB(conf config.DatabaseConfig) (*Manager, error) {
	master, err := dialector(conf)
	if err != nil {
		return nil, err
	}

	orm, err := gorm.Open(master, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
			NoLowerCase:   false,
		},
		Logger: newGormLogger(os.Stdout),
	})
	if err != nil {
		return nil, err
	}

	// in-memory sqlite живет в рамках одного соединения
	if conf.Driver == "sqlite" && conf.Path == ":memory:" {
		sqlDB, err := orm.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if conf.Driver == "postgres" && len(conf.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(conf.Replicas))
		for _, r := range conf.Replicas {
			replicas = append(replicas, postgres.Open(dsnFromConfig(r)))
		}
		err = orm.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("failed to register replicas: %w", err)
		}
		log.Printf("Registered %d read replicas", len(replicas))
	}

	if err = Migrate(orm); err != nil {
		return nil, err
	}

	return &Manager{ORM: orm}, nil
}

// GetReadOnlyDB возвращает подключение для чтения (реплики)
func (m *Manager) GetReadOnlyDB(ctx context.Context) *gorm.DB {
	return m.ORM.WithContext(ctx).Clauses(dbresolver.Read)
}

// GetWriteDB возвращает подключение для записи (мастер)
func (m *Manager) GetWriteDB(ctx context.Context) *gorm.DB {
	return m.ORM.WithContext(ctx).Clauses(dbresolver.Write)
}

func (m *Manager) Close() error {
	sqlDB, err := m.ORM.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
