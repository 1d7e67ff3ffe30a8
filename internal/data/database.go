package data

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/config"
	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/logger"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/data/models"
)

// InitializeDB abre a conexão conforme APP_DB_ENGINE e executa as migrações automáticas.
func InitializeDB(cfg *config.Config) (*gorm.DB, error) {
	appLogger.Infof("Inicializando conexão com banco de dados: %s", cfg.DBEngine)

	gormLogLevel := gormlogger.Silent
	if cfg.AppDebug {
		gormLogLevel = gormlogger.Info
	}
	gormLog := gormlogger.New(
		appLogger.WithFields(logrus.Fields{"component": "gorm"}),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gormConfig := &gorm.Config{
		Logger: gormLog,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var dialector gorm.Dialector
	maxOpen := 20
	switch cfg.DBEngine {
	case "postgresql":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
		dialector = postgres.Open(dsn)
		appLogger.Infof("Conectando ao PostgreSQL: host=%s dbname=%s user=%s port=%d", cfg.DBHost, cfg.DBName, cfg.DBUser, cfg.DBPort)
	case "sqlite":
		dialector = sqlite.Open(cfg.DBName + "?_foreign_keys=on&_busy_timeout=5000")
		// SQLite aceita um único escritor.
		maxOpen = 1
		appLogger.Infof("Usando banco de dados SQLite: %s", cfg.DBName)
	default:
		return nil, fmt.Errorf("%w: motor de banco de dados não suportado: %s", appErrors.ErrConfiguration, cfg.DBEngine)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		appLogger.Errorf("Falha ao conectar ao banco de dados %s: %v", cfg.DBEngine, err)
		return nil, appErrors.NewDatabaseErrorDetail("abertura da conexão", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, appErrors.NewDatabaseErrorDetail("configuração do pool de conexões", err)
	}
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Hour)

	appLogger.Info("Executando migrações automáticas do GORM...")
	if err := db.AutoMigrate(&models.DBSubmissionLog{}); err != nil {
		appLogger.Errorf("Falha durante AutoMigrate: %v", err)
		return nil, appErrors.NewDatabaseErrorDetail("migração do esquema", err)
	}
	appLogger.Info("Conexão com banco de dados estabelecida e migrada.")
	return db, nil
}

// Ping verifica se a conexão responde. Usado pelo /healthz.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return appErrors.NewDatabaseErrorDetail("obtenção do *sql.DB", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return appErrors.NewDatabaseErrorDetail("ping", err)
	}
	return nil
}

// CloseDB fecha a conexão com o banco de dados.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		appLogger.Warn("Tentativa de fechar conexão DB nula.")
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Errorf("Erro ao obter *sql.DB para fechar: %v", err)
		return err
	}
	appLogger.Info("Fechando conexão com o banco de dados...")
	return sqlDB.Close()
}
