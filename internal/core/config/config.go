package config

import (
	"errors"
	"fmt"
	"log" // Usado para logs iniciais antes que o logger da aplicação esteja configurado
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config armazena todas as configurações da aplicação.
type Config struct {
	AppName    string
	AppVersion string
	AppDebug   bool

	// HTTP (API de wizards)
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	AllowedOrigins  []string
	WizardIdleLimit time.Duration

	// Backend externo (sistema de registro)
	BackendBaseURL         string
	BackendTimeout         time.Duration
	UserRegisterPath       string
	EnterpriseRegisterPath string
	ImportsPath            string

	// Comportamento do wizard
	PasswordMinLength  int
	CNPJStrictChecksum bool // Decisão de produto em aberto: desligado por padrão
	IdempotencyKeys    bool // Desligado preserva o comportamento atual
	ImportPollInterval time.Duration
	ImportPollEnabled  bool

	// Database (log de submissões)
	DBEngine   string
	DBName     string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string

	// Logging
	LogDir         string
	LogLevel       string
	LogMaxBytes    int
	LogBackupCount int
	LogToConsole   bool

	// Export
	ExportDir string
}

// LoadConfig carrega as configurações do arquivo .env especificado ou encontrado na árvore de diretórios.
func LoadConfig(envPath string) (*Config, error) {
	foundEnvPath, err := findEnvFile(envPath)
	if err != nil {
		log.Printf("Aviso: arquivo .env em '%s' não encontrado: %v. Usando variáveis de ambiente e defaults.", envPath, err)
	} else {
		log.Printf("Carregando configurações de: %s", foundEnvPath)
		if err := godotenv.Load(foundEnvPath); err != nil {
			log.Printf("Aviso: erro ao carregar '%s': %v. Usando variáveis de ambiente e defaults.", foundEnvPath, err)
		}
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ensureDir(cfg.LogDir, true); err != nil {
		return nil, fmt.Errorf("falha ao criar diretório de log essencial '%s': %w", cfg.LogDir, err)
	}
	if cfg.DBEngine == "sqlite" {
		sqliteDir := filepath.Dir(cfg.DBName)
		if sqliteDir != "." && sqliteDir != string(filepath.Separator) {
			if err := ensureDir(sqliteDir, true); err != nil {
				return nil, fmt.Errorf("falha ao criar diretório para banco SQLite '%s': %w", sqliteDir, err)
			}
		}
	}
	_ = ensureDir(cfg.ExportDir, false)

	log.Println("Configurações carregadas e validadas.")
	return cfg, nil
}

// FromEnv monta a Config apenas a partir do ambiente do processo, sem tocar no disco.
func FromEnv() *Config {
	cfg := &Config{}

	cfg.AppName = getEnv("APP_NAME", "Importal App GO")
	cfg.AppVersion = getEnv("APP_VERSION", "1.0.0-go")
	cfg.AppDebug = getEnvAsBool("APP_DEBUG", false)

	cfg.ListenAddr = getEnv("APP_LISTEN_ADDR", ":8080")
	cfg.ReadTimeout = getEnvAsDuration("APP_HTTP_READ_TIMEOUT", 15)
	cfg.WriteTimeout = getEnvAsDuration("APP_HTTP_WRITE_TIMEOUT", 30)
	cfg.AllowedOrigins = getEnvAsList("APP_ALLOWED_ORIGINS", nil)
	cfg.WizardIdleLimit = getEnvAsDuration("APP_WIZARD_IDLE_LIMIT", 3600) // 1 hora

	cfg.BackendBaseURL = strings.TrimRight(getEnv("APP_BACKEND_URL", "http://localhost:3001/api"), "/")
	cfg.BackendTimeout = getEnvAsDuration("APP_BACKEND_TIMEOUT", 20)
	cfg.UserRegisterPath = getEnv("APP_BACKEND_USER_REGISTER_PATH", "/users/register")
	cfg.EnterpriseRegisterPath = getEnv("APP_BACKEND_ENTERPRISE_REGISTER_PATH", "/companies/register")
	cfg.ImportsPath = getEnv("APP_BACKEND_IMPORTS_PATH", "/imports")

	cfg.PasswordMinLength = getEnvAsInt("APP_PASSWORD_MIN_LENGTH", 8)
	cfg.CNPJStrictChecksum = getEnvAsBool("APP_CNPJ_STRICT_CHECKSUM", false)
	cfg.IdempotencyKeys = getEnvAsBool("APP_IDEMPOTENCY_KEYS", false)
	cfg.ImportPollInterval = getEnvAsDuration("APP_IMPORT_POLL_INTERVAL", 30)
	cfg.ImportPollEnabled = getEnvAsBool("APP_IMPORT_POLL_ENABLED", true)

	cfg.DBEngine = getEnv("APP_DB_ENGINE", "sqlite")
	cfg.DBName = getEnv("APP_DB_NAME", "importal_go.db")
	cfg.DBHost = getEnv("APP_DB_HOST", "localhost")
	cfg.DBPort = getEnvAsInt("APP_DB_PORT", 5432)
	cfg.DBUser = getEnv("APP_DB_USER", "user")
	cfg.DBPassword = getEnv("APP_DB_PASSWORD", "password")

	cfg.LogDir = getEnv("APP_LOG_DIR", "./app_logs")
	cfg.LogLevel = strings.ToUpper(getEnv("APP_LOG_LEVEL", "INFO"))
	cfg.LogMaxBytes = getEnvAsInt("APP_LOG_MAX_BYTES", 5*1024*1024) // 5MB
	cfg.LogBackupCount = getEnvAsInt("APP_LOG_BACKUP_COUNT", 7)
	cfg.LogToConsole = getEnvAsBool("APP_LOG_TO_CONSOLE", true)

	cfg.ExportDir = getEnv("APP_EXPORT_DIR", "./app_exports")
	return cfg
}

// Validate verifica as configurações críticas.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("APP_BACKEND_URL inválida: '%s'", c.BackendBaseURL)
	}
	if c.PasswordMinLength < 1 {
		return errors.New("APP_PASSWORD_MIN_LENGTH deve ser positivo")
	}
	if c.ImportPollInterval <= 0 {
		return errors.New("APP_IMPORT_POLL_INTERVAL deve ser positivo")
	}
	switch c.DBEngine {
	case "sqlite", "postgresql":
	default:
		return fmt.Errorf("motor de banco de dados não suportado: %s", c.DBEngine)
	}
	return nil
}

// findEnvFile tenta localizar o arquivo .env.
// Primeiro no path fornecido, depois subindo na árvore de diretórios a partir do CWD.
func findEnvFile(envPath string) (string, error) {
	if _, err := os.Stat(envPath); err == nil {
		absPath, _ := filepath.Abs(envPath)
		return absPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("não foi possível obter o diretório de trabalho atual: %w", err)
	}

	for i := 0; i < 5; i++ {
		tryPath := filepath.Join(cwd, ".env")
		if _, err := os.Stat(tryPath); err == nil {
			return tryPath, nil
		}
		parent := filepath.Dir(cwd)
		if parent == cwd { // Chegou à raiz
			break
		}
		cwd = parent
	}
	return "", fmt.Errorf("arquivo .env não encontrado no caminho '%s' ou nos diretórios pais", envPath)
}

// ensureDir garante que um diretório exista, criando-o se necessário.
// Se 'critical' for true, retorna erro em caso de falha. Caso contrário, apenas loga um aviso.
func ensureDir(dirPath string, critical bool) error {
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		msg := fmt.Sprintf("Não foi possível resolver o caminho absoluto para '%s': %v", dirPath, err)
		if critical {
			return errors.New(msg)
		}
		log.Println("AVISO:", msg)
		return nil
	}

	if err := os.MkdirAll(absPath, os.ModePerm); err != nil {
		msg := fmt.Sprintf("Não foi possível criar o diretório '%s': %v", absPath, err)
		if critical {
			return errors.New(msg)
		}
		log.Println("AVISO:", msg)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration lê uma duração em segundos.
func getEnvAsDuration(key string, fallbackSeconds int) time.Duration {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return time.Duration(value) * time.Second
	}
	return time.Duration(fallbackSeconds) * time.Second
}

// getEnvAsList lê uma lista separada por vírgulas.
func getEnvAsList(key string, fallback []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
