package logger // Nome do pacote 'logger' para evitar conflito com var 'logger'

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/config"
)

var (
	log *logrus.Logger // Logger global
)

// SetupLogger inicializa o logger global da aplicação.
// Deve ser chamado uma vez no início.
func SetupLogger(cfg *config.Config) error {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
		fmt.Fprintf(os.Stderr, "Nível de log inválido '%s', usando INFO: %v\n", cfg.LogLevel, err)
	}
	l.SetLevel(level)

	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601 com milissegundos
	})

	logFilePath := filepath.Join(cfg.LogDir, strings.ToLower(strings.ReplaceAll(cfg.AppName, " ", "_"))+".log")

	logDirAbs, _ := filepath.Abs(cfg.LogDir)
	if err := os.MkdirAll(logDirAbs, os.ModePerm); err != nil {
		return fmt.Errorf("falha ao criar diretório de log '%s': %w", logDirAbs, err)
	}

	fileLogger := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    max(cfg.LogMaxBytes/(1024*1024), 1), // Em megabytes
		MaxBackups: cfg.LogBackupCount,
		MaxAge:     28, // dias
		Compress:   true,
	}

	writers := []io.Writer{fileLogger}
	if cfg.LogToConsole {
		writers = append(writers, os.Stderr)
	}
	l.SetOutput(io.MultiWriter(writers...))

	log = l
	log.Infof("Logger configurado. Nível: %s. Arquivo: %s", level.String(), logFilePath)
	return nil
}

// SetOutputForTests direciona o logger global para w em nível debug, sem arquivo.
func SetOutputForTests(w io.Writer) {
	l := logrus.New()
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.SetOutput(w)
	log = l
}

// current devolve o logger global, ou um descartável se SetupLogger não foi chamado.
func current() *logrus.Logger {
	if log == nil {
		dummy := logrus.New()
		dummy.SetOutput(io.Discard)
		return dummy
	}
	return log
}

func Debug(args ...interface{}) {
	if log == nil {
		return
	}
	log.Debug(args...)
}

func Debugf(format string, args ...interface{}) {
	if log == nil {
		return
	}
	log.Debugf(format, args...)
}

func Info(args ...interface{}) {
	if log == nil {
		fmt.Println(args...)
		return
	}
	log.Info(args...)
}

func Infof(format string, args ...interface{}) {
	if log == nil {
		fmt.Printf(format+"\n", args...)
		return
	}
	log.Infof(format, args...)
}

func Warn(args ...interface{}) {
	if log == nil {
		fmt.Fprintln(os.Stderr, args...)
		return
	}
	log.Warn(args...)
}

func Warnf(format string, args ...interface{}) {
	if log == nil {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
		return
	}
	log.Warnf(format, args...)
}

func Error(args ...interface{}) {
	if log == nil {
		fmt.Fprintln(os.Stderr, args...)
		return
	}
	log.Error(args...)
}

func Errorf(format string, args ...interface{}) {
	if log == nil {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
		return
	}
	log.Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	if log == nil {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
		os.Exit(1)
	}
	log.Fatalf(format, args...)
}

// WithFields cria uma entry com campos estruturados.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return current().WithFields(fields)
}

// WithPrincipal cria uma entry com o campo "principal" e os campos extras informados.
// p é qualquer valor com String() (ex: auth.Principal), para não importar o pacote auth.
func WithPrincipal(p fmt.Stringer, fields logrus.Fields) *logrus.Entry {
	entry := current().WithField("principal", p.String())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	return entry
}
