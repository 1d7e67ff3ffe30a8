package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/api"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/auth"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/config"
	appLogger "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/logger"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/data"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/repositories"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/services"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/submission"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/utils"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/wizard"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "importal",
		Usage: "Wizards de cadastro e de nova importação sobre o backend Importal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Value:   ".env",
				Usage:   "Caminho do arquivo .env",
				EnvVars: []string{"APP_ENV_FILE"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Sobe a API HTTP dos wizards",
				Action: serve,
			},
			{
				Name:  "export-imports",
				Usage: "Exporta as importações de um principal para XLSX ou CSV",
				Flags: append(principalFlags(),
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: string(services.ExportXLSX), Usage: "xlsx ou csv"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Arquivo de saída (relativo ao diretório de exportação)"},
				),
				Action: exportImports,
			},
			{
				Name:  "submissions",
				Usage: "Lista as últimas submissões registradas de um principal",
				Flags: append(principalFlags(),
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20},
				),
				Action: listSubmissions,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Erro: %v", err)
	}
}

func principalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "company-id", Usage: "ID da empresa (cabeçalho company-id)"},
		&cli.StringFlag{Name: "user-id", Usage: "ID do usuário (cabeçalho user-id)"},
	}
}

func principalFromFlags(c *cli.Context) (auth.Principal, error) {
	switch {
	case c.String("company-id") != "":
		return auth.Principal{ID: c.String("company-id"), Type: auth.PrincipalCompany}, nil
	case c.String("user-id") != "":
		return auth.Principal{ID: c.String("user-id"), Type: auth.PrincipalUser}, nil
	}
	return auth.Principal{}, errors.New("informe --company-id ou --user-id")
}

// setup carrega a configuração e configura o logger.
func setup(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("env"))
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar configuração: %w", err)
	}
	if err := appLogger.SetupLogger(cfg); err != nil {
		return nil, fmt.Errorf("erro ao configurar logger: %w", err)
	}
	appLogger.Info("=====================================================")
	appLogger.Infof("Iniciando %s v%s (%s)...", cfg.AppName, cfg.AppVersion, c.Command.Name)
	appLogger.Debugf("Modo Debug: %t", cfg.AppDebug)
	appLogger.Info("=====================================================")
	return cfg, nil
}

func openDB(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := data.InitializeDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("erro ao inicializar banco de dados: %w", err)
	}
	closeFn := func() {
		if err := data.CloseDB(db); err != nil {
			appLogger.Errorf("Erro ao fechar conexão com banco de dados: %v", err)
		} else {
			appLogger.Info("Conexão com banco de dados fechada.")
		}
	}
	return db, closeFn, nil
}

func newBackendClient(cfg *config.Config) services.BackendClient {
	return services.NewHTTPBackendClient(cfg, &http.Client{Timeout: cfg.BackendTimeout})
}

func serve(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}

	db, closeDB, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	logService := services.NewSubmissionLogService(repositories.NewGormSubmissionLogRepository(db))
	client := newBackendClient(cfg)
	poller := services.NewImportPoller(client, cfg.ImportPollInterval, nil)
	poller.SetIdleLimit(cfg.WizardIdleLimit)
	importService := services.NewImportService(cfg, client, poller)

	sessions := auth.NewSessionManager(cfg)
	sessions.StartCleanupGoroutine()
	defer sessions.Shutdown()

	srv, err := api.New(api.Dependencies{
		Sessions:       sessions,
		Orchestrator:   submission.NewOrchestrator(client, logService, submission.Options{IdempotencyKeys: cfg.IdempotencyKeys}),
		Flows:          wizard.Flows(wizard.FlowOptions{PasswordMinLength: cfg.PasswordMinLength}),
		Validate:       utils.NewValidator(utils.ValidatorOptions{CNPJStrictChecksum: cfg.CNPJStrictChecksum}),
		Imports:        importService,
		Submissions:    logService,
		Health:         func(ctx context.Context) error { return data.Ping(ctx, db) },
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Infof("API escutando em %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("erro no servidor HTTP: %w", err)
		}
		return nil
	})
	if cfg.ImportPollEnabled {
		g.Go(func() error { return poller.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Encerrando servidor HTTP...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	appLogger.Info("Aplicação encerrada normalmente.")
	return nil
}

func exportImports(c *cli.Context) error {
	p, err := principalFromFlags(c)
	if err != nil {
		return err
	}
	cfg, err := setup(c)
	if err != nil {
		return err
	}

	client := newBackendClient(cfg)
	importService := services.NewImportService(cfg, client, services.NewImportPoller(client, cfg.ImportPollInterval, nil))

	path, err := importService.ExportImports(c.Context, p, services.ExportFormat(c.String("format")), c.String("output"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, path)
	return nil
}

func listSubmissions(c *cli.Context) error {
	p, err := principalFromFlags(c)
	if err != nil {
		return err
	}
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	db, closeDB, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	logService := services.NewSubmissionLogService(repositories.NewGormSubmissionLogRepository(db))
	entries, total, err := logService.ListForPrincipal(p, c.Int("limit"), 0)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\t%d\t%s\n",
			e.Timestamp.Format(time.RFC3339), e.Flow, e.Outcome, e.StatusCode, e.ResourceID)
	}
	fmt.Fprintf(c.App.Writer, "%d de %d submissão(ões)\n", len(entries), total)
	return nil
}
