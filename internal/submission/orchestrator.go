package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/auth"
	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/logger"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/data/models"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/services"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/wizard"
)

// Backend é o subconjunto do cliente do backend usado na submissão.
type Backend interface {
	RegisterUser(ctx context.Context, payload models.UserRegistrationCreate, opts services.RequestOptions) (*models.RegistrationResult, error)
	RegisterEnterprise(ctx context.Context, payload models.EnterpriseRegistrationCreate, opts services.RequestOptions) (*models.RegistrationResult, error)
	CreateImport(ctx context.Context, p auth.Principal, payload models.ImportCreate, opts services.RequestOptions) (*models.ImportPublic, error)
}

// Options controla o comportamento opcional da submissão.
type Options struct {
	// IdempotencyKeys anexa uma chave uuid a cada submissão (cabeçalho Idempotency-Key).
	IdempotencyKeys bool
}

// Result descreve o desfecho de uma submissão.
type Result struct {
	Outcome        string               `json:"outcome"`
	ResourceID     string               `json:"resourceId,omitempty"`
	RedirectTo     string               `json:"redirectTo,omitempty"`
	FieldErrors    wizard.FieldErrorMap `json:"fieldErrors,omitempty"`
	GeneralError   string               `json:"generalError,omitempty"`
	IdempotencyKey string               `json:"idempotencyKey,omitempty"`
}

// Orchestrator executa a submissão do último passo de um wizard.
type Orchestrator struct {
	backend Backend
	log     services.SubmissionLogService
	opts    Options
}

// NewOrchestrator cria o orquestrador. log pode ser nil (nada é registrado).
func NewOrchestrator(backend Backend, log services.SubmissionLogService, opts Options) *Orchestrator {
	if backend == nil {
		appLogger.Fatalf("Backend não pode ser nil para NewOrchestrator")
	}
	return &Orchestrator{backend: backend, log: log, opts: opts}
}

// Submit valida o passo de submissão, faz exatamente um POST e aplica o resultado ao wizard.
// Sucesso leva à confirmação; falha distribui os erros no FieldErrorMap e mantém o passo.
// Não há novas tentativas. A chamada não é cancelada se ctx for cancelado no meio do caminho;
// um Reset do wizard durante a chamada faz o resultado ser descartado.
//
// Erros de pré-condição (validação, submissão em andamento, passo errado) voltam sem Result.
// Uma recusa do backend volta com Result preenchido e o erro original.
func (o *Orchestrator) Submit(ctx context.Context, w *wizard.Wizard, p auth.Principal) (*Result, error) {
	kind := w.Flow().Kind
	if kind == wizard.SubmitImportCreation && p.IsZero() {
		return nil, appErrors.ErrUnauthorized
	}

	ticket, err := w.BeginSubmit()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	if o.opts.IdempotencyKeys {
		res.IdempotencyKey = uuid.NewString()
	}
	entry := appLogger.WithPrincipal(p, logrus.Fields{"flow": ticket.Flow.Name})
	entry.Info("Submetendo wizard ao backend.")

	start := time.Now()
	callErr := o.call(context.WithoutCancel(ctx), ticket, p, res)
	elapsed := time.Since(start)

	if callErr == nil {
		res.Outcome = models.OutcomeSuccess
		if !w.CompleteSubmit(ticket, res.ResourceID) {
			res.Outcome = models.OutcomeDiscarded
		}
	} else {
		res.FieldErrors, res.GeneralError = MapError(kind, callErr)
		switch {
		case !w.FailSubmit(ticket, res.FieldErrors, res.GeneralError):
			res.Outcome = models.OutcomeDiscarded
		case res.FieldErrors.HasErrors():
			res.Outcome = models.OutcomeFieldErrors
		default:
			res.Outcome = models.OutcomeFailed
		}
	}

	entry.WithFields(logrus.Fields{"outcome": res.Outcome, "elapsed": elapsed.String()}).Info("Submissão concluída.")
	o.record(ticket, p, res, callErr, elapsed)

	if callErr != nil {
		return res, callErr
	}
	return res, nil
}

func (o *Orchestrator) call(ctx context.Context, ticket wizard.Ticket, p auth.Principal, res *Result) error {
	reqOpts := services.RequestOptions{IdempotencyKey: res.IdempotencyKey}

	switch ticket.Flow.Kind {
	case wizard.SubmitUserRegistration:
		out, err := o.backend.RegisterUser(ctx, BuildUserRegistration(ticket.Form), reqOpts)
		if err != nil {
			return err
		}
		res.RedirectTo = out.RedirectTo
	case wizard.SubmitEnterpriseRegistration:
		out, err := o.backend.RegisterEnterprise(ctx, BuildEnterpriseRegistration(ticket.Form), reqOpts)
		if err != nil {
			return err
		}
		res.RedirectTo = out.RedirectTo
	case wizard.SubmitImportCreation:
		out, err := o.backend.CreateImport(ctx, p, BuildImportCreation(ticket.Form), reqOpts)
		if err != nil {
			return err
		}
		res.ResourceID = string(out.ID)
	default:
		return fmt.Errorf("%w: tipo de submissão desconhecido '%s'", appErrors.ErrConfiguration, ticket.Flow.Kind)
	}
	return nil
}

func (o *Orchestrator) record(ticket wizard.Ticket, p auth.Principal, res *Result, callErr error, elapsed time.Duration) {
	if o.log == nil {
		return
	}
	entry := models.SubmissionLogCreate{
		Flow:            string(ticket.Flow.Name),
		Kind:            string(ticket.Flow.Kind),
		Outcome:         res.Outcome,
		ResourceID:      res.ResourceID,
		ErrorSummary:    res.GeneralError,
		FieldErrorCount: len(res.FieldErrors),
		IdempotencyKey:  res.IdempotencyKey,
		Duration:        elapsed,
	}
	if !p.IsZero() {
		entry.PrincipalType, entry.PrincipalID = string(p.Type), p.ID
	}
	var se *appErrors.SubmissionError
	if errors.As(callErr, &se) {
		entry.StatusCode = se.StatusCode
	}
	if err := o.log.Record(entry); err != nil {
		appLogger.Errorf("Falha ao registrar submissão do fluxo %s: %v", ticket.Flow.Name, err)
	}
}
