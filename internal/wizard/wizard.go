// Package wizard implementa a máquina de estados dos formulários multi-passo:
// passos nomeados, validação por passo, progresso e os ganchos usados pela submissão.
package wizard

import (
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/billing"
	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
)

// ErrSubmissionRequired indica que o passo atual é válido mas o avanço depende
// da submissão ao backend (a transição fica adiada até a resposta).
var ErrSubmissionRequired = errors.New("avanço depende da submissão ao servidor")

// Wizard é uma instância de fluxo com seu próprio FormState, passo e erros.
// É seguro para uso concorrente; a chamada de rede da submissão acontece fora do lock.
type Wizard struct {
	mu       sync.Mutex
	flow     Flow
	validate *validator.Validate

	step         int
	form         FormState
	errors       FieldErrorMap
	generalError string
	submitting   bool
	generation   uint64 // muda a cada Reset; descarta respostas de submissões antigas
	resourceID   string
}

// New cria um wizard no primeiro passo do fluxo.
func New(flow Flow, v *validator.Validate) *Wizard {
	return &Wizard{
		flow:     flow,
		validate: v,
		form:     NewFormState(),
		errors:   FieldErrorMap{},
	}
}

// Flow devolve a definição do fluxo.
func (w *Wizard) Flow() Flow {
	return w.flow
}

// StepName devolve o nome do passo atual.
func (w *Wizard) StepName() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flow.Steps[w.step].Name
}

// Form devolve uma cópia do FormState.
func (w *Wizard) Form() FormState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// Errors devolve uma cópia do FieldErrorMap atual.
func (w *Wizard) Errors() FieldErrorMap {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errors.Clone()
}

func (w *Wizard) terminalLocked() bool {
	return w.step == len(w.flow.Steps)-1
}

// Set grava um único campo. Equivale a SetMany com um campo só.
func (w *Wizard) Set(path string, value interface{}) (interface{}, error) {
	stored, err := w.SetMany(map[string]interface{}{path: value})
	if err != nil {
		return nil, err
	}
	return stored[path], nil
}

// SetMany grava vários campos aplicando o formatador de cada um e limpa os erros deles.
// Ou todos os campos são gravados, ou nenhum: um campo desconhecido ou de tipo errado
// devolve *RejectedFieldsError e o formulário fica intacto.
func (w *Wizard) SetMany(values map[string]interface{}) (map[string]interface{}, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.terminalLocked() {
		return nil, appErrors.ErrWizardCompleted
	}

	paths := make([]string, 0, len(values))
	for path := range values {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	staged := w.form
	stored := make(map[string]interface{}, len(paths))
	rejected := &RejectedFieldsError{Fields: FieldErrorMap{}}
	for _, path := range paths {
		v, err := staged.set(path, values[path])
		if err != nil {
			rejected.add(path, err)
			continue
		}
		stored[path] = v
	}
	if rejected.Fields.HasErrors() {
		return nil, rejected
	}

	w.form = staged
	for _, path := range paths {
		w.errors.Clear(path)
	}
	return stored, nil
}

// Advance valida o passo atual e, se tudo passar, vai para o próximo.
// Falha de validação devolve *errors.ValidationError e mantém o passo.
// No passo anterior à confirmação devolve ErrSubmissionRequired: quem avança ali é a submissão.
func (w *Wizard) Advance() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.terminalLocked() {
		return appErrors.ErrWizardCompleted
	}

	errs := w.validateStepLocked(w.step)
	w.errors = errs
	if errs.HasErrors() {
		return appErrors.NewValidationError("Corrija os campos destacados para continuar.", errs.Clone())
	}
	if w.step == w.flow.SubmitStepIndex() {
		return ErrSubmissionRequired
	}

	w.step++
	w.generalError = ""
	return nil
}

// Regress volta um passo sem validar. Devolve false no primeiro passo e na confirmação.
func (w *Wizard) Regress() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step == 0 || w.terminalLocked() {
		return false
	}
	w.step--
	return true
}

// Reset volta ao estado de montagem: primeiro passo, formulário limpo, sem erros.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.step = 0
	w.form = NewFormState()
	w.errors = FieldErrorMap{}
	w.generalError = ""
	w.submitting = false
	w.resourceID = ""
	w.generation++
}

func (w *Wizard) validateStepLocked(idx int) FieldErrorMap {
	errs := FieldErrorMap{}
	for _, rule := range w.flow.Steps[idx].Fields {
		if !rule.Active(&w.form) {
			continue
		}
		errs.Set(rule.Path, w.checkRule(rule))
	}
	return errs
}

func (w *Wizard) checkRule(rule FieldRule) string {
	if rule.Tags == "" {
		return ""
	}
	value, err := w.form.Value(rule.Path)
	if err != nil {
		return err.Error()
	}
	err = w.validate.Var(value, rule.Tags)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return messageFor(rule, verrs[0].Tag(), verrs[0].Param())
	}
	return defaultInvalidMessage
}

// Progress devolve o percentual global de preenchimento: campos obrigatórios preenchidos
// em todos os passos (não só no atual) valem 90%, e o aceite dos termos vale os 10% restantes.
func (w *Wizard) Progress() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return progressOf(w.flow, &w.form)
}

func progressOf(flow Flow, form *FormState) int {
	seen := map[string]bool{}
	total, filled := 0, 0
	for _, step := range flow.Steps {
		for _, rule := range step.Fields {
			if seen[rule.Path] || !rule.Required() || !rule.Active(form) {
				continue
			}
			seen[rule.Path] = true
			total++
			if v, err := form.Value(rule.Path); err == nil && isFilled(v) {
				filled++
			}
		}
	}

	pct := 0.0
	if total > 0 {
		pct = float64(filled) / float64(total) * 90
	}
	if form.AgreeTerms {
		pct += 10
	}
	return int(math.Round(pct))
}

// Ticket identifica uma submissão iniciada por BeginSubmit.
type Ticket struct {
	Generation uint64
	Flow       Flow
	Form       FormState
}

// BeginSubmit valida o último passo de entrada e marca o wizard como submetendo.
// Só é permitido no passo imediatamente anterior à confirmação e sem outra submissão em andamento.
func (w *Wizard) BeginSubmit() (Ticket, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.terminalLocked() {
		return Ticket{}, appErrors.ErrWizardCompleted
	}
	if w.step != w.flow.SubmitStepIndex() {
		return Ticket{}, appErrors.ErrNotSubmissionStep
	}
	if w.submitting {
		return Ticket{}, appErrors.ErrSubmissionInFlight
	}

	errs := w.validateStepLocked(w.step)
	w.errors = errs
	if errs.HasErrors() {
		return Ticket{}, appErrors.NewValidationError("Corrija os campos destacados para continuar.", errs.Clone())
	}

	w.submitting = true
	w.generalError = ""
	return Ticket{Generation: w.generation, Flow: w.flow, Form: w.form}, nil
}

// CompleteSubmit leva o wizard à confirmação. Devolve false se o ticket ficou obsoleto
// (wizard reiniciado durante a chamada), caso em que o resultado é descartado.
func (w *Wizard) CompleteSubmit(t Ticket, resourceID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t.Generation != w.generation {
		return false
	}
	w.submitting = false
	w.step = len(w.flow.Steps) - 1
	w.errors = FieldErrorMap{}
	w.generalError = ""
	w.resourceID = resourceID
	return true
}

// FailSubmit distribui os erros do servidor no FieldErrorMap e mantém o passo.
func (w *Wizard) FailSubmit(t Ticket, fieldErrs FieldErrorMap, general string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t.Generation != w.generation {
		return false
	}
	w.submitting = false
	w.errors = fieldErrs.Clone()
	w.generalError = general
	return true
}

// Snapshot é a visão serializável do wizard.
type Snapshot struct {
	Flow         FlowName         `json:"flow"`
	Steps        []string         `json:"steps"`
	Step         string           `json:"step"`
	StepIndex    int              `json:"stepIndex"`
	Completed    bool             `json:"completed"`
	Submitting   bool             `json:"submitting"`
	Progress     int              `json:"progress"`
	Form         FormState        `json:"form"`
	Errors       FieldErrorMap    `json:"errors"`
	GeneralError string           `json:"generalError,omitempty"`
	ResourceID   string           `json:"resourceId,omitempty"`
	Fee          *billing.Summary `json:"fee,omitempty"`
}

// Snapshot captura o estado atual, com senha e CVC mascarados.
func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Snapshot{
		Flow:         w.flow.Name,
		Steps:        w.flow.StepNames(),
		Step:         w.flow.Steps[w.step].Name,
		StepIndex:    w.step,
		Completed:    w.terminalLocked(),
		Submitting:   w.submitting,
		Progress:     progressOf(w.flow, &w.form),
		Form:         w.form.Redacted(),
		Errors:       w.errors.Clone(),
		GeneralError: w.generalError,
		ResourceID:   w.resourceID,
	}
	if w.flow.Kind == SubmitImportCreation {
		summary := billing.NewSummary(w.form.Product.Value,
			billing.EffectiveMethod(w.form.Payment.Method, w.form.Payment.ExternalMethod))
		s.Fee = &summary
	}
	return s
}
