package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/auth"
	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/logger"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/data/models"
)

const (
	// maxConcurrentRefreshes limita as chamadas simultâneas a GET /imports num mesmo ciclo.
	maxConcurrentRefreshes = 4
	// defaultWatchIdleLimit é quanto tempo um principal sem consultas continua sendo atualizado.
	defaultWatchIdleLimit = 30 * time.Minute
)

// ImportListSnapshot é a última lista conhecida de um principal.
type ImportListSnapshot struct {
	Imports   []models.ImportPublic `json:"imports"`
	FetchedAt time.Time             `json:"fetchedAt"`
	Stale     bool                  `json:"stale"`
	LastError string                `json:"lastError,omitempty"`
}

// PollNotification é emitida quando uma atualização falha e a lista em cache continua valendo.
type PollNotification struct {
	Principal auth.Principal
	Message   string
	Err       error
}

// ImportPoller atualiza a lista de importações de cada principal observado em intervalo fixo.
// Não há backoff: uma falha mantém a lista anterior e gera uma notificação.
type ImportPoller struct {
	client    BackendClient
	interval  time.Duration
	idleLimit time.Duration
	notify    func(PollNotification)
	now       func() time.Time

	mu      sync.RWMutex
	watched map[auth.Principal]time.Time // último acesso
	cache   map[auth.Principal]ImportListSnapshot
}

// NewImportPoller cria o poller. notify pode ser nil.
func NewImportPoller(client BackendClient, interval time.Duration, notify func(PollNotification)) *ImportPoller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ImportPoller{
		client:    client,
		interval:  interval,
		idleLimit: defaultWatchIdleLimit,
		notify:    notify,
		now:       time.Now,
		watched:   make(map[auth.Principal]time.Time),
		cache:     make(map[auth.Principal]ImportListSnapshot),
	}
}

// SetIdleLimit define após quanto tempo sem Watch um principal sai dos ciclos.
// Valores não positivos mantêm o padrão.
func (p *ImportPoller) SetIdleLimit(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.idleLimit = d
	p.mu.Unlock()
}

// Watch inclui o principal nos ciclos de atualização e renova seu último acesso.
func (p *ImportPoller) Watch(principal auth.Principal) {
	if principal.IsZero() {
		return
	}
	p.mu.Lock()
	p.watched[principal] = p.now()
	p.mu.Unlock()
}

// unwatchLocked remove o principal e descarta a lista em cache. Exige p.mu.
func (p *ImportPoller) unwatchLocked(principal auth.Principal) {
	delete(p.watched, principal)
	delete(p.cache, principal)
}

// Snapshot devolve a lista em cache do principal, se houver.
func (p *ImportPoller) Snapshot(principal auth.Principal) (ImportListSnapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.cache[principal]
	return s, ok
}

// Refresh busca a lista agora. Em caso de falha devolve o erro junto com o cache anterior marcado como stale.
func (p *ImportPoller) Refresh(ctx context.Context, principal auth.Principal) (ImportListSnapshot, error) {
	list, err := p.client.ListImports(ctx, principal)

	p.mu.Lock()
	if err != nil {
		prev := p.cache[principal]
		prev.Stale = true
		prev.LastError = appErrors.FallbackServerMessage
		if prev.Imports == nil {
			prev.Imports = []models.ImportPublic{}
		}
		p.cache[principal] = prev
		p.mu.Unlock()

		p.emit(PollNotification{Principal: principal, Message: "Não foi possível atualizar as importações; exibindo a última lista conhecida.", Err: err})
		return prev, err
	}
	snap := ImportListSnapshot{Imports: list, FetchedAt: time.Now().UTC()}
	p.cache[principal] = snap
	p.mu.Unlock()
	return snap, nil
}

func (p *ImportPoller) emit(n PollNotification) {
	appLogger.WithPrincipal(n.Principal, nil).Warnf("%s (%v)", n.Message, n.Err)
	if p.notify != nil {
		p.notify(n)
	}
}

// refreshAll descarta os principais ociosos e atualiza os demais.
// Falhas individuais não interrompem o ciclo.
func (p *ImportPoller) refreshAll(ctx context.Context) {
	p.mu.Lock()
	cutoff := p.now().Add(-p.idleLimit)
	principals := make([]auth.Principal, 0, len(p.watched))
	idle := 0
	for pr, lastSeen := range p.watched {
		if lastSeen.Before(cutoff) {
			p.unwatchLocked(pr)
			idle++
			continue
		}
		principals = append(principals, pr)
	}
	p.mu.Unlock()

	if idle > 0 {
		appLogger.Debugf("%d principal(is) sem acesso recente removido(s) da atualização de importações.", idle)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRefreshes)
	for _, pr := range principals {
		pr := pr
		g.Go(func() error {
			_, _ = p.Refresh(gctx, pr)
			return nil
		})
	}
	_ = g.Wait()
}

// Run executa os ciclos até o contexto ser cancelado.
func (p *ImportPoller) Run(ctx context.Context) error {
	appLogger.Infof("Atualização periódica de importações iniciada (intervalo: %v).", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refreshAll(ctx)
	for {
		select {
		case <-ctx.Done():
			appLogger.Info("Atualização periódica de importações encerrada.")
			return nil
		case <-ticker.C:
			p.refreshAll(ctx)
		}
	}
}
