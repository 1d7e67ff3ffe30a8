package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/config"
	appErrors "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/errors"
	appLogger "github.com/Dukorsa/APP_IMPORTAL_GO/internal/core/logger"
	"github.com/Dukorsa/APP_IMPORTAL_GO/internal/wizard"
)

// SessionData é uma instância de wizard montada para um principal.
type SessionData struct {
	ID           string
	Owner        Principal
	Wizard       *wizard.Wizard
	CreatedAt    time.Time
	LastActivity time.Time

	mu sync.Mutex
}

// IsExpired verifica se a sessão ficou ociosa além do limite.
func (s *SessionData) IsExpired(idleLimit time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return idleLimit > 0 && time.Now().UTC().After(s.LastActivity.Add(idleLimit))
}

// UpdateActivity atualiza o timestamp da última atividade.
func (s *SessionData) UpdateActivity() {
	s.mu.Lock()
	s.LastActivity = time.Now().UTC()
	s.mu.Unlock()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// SessionManager guarda os wizards ativos em memória, um dono por sessão.
// Nada é persistido: o FormState contém senha e dados de cartão.
type SessionManager struct {
	idleLimit       time.Duration
	cleanupInterval time.Duration
	sessions        map[string]*SessionData
	lock            sync.RWMutex
	shutdownChan    chan struct{}
	shutdownOnce    sync.Once
	wg              sync.WaitGroup
}

// NewSessionManager cria o gerenciador usando WizardIdleLimit da configuração.
func NewSessionManager(cfg *config.Config) *SessionManager {
	interval := cfg.WizardIdleLimit / 4
	if interval < time.Second {
		interval = time.Second
	}
	return &SessionManager{
		idleLimit:       cfg.WizardIdleLimit,
		cleanupInterval: interval,
		sessions:        make(map[string]*SessionData),
		shutdownChan:    make(chan struct{}),
	}
}

// StartCleanupGoroutine inicia a limpeza periódica dos wizards ociosos.
func (sm *SessionManager) StartCleanupGoroutine() {
	if sm.idleLimit <= 0 {
		appLogger.Info("Limite de ociosidade de wizards desabilitado; limpeza em background não iniciada.")
		return
	}

	sm.wg.Add(1)
	go func() {
		defer sm.wg.Done()
		ticker := time.NewTicker(sm.cleanupInterval)
		defer ticker.Stop()

		appLogger.Infof("Goroutine de limpeza de wizards iniciada (intervalo: %v).", sm.cleanupInterval)
		for {
			select {
			case <-ticker.C:
				sm.cleanupExpiredSessions()
			case <-sm.shutdownChan:
				appLogger.Info("Goroutine de limpeza de wizards recebendo sinal de shutdown.")
				return
			}
		}
	}()
}

// Shutdown para a goroutine de limpeza e descarta todos os wizards.
func (sm *SessionManager) Shutdown() {
	sm.shutdownOnce.Do(func() {
		close(sm.shutdownChan)
	})
	sm.wg.Wait()

	sm.lock.Lock()
	n := len(sm.sessions)
	sm.sessions = make(map[string]*SessionData)
	sm.lock.Unlock()
	appLogger.Infof("SessionManager encerrado; %d wizard(s) descartado(s).", n)
}

// CreateSession registra um wizard novo para o principal e devolve o ID da sessão.
func (sm *SessionManager) CreateSession(owner Principal, w *wizard.Wizard) *SessionData {
	now := time.Now().UTC()
	session := &SessionData{
		ID:           uuid.NewString(),
		Owner:        owner,
		Wizard:       w,
		CreatedAt:    now,
		LastActivity: now,
	}

	sm.lock.Lock()
	sm.sessions[session.ID] = session
	sm.lock.Unlock()

	appLogger.Infof("Wizard criado: ID=%s..., fluxo=%s, principal=%s", shortID(session.ID), w.Flow().Name, owner)
	return session
}

// GetSession devolve a sessão do principal. Sessão de outro dono é tratada como inexistente.
func (sm *SessionManager) GetSession(sessionID string, owner Principal) (*SessionData, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: ID do wizard não pode ser vazio", appErrors.ErrInvalidInput)
	}
	sm.lock.RLock()
	session, exists := sm.sessions[sessionID]
	sm.lock.RUnlock()

	if !exists || session.Owner != owner {
		return nil, fmt.Errorf("%w: wizard %s... não encontrado", appErrors.ErrNotFound, shortID(sessionID))
	}
	if session.IsExpired(sm.idleLimit) {
		appLogger.Infof("Wizard %s... expirado durante GetSession. Removendo.", shortID(sessionID))
		sm.lock.Lock()
		delete(sm.sessions, sessionID)
		sm.lock.Unlock()
		return nil, fmt.Errorf("%w: wizard expirado", appErrors.ErrNotFound)
	}

	session.UpdateActivity()
	return session, nil
}

// DeleteSession reinicia e remove o wizard. Remover uma sessão inexistente não é erro.
func (sm *SessionManager) DeleteSession(sessionID string, owner Principal) error {
	sm.lock.Lock()
	defer sm.lock.Unlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		appLogger.Debugf("Tentativa de remover wizard %s... que não existe ou já foi removido.", shortID(sessionID))
		return nil
	}
	if session.Owner != owner {
		return fmt.Errorf("%w: wizard %s... não encontrado", appErrors.ErrNotFound, shortID(sessionID))
	}

	// Reset descarta uma submissão ainda em voo.
	session.Wizard.Reset()
	delete(sm.sessions, sessionID)
	appLogger.Infof("Wizard %s... (principal: %s) removido.", shortID(sessionID), owner)
	return nil
}

// Count devolve o número de wizards ativos.
func (sm *SessionManager) Count() int {
	sm.lock.RLock()
	defer sm.lock.RUnlock()
	return len(sm.sessions)
}

func (sm *SessionManager) cleanupExpiredSessions() {
	sm.lock.Lock()
	defer sm.lock.Unlock()

	cleanedCount := 0
	for id, session := range sm.sessions {
		if session.IsExpired(sm.idleLimit) {
			session.Wizard.Reset()
			delete(sm.sessions, id)
			appLogger.Debugf("Limpeza: wizard %s... (principal: %s) ocioso removido.", shortID(id), session.Owner)
			cleanedCount++
		}
	}
	if cleanedCount > 0 {
		appLogger.Infof("Limpeza de wizards removeu %d sessão(ões) ociosa(s).", cleanedCount)
	}
}
