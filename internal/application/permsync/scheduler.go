package permsync

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Scheduler ejecuta SyncAll según una expresión cron ("@every 5m" por defecto).
type Scheduler struct {
	cron   *cron.Cron
	syncer *Syncer
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler registra la tarea; no la arranca.
func NewScheduler(spec string, syncer *Syncer) (*Scheduler, error) {
	if spec == "" {
		spec = "@every 5m"
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{cron: cron.New(), syncer: syncer, ctx: ctx, cancel: cancel}
	if _, err := s.cron.AddFunc(spec, func() { syncer.SyncAll(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("permsync: expresión cron inválida %q: %w", spec, err)
	}
	return s, nil
}

// Start arranca el planificador en su propia goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop cancela la ejecución en curso y espera a que termine.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.syncer.Wait()
}
