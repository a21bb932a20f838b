package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"fundguard/internal/snapshot"
)

// Start перепроверяет средства при каждом изменении стора и по таймеру, пока не отменён ctx.
// Проход по новому снапшоту отменяет незавершённый проход по старому.
func (e *Engine) Start(ctx context.Context, store *snapshot.Store) error {
	e.logEntry().WithField("interval", e.cfg.Interval.String()).Info("Движок проверки средств запущен.")

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	run := func() {
		snap := store.Current()
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.RunPass(ctx, snap)
		}()
	}

	run()
	for {
		select {
		case <-ctx.Done():
			e.logEntry().Info("Движок проверки средств остановлен.")
			return nil
		case <-store.Updates():
			run()
		case <-ticker.C:
			run()
		}
	}
}

func (e *Engine) RunPass(ctx context.Context, snap snapshot.Snapshot) *Report {
	report, err := e.Validate(ctx, snap)
	switch {
	case err == nil:
		e.logReport(report)
		return report
	case errors.Is(err, ErrSuperseded):
		e.logEntry().WithField("snapshot", snap.Version).Debug("Проход отменён более новым снапшотом.")
	case ctx.Err() != nil:
	default:
		e.logEntry().WithError(err).WithField("snapshot", snap.Version).Error("Проверка средств завершилась с ошибкой.")
	}
	return nil
}
