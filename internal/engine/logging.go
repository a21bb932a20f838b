package engine

import (
	"github.com/sirupsen/logrus"
)

func (e *Engine) logEntry() *logrus.Entry {
	return e.log.WithComponent("engine")
}

func (e *Engine) passEntry(r *Report) *logrus.Entry {
	return e.log.WithPassID(r.PassID).WithFields(logrus.Fields{
		"component": "engine",
		"epoch":     r.Epoch,
		"snapshot":  r.SnapshotVersion,
	})
}

func (e *Engine) logReport(r *Report) {
	entry := e.passEntry(r)
	for _, w := range r.Warnings {
		entry.Warn(w)
	}
	blocking := 0
	for _, v := range r.Verdicts {
		if !v.Blocking() {
			continue
		}
		blocking++
		for _, msg := range v.Messages() {
			entry.WithField("scope", v.Scope.String()).Warn(msg)
		}
	}
	entry.WithFields(logrus.Fields{
		"scopes":   len(r.Verdicts),
		"blocking": blocking,
		"degraded": r.Degraded,
	}).Info("Проверка средств завершена.")
}
