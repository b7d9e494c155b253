package storage

import (
	"github.com/camuig/trader-console/internal/console"
	"github.com/camuig/trader-console/internal/logger"
)

// ActionRecorder persists every console action to the audit log.
type ActionRecorder struct {
	repo   *Repository
	logger *logger.Logger
}

func NewActionRecorder(repo *Repository, log *logger.Logger) *ActionRecorder {
	return &ActionRecorder{repo: repo, logger: log}
}

func (r *ActionRecorder) Observe(a console.Action) {
	entry := &ActionLog{
		CreatedAt: a.At,
		Kind:      a.Kind,
		Target:    a.Target,
		Detail:    a.Detail,
	}
	if a.Err != nil {
		entry.Error = a.Err.Error()
	}
	if err := r.repo.SaveActionLog(entry); err != nil {
		r.logger.Error("failed to save action log", "kind", a.Kind, "error", err)
	}
}
