package observability

import (
	"log/slog"

	"github.com/aretw0/canopy/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one structured record per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(e *domain.CommandEvent) {
			attrs := []any{
				"command", e.Command,
				"scope", e.Scope,
				"changed", e.Changed,
			}
			if e.NodeID != "" {
				attrs = append(attrs, "node_id", e.NodeID)
			}
			if e.Err != nil {
				logger.Warn("command", append(attrs, "err", e.Err)...)
				return
			}
			logger.Info("command", attrs...)
		},
		OnScopeChange: func(e *domain.ScopeEvent) {
			logger.Info("scope_change",
				"template_id", e.TemplateID,
				"entered", e.Entered,
			)
		},
	}
}
