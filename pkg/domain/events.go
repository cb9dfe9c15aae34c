package domain

import (
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCommand     EventType = "command"
	EventScopeChange EventType = "scope_change"
)

// ScopePage names the live page scope in events. Template scopes are "template:<id>".
const ScopePage = "page"

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Scope     string    `json:"scope"`
}

// CommandEvent is emitted once per editor command, after it completed.
type CommandEvent struct {
	EventBase
	Command string `json:"command"`
	NodeID  string `json:"node_id,omitempty"`
	Changed bool   `json:"changed"`
	Err     error  `json:"-"`
}

// ScopeEvent is emitted when master-edit mode is entered or left.
type ScopeEvent struct {
	EventBase
	TemplateID string `json:"template_id,omitempty"`
	Entered    bool   `json:"entered"`
}

// LifecycleHooks defines callbacks for editor observability.
// The editor is synchronous, so hooks run inline and must not call back into it.
type LifecycleHooks struct {
	OnCommand     func(*CommandEvent)
	OnScopeChange func(*ScopeEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnCommand: func(e *CommandEvent) {
			if h.OnCommand != nil {
				h.OnCommand(e)
			}
			if other.OnCommand != nil {
				other.OnCommand(e)
			}
		},
		OnScopeChange: func(e *ScopeEvent) {
			if h.OnScopeChange != nil {
				h.OnScopeChange(e)
			}
			if other.OnScopeChange != nil {
				other.OnScopeChange(e)
			}
		},
	}
}
