package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventResolve  EventType = "resolve"
	EventAssemble EventType = "assemble"
	EventGenerate EventType = "generate"
	EventRecover  EventType = "recover"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	TurnID    string    `json:"turn_id,omitempty"`
}

// ResolveEvent reports a finished placeholder resolution.
type ResolveEvent struct {
	EventBase
	Template    string       `json:"template"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// AssembleEvent reports a finished prompt assembly.
type AssembleEvent struct {
	EventBase
	TemplateID  string       `json:"template_id,omitempty"`
	Fields      int          `json:"fields"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// GenerateEvent reports one call to the generator.
type GenerateEvent struct {
	EventBase
	Attempt  int           `json:"attempt"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// RecoverEvent reports a finished output recovery.
type RecoverEvent struct {
	EventBase
	Stage       Stage        `json:"stage"`
	OK          bool         `json:"ok"`
	Repairs     []string     `json:"repairs,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Hooks defines callbacks for engine observability.
type Hooks struct {
	OnResolve  func(context.Context, *ResolveEvent)
	OnAssemble func(context.Context, *AssembleEvent)
	OnGenerate func(context.Context, *GenerateEvent)
	OnRecover  func(context.Context, *RecoverEvent)
}
