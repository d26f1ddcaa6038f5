package event

import (
	"fmt"

	"github.com/cadre-oss/memex/internal/config"
)

// BuildBus creates a bus with the hooks declared in cfg. A disabled or empty
// hooks section yields a nil bus, which is safe to emit on.
func BuildBus(cfg config.HooksConfig, logger Logger) (*Bus, error) {
	if !cfg.Enabled || len(cfg.Hooks) == 0 {
		return nil, nil
	}

	bus := NewBus(logger)
	for _, hc := range cfg.Hooks {
		h, err := NewHook(hc, logger)
		if err != nil {
			return nil, err
		}
		bus.Register(h)
	}
	return bus, nil
}

// NewHook builds a single hook from its configuration.
func NewHook(hc config.HookConfig, logger Logger) (Hook, error) {
	events := make([]EventType, 0, len(hc.Events))
	for _, name := range hc.Events {
		t := EventType(name)
		if !IsKnown(t) {
			return nil, fmt.Errorf("hook %s: unknown event %q", hc.Name, name)
		}
		events = append(events, t)
	}

	switch hc.Type {
	case "shell":
		return NewShellHook(hc.Name, hc.Command, events, hc.Blocking), nil
	case "webhook":
		return NewWebhookHook(hc.Name, hc.URL, events, hc.Blocking), nil
	case "log":
		if logger == nil {
			return nil, fmt.Errorf("hook %s: log hook requires a logger", hc.Name)
		}
		return NewLogHook(hc.Name, events, logger, hc.Level), nil
	default:
		return nil, fmt.Errorf("hook %s: unsupported type %q", hc.Name, hc.Type)
	}
}
