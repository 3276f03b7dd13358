// Package screens holds the demo screens. A screen subscribes to its events
// and initializes its controllers on Mount, exposes fixed-payload actions, and
// releases every subscription on Unmount.
package screens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"healthkit-bridge/internal/bridge"
	"healthkit-bridge/internal/common/logger"
	"healthkit-bridge/internal/common/metrics"
	"healthkit-bridge/internal/facade"
	"healthkit-bridge/internal/surface"
)

// Action is one button on a screen. Run returns the outcome's failure, already
// surfaced by the facade.
type Action struct {
	Name        string
	Description string
	Run         func(ctx context.Context) error
}

type Screen interface {
	Name() string
	Title() string
	Mount(ctx context.Context) error
	Actions() []Action
	Unmount()
}

// Deps are shared by every screen.
type Deps struct {
	Facade *facade.Facade
	Bridge *bridge.Bridge
	Logger logger.Logger
	// Notifier receives pushed events; nil only logs them.
	Notifier surface.Notifier
	// PackageName prefixes custom data type names.
	PackageName string
}

// ErrUnknownScreen is returned by Registry.Get.
var ErrUnknownScreen = errors.New("unknown screen")

// Registry maps screen names to constructors.
type Registry struct {
	deps    Deps
	screens map[string]func(Deps) Screen
}

func NewRegistry(d Deps) *Registry {
	if d.Logger == nil {
		d.Logger = logger.NewNoOpLogger()
	}
	return &Registry{
		deps: d,
		screens: map[string]func(Deps) Screen{
			"main":     func(d Deps) Screen { return NewMain(d) },
			"data":     func(d Deps) Screen { return NewData(d) },
			"sensors":  func(d Deps) Screen { return NewSensors(d) },
			"recorder": func(d Deps) Screen { return NewRecorder(d) },
			"activity": func(d Deps) Screen { return NewActivity(d) },
			"settings": func(d Deps) Screen { return NewSettings(d) },
		},
	}
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.screens))
	for n := range r.screens {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get builds a fresh, unmounted screen.
func (r *Registry) Get(name string) (Screen, error) {
	ctor, ok := r.screens[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScreen, name)
	}
	return ctor(r.deps), nil
}

// base carries what every screen shares: its bridge scope and the event
// handler that logs and notifies.
type base struct {
	name  string
	title string
	deps  Deps
	log   logger.Logger
	mu    sync.Mutex
	scope *bridge.Scope
}

func newBase(name, title string, d Deps) *base {
	if d.Logger == nil {
		d.Logger = logger.NewNoOpLogger()
	}
	return &base{
		name:  name,
		title: title,
		deps:  d,
		log:   d.Logger.WithFields(map[string]interface{}{"screen": name}),
	}
}

func (b *base) Name() string  { return b.name }
func (b *base) Title() string { return b.title }

// open creates the screen's scope. Mounting twice keeps the first scope.
func (b *base) open() *bridge.Scope {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.scope == nil {
		b.scope = b.deps.Bridge.NewScope(b.name)
	}
	return b.scope
}

// listen subscribes to eventName; each payload is logged and notified, then
// passed to extra when set.
func (b *base) listen(eventName string, extra func(json.RawMessage)) {
	b.open().Subscribe(eventName, func(payload json.RawMessage) {
		b.log.Info("event received", map[string]interface{}{
			"event":   eventName,
			"payload": string(payload),
		})
		if b.deps.Notifier != nil {
			err := b.deps.Notifier.Notify(context.Background(), surface.Notification{
				Title: eventName,
				Body:  string(payload),
			})
			if err != nil {
				metrics.NotificationsFailed.WithLabelValues(b.deps.Notifier.Name()).Inc()
				b.log.Warn("event notification failed", map[string]interface{}{
					"event":    eventName,
					"notifier": b.deps.Notifier.Name(),
					"error":    err.Error(),
				})
			}
		}
		if extra != nil {
			extra(payload)
		}
	})
}

func (b *base) Unmount() {
	b.mu.Lock()
	scope := b.scope
	b.scope = nil
	b.mu.Unlock()
	if scope != nil {
		scope.Close()
	}
}

// Subscriptions lists the events the mounted screen listens to.
func (b *base) Subscriptions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.scope == nil {
		return nil
	}
	return b.scope.Events()
}
