package supervisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/thejerf/suture/v4"
)

type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// DefaultTreeConfig matches suture's own defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree runs background workers and the API server under separate supervisors,
// so a crashing worker restarts without touching the HTTP listener.
type Tree struct {
	root       *suture.Supervisor
	background *suture.Supervisor
	api        *suture.Supervisor
}

func NewTree(name string, config TreeConfig) *Tree {
	defaults := DefaultTreeConfig()
	if config.FailureThreshold == 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = defaults.FailureDecay
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = defaults.FailureBackoff
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}

	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	rootSpec := childSpec
	rootSpec.EventHook = logEvent(log.Logger)

	root := suture.New(name, rootSpec)
	background := suture.New("background", childSpec)
	api := suture.New("api", childSpec)
	root.Add(background)
	root.Add(api)

	return &Tree{root: root, background: background, api: api}
}

func (t *Tree) AddBackgroundService(svc suture.Service) suture.ServiceToken {
	return t.background.Add(svc)
}

func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve blocks until ctx is cancelled and every service has stopped.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// logEvent routes suture lifecycle events into zerolog.
func logEvent(logger zerolog.Logger) suture.EventHook {
	return func(e suture.Event) {
		var event *zerolog.Event
		switch e.Type() {
		case suture.EventTypeServicePanic, suture.EventTypeServiceTerminate, suture.EventTypeStopTimeout:
			event = logger.Error()
		case suture.EventTypeBackoff:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		event.Fields(e.Map()).Str("component", "supervisor").Msg(e.String())
	}
}
