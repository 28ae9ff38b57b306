// Package session constructs the generation tracker services once per hosting
// session and tears them down together.
package session

import (
	"errors"

	"chefconsole/internal/domain"
	"chefconsole/internal/i18n"
	"chefconsole/internal/infra"
	"chefconsole/internal/jobs"
	"chefconsole/internal/notify"
	"chefconsole/internal/subscription"
	"chefconsole/internal/toast"
)

// Options are the injected dependencies of a session.
type Options struct {
	Config    *infra.Config
	Generator jobs.Generator
	Directory domain.PlanDirectory
	Navigator toast.Navigator
	Logger    *infra.Logger
}

// Session owns the registry, feed, bridge and toast for one hosting session.
type Session struct {
	Registry   *jobs.Registry
	Store      *notify.Store
	Bridge     *subscription.Bridge
	Toast      *toast.Presenter
	Translator *i18n.Translator
	Directory  domain.PlanDirectory
}

// New wires the services. Close must be called to stop background pollers.
func New(opts Options) (*Session, error) {
	if opts.Config == nil {
		return nil, errors.New("session: config is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("session: generator is required")
	}
	cfg := opts.Config
	logger := infra.LoggerOrDiscard(opts.Logger)

	translator := i18n.New(cfg.DefaultLocale)
	store := notify.NewStore(notify.Options{Logger: logger})
	bridge := subscription.New(logger)

	registry, err := jobs.NewRegistry(jobs.Options{
		Generator:    opts.Generator,
		Notifier:     store,
		Bridge:       bridge,
		Translator:   translator,
		Directory:    opts.Directory,
		Logger:       logger,
		PollInterval: cfg.PollInterval,
		MaxRetries:   cfg.PollMaxRetries,
		MaxBackoff:   cfg.PollMaxBackoff,
		Retention:    cfg.JobRetention,
	})
	if err != nil {
		return nil, err
	}

	presenter, err := toast.NewPresenter(toast.Options{
		Feed:       store,
		Navigator:  opts.Navigator,
		Directory:  opts.Directory,
		Translator: translator,
		Duration:   cfg.ToastDuration,
		Logger:     logger,
	})
	if err != nil {
		registry.Close()
		return nil, err
	}

	return &Session{
		Registry:   registry,
		Store:      store,
		Bridge:     bridge,
		Toast:      presenter,
		Translator: translator,
		Directory:  opts.Directory,
	}, nil
}

// Close stops pollers and the toast timer. Jobs still running are lost.
func (s *Session) Close() {
	s.Toast.Close()
	s.Registry.Close()
}
