package api

import (
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/auth"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/service"
)

type App interface {
	Logger() internal.Logger
	Tracker() *service.Tracker
	Auth() auth.Provider
	// Limiter may return nil to disable rate limiting.
	Limiter() *RateLimiter
}

// Application is the App used by the server binary.
type Application struct {
	logger   internal.Logger
	tracker  *service.Tracker
	provider auth.Provider
	limiter  *RateLimiter
}

func NewApplication(logger internal.Logger, tracker *service.Tracker, provider auth.Provider, limiter *RateLimiter) *Application {
	return &Application{logger: logger, tracker: tracker, provider: provider, limiter: limiter}
}

func (a *Application) Logger() internal.Logger   { return a.logger }
func (a *Application) Tracker() *service.Tracker { return a.tracker }
func (a *Application) Auth() auth.Provider       { return a.provider }
func (a *Application) Limiter() *RateLimiter     { return a.limiter }

var _ App = (*Application)(nil)
