package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/oppscout/cache"
	"github.com/use-agent/oppscout/config"
	"github.com/use-agent/oppscout/discovery"
	"github.com/use-agent/oppscout/models"
	"github.com/use-agent/oppscout/store"
	"github.com/use-agent/oppscout/webhook"
)

// Runner executes one discovery run. *discovery.Discoverer implements it.
type Runner interface {
	Run(ctx context.Context, registry []models.Source) discovery.Result
}

// OpportunityStore persists and lists records. *store.Store implements it.
type OpportunityStore interface {
	Save(ctx context.Context, runID string, opps []models.Opportunity) (int, error)
	List(ctx context.Context, f store.Filter) ([]models.Opportunity, error)
	Ping(ctx context.Context) error
}

// Notifier sends webhook events. *webhook.Sender implements it.
type Notifier interface {
	DeliverAsync(url, secret string, event *webhook.Event) <-chan struct{}
}

// Deps are the collaborators shared by the handlers. Cache, Store and
// Webhooks are optional.
type Deps struct {
	Runner   Runner
	Registry []models.Source
	Cache    *cache.Cache
	Store    OpportunityStore
	Webhooks Notifier
	Webhook  config.WebhookConfig

	// Timeout bounds one synchronous discovery request.
	Timeout time.Duration

	Logger    *slog.Logger
	StartTime time.Time
	Version   string
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
