package app

import (
	"context"
	"fmt"

	"github.com/xam-dev-ux/BaseReview/internal/app/events"
	"github.com/xam-dev-ux/BaseReview/internal/app/services/admin"
	disputesvc "github.com/xam-dev-ux/BaseReview/internal/app/services/disputes"
	registrysvc "github.com/xam-dev-ux/BaseReview/internal/app/services/registry"
	reputationsvc "github.com/xam-dev-ux/BaseReview/internal/app/services/reputation"
	reviewsvc "github.com/xam-dev-ux/BaseReview/internal/app/services/reviews"
	votingsvc "github.com/xam-dev-ux/BaseReview/internal/app/services/voting"
	"github.com/xam-dev-ux/BaseReview/internal/app/storage"
	"github.com/xam-dev-ux/BaseReview/internal/app/storage/memory"
	"github.com/xam-dev-ux/BaseReview/internal/app/system"
	"github.com/xam-dev-ux/BaseReview/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Apps     storage.AppStore
	Reviews  storage.ReviewStore
	Votes    storage.VoteStore
	Disputes storage.DisputeStore
	Escrows  storage.EscrowStore
	Params   storage.ParamsStore
}

// Options tunes construction beyond the stores.
type Options struct {
	// Admins are the identities granted the administrative role.
	Admins []string
}

// Application ties the ledger services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Bus        *events.Bus
	Registry   *registrysvc.Service
	Reviews    *reviewsvc.Service
	Voting     *votingsvc.Service
	Reputation *reputationsvc.Service
	Disputes   *disputesvc.Service
	Admin      *admin.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Apps == nil {
		stores.Apps = mem
	}
	if stores.Reviews == nil {
		stores.Reviews = mem
	}
	if stores.Votes == nil {
		stores.Votes = mem
	}
	if stores.Disputes == nil {
		stores.Disputes = mem
	}
	if stores.Escrows == nil {
		stores.Escrows = mem
	}
	if stores.Params == nil {
		stores.Params = mem
	}

	manager := system.NewManager()
	bus := events.NewBus()

	adminService := admin.New(stores.Params, stores.Escrows, opts.Admins, bus, log)
	reputationService := reputationsvc.New(stores.Reviews)
	registryService := registrysvc.New(stores.Apps, stores.Params, bus, log)
	reviewService := reviewsvc.New(stores.Reviews, stores.Params, reputationService, bus, log)
	votingService := votingsvc.New(stores.Votes, stores.Params, reputationService, bus, log)
	disputeService := disputesvc.New(stores.Disputes, stores.Apps, stores.Params, adminService, bus, log)

	sweeper := disputesvc.NewSweeper(disputeService, log)
	if err := manager.Register(sweeper); err != nil {
		return nil, fmt.Errorf("register %s: %w", sweeper.Name(), err)
	}

	return &Application{
		manager:    manager,
		log:        log,
		Bus:        bus,
		Registry:   registryService,
		Reviews:    reviewService,
		Voting:     votingService,
		Reputation: reputationService,
		Disputes:   disputeService,
		Admin:      adminService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
