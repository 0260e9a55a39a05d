// Package registry implements app registration and developer updates.
package registry

import (
	"context"
	"strings"
	"time"

	"github.com/xam-dev-ux/BaseReview/internal/app/domain/miniapp"
	"github.com/xam-dev-ux/BaseReview/internal/app/events"
	"github.com/xam-dev-ux/BaseReview/internal/app/metrics"
	"github.com/xam-dev-ux/BaseReview/internal/app/storage"
	lederr "github.com/xam-dev-ux/BaseReview/internal/errors"
	"github.com/xam-dev-ux/BaseReview/pkg/logger"
)

// Service manages MiniApp records.
type Service struct {
	apps   storage.AppStore
	params storage.ParamsStore
	bus    *events.Bus
	log    *logger.Logger
	now    func() time.Time
}

// New constructs the registry service.
func New(apps storage.AppStore, params storage.ParamsStore, bus *events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("registry")
	}
	return &Service{apps: apps, params: params, bus: bus, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) ensureRunning(ctx context.Context) error {
	paused, err := s.params.Paused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return lederr.ErrSystemPaused
	}
	return nil
}

// Register records a new MiniApp and returns it with its assigned id.
func (s *Service) Register(ctx context.Context, developer, name, url string, category miniapp.Category, contractAddresses []string, metadataContentID string) (miniapp.MiniApp, error) {
	if err := s.ensureRunning(ctx); err != nil {
		return miniapp.MiniApp{}, err
	}
	if developer == "" {
		return miniapp.MiniApp{}, lederr.InvalidInput("developer identity is required")
	}
	if len(name) < miniapp.MinNameLength || len(name) > miniapp.MaxNameLength {
		return miniapp.MiniApp{}, lederr.ErrInvalidName
	}
	if strings.TrimSpace(url) == "" || len(url) > miniapp.MaxURLLength {
		return miniapp.MiniApp{}, lederr.InvalidInput("url must be non-empty and at most %d characters", miniapp.MaxURLLength)
	}
	if !category.Valid() {
		return miniapp.MiniApp{}, lederr.InvalidInput("unknown category %d", category)
	}

	now := s.now()
	app, err := s.apps.CreateApp(ctx, miniapp.MiniApp{
		Name:              name,
		URL:               url,
		Category:          category,
		Developer:         developer,
		ContractAddresses: contractAddresses,
		MetadataContentID: metadataContentID,
		RegistrationDate:  now,
		UpdatedAt:         now,
	})
	if err != nil {
		return miniapp.MiniApp{}, err
	}

	metrics.AppRegistered()
	s.bus.Publish(ctx, events.TopicAppRegistered, app)
	s.log.Infof("app %d registered: %s", app.AppID, app.Name)
	return app, nil
}

// Update replaces the developer-editable fields of an app.
func (s *Service) Update(ctx context.Context, caller string, appID uint64, metadataContentID string, contractAddresses []string) (miniapp.MiniApp, error) {
	if err := s.ensureRunning(ctx); err != nil {
		return miniapp.MiniApp{}, err
	}

	app, err := s.apps.GetApp(ctx, appID)
	if err != nil {
		return miniapp.MiniApp{}, err
	}
	if app.Developer != caller {
		return miniapp.MiniApp{}, lederr.NotAuthorized("only the app developer can update")
	}

	updated, err := s.apps.UpdateAppMetadata(ctx, appID, metadataContentID, contractAddresses, s.now())
	if err != nil {
		return miniapp.MiniApp{}, err
	}

	s.bus.Publish(ctx, events.TopicAppUpdated, updated)
	s.log.Infof("app %d updated", appID)
	return updated, nil
}

// Get returns one app.
func (s *Service) Get(ctx context.Context, appID uint64) (miniapp.MiniApp, error) {
	return s.apps.GetApp(ctx, appID)
}

// List returns apps ordered by id.
func (s *Service) List(ctx context.Context, offset, limit int) ([]miniapp.MiniApp, error) {
	return s.apps.ListApps(ctx, offset, limit)
}

// Total returns the number of registered apps.
func (s *Service) Total(ctx context.Context) (uint64, error) {
	return s.apps.CountApps(ctx)
}
