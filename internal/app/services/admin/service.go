// Package admin implements the administrative surface: configuration
// updates, the pause switch and escrow audit queries.
package admin

import (
	"context"

	"github.com/xam-dev-ux/BaseReview/internal/app/domain/escrow"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/params"
	"github.com/xam-dev-ux/BaseReview/internal/app/events"
	"github.com/xam-dev-ux/BaseReview/internal/app/storage"
	lederr "github.com/xam-dev-ux/BaseReview/internal/errors"
	"github.com/xam-dev-ux/BaseReview/pkg/logger"
)

// Service owns the configuration singleton and the pause switch. It also
// answers the AdminChecker role checks for the other services.
type Service struct {
	params  storage.ParamsStore
	escrows storage.EscrowStore
	admins  map[string]bool
	bus     *events.Bus
	log     *logger.Logger
}

// New constructs the admin service with the configured administrator
// identities.
func New(paramsStore storage.ParamsStore, escrows storage.EscrowStore, admins []string, bus *events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("admin")
	}
	set := make(map[string]bool, len(admins))
	for _, a := range admins {
		if a != "" {
			set[a] = true
		}
	}
	return &Service{params: paramsStore, escrows: escrows, admins: set, bus: bus, log: log}
}

// IsAdmin reports whether the identity holds the administrative role.
func (s *Service) IsAdmin(identity string) bool {
	return s.admins[identity]
}

// Config returns the current ledger parameters.
func (s *Service) Config(ctx context.Context) (params.Params, error) {
	return s.params.GetParams(ctx)
}

// UpdateConfig replaces the ledger parameters. Values that would silently
// disable a safety check are rejected.
func (s *Service) UpdateConfig(ctx context.Context, caller string, p params.Params) (params.Params, error) {
	if !s.IsAdmin(caller) {
		return params.Params{}, lederr.NotAuthorized("administrative role required")
	}
	if err := p.Validate(); err != nil {
		return params.Params{}, lederr.InvalidInput("%v", err)
	}

	updated, err := s.params.UpdateParams(ctx, p)
	if err != nil {
		return params.Params{}, err
	}

	s.bus.Publish(ctx, events.TopicConfigUpdated, updated)
	s.log.Info("ledger configuration updated")
	return updated, nil
}

// Pause halts all mutating operations. Queries stay available.
func (s *Service) Pause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, true)
}

// Unpause resumes mutating operations.
func (s *Service) Unpause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, false)
}

func (s *Service) setPaused(ctx context.Context, caller string, paused bool) error {
	if !s.IsAdmin(caller) {
		return lederr.NotAuthorized("administrative role required")
	}
	if err := s.params.SetPaused(ctx, paused); err != nil {
		return err
	}
	if paused {
		s.log.Warn("ledger paused")
	} else {
		s.log.Info("ledger unpaused")
	}
	return nil
}

// Paused reports the pause switch.
func (s *Service) Paused(ctx context.Context) (bool, error) {
	return s.params.Paused(ctx)
}

// EscrowsForParty lists a party's deposits for audit.
func (s *Service) EscrowsForParty(ctx context.Context, party string) ([]escrow.Entry, error) {
	return s.escrows.ListEscrowsForParty(ctx, party)
}

// TreasuryBalance returns the sum of forfeited deposits.
func (s *Service) TreasuryBalance(ctx context.Context) (int64, error) {
	return s.escrows.TreasuryBalance(ctx)
}
