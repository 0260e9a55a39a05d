// Package disputes implements the dispute workflow and app verification
// transitions, including the automatic-flag override surface.
package disputes

import (
	"context"
	"strings"
	"time"

	"github.com/xam-dev-ux/BaseReview/internal/app/domain/dispute"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/miniapp"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/review"
	"github.com/xam-dev-ux/BaseReview/internal/app/events"
	"github.com/xam-dev-ux/BaseReview/internal/app/metrics"
	"github.com/xam-dev-ux/BaseReview/internal/app/storage"
	lederr "github.com/xam-dev-ux/BaseReview/internal/errors"
	"github.com/xam-dev-ux/BaseReview/pkg/logger"
)

// AdminChecker answers whether an identity holds the administrative role.
type AdminChecker interface {
	IsAdmin(identity string) bool
}

// Service manages disputes and verification tiers.
type Service struct {
	disputes storage.DisputeStore
	apps     storage.AppStore
	params   storage.ParamsStore
	admin    AdminChecker
	bus      *events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New constructs the dispute and verification service.
func New(disputes storage.DisputeStore, apps storage.AppStore, params storage.ParamsStore, admin AdminChecker, bus *events.Bus, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("disputes")
	}
	return &Service{
		disputes: disputes,
		apps:     apps,
		params:   params,
		admin:    admin,
		bus:      bus,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
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

func (s *Service) ensureAdmin(caller string) error {
	if !s.admin.IsAdmin(caller) {
		return lederr.NotAuthorized("administrative role required")
	}
	return nil
}

// Dispute opens a developer challenge against a review, escrowing the bond
// and starting the dispute clock.
func (s *Service) Dispute(ctx context.Context, developer string, reviewID uint64, evidenceContentID string, evidenceReferences []string, bond int64) (dispute.Dispute, error) {
	if err := s.ensureRunning(ctx); err != nil {
		return dispute.Dispute{}, err
	}
	if strings.TrimSpace(evidenceContentID) == "" {
		return dispute.Dispute{}, lederr.InvalidInput("evidence content id is required")
	}

	p, err := s.params.GetParams(ctx)
	if err != nil {
		return dispute.Dispute{}, err
	}
	if bond < p.DisputeBond {
		return dispute.Dispute{}, lederr.ErrInsufficientBond
	}

	now := s.now()
	d, rev, err := s.disputes.OpenDispute(ctx, dispute.Dispute{
		ReviewID:           reviewID,
		Disputer:           developer,
		EvidenceContentID:  evidenceContentID,
		EvidenceReferences: evidenceReferences,
		Bond:               bond,
		OpenedAt:           now,
		Deadline:           now.Add(p.DisputePeriod),
	})
	if err != nil {
		return dispute.Dispute{}, err
	}

	metrics.DisputeOpened()
	s.bus.Publish(ctx, events.TopicReviewDisputed, rev)
	s.log.Infof("dispute %d opened against review %d", d.DisputeID, reviewID)
	return d, nil
}

// Resolve applies an administrative ruling on an open dispute.
func (s *Service) Resolve(ctx context.Context, caller string, disputeID uint64, upheld bool) (dispute.Dispute, error) {
	if err := s.ensureRunning(ctx); err != nil {
		return dispute.Dispute{}, err
	}
	if err := s.ensureAdmin(caller); err != nil {
		return dispute.Dispute{}, err
	}

	d, rev, err := s.disputes.ResolveDispute(ctx, disputeID, upheld, s.now())
	if err != nil {
		return dispute.Dispute{}, err
	}

	metrics.DisputeResolved(d.Status)
	s.bus.Publish(ctx, events.TopicDisputeResolved, d)
	if rev.Status == review.StatusRemoved {
		s.bus.Publish(ctx, events.TopicReviewDeleted, rev)
	}
	s.log.Infof("dispute %d resolved (upheld=%t)", disputeID, upheld)
	return d, nil
}

// SweepExpired closes every dispute whose period lapsed without a ruling.
// The cron scheduler drives this.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.disputes.ExpireDisputes(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for _, d := range expired {
		metrics.DisputeResolved(d.Status)
		s.bus.Publish(ctx, events.TopicDisputeResolved, d)
		s.log.Infof("dispute %d expired without ruling", d.DisputeID)
	}
	return len(expired), nil
}

// GetDispute returns one dispute.
func (s *Service) GetDispute(ctx context.Context, disputeID uint64) (dispute.Dispute, error) {
	return s.disputes.GetDispute(ctx, disputeID)
}

// VerifyApp escrows the developer stake and raises the app to
// DeveloperVerified.
func (s *Service) VerifyApp(ctx context.Context, developer string, appID uint64, proofContentID string, stake int64) (miniapp.MiniApp, error) {
	if err := s.ensureRunning(ctx); err != nil {
		return miniapp.MiniApp{}, err
	}

	p, err := s.params.GetParams(ctx)
	if err != nil {
		return miniapp.MiniApp{}, err
	}
	if stake < p.VerificationStake {
		return miniapp.MiniApp{}, lederr.ErrInsufficientStake
	}

	app, err := s.apps.VerifyApp(ctx, appID, developer, stake, s.now())
	if err != nil {
		return miniapp.MiniApp{}, err
	}

	s.bus.Publish(ctx, events.TopicAppVerificationChanged, events.VerificationChange{App: app, ProofContentID: proofContentID})
	s.log.Infof("app %d developer-verified", appID)
	return app, nil
}

// ConfirmScam marks an app as a confirmed scam. Administrative and, for
// practical purposes, terminal.
func (s *Service) ConfirmScam(ctx context.Context, caller string, appID uint64) (miniapp.MiniApp, error) {
	if err := s.ensureRunning(ctx); err != nil {
		return miniapp.MiniApp{}, err
	}
	if err := s.ensureAdmin(caller); err != nil {
		return miniapp.MiniApp{}, err
	}

	app, err := s.apps.ConfirmScam(ctx, appID, s.now())
	if err != nil {
		return miniapp.MiniApp{}, err
	}

	s.bus.Publish(ctx, events.TopicScamConfirmed, app)
	s.log.Warnf("app %d confirmed as scam", appID)
	return app, nil
}

// SetOfficial elevates an app to the Official tier.
func (s *Service) SetOfficial(ctx context.Context, caller string, appID uint64) (miniapp.MiniApp, error) {
	return s.setVerification(ctx, caller, appID, miniapp.Official)
}

// SetCommunityVerified applies the community attestation tier on behalf of
// community governance.
func (s *Service) SetCommunityVerified(ctx context.Context, caller string, appID uint64) (miniapp.MiniApp, error) {
	return s.setVerification(ctx, caller, appID, miniapp.CommunityVerified)
}

func (s *Service) setVerification(ctx context.Context, caller string, appID uint64, status miniapp.VerificationStatus) (miniapp.MiniApp, error) {
	if err := s.ensureRunning(ctx); err != nil {
		return miniapp.MiniApp{}, err
	}
	if err := s.ensureAdmin(caller); err != nil {
		return miniapp.MiniApp{}, err
	}

	app, err := s.apps.SetVerification(ctx, appID, status, s.now())
	if err != nil {
		return miniapp.MiniApp{}, err
	}

	s.bus.Publish(ctx, events.TopicAppVerificationChanged, events.VerificationChange{App: app})
	s.log.Infof("app %d verification set to %s", appID, status)
	return app, nil
}

// Unflag reverses an automatic FlaggedSuspicious transition.
func (s *Service) Unflag(ctx context.Context, caller string, appID uint64) (miniapp.MiniApp, error) {
	if err := s.ensureRunning(ctx); err != nil {
		return miniapp.MiniApp{}, err
	}
	if err := s.ensureAdmin(caller); err != nil {
		return miniapp.MiniApp{}, err
	}

	app, err := s.apps.UnflagApp(ctx, appID, s.now())
	if err != nil {
		return miniapp.MiniApp{}, err
	}

	s.bus.Publish(ctx, events.TopicAppVerificationChanged, events.VerificationChange{App: app})
	s.log.Infof("app %d unflagged, restored to %s", appID, app.VerificationStatus)
	return app, nil
}
