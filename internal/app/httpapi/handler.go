// Package httpapi exposes the ledger over a JSON REST API.
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	app "github.com/xam-dev-ux/BaseReview/internal/app"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/miniapp"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/params"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/reputation"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/review"
	"github.com/xam-dev-ux/BaseReview/internal/app/metrics"
	reviewsvc "github.com/xam-dev-ux/BaseReview/internal/app/services/reviews"
	lederr "github.com/xam-dev-ux/BaseReview/internal/errors"
)

// Options configures the cross-cutting HTTP middleware.
type Options struct {
	Auth      *AuthMiddleware
	RateLimit *RateLimiter
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a router exposing the REST API.
func NewHandler(application *app.Application, opts Options) http.Handler {
	h := &handler{app: application}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.InstrumentHandler)
	if opts.Auth != nil {
		r.Use(opts.Auth.Handler)
	}
	if opts.RateLimit != nil {
		r.Use(opts.RateLimit.Handler)
	}

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/apps", func(r chi.Router) {
		r.Post("/", h.registerApp)
		r.Get("/", h.listApps)
		r.Route("/{appID}", func(r chi.Router) {
			r.Get("/", h.getApp)
			r.Patch("/", h.updateApp)
			r.Get("/reviews", h.listAppReviews)
			r.Post("/reviews", h.leaveReview)
			r.Post("/verify", h.verifyApp)
			r.Post("/verification", h.setVerification)
			r.Post("/unflag", h.unflagApp)
			r.Post("/confirm-scam", h.confirmScam)
		})
	})

	r.Route("/reviews", func(r chi.Router) {
		r.Get("/{reviewID}", h.getReview)
		r.Patch("/{reviewID}", h.editReview)
		r.Delete("/{reviewID}", h.deleteReview)
		r.Post("/{reviewID}/vote", h.voteHelpful)
		r.Post("/{reviewID}/response", h.respondToReview)
		r.Post("/{reviewID}/dispute", h.openDispute)
	})

	r.Route("/disputes", func(r chi.Router) {
		r.Get("/{disputeID}", h.getDispute)
		r.Post("/{disputeID}/resolve", h.resolveDispute)
	})

	r.Get("/reputation/{identity}", h.getReputation)
	r.Get("/stats", h.stats)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/config", h.getConfig)
		r.Put("/config", h.updateConfig)
		r.Post("/pause", h.pause)
		r.Post("/unpause", h.unpause)
		r.Get("/escrows", h.listEscrows)
		r.Get("/treasury", h.treasury)
	})

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	paused, err := h.app.Admin.Paused(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "paused": paused})
}

func pathID(r *http.Request, name string) (uint64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, lederr.InvalidInput("invalid %s %q", name, raw)
	}
	return id, nil
}

func pagination(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}

// --- apps ---

func (h *handler) registerApp(w http.ResponseWriter, r *http.Request) {
	developer, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var payload struct {
		Name              string   `json:"name"`
		URL               string   `json:"url"`
		Category          uint8    `json:"category"`
		ContractAddresses []string `json:"contractAddresses"`
		MetadataContentID string   `json:"metadataContentId"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}

	created, err := h.app.Registry.Register(r.Context(), developer, payload.Name, payload.URL, miniapp.Category(payload.Category), payload.ContractAddresses, payload.MetadataContentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listApps(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	apps, err := h.app.Registry.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *handler) getApp(w http.ResponseWriter, r *http.Request) {
	appID, err := pathID(r, "appID")
	if err != nil {
		writeError(w, err)
		return
	}
	a, err := h.app.Registry.Get(r.Context(), appID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handler) updateApp(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	appID, err := pathID(r, "appID")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		MetadataContentID string   `json:"metadataContentId"`
		ContractAddresses []string `json:"contractAddresses"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}

	updated, err := h.app.Registry.Update(r.Context(), caller, appID, payload.MetadataContentID, payload.ContractAddresses)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) verifyApp(w http.ResponseWriter, r *http.Request) {
	developer, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	appID, err := pathID(r, "appID")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		ProofContentID string `json:"proofContentId"`
		Stake          int64  `json:"stake"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}

	a, err := h.app.Disputes.VerifyApp(r.Context(), developer, appID, payload.ProofContentID, payload.Stake)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handler) setVerification(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	appID, err := pathID(r, "appID")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}

	var a miniapp.MiniApp
	switch payload.Status {
	case "official":
		a, err = h.app.Disputes.SetOfficial(r.Context(), caller, appID)
	case "community_verified":
		a, err = h.app.Disputes.SetCommunityVerified(r.Context(), caller, appID)
	default:
		writeBadRequest(w, "unsupported verification status %q", payload.Status)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handler) unflagApp(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	appID, err := pathID(r, "appID")
	if err != nil {
		writeError(w, err)
		return
	}
	a, err := h.app.Disputes.Unflag(r.Context(), caller, appID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *handler) confirmScam(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	appID, err := pathID(r, "appID")
	if err != nil {
		writeError(w, err)
		return
	}
	a, err := h.app.Disputes.ConfirmScam(r.Context(), caller, appID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// --- reviews ---

func (h *handler) leaveReview(w http.ResponseWriter, r *http.Request) {
	reviewer, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	appID, err := pathID(r, "appID")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Rating             uint8    `json:"rating"`
		ReviewType         uint8    `json:"reviewType"`
		Tags               []uint8  `json:"tags"`
		ReviewContentID    string   `json:"reviewContentId"`
		ProofContentID     string   `json:"proofContentId"`
		EvidenceReferences []string `json:"evidenceReferences"`
		Stake              int64    `json:"stake"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}

	created, err := h.app.Reviews.Leave(r.Context(), reviewer, reviewsvc.LeaveInput{
		AppID:              appID,
		Rating:             payload.Rating,
		ReviewType:         review.Type(payload.ReviewType),
		Tags:               payload.Tags,
		ReviewContentID:    payload.ReviewContentID,
		ProofContentID:     payload.ProofContentID,
		EvidenceReferences: payload.EvidenceReferences,
		Stake:              payload.Stake,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) listAppReviews(w http.ResponseWriter, r *http.Request) {
	appID, err := pathID(r, "appID")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, limit := pagination(r)
	reviews, err := h.app.Reviews.ListForApp(r.Context(), appID, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *handler) getReview(w http.ResponseWriter, r *http.Request) {
	reviewID, err := pathID(r, "reviewID")
	if err != nil {
		writeError(w, err)
		return
	}
	rev, err := h.app.Reviews.Get(r.Context(), reviewID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *handler) editReview(w http.ResponseWriter, r *http.Request) {
	editor, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	reviewID, err := pathID(r, "reviewID")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Rating          uint8  `json:"rating"`
		ReviewContentID string `json:"reviewContentId"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}

	rev, err := h.app.Reviews.Edit(r.Context(), editor, reviewID, payload.Rating, payload.ReviewContentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *handler) deleteReview(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	reviewID, err := pathID(r, "reviewID")
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.app.Reviews.Delete(r.Context(), caller, reviewID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) voteHelpful(w http.ResponseWriter, r *http.Request) {
	voter, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	reviewID, err := pathID(r, "reviewID")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		IsHelpful bool `json:"isHelpful"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}

	rev, err := h.app.Voting.VoteHelpful(r.Context(), voter, reviewID, payload.IsHelpful)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *handler) respondToReview(w http.ResponseWriter, r *http.Request) {
	developer, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	reviewID, err := pathID(r, "reviewID")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		ResponseContentID string `json:"responseContentId"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}

	rev, err := h.app.Reviews.Respond(r.Context(), developer, reviewID, payload.ResponseContentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

// --- disputes ---

func (h *handler) openDispute(w http.ResponseWriter, r *http.Request) {
	developer, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	reviewID, err := pathID(r, "reviewID")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		EvidenceContentID  string   `json:"evidenceContentId"`
		EvidenceReferences []string `json:"evidenceReferences"`
		Bond               int64    `json:"bond"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}

	d, err := h.app.Disputes.Dispute(r.Context(), developer, reviewID, payload.EvidenceContentID, payload.EvidenceReferences, payload.Bond)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *handler) getDispute(w http.ResponseWriter, r *http.Request) {
	disputeID, err := pathID(r, "disputeID")
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := h.app.Disputes.GetDispute(r.Context(), disputeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handler) resolveDispute(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	disputeID, err := pathID(r, "disputeID")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload struct {
		Upheld bool `json:"upheld"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}

	d, err := h.app.Disputes.Resolve(r.Context(), caller, disputeID, payload.Upheld)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// --- reputation and stats ---

func (h *handler) getReputation(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if identity == "" {
		writeBadRequest(w, "identity is required")
		return
	}

	score, err := h.app.Reputation.Score(r.Context(), identity)
	if err != nil {
		writeError(w, err)
		return
	}

	tier := reputation.TierFor(score)
	weightTenths := reputation.WeightTenths(score)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"identity":     identity,
		"score":        score,
		"tier":         tier.String(),
		"voteWeight":   reputation.ApplyWeight(weightTenths),
		"weightTenths": weightTenths,
	})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	totalApps, err := h.app.Registry.Total(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	totalReviews, err := h.app.Reviews.Total(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{
		"totalApps":    totalApps,
		"totalReviews": totalReviews,
	})
}

// --- admin ---

func (h *handler) getConfig(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Admin.Config(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var payload params.Params
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}

	updated, err := h.app.Admin.UpdateConfig(r.Context(), caller, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) pause(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if err := h.app.Admin.Pause(r.Context(), caller); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) unpause(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if err := h.app.Admin.Unpause(r.Context(), caller); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) listEscrows(w http.ResponseWriter, r *http.Request) {
	party := r.URL.Query().Get("party")
	if party == "" {
		writeBadRequest(w, "party is required")
		return
	}
	entries, err := h.app.Admin.EscrowsForParty(r.Context(), party)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) treasury(w http.ResponseWriter, r *http.Request) {
	balance, err := h.app.Admin.TreasuryBalance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"treasuryBalance": balance})
}
