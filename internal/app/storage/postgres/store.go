// Package postgres implements the storage interfaces backed by PostgreSQL.
// Every compound transition runs in a serializable transaction, so the same
// total ordering the in-memory store gets from its single lock holds here.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/xam-dev-ux/BaseReview/internal/app/domain/dispute"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/escrow"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/miniapp"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/params"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/reputation"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/review"
	"github.com/xam-dev-ux/BaseReview/internal/app/storage"
	lederr "github.com/xam-dev-ux/BaseReview/internal/errors"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.AppStore = (*Store)(nil)
var _ storage.ReviewStore = (*Store)(nil)
var _ storage.VoteStore = (*Store)(nil)
var _ storage.DisputeStore = (*Store)(nil)
var _ storage.EscrowStore = (*Store)(nil)
var _ storage.ParamsStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string, maxOpen, maxIdle int, connMaxLifetime time.Duration) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)
	return db, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// mapUniqueViolation converts Postgres unique violations into taxonomy errors
// keyed by the violated constraint.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	switch pqErr.Constraint {
	case "apps_name_key":
		return lederr.ErrDuplicateName
	case "apps_url_key":
		return lederr.ErrDuplicateURL
	case "idx_reviews_live":
		return lederr.ErrDuplicateReview
	case "votes_pkey":
		return lederr.ErrDuplicateVote
	default:
		return err
	}
}

// --- row types --------------------------------------------------------------

type appRow struct {
	miniapp.MiniApp
	ContractAddressesRaw []byte `db:"contract_addresses"`
}

func (r appRow) toDomain() miniapp.MiniApp {
	app := r.MiniApp
	if len(r.ContractAddressesRaw) > 0 {
		_ = json.Unmarshal(r.ContractAddressesRaw, &app.ContractAddresses)
	}
	return app
}

type reviewRow struct {
	review.Review
	TagsRaw     []byte `db:"tags"`
	EvidenceRaw []byte `db:"evidence_references"`
}

func (r reviewRow) toDomain() review.Review {
	rev := r.Review
	if len(r.TagsRaw) > 0 {
		_ = json.Unmarshal(r.TagsRaw, &rev.Tags)
	}
	if len(r.EvidenceRaw) > 0 {
		_ = json.Unmarshal(r.EvidenceRaw, &rev.EvidenceReferences)
	}
	return rev
}

const appColumns = `app_id, name, url, category, developer, contract_addresses,
	verification_status, prev_verification, registration_date, total_reviews,
	rating_sum, average_rating, scam_reports_count, metadata_content_id,
	status, developer_stake, updated_at`

const reviewColumns = `review_id, app_id, reviewer, rating, review_type, tags,
	review_content_id, proof_content_id, evidence_references, created_at,
	last_edited, helpful_score, reviewer_reputation, developer_response,
	stake, status`

type disputeRow struct {
	dispute.Dispute
	EvidenceRaw []byte `db:"evidence_references"`
}

func (r disputeRow) toDomain() dispute.Dispute {
	d := r.Dispute
	if len(r.EvidenceRaw) > 0 {
		_ = json.Unmarshal(r.EvidenceRaw, &d.EvidenceReferences)
	}
	return d
}

const disputeColumns = `dispute_id, review_id, app_id, disputer,
	evidence_content_id, evidence_references, bond, opened_at, deadline,
	resolved_at, status`

func getApp(ctx context.Context, q sqlx.QueryerContext, appID uint64, forUpdate bool) (miniapp.MiniApp, error) {
	query := `SELECT ` + appColumns + ` FROM apps WHERE app_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var row appRow
	if err := sqlx.GetContext(ctx, q, &row, query, appID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return miniapp.MiniApp{}, lederr.NotFound("app %d not found", appID)
		}
		return miniapp.MiniApp{}, err
	}
	return row.toDomain(), nil
}

func getReview(ctx context.Context, q sqlx.QueryerContext, reviewID uint64, forUpdate bool) (review.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE review_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var row reviewRow
	if err := sqlx.GetContext(ctx, q, &row, query, reviewID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return review.Review{}, lederr.NotFound("review %d not found", reviewID)
		}
		return review.Review{}, err
	}
	return row.toDomain(), nil
}

func saveApp(ctx context.Context, tx *sqlx.Tx, app miniapp.MiniApp) error {
	addresses, err := json.Marshal(app.ContractAddresses)
	if err != nil {
		return err
	}
	if app.ContractAddresses == nil {
		addresses = []byte("[]")
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE apps
		SET contract_addresses = $2, verification_status = $3,
			prev_verification = $4, total_reviews = $5, rating_sum = $6,
			average_rating = $7, scam_reports_count = $8,
			metadata_content_id = $9, status = $10, developer_stake = $11,
			updated_at = $12
		WHERE app_id = $1
	`, app.AppID, addresses, app.VerificationStatus, app.PrevVerification,
		app.TotalReviews, app.RatingSum, app.AverageRating, app.ScamReportsCount,
		app.MetadataContentID, app.Status, app.DeveloperStake, app.UpdatedAt)
	return err
}

// --- escrow helpers ---------------------------------------------------------

func holdEscrow(ctx context.Context, tx *sqlx.Tx, kind escrow.Kind, party string, amount int64, refID uint64, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO escrows (id, kind, party, amount, ref_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.NewString(), kind, party, amount, refID, escrow.StatusHeld, now)
	return err
}

// resolveEscrow settles the held entry for (kind, refID). Settling an
// already-settled or missing entry is a no-op so transitions stay idempotent
// with respect to escrow.
func resolveEscrow(ctx context.Context, tx *sqlx.Tx, kind escrow.Kind, refID uint64, status escrow.Status, recipient string, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE escrows
		SET status = $3, recipient = $4, resolved_at = $5
		WHERE kind = $1 AND ref_id = $2 AND status = $6
	`, kind, refID, status, recipient, now, escrow.StatusHeld)
	return err
}

// --- AppStore ---------------------------------------------------------------

func (s *Store) CreateApp(ctx context.Context, app miniapp.MiniApp) (miniapp.MiniApp, error) {
	addresses, err := json.Marshal(app.ContractAddresses)
	if err != nil {
		return miniapp.MiniApp{}, err
	}
	if app.ContractAddresses == nil {
		addresses = []byte("[]")
	}

	app.VerificationStatus = miniapp.Unverified
	app.Status = miniapp.StatusActive

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO apps (name, url, category, developer, contract_addresses,
			verification_status, registration_date, metadata_content_id,
			status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING app_id
	`, app.Name, app.URL, app.Category, app.Developer, addresses,
		app.VerificationStatus, app.RegistrationDate, app.MetadataContentID,
		app.Status, app.UpdatedAt).Scan(&app.AppID)
	if err != nil {
		return miniapp.MiniApp{}, mapUniqueViolation(err)
	}
	return app, nil
}

func (s *Store) UpdateAppMetadata(ctx context.Context, appID uint64, metadataContentID string, contractAddresses []string, now time.Time) (miniapp.MiniApp, error) {
	var updated miniapp.MiniApp
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		app, err := getApp(ctx, tx, appID, true)
		if err != nil {
			return err
		}
		app.MetadataContentID = metadataContentID
		app.ContractAddresses = contractAddresses
		app.UpdatedAt = now
		if err := saveApp(ctx, tx, app); err != nil {
			return err
		}
		updated = app
		return nil
	})
	return updated, err
}

func (s *Store) GetApp(ctx context.Context, appID uint64) (miniapp.MiniApp, error) {
	return getApp(ctx, s.db, appID, false)
}

func (s *Store) ListApps(ctx context.Context, offset, limit int) ([]miniapp.MiniApp, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 50
	}

	var rows []appRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+appColumns+` FROM apps ORDER BY app_id OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, err
	}

	apps := make([]miniapp.MiniApp, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, row.toDomain())
	}
	return apps, nil
}

func (s *Store) CountApps(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM apps`)
	return n, err
}

func (s *Store) VerifyApp(ctx context.Context, appID uint64, developer string, stake int64, now time.Time) (miniapp.MiniApp, error) {
	var updated miniapp.MiniApp
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		app, err := getApp(ctx, tx, appID, true)
		if err != nil {
			return err
		}
		if app.Developer != developer {
			return lederr.NotAuthorized("only the app developer can request verification")
		}
		switch {
		case app.VerificationStatus == miniapp.ConfirmedScam:
			return lederr.InvalidState("app %d is a confirmed scam", appID)
		case app.VerificationStatus == miniapp.FlaggedSuspicious:
			// Only an administrative unflag clears the suspicion.
			return lederr.InvalidState("app %d is flagged pending administrative review", appID)
		case app.VerificationStatus == miniapp.DeveloperVerified || app.DeveloperStake > 0:
			return lederr.InvalidState("app %d already holds a verification stake", appID)
		}

		if err := holdEscrow(ctx, tx, escrow.KindVerificationStake, developer, stake, appID, now); err != nil {
			return err
		}
		app.DeveloperStake = stake
		app.VerificationStatus = miniapp.DeveloperVerified
		app.UpdatedAt = now
		if err := saveApp(ctx, tx, app); err != nil {
			return err
		}
		updated = app
		return nil
	})
	return updated, err
}

func (s *Store) SetVerification(ctx context.Context, appID uint64, status miniapp.VerificationStatus, now time.Time) (miniapp.MiniApp, error) {
	var updated miniapp.MiniApp
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		app, err := getApp(ctx, tx, appID, true)
		if err != nil {
			return err
		}
		if app.VerificationStatus == miniapp.ConfirmedScam {
			return lederr.InvalidState("app %d is a confirmed scam", appID)
		}

		app.VerificationStatus = status
		app.UpdatedAt = now
		if err := saveApp(ctx, tx, app); err != nil {
			return err
		}
		updated = app
		return nil
	})
	return updated, err
}

func (s *Store) UnflagApp(ctx context.Context, appID uint64, now time.Time) (miniapp.MiniApp, error) {
	var updated miniapp.MiniApp
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		app, err := getApp(ctx, tx, appID, true)
		if err != nil {
			return err
		}
		if app.VerificationStatus != miniapp.FlaggedSuspicious {
			return lederr.InvalidState("app %d is not flagged", appID)
		}

		app.VerificationStatus = app.PrevVerification
		app.PrevVerification = miniapp.Unverified
		app.UpdatedAt = now
		if err := saveApp(ctx, tx, app); err != nil {
			return err
		}
		updated = app
		return nil
	})
	return updated, err
}

func (s *Store) ConfirmScam(ctx context.Context, appID uint64, now time.Time) (miniapp.MiniApp, error) {
	var updated miniapp.MiniApp
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		app, err := getApp(ctx, tx, appID, true)
		if err != nil {
			return err
		}
		if app.VerificationStatus == miniapp.ConfirmedScam {
			return lederr.InvalidState("app %d is already a confirmed scam", appID)
		}

		app.VerificationStatus = miniapp.ConfirmedScam
		app.Status = miniapp.StatusSuspended
		if app.DeveloperStake > 0 {
			if err := resolveEscrow(ctx, tx, escrow.KindVerificationStake, appID, escrow.StatusForfeited, "", now); err != nil {
				return err
			}
			app.DeveloperStake = 0
		}
		app.UpdatedAt = now
		if err := saveApp(ctx, tx, app); err != nil {
			return err
		}
		updated = app
		return nil
	})
	return updated, err
}

// --- ReviewStore ------------------------------------------------------------

func (s *Store) SubmitReview(ctx context.Context, rev review.Review, pol storage.SubmitPolicy) (review.Review, miniapp.MiniApp, error) {
	var (
		storedRev review.Review
		storedApp miniapp.MiniApp
	)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		app, err := getApp(ctx, tx, rev.AppID, true)
		if err != nil {
			return err
		}
		if app.Status != miniapp.StatusActive {
			return lederr.InvalidState("app %d is not active", rev.AppID)
		}

		var liveCount int
		if err := tx.GetContext(ctx, &liveCount, `
			SELECT COUNT(*) FROM reviews
			WHERE app_id = $1 AND reviewer = $2 AND status IN (0, 1, 2)
		`, rev.AppID, rev.Reviewer); err != nil {
			return err
		}
		if liveCount > 0 {
			return lederr.ErrDuplicateReview
		}

		var windowCount uint64
		if err := tx.GetContext(ctx, &windowCount, `
			SELECT COUNT(*) FROM reviews
			WHERE reviewer = $1 AND created_at >= $2
		`, rev.Reviewer, pol.WindowStart); err != nil {
			return err
		}
		if windowCount >= pol.MaxPerWindow {
			return lederr.ErrRateLimited
		}

		tags, err := json.Marshal(rev.Tags)
		if err != nil {
			return err
		}
		if rev.Tags == nil {
			tags = []byte("[]")
		}
		evidence, err := json.Marshal(rev.EvidenceReferences)
		if err != nil {
			return err
		}
		if rev.EvidenceReferences == nil {
			evidence = []byte("[]")
		}

		rev.Status = review.StatusActive
		rev.HelpfulScore = 0
		err = tx.QueryRowContext(ctx, `
			INSERT INTO reviews (app_id, reviewer, rating, review_type, tags,
				review_content_id, proof_content_id, evidence_references,
				created_at, reviewer_reputation, stake, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING review_id
		`, rev.AppID, rev.Reviewer, rev.Rating, rev.ReviewType, tags,
			rev.ReviewContentID, rev.ProofContentID, evidence,
			rev.Timestamp, rev.ReviewerReputationAtTime, rev.Stake,
			rev.Status).Scan(&rev.ReviewID)
		if err != nil {
			return mapUniqueViolation(err)
		}

		if err := holdEscrow(ctx, tx, escrow.KindReviewStake, rev.Reviewer, rev.Stake, rev.ReviewID, rev.Timestamp); err != nil {
			return err
		}

		app.TotalReviews++
		app.RatingSum += uint64(rev.Rating)
		app.RecomputeAverage()
		if rev.ReviewType == review.TypeScamReport {
			app.ScamReportsCount++
			if app.ScamReportsCount >= pol.ScamThreshold &&
				app.VerificationStatus != miniapp.FlaggedSuspicious &&
				app.VerificationStatus != miniapp.ConfirmedScam {
				app.PrevVerification = app.VerificationStatus
				app.VerificationStatus = miniapp.FlaggedSuspicious
			}
		}
		app.UpdatedAt = rev.Timestamp
		if err := saveApp(ctx, tx, app); err != nil {
			return err
		}

		storedRev = rev
		storedApp = app
		return nil
	})
	return storedRev, storedApp, err
}

func (s *Store) EditReview(ctx context.Context, reviewID uint64, editor string, rating uint8, contentID string, window time.Duration, now time.Time) (review.Review, error) {
	var updated review.Review
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		rev, err := getReview(ctx, tx, reviewID, true)
		if err != nil {
			return err
		}
		if rev.Reviewer != editor {
			return lederr.NotAuthorized("only the reviewer can edit")
		}
		if rev.Status != review.StatusActive && rev.Status != review.StatusEdited {
			return lederr.InvalidState("review %d cannot be edited in its current state", reviewID)
		}
		if now.Sub(rev.Timestamp) >= window {
			return lederr.ErrEditWindowExpired
		}

		app, err := getApp(ctx, tx, rev.AppID, true)
		if err != nil {
			return err
		}
		app.RatingSum = app.RatingSum - uint64(rev.Rating) + uint64(rating)
		app.RecomputeAverage()
		app.UpdatedAt = now
		if err := saveApp(ctx, tx, app); err != nil {
			return err
		}

		rev.Rating = rating
		rev.ReviewContentID = contentID
		rev.Status = review.StatusEdited
		rev.LastEdited = now
		_, err = tx.ExecContext(ctx, `
			UPDATE reviews
			SET rating = $2, review_content_id = $3, status = $4, last_edited = $5
			WHERE review_id = $1
		`, reviewID, rev.Rating, rev.ReviewContentID, rev.Status, rev.LastEdited)
		if err != nil {
			return err
		}
		updated = rev
		return nil
	})
	return updated, err
}

func (s *Store) DeleteReview(ctx context.Context, reviewID uint64, caller string, now time.Time) (review.Review, error) {
	var removed review.Review
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		rev, err := getReview(ctx, tx, reviewID, true)
		if err != nil {
			return err
		}
		if rev.Reviewer != caller {
			return lederr.NotAuthorized("only the reviewer can delete")
		}
		if rev.Status != review.StatusActive && rev.Status != review.StatusEdited {
			return lederr.InvalidState("review %d cannot be deleted in its current state", reviewID)
		}

		if err := removeReview(ctx, tx, &rev, now); err != nil {
			return err
		}
		// Deleted stakes are forfeited, not refunded.
		if err := resolveEscrow(ctx, tx, escrow.KindReviewStake, reviewID, escrow.StatusForfeited, "", now); err != nil {
			return err
		}
		removed = rev
		return nil
	})
	return removed, err
}

// removeReview moves a live review to Removed and takes its rating out of the
// app aggregates.
func removeReview(ctx context.Context, tx *sqlx.Tx, rev *review.Review, now time.Time) error {
	app, err := getApp(ctx, tx, rev.AppID, true)
	if err != nil {
		return err
	}
	app.TotalReviews--
	app.RatingSum -= uint64(rev.Rating)
	app.RecomputeAverage()
	if rev.ReviewType == review.TypeScamReport && app.ScamReportsCount > 0 {
		app.ScamReportsCount--
	}
	app.UpdatedAt = now
	if err := saveApp(ctx, tx, app); err != nil {
		return err
	}

	rev.Status = review.StatusRemoved
	_, err = tx.ExecContext(ctx, `
		UPDATE reviews SET status = $2 WHERE review_id = $1
	`, rev.ReviewID, rev.Status)
	return err
}

func (s *Store) RespondToReview(ctx context.Context, reviewID uint64, developer string, responseContentID string) (review.Review, error) {
	var updated review.Review
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		rev, err := getReview(ctx, tx, reviewID, true)
		if err != nil {
			return err
		}
		app, err := getApp(ctx, tx, rev.AppID, false)
		if err != nil {
			return err
		}
		if app.Developer != developer {
			return lederr.NotAuthorized("only the app developer can respond")
		}
		if rev.DeveloperResponse != "" {
			return lederr.ErrAlreadyResponded
		}

		rev.DeveloperResponse = responseContentID
		_, err = tx.ExecContext(ctx, `
			UPDATE reviews SET developer_response = $2 WHERE review_id = $1
		`, reviewID, responseContentID)
		if err != nil {
			return err
		}
		updated = rev
		return nil
	})
	return updated, err
}

func (s *Store) GetReview(ctx context.Context, reviewID uint64) (review.Review, error) {
	return getReview(ctx, s.db, reviewID, false)
}

func (s *Store) ListReviewsForApp(ctx context.Context, appID uint64, offset, limit int) ([]review.Review, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 50
	}

	var rows []reviewRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE app_id = $1 ORDER BY review_id OFFSET $2 LIMIT $3
	`, appID, offset, limit)
	if err != nil {
		return nil, err
	}

	reviews := make([]review.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, row.toDomain())
	}
	return reviews, nil
}

func (s *Store) CountReviews(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM reviews`)
	return n, err
}

func (s *Store) CountReviewsSince(ctx context.Context, reviewer string, since time.Time) (uint64, error) {
	var n uint64
	err := s.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM reviews WHERE reviewer = $1 AND created_at >= $2
	`, reviewer, since)
	return n, err
}

func (s *Store) ReviewerHistory(ctx context.Context, reviewer string, now time.Time) (reputation.History, error) {
	var h reputation.History
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var stats struct {
			Live        uint64       `db:"live"`
			NetPositive uint64       `db:"net_positive"`
			First       sql.NullTime `db:"first"`
		}
		if err := tx.GetContext(ctx, &stats, `
			SELECT COUNT(*) AS live,
				COUNT(*) FILTER (WHERE helpful_score > 0) AS net_positive,
				MIN(created_at) AS first
			FROM reviews
			WHERE reviewer = $1 AND status IN (0, 1, 2)
		`, reviewer); err != nil {
			return err
		}

		h.LiveReviews = stats.Live
		h.NetPositive = stats.NetPositive
		if stats.First.Valid && now.After(stats.First.Time) {
			h.MonthsSinceFirst = uint64(now.Sub(stats.First.Time) / (30 * 24 * time.Hour))
		}

		return tx.GetContext(ctx, &h.DisputesLost, `
			SELECT COUNT(*)
			FROM disputes d
			JOIN reviews r ON r.review_id = d.review_id
			WHERE r.reviewer = $1 AND d.status = $2
		`, reviewer, dispute.StatusUpheld)
	})
	return h, err
}

// --- VoteStore --------------------------------------------------------------

func (s *Store) AddVote(ctx context.Context, vote review.Vote) (review.Review, error) {
	var updated review.Review
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		rev, err := getReview(ctx, tx, vote.ReviewID, true)
		if err != nil {
			return err
		}
		if rev.Reviewer == vote.Voter {
			return lederr.ErrSelfVote
		}
		if !rev.Status.Live() {
			return lederr.InvalidState("review %d is no longer live", vote.ReviewID)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO votes (review_id, voter, is_helpful, weight, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, vote.ReviewID, vote.Voter, vote.IsHelpful, vote.Weight, vote.CreatedAt)
		if err != nil {
			return mapUniqueViolation(err)
		}

		if vote.IsHelpful {
			rev.HelpfulScore += vote.Weight
		} else {
			rev.HelpfulScore -= vote.Weight
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE reviews SET helpful_score = $2 WHERE review_id = $1
		`, vote.ReviewID, rev.HelpfulScore)
		if err != nil {
			return err
		}
		updated = rev
		return nil
	})
	return updated, err
}

func (s *Store) GetVote(ctx context.Context, reviewID uint64, voter string) (review.Vote, error) {
	var vote review.Vote
	err := s.db.GetContext(ctx, &vote, `
		SELECT review_id, voter, is_helpful, weight, created_at
		FROM votes WHERE review_id = $1 AND voter = $2
	`, reviewID, voter)
	if errors.Is(err, sql.ErrNoRows) {
		return review.Vote{}, lederr.NotFound("vote not found")
	}
	return vote, err
}

// --- DisputeStore -----------------------------------------------------------

func (s *Store) OpenDispute(ctx context.Context, d dispute.Dispute) (dispute.Dispute, review.Review, error) {
	var (
		opened   dispute.Dispute
		disputed review.Review
	)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		rev, err := getReview(ctx, tx, d.ReviewID, true)
		if err != nil {
			return err
		}
		if rev.Status != review.StatusActive && rev.Status != review.StatusEdited {
			return lederr.InvalidState("review %d cannot be disputed in its current state", d.ReviewID)
		}
		app, err := getApp(ctx, tx, rev.AppID, false)
		if err != nil {
			return err
		}
		if app.Developer != d.Disputer {
			return lederr.NotAuthorized("only the app developer can dispute")
		}

		d.AppID = rev.AppID
		d.Status = dispute.StatusOpen
		evidence, err := json.Marshal(d.EvidenceReferences)
		if err != nil {
			return err
		}
		if d.EvidenceReferences == nil {
			evidence = []byte("[]")
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO disputes (review_id, app_id, disputer,
				evidence_content_id, evidence_references, bond, opened_at,
				deadline, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING dispute_id
		`, d.ReviewID, d.AppID, d.Disputer, d.EvidenceContentID, evidence,
			d.Bond, d.OpenedAt, d.Deadline, d.Status).Scan(&d.DisputeID)
		if err != nil {
			return mapUniqueViolation(err)
		}

		if err := holdEscrow(ctx, tx, escrow.KindDisputeBond, d.Disputer, d.Bond, d.DisputeID, d.OpenedAt); err != nil {
			return err
		}

		rev.Status = review.StatusDisputed
		_, err = tx.ExecContext(ctx, `
			UPDATE reviews SET status = $2 WHERE review_id = $1
		`, rev.ReviewID, rev.Status)
		if err != nil {
			return err
		}

		opened = d
		disputed = rev
		return nil
	})
	return opened, disputed, err
}

func (s *Store) ResolveDispute(ctx context.Context, disputeID uint64, upheld bool, now time.Time) (dispute.Dispute, review.Review, error) {
	var (
		resolved dispute.Dispute
		rev      review.Review
	)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var row disputeRow
		err := tx.GetContext(ctx, &row, `
			SELECT `+disputeColumns+` FROM disputes WHERE dispute_id = $1 FOR UPDATE
		`, disputeID)
		if errors.Is(err, sql.ErrNoRows) {
			return lederr.NotFound("dispute %d not found", disputeID)
		}
		if err != nil {
			return err
		}
		d := row.toDomain()
		if d.Status != dispute.StatusOpen {
			return lederr.InvalidState("dispute %d is already resolved", disputeID)
		}

		rev, err = getReview(ctx, tx, d.ReviewID, true)
		if err != nil {
			return err
		}

		if upheld {
			d.Status = dispute.StatusUpheld
			if err := removeReview(ctx, tx, &rev, now); err != nil {
				return err
			}
			if err := resolveEscrow(ctx, tx, escrow.KindReviewStake, rev.ReviewID, escrow.StatusForfeited, "", now); err != nil {
				return err
			}
			if err := resolveEscrow(ctx, tx, escrow.KindDisputeBond, d.DisputeID, escrow.StatusRefunded, d.Disputer, now); err != nil {
				return err
			}
		} else {
			d.Status = dispute.StatusRejected
			rev.Status = review.StatusActive
			if _, err := tx.ExecContext(ctx, `
				UPDATE reviews SET status = $2 WHERE review_id = $1
			`, rev.ReviewID, rev.Status); err != nil {
				return err
			}
			// Bond goes to the prevailing party, the reviewer.
			if err := resolveEscrow(ctx, tx, escrow.KindDisputeBond, d.DisputeID, escrow.StatusAwarded, rev.Reviewer, now); err != nil {
				return err
			}
		}
		d.ResolvedAt = now

		if _, err := tx.ExecContext(ctx, `
			UPDATE disputes SET status = $2, resolved_at = $3 WHERE dispute_id = $1
		`, d.DisputeID, d.Status, d.ResolvedAt); err != nil {
			return err
		}
		resolved = d
		return nil
	})
	return resolved, rev, err
}

func (s *Store) ExpireDisputes(ctx context.Context, now time.Time) ([]dispute.Dispute, error) {
	var expired []dispute.Dispute
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var open []disputeRow
		if err := tx.SelectContext(ctx, &open, `
			SELECT `+disputeColumns+` FROM disputes
			WHERE status = $1 AND deadline <= $2
			ORDER BY dispute_id
			FOR UPDATE
		`, dispute.StatusOpen, now); err != nil {
			return err
		}

		for _, row := range open {
			d := row.toDomain()
			if _, err := tx.ExecContext(ctx, `
				UPDATE reviews SET status = $2 WHERE review_id = $1
			`, d.ReviewID, review.StatusActive); err != nil {
				return err
			}

			// No ruling was made, so the bond simply goes back.
			if err := resolveEscrow(ctx, tx, escrow.KindDisputeBond, d.DisputeID, escrow.StatusRefunded, d.Disputer, now); err != nil {
				return err
			}

			d.Status = dispute.StatusExpired
			d.ResolvedAt = now
			if _, err := tx.ExecContext(ctx, `
				UPDATE disputes SET status = $2, resolved_at = $3 WHERE dispute_id = $1
			`, d.DisputeID, d.Status, d.ResolvedAt); err != nil {
				return err
			}
			expired = append(expired, d)
		}
		return nil
	})
	return expired, err
}

func (s *Store) GetDispute(ctx context.Context, disputeID uint64) (dispute.Dispute, error) {
	var row disputeRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+disputeColumns+` FROM disputes WHERE dispute_id = $1
	`, disputeID)
	if errors.Is(err, sql.ErrNoRows) {
		return dispute.Dispute{}, lederr.NotFound("dispute %d not found", disputeID)
	}
	return row.toDomain(), err
}

func (s *Store) GetOpenDisputeForReview(ctx context.Context, reviewID uint64) (dispute.Dispute, error) {
	var row disputeRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+disputeColumns+` FROM disputes
		WHERE review_id = $1 AND status = $2
	`, reviewID, dispute.StatusOpen)
	if errors.Is(err, sql.ErrNoRows) {
		return dispute.Dispute{}, lederr.NotFound("no open dispute for review %d", reviewID)
	}
	return row.toDomain(), err
}

// --- EscrowStore ------------------------------------------------------------

func (s *Store) ListEscrowsForParty(ctx context.Context, party string) ([]escrow.Entry, error) {
	var entries []escrow.Entry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, kind, party, amount, ref_id, status, recipient,
			created_at, resolved_at
		FROM escrows WHERE party = $1 ORDER BY created_at
	`, party)
	return entries, err
}

func (s *Store) TreasuryBalance(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(amount), 0) FROM escrows WHERE status = $1
	`, escrow.StatusForfeited)
	return total, err
}

// --- ParamsStore ------------------------------------------------------------

type paramsRow struct {
	MinReviewStake      int64 `db:"min_review_stake"`
	ReviewEditWindowNS  int64 `db:"review_edit_window_ns"`
	DisputePeriodNS     int64 `db:"dispute_period_ns"`
	ScamReportThreshold int64 `db:"scam_report_threshold"`
	VerificationStake   int64 `db:"verification_stake"`
	DisputeBond         int64 `db:"dispute_bond"`
	MaxReviewsPerDay    int64 `db:"max_reviews_per_day"`
}

func (s *Store) GetParams(ctx context.Context) (params.Params, error) {
	var row paramsRow
	err := s.db.GetContext(ctx, &row, `
		SELECT min_review_stake, review_edit_window_ns, dispute_period_ns,
			scam_report_threshold, verification_stake, dispute_bond,
			max_reviews_per_day
		FROM ledger_params WHERE id = 1
	`)
	if err != nil {
		return params.Params{}, err
	}
	return params.Params{
		MinReviewStake:      row.MinReviewStake,
		ReviewEditWindow:    time.Duration(row.ReviewEditWindowNS),
		DisputePeriod:       time.Duration(row.DisputePeriodNS),
		ScamReportThreshold: uint64(row.ScamReportThreshold),
		VerificationStake:   row.VerificationStake,
		DisputeBond:         row.DisputeBond,
		MaxReviewsPerDay:    uint64(row.MaxReviewsPerDay),
	}, nil
}

func (s *Store) UpdateParams(ctx context.Context, p params.Params) (params.Params, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE ledger_params
		SET min_review_stake = $1, review_edit_window_ns = $2,
			dispute_period_ns = $3, scam_report_threshold = $4,
			verification_stake = $5, dispute_bond = $6,
			max_reviews_per_day = $7
		WHERE id = 1
	`, p.MinReviewStake, int64(p.ReviewEditWindow), int64(p.DisputePeriod),
		p.ScamReportThreshold, p.VerificationStake, p.DisputeBond,
		p.MaxReviewsPerDay)
	return p, err
}

func (s *Store) Paused(ctx context.Context) (bool, error) {
	var paused bool
	err := s.db.GetContext(ctx, &paused, `SELECT paused FROM ledger_params WHERE id = 1`)
	return paused, err
}

func (s *Store) SetPaused(ctx context.Context, paused bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE ledger_params SET paused = $1 WHERE id = 1`, paused)
	return err
}
