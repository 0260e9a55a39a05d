package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xam-dev-ux/BaseReview/internal/app/domain/escrow"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/miniapp"
	lederr "github.com/xam-dev-ux/BaseReview/internal/errors"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func TestCreateAppAssignsID(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO apps`).
		WithArgs("Wallet", "https://wallet.example", miniapp.CategoryDeFi, "dev1",
			[]byte(`["0xabc"]`), miniapp.Unverified, now, "meta-1",
			miniapp.StatusActive, now).
		WillReturnRows(sqlmock.NewRows([]string{"app_id"}).AddRow(1))

	app, err := store.CreateApp(context.Background(), miniapp.MiniApp{
		Name:              "Wallet",
		URL:               "https://wallet.example",
		Category:          miniapp.CategoryDeFi,
		Developer:         "dev1",
		ContractAddresses: []string{"0xabc"},
		MetadataContentID: "meta-1",
		RegistrationDate:  now,
		UpdatedAt:         now,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), app.AppID)
	assert.Equal(t, miniapp.Unverified, app.VerificationStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAppDuplicateName(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO apps`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "apps_name_key"})

	_, err := store.CreateApp(context.Background(), miniapp.MiniApp{
		Name: "Wallet", URL: "https://wallet.example",
	})
	assert.ErrorIs(t, err, lederr.ErrDuplicateName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAppNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM apps WHERE app_id`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"app_id"}))

	_, err := store.GetApp(context.Background(), 42)
	assert.ErrorIs(t, err, lederr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetParamsConvertsDurations(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT min_review_stake`).
		WillReturnRows(sqlmock.NewRows([]string{
			"min_review_stake", "review_edit_window_ns", "dispute_period_ns",
			"scam_report_threshold", "verification_stake", "dispute_bond",
			"max_reviews_per_day",
		}).AddRow(100000, int64(24*time.Hour), int64(7*24*time.Hour), 5, 50000000, 10000000, 5))

	p, err := store.GetParams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, p.ReviewEditWindow)
	assert.Equal(t, 7*24*time.Hour, p.DisputePeriod)
	assert.Equal(t, uint64(5), p.ScamReportThreshold)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPaused(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE ledger_params SET paused`).
		WithArgs(true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SetPaused(context.Background(), true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTreasuryBalanceSumsForfeits(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM escrows`).
		WithArgs(escrow.StatusForfeited).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(150000))

	total, err := store.TreasuryBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(150000), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyAppRejectsWrongDeveloper(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM apps WHERE app_id .* FOR UPDATE`).
		WithArgs(uint64(1)).
		WillReturnRows(appRows(1, "Wallet", "dev1", now))
	mock.ExpectRollback()

	_, err := store.VerifyApp(context.Background(), 1, "intruder", 50000000, now)
	assert.ErrorIs(t, err, lederr.ErrNotAuthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func appRows(appID uint64, name, developer string, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"app_id", "name", "url", "category", "developer", "contract_addresses",
		"verification_status", "prev_verification", "registration_date",
		"total_reviews", "rating_sum", "average_rating", "scam_reports_count",
		"metadata_content_id", "status", "developer_stake", "updated_at",
	}).AddRow(appID, name, "https://"+name+".example", 0, developer, []byte(`[]`),
		0, 0, now, 0, 0, 0, 0, "", 0, 0, now)
}

func TestExpireDisputesNoneOpen(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM disputes`).
		WillReturnRows(sqlmock.NewRows([]string{"dispute_id"}))
	mock.ExpectCommit()

	expired, err := store.ExpireDisputes(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, expired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	sentinel := errors.New("boom")
	err := store.withTx(context.Background(), func(tx *sqlx.Tx) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
	assert.NoError(t, mock.ExpectationsWereMet())
}
