package importer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/parites/ratesd"
	"github.com/parites/ratesd/importer"
	"github.com/parites/ratesd/storage"
)

type fakeSource struct {
	quote      ratesd.Quote
	timeseries map[string]decimal.Decimal
	err        error
	calls      int
}

func (f *fakeSource) Latest(ctx context.Context, base, target, asOf string) (ratesd.Quote, error) {
	f.calls++
	return f.quote, f.err
}

func (f *fakeSource) Timeseries(ctx context.Context, base, target, start, end string) (map[string]decimal.Decimal, error) {
	f.calls++
	return f.timeseries, f.err
}

func (f *fakeSource) Symbols(ctx context.Context) (map[string]string, error) {
	f.calls++
	return nil, f.err
}

func newStore(t *testing.T) (*storage.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.Nil(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return storage.New(db), mock
}

func expectSchema(mock sqlmock.Sqlmock) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS currencies").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS daily_rates").WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectProvision(mock sqlmock.Sqlmock, code, iso string) {
	mock.ExpectExec("INSERT IGNORE INTO currencies").
		WithArgs(code, iso, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT code FROM currencies").
		WithArgs(code).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow(code))
}

func TestImportDay(t *testing.T) {
	t.Parallel()
	asserts := require.New(t)

	st, mock := newStore(t)
	source := &fakeSource{quote: ratesd.Quote{Day: "2024-01-02", Rate: decimal.RequireFromString("1.105")}}
	engine := importer.Engine{Base: "EUR", Source: source}

	expectSchema(mock)
	mock.ExpectBegin()
	expectProvision(mock, "$", "USD")
	prepared := mock.ExpectPrepare("INSERT INTO daily_rates")
	prepared.ExpectExec().
		WithArgs("$", "2024-01-02", "1.10500000", "0.90497738").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := engine.ImportDay(context.Background(), st, "usd", "2024-01-02")

	asserts.Nil(err)
	asserts.Equal("EUR", result.Base)
	asserts.Equal("USD", result.Target)
	asserts.Equal("$", result.Code)
	asserts.Equal(1, result.RowsWritten)
	asserts.Nil(mock.ExpectationsWereMet())
}

func TestImportDay_ZeroRateIsFatal(t *testing.T) {
	t.Parallel()
	asserts := require.New(t)

	st, mock := newStore(t)
	source := &fakeSource{quote: ratesd.Quote{Day: "2024-01-02", Rate: decimal.Zero}}
	engine := importer.Engine{Base: "EUR", Source: source}

	expectSchema(mock)

	_, err := engine.ImportDay(context.Background(), st, "USD", "")

	asserts.NotNil(err)
	asserts.True(errors.Is(err, ratesd.ErrZeroRate))
	// no transaction was opened, zero rows written
	asserts.Nil(mock.ExpectationsWereMet())
}

func TestImportDay_InvalidTarget(t *testing.T) {
	t.Parallel()
	asserts := require.New(t)

	st, mock := newStore(t)
	source := &fakeSource{}
	engine := importer.Engine{Base: "EUR", Source: source}

	_, err := engine.ImportDay(context.Background(), st, "US", "")
	asserts.True(errors.Is(err, ratesd.ErrInvalidISO))

	_, err = engine.ImportDay(context.Background(), st, "XXX", "")
	asserts.True(errors.Is(err, ratesd.ErrUnsupported))

	_, err = engine.ImportDay(context.Background(), st, "USD", "not-a-date")
	asserts.True(errors.Is(err, ratesd.ErrInvalidDate))

	asserts.Zero(source.calls)
	asserts.Nil(mock.ExpectationsWereMet())
}

func TestImportDay_UpstreamErrorAbortsBeforeTransaction(t *testing.T) {
	t.Parallel()
	asserts := require.New(t)

	st, mock := newStore(t)
	source := &fakeSource{err: ratesd.ErrUpstream}
	engine := importer.Engine{Base: "EUR", Source: source}

	expectSchema(mock)

	_, err := engine.ImportDay(context.Background(), st, "USD", "")

	asserts.True(errors.Is(err, ratesd.ErrUpstream))
	asserts.Nil(mock.ExpectationsWereMet())
}

func TestImportRange(t *testing.T) {
	t.Parallel()
	asserts := require.New(t)

	st, mock := newStore(t)
	source := &fakeSource{timeseries: map[string]decimal.Decimal{
		"2024-01-03": decimal.RequireFromString("0.8642"),
		"2024-01-01": decimal.RequireFromString("0.8675"),
		"2024-01-02": decimal.Zero,
	}}
	engine := importer.Engine{Base: "EUR", Source: source}

	expectSchema(mock)
	mock.ExpectBegin()
	expectProvision(mock, "L", "GBP")
	prepared := mock.ExpectPrepare("INSERT INTO daily_rates")
	prepared.ExpectExec().
		WithArgs("L", "2024-01-01", "0.86750000", "1.15273775").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prepared.ExpectExec().
		WithArgs("L", "2024-01-03", "0.86420000", "1.15713955").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := engine.ImportRange(context.Background(), st, "GBP", "2024-01-01", "2024-01-03")

	asserts.Nil(err)
	asserts.Equal(2, result.RowsWritten)
	asserts.Equal("2024-01-01", result.From)
	asserts.Equal("2024-01-03", result.To)
	asserts.Equal("L", result.Code)
	asserts.Nil(mock.ExpectationsWereMet())
}

func TestImportRange_InvalidRange(t *testing.T) {
	t.Parallel()
	asserts := require.New(t)

	st, mock := newStore(t)
	source := &fakeSource{}
	engine := importer.Engine{Base: "EUR", Source: source}

	_, err := engine.ImportRange(context.Background(), st, "USD", "2024-01-03", "2024-01-01")

	asserts.NotNil(err)
	asserts.True(errors.Is(err, ratesd.ErrInvalidRange))
	// neither the source nor the database was touched
	asserts.Zero(source.calls)
	asserts.Nil(mock.ExpectationsWereMet())
}

func TestImportRange_StorageErrorRollsBack(t *testing.T) {
	t.Parallel()
	asserts := require.New(t)

	st, mock := newStore(t)
	source := &fakeSource{timeseries: map[string]decimal.Decimal{
		"2024-01-01": decimal.RequireFromString("0.8675"),
	}}
	engine := importer.Engine{Base: "EUR", Source: source}

	expectSchema(mock)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT IGNORE INTO currencies").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := engine.ImportRange(context.Background(), st, "GBP", "2024-01-01", "2024-01-01")

	asserts.NotNil(err)
	asserts.True(errors.Is(err, ratesd.ErrStorage))
	asserts.Nil(mock.ExpectationsWereMet())
}

func TestInverseRoundTrip(t *testing.T) {
	t.Parallel()
	asserts := require.New(t)

	st, mock := newStore(t)

	for _, raw := range []string{"1.105", "0.8675", "146.2901", "0.00091234", "3.14159265"} {
		rate := decimal.RequireFromString(raw)
		source := &fakeSource{quote: ratesd.Quote{Day: "2024-01-02", Rate: rate}}
		engine := importer.Engine{Base: "EUR", Source: source}

		expectSchema(mock)
		mock.ExpectBegin()
		expectProvision(mock, "$", "USD")
		prepared := mock.ExpectPrepare("INSERT INTO daily_rates")
		prepared.ExpectExec().
			WithArgs("$", "2024-01-02", rate.StringFixed(8), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err := engine.ImportDay(context.Background(), st, "USD", "2024-01-02")
		asserts.Nil(err)

		// rate * inverse must land within 8-decimal rounding tolerance of 1
		inverse := decimal.New(1, 0).DivRound(rate, 8)
		product := rate.Mul(inverse)
		diff := product.Sub(decimal.New(1, 0)).Abs()
		tolerance := rate.Mul(decimal.New(1, -8))
		asserts.Truef(diff.LessThanOrEqual(tolerance), "rate %s: product %s off by %s", raw, product, diff)
	}

	asserts.Nil(mock.ExpectationsWereMet())
}
