package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"klinesync/internal/market"
	"klinesync/internal/store"
	sqlitestore "klinesync/internal/store/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingRecorder struct {
	results []RunResult
}

func (r *capturingRecorder) Record(ctx context.Context, res RunResult) error {
	r.results = append(r.results, res)
	return nil
}

func newTestStore(t *testing.T) (*sqlitestore.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "klinesync.db")
	st, err := sqlitestore.NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, path
}

func newTestEngine(t *testing.T, src PageSource, st store.SeriesStore, rec RunRecorder) *Engine {
	t.Helper()
	f := newTestFetcher(t, src)
	e, err := NewEngine(EngineConfig{Fetcher: f, Store: st, Recorder: rec})
	require.NoError(t, err)
	return e
}

func seedDays(t *testing.T, st store.SeriesStore, key market.SeriesKey, open float64, days ...int) {
	t.Helper()
	require.NoError(t, st.EnsureSeries(context.Background(), key))
	bars := make([]market.Candle, 0, len(days))
	for _, d := range days {
		bars = append(bars, market.Candle{OpenTime: day(d), Open: open, High: open, Low: open, Close: open, Volume: 1})
	}
	n, err := st.WriteCandles(context.Background(), key, bars)
	require.NoError(t, err)
	require.Equal(t, len(days), n)
}

func TestSyncPairFillsOnlyGaps(t *testing.T) {
	st, path := newTestStore(t)
	key := dailyKey(t, "BTCUSDT")
	seedDays(t, st, key, 111, 1, 3)

	src := &fakeSource{bars: dailyBars(1, 2, 3, 4)}
	e := newTestEngine(t, src, st, nil)

	res, err := e.SyncPair(context.Background(), key, mustRange(t, "2021-01-01", "2021-01-04"))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Fetched)
	assert.Equal(t, 2, res.Written)
	assert.Equal(t, 2, res.Dates)

	existing, err := st.ExistingOpenTimes(context.Background(), key, mustRange(t, "2021-01-01", "2021-01-04"))
	require.NoError(t, err)
	assert.Equal(t, []int64{day(1), day(2), day(3), day(4)}, existing)

	// 已存在的行未被改写
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	require.NoError(t, err)
	defer db.Close()
	var open float64
	require.NoError(t, db.QueryRow(`SELECT open FROM "BTCUSDT_1d" WHERE open_time = ?`, day(1)).Scan(&open))
	assert.Equal(t, 111.0, open)
	require.NoError(t, db.QueryRow(`SELECT open FROM "BTCUSDT_1d" WHERE open_time = ?`, day(2)).Scan(&open))
	assert.Equal(t, 2.0, open)
}

func TestSyncPairIsIdempotent(t *testing.T) {
	st, _ := newTestStore(t)
	key := dailyKey(t, "BTCUSDT")
	src := &fakeSource{bars: dailyBars(1, 2, 3)}
	e := newTestEngine(t, src, st, nil)
	rng := mustRange(t, "2021-01-01", "2021-01-03")

	res, err := e.SyncPair(context.Background(), key, rng)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Written)

	res, err = e.SyncPair(context.Background(), key, rng)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Fetched)
	assert.Equal(t, 0, res.Written)

	existing, err := st.ExistingOpenTimes(context.Background(), key, rng)
	require.NoError(t, err)
	assert.Len(t, existing, 3)
}

func TestSyncPairEmptyFetchLeavesStoreUntouched(t *testing.T) {
	st, _ := newTestStore(t)
	key := dailyKey(t, "BTCUSDT")
	e := newTestEngine(t, &fakeSource{}, st, nil)

	res, err := e.SyncPair(context.Background(), key, mustRange(t, "2021-01-01", "2021-01-05"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Fetched)
	assert.Equal(t, 0, res.Written)

	r, err := st.SeriesRange(context.Background(), key.TableName())
	require.NoError(t, err)
	assert.True(t, r.Empty())
}

func TestSyncPairSingleDayRange(t *testing.T) {
	st, _ := newTestStore(t)
	key := dailyKey(t, "BTCUSDT")
	seedDays(t, st, key, 5, 1)

	src := &fakeSource{bars: dailyBars(1)}
	e := newTestEngine(t, src, st, nil)

	res, err := e.SyncPair(context.Background(), key, mustRange(t, "2021-01-01", "2021-01-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Fetched)
	assert.Equal(t, 0, res.Written)
}

// failingWriteStore 包装真实存储，使指定日历日的批次写入失败。
type failingWriteStore struct {
	store.SeriesStore
	failDate string
}

func (s *failingWriteStore) WriteCandles(ctx context.Context, key market.SeriesKey, candles []market.Candle) (int, error) {
	if len(candles) > 0 && candles[0].Date() == s.failDate {
		return 0, fmt.Errorf("disk full")
	}
	return s.SeriesStore.WriteCandles(ctx, key, candles)
}

func TestSyncPairFailedDateDoesNotBlockOthers(t *testing.T) {
	st, _ := newTestStore(t)
	key := dailyKey(t, "BTCUSDT")
	flaky := &failingWriteStore{SeriesStore: st, failDate: "2021-01-02"}

	src := &fakeSource{bars: dailyBars(1, 2, 3)}
	e := newTestEngine(t, src, flaky, nil)

	res, err := e.SyncPair(context.Background(), key, mustRange(t, "2021-01-01", "2021-01-03"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2021-01-02")
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 3, res.Fetched)
	assert.Equal(t, 2, res.Written)
	assert.Equal(t, 2, res.Dates)

	existing, err := st.ExistingOpenTimes(context.Background(), key, mustRange(t, "2021-01-01", "2021-01-03"))
	require.NoError(t, err)
	assert.Equal(t, []int64{day(1), day(3)}, existing)
}

func TestSyncPairPropagatesSourceFailure(t *testing.T) {
	st, _ := newTestStore(t)
	key := dailyKey(t, "BTCUSDT")
	src := &fakeSource{bars: dailyBars(1, 2), failCalls: 100}
	e := newTestEngine(t, src, st, nil)

	_, err := e.SyncPair(context.Background(), key, mustRange(t, "2021-01-01", "2021-01-02"))
	require.Error(t, err)
	assert.True(t, market.IsSourceUnavailable(err))
}

func TestRunSyncsCrossProduct(t *testing.T) {
	st, _ := newTestStore(t)
	rec := &capturingRecorder{}
	src := &fakeSource{bars: dailyBars(1, 2, 3)}
	e := newTestEngine(t, src, st, rec)

	iv, err := market.ParseInterval("1d")
	require.NoError(t, err)
	err = e.Run(context.Background(), Params{
		Symbols:   []string{"BTCUSDT"},
		Intervals: []market.Interval{iv},
		Range:     mustRange(t, "2021-01-01", "2021-01-03"),
	})
	require.NoError(t, err)

	require.Len(t, rec.results, 1)
	assert.Equal(t, StatusDone, rec.results[0].Status)
	assert.Equal(t, 3, rec.results[0].Written)
	assert.NotEmpty(t, rec.results[0].RunID)

	existing, err := st.ExistingOpenTimes(context.Background(), dailyKey(t, "BTCUSDT"), mustRange(t, "2021-01-01", "2021-01-03"))
	require.NoError(t, err)
	assert.Len(t, existing, 3)
}

func TestRunContinuesPastFailedPair(t *testing.T) {
	st, _ := newTestStore(t)
	rec := &capturingRecorder{}
	src := &fakeSource{bars: dailyBars(1, 2), failSym: "BADUSDT"}
	e := newTestEngine(t, src, st, rec)

	iv, err := market.ParseInterval("1d")
	require.NoError(t, err)
	err = e.Run(context.Background(), Params{
		Symbols:   []string{"BADUSDT", "BTCUSDT"},
		Intervals: []market.Interval{iv},
		Range:     mustRange(t, "2021-01-01", "2021-01-02"),
	})
	require.NoError(t, err)

	require.Len(t, rec.results, 2)
	byStatus := map[string]int{}
	for _, r := range rec.results {
		byStatus[r.Status]++
	}
	assert.Equal(t, 1, byStatus[StatusFailed])
	assert.Equal(t, 1, byStatus[StatusDone])

	existing, err := st.ExistingOpenTimes(context.Background(), dailyKey(t, "BTCUSDT"), mustRange(t, "2021-01-01", "2021-01-02"))
	require.NoError(t, err)
	assert.Len(t, existing, 2)
}

func TestRunAllPairsFailed(t *testing.T) {
	st, _ := newTestStore(t)
	src := &fakeSource{bars: dailyBars(1), failSym: "BADUSDT"}
	e := newTestEngine(t, src, st, nil)

	iv, err := market.ParseInterval("1d")
	require.NoError(t, err)
	err = e.Run(context.Background(), Params{
		Symbols:   []string{"BADUSDT"},
		Intervals: []market.Interval{iv},
		Range:     mustRange(t, "2021-01-01", "2021-01-02"),
	})
	assert.Error(t, err)
}

func TestRunRejectsEmptyParams(t *testing.T) {
	st, _ := newTestStore(t)
	e := newTestEngine(t, &fakeSource{}, st, nil)
	err := e.Run(context.Background(), Params{Range: mustRange(t, "2021-01-01", "2021-01-02")})
	assert.Error(t, err)
}
