package publish

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	apierrors "itemliquidity/internal/errors"
	"itemliquidity/internal/liquidity"
	"itemliquidity/internal/shared/testutil"
	"itemliquidity/pkg/contracts/domain"
)

func sampleStats() domain.StatsSet {
	return domain.StatsSet{
		"Mann Co. Supply Crate Key": {SKU: "5021;6", AvgPrice7D: 1.88, AvgVolume7D: 412.67, VolPerDay7D: 176.86, Liquidity: 76.7},
		"Refined Metal":             {SKU: "5002;6", AvgPrice7D: 0.02, AvgVolume7D: 900, VolPerDay7D: 900, Liquidity: 100},
		"Team Captain":              {SKU: "378;6", AvgPrice7D: 4.1, AvgVolume7D: 2, VolPerDay7D: 0.57, Liquidity: 3.7},
	}
}

type fakeUpdater struct {
	mu      sync.Mutex
	branch  string
	path    string
	message string
	content []byte
	err     error
}

func (f *fakeUpdater) UpdateFile(ctx context.Context, branch, path, message string, content []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.branch, f.path, f.message, f.content = branch, path, message, content
	return f.err
}

type failingPublisher struct{ name string }

func (f failingPublisher) Name() string { return f.name }
func (f failingPublisher) Publish(context.Context, domain.StatsSet) error {
	return errors.New("target offline")
}

func TestGitHubPublisher(t *testing.T) {
	store := &fakeUpdater{}
	p := GitHubPublisher{Store: store, Branch: "main", Path: "stats", Message: "update dictionary"}

	require.NoError(t, p.Publish(context.Background(), sampleStats()))
	assert.Equal(t, "main", store.branch)
	assert.Equal(t, "stats", store.path)
	assert.Equal(t, "update dictionary", store.message)

	var decoded domain.StatsSet
	require.NoError(t, json.Unmarshal(store.content, &decoded))
	assert.Equal(t, sampleStats(), decoded)
	assert.Contains(t, string(store.content), `"7D_avg_price":1.88`)

	assert.Error(t, GitHubPublisher{}.Publish(context.Background(), sampleStats()))
}

func TestFilePublisher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "scraped_data.json")
	p := FilePublisher{Path: path}

	require.NoError(t, p.Publish(context.Background(), sampleStats()))
	loaded, err := liquidity.LoadStatsJSON(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, sampleStats()), context.Canceled)
}

func TestPublishAll(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	store := &fakeUpdater{}

	results, err := PublishAll(context.Background(), logger, sampleStats(),
		GitHubPublisher{Store: store, Branch: "main", Path: "stats"},
		failingPublisher{name: "sheets"},
	)

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NotEmpty(t, store.content, "a failing target does not stop the others")

	require.Error(t, err)
	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypePublish, appErr.Type)
	assert.Equal(t, "sheets", appErr.Context["target"])
	testutil.AssertLogAttr(t, logs, "target", "github")
}

func TestSheetRows(t *testing.T) {
	rows := SheetRows(sampleStats())
	require.Len(t, rows, 4)
	assert.Equal(t, SheetHeader, rows[0])
	assert.Equal(t, "Refined Metal", rows[1][0])
	assert.Equal(t, "Mann Co. Supply Crate Key", rows[2][0])
	assert.Equal(t, 3.7, rows[3][5])

	assert.Len(t, SheetRows(nil), 1)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Stats", sheetName("Stats!A1"))
	assert.Equal(t, "Stats", sheetName("Stats"))
}

func TestSheetsPublisher(t *testing.T) {
	var (
		mu      sync.Mutex
		calls   []string
		updated struct {
			Values [][]interface{} `json:"values"`
		}
		inputOption string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		calls = append(calls, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
			w.Write([]byte(`{"spreadsheetId":"sheet-1","clearedRange":"Stats!A1:Z100"}`))
		case r.Method == http.MethodPut:
			inputOption = r.URL.Query().Get("valueInputOption")
			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.NoError(t, json.Unmarshal(body, &updated))
			w.Write([]byte(`{"spreadsheetId":"sheet-1","updatedRows":4}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	svc, err := NewSheetsService(ctx, "", option.WithEndpoint(server.URL+"/"), option.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	p := SheetsPublisher{Service: svc, SpreadsheetID: "sheet-1", Range: "Stats!A1"}
	require.NoError(t, p.Publish(ctx, sampleStats()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 2)
	assert.Equal(t, "POST /v4/spreadsheets/sheet-1/values/Stats:clear", calls[0])
	assert.Equal(t, "PUT /v4/spreadsheets/sheet-1/values/Stats!A1", calls[1])
	assert.Equal(t, "RAW", inputOption)
	require.Len(t, updated.Values, 4)
	assert.Equal(t, "item", updated.Values[0][0])
	assert.Equal(t, "Refined Metal", updated.Values[1][0])
}

func TestSheetsPublisherErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
	}))
	defer server.Close()

	ctx := context.Background()
	svc, err := NewSheetsService(ctx, "", option.WithEndpoint(server.URL+"/"), option.WithHTTPClient(server.Client()))
	require.NoError(t, err)

	err = SheetsPublisher{Service: svc, SpreadsheetID: "sheet-1", Range: "Stats!A1"}.Publish(ctx, sampleStats())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear sheet")

	assert.Error(t, SheetsPublisher{}.Publish(ctx, sampleStats()))

	_, err = NewSheetsService(ctx, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
