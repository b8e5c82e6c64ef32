package submitter

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto-apply-go/internal/constants"
	"auto-apply-go/internal/storage"
	"auto-apply-go/internal/types"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testPackage() *types.Package {
	return &types.Package{
		ID:       "pkg-1",
		JobID:    "job-1",
		JobTitle: "Backend Engineer",
		Company:  "TechCorp",
		Artifacts: types.Artifacts{
			Resume: &types.TailoredResume{
				Experiences: []types.TailoredExperience{
					{Company: "Acme Labs", TailoredBullets: []string{"Built a REST API in Go", "Wrote ETL scripts"}},
				},
			},
			CoverLetter: "Dear Hiring Manager",
		},
		Profile: types.ProfileSnapshot{
			Name:     "Wang Lei",
			Email:    "wang@example.com",
			Phone:    "13800138000",
			LinkedIn: "https://linkedin.com/in/wanglei",
		},
		Status: "ready_to_submit",
	}
}

// newTestStore 建一个带一条 assembled 记录的存储,返回存储和记录 ID
func newTestStore(t *testing.T) (*storage.ApplicationStore, string) {
	t.Helper()
	store := storage.NewApplicationStore(filepath.Join(t.TempDir(), constants.ApplicationsFile))
	id, err := store.Save(types.Application{
		JobID:       "job-1",
		CompanyName: "TechCorp",
		Status:      types.StatusAssembled,
		Notes:       "Package assembled with 2 mapped evidence items.",
		Package:     testPackage(),
	})
	require.NoError(t, err)
	return store, id
}

func newTestClient(store *storage.ApplicationStore, serverURL string) *Client {
	c := NewClient(serverURL, "test-key", store, discardLogger())
	c.sleep = func(time.Duration) {}
	return c
}

// TestSubmitSuccess 验证成功投递:请求体、认证头与落库回执
func TestSubmitSuccess(t *testing.T) {
	store, appID := newTestStore(t)

	var gotPayload applyPayload
	var gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("X-API-Key")
		assert.Equal(t, "/sandbox/jobs/job-1/apply", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"confirmation_id": "conf-42", "status": "received"})
	}))
	defer server.Close()

	result, err := newTestClient(store, server.URL).Submit(context.Background(), "job-1")
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "Wang Lei", gotPayload.ApplicantName)
	assert.Equal(t, "US Citizen / OPT", gotPayload.WorkAuthorization)
	assert.Equal(t, "Immediately", gotPayload.Availability)
	assert.Equal(t, "Competitive", gotPayload.SalaryExpectation)
	assert.Equal(t, "--- Acme Labs ---\nBuilt a REST API in Go\nWrote ETL scripts", gotPayload.ResumeText)

	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, "conf-42", result.Receipt["confirmation_id"])

	app, err := store.GetByID(appID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusSubmitted, app.Status)
	assert.NotEmpty(t, app.SubmittedAt)
	assert.NotEmpty(t, app.AppliedAt)
	assert.Equal(t, "conf-42", app.SubmissionReceipt["confirmation_id"])
	assert.Contains(t, app.Notes, "Submitted successfully on attempt 1.")
	// 原有备注保留
	assert.Contains(t, app.Notes, "Package assembled with 2 mapped evidence items.")
}

// TestSubmitRetriesOn429ThenSucceeds 验证限流后重试成功
func TestSubmitRetriesOn429ThenSucceeds(t *testing.T) {
	store, _ := newTestStore(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"confirmation_id": "conf-7"})
	}))
	defer server.Close()

	result, err := newTestClient(store, server.URL).Submit(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Attempts)
	assert.EqualValues(t, 3, calls.Load())
}

// TestSubmitServerErrorExhaustsAttempts 验证 5xx 重试耗尽后记失败
func TestSubmitServerErrorExhaustsAttempts(t *testing.T) {
	store, appID := newTestStore(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(store, server.URL).Submit(context.Background(), "job-1")
	require.Error(t, err)
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.EqualValues(t, 3, calls.Load())

	app, getErr := store.GetByID(appID)
	require.NoError(t, getErr)
	assert.Equal(t, types.StatusFailed, app.Status)
	assert.Contains(t, app.Notes, "Submission failed after 3 attempts.")
	assert.Contains(t, app.Notes, "HTTP 500")
}

// TestSubmitClientErrorFailsImmediately 验证 4xx 不重试
func TestSubmitClientErrorFailsImmediately(t *testing.T) {
	store, appID := newTestStore(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient(store, server.URL).Submit(context.Background(), "job-1")
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())

	app, getErr := store.GetByID(appID)
	require.NoError(t, getErr)
	assert.Equal(t, types.StatusFailed, app.Status)
	assert.Contains(t, app.Notes, "Submission failed after 1 attempts.")
}

// TestSubmitNoAssembledApplication 验证无可投递记录时直接报错
func TestSubmitNoAssembledApplication(t *testing.T) {
	store := storage.NewApplicationStore(filepath.Join(t.TempDir(), constants.ApplicationsFile))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("不应发起任何请求")
	}))
	defer server.Close()

	_, err := newTestClient(store, server.URL).Submit(context.Background(), "job-9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No assembled application found for job job-9")
}

// TestSubmitTransportErrorRetries 验证连接失败按服务端故障重试
func TestSubmitTransportErrorRetries(t *testing.T) {
	store, appID := newTestStore(t)

	// 先拿到一个地址再关掉,保证连接被拒
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := newTestClient(store, server.URL).Submit(context.Background(), "job-1")
	require.Error(t, err)

	app, getErr := store.GetByID(appID)
	require.NoError(t, getErr)
	assert.Equal(t, types.StatusFailed, app.Status)
}
