package record

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"postflow/internal/common"
	"postflow/internal/dbmongo"
	"postflow/internal/dbmysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRecordService struct {
	mock.Mock
}

func (m *MockRecordService) CreateRecord(ctx context.Context, ownerID int64, in CreateInput) (*dbmysql.PublishRecord, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmysql.PublishRecord), args.Error(1)
}

func (m *MockRecordService) Transition(ctx context.Context, ownerID, recordID int64, target common.RecordStatus) (*dbmysql.PublishRecord, error) {
	args := m.Called(ctx, ownerID, recordID, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmysql.PublishRecord), args.Error(1)
}

func (m *MockRecordService) Reschedule(ctx context.Context, ownerID, recordID int64, at time.Time) (*dbmysql.PublishRecord, error) {
	args := m.Called(ctx, ownerID, recordID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmysql.PublishRecord), args.Error(1)
}

func (m *MockRecordService) GetRecord(ctx context.Context, ownerID, recordID int64) (*dbmysql.PublishRecord, error) {
	args := m.Called(ctx, ownerID, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmysql.PublishRecord), args.Error(1)
}

func (m *MockRecordService) ListRecords(ctx context.Context, ownerID int64, limit, offset int) ([]*dbmysql.PublishRecord, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	return args.Get(0).([]*dbmysql.PublishRecord), args.Error(1)
}

type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Append(ctx context.Context, entry dbmongo.AttemptEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournal) ByRecord(ctx context.Context, recordID int64) ([]dbmongo.AttemptEntry, error) {
	args := m.Called(ctx, recordID)
	return args.Get(0).([]dbmongo.AttemptEntry), args.Error(1)
}

func authedRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)

	token, err := common.GenerateToken(7, "tester")
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	return req
}

func TestCreateRecordEndpoint(t *testing.T) {
	svc := new(MockRecordService)
	h := NewHandler(svc, nil)

	rec := &dbmysql.PublishRecord{RecordID: 1, OwnerID: 7, Status: string(common.StatusDraft)}
	svc.On("CreateRecord", mock.Anything, int64(7), mock.MatchedBy(func(in CreateInput) bool {
		return in.PlatformID == "mastodon" && in.Body == "hello"
	})).Return(rec, nil)

	req := authedRequest(t, http.MethodPost, "/records", map[string]interface{}{
		"platform_id": "mastodon",
		"body":        "hello",
	})
	rr := httptest.NewRecorder()
	h.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var got dbmysql.PublishRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.RecordID)
}

func TestCreateRecordEndpoint_RequiresAuth(t *testing.T) {
	svc := new(MockRecordService)
	h := NewHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/records", bytes.NewBufferString(`{}`))
	rr := httptest.NewRecorder()
	h.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "CreateRecord", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransitionEndpoint_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", common.NewValidationError("scheduled_at is required"), http.StatusBadRequest},
		{"invalid transition", &common.InvalidTransitionError{From: common.StatusDraft, To: common.StatusPublished}, http.StatusConflict},
		{"not found", common.ErrNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockRecordService)
			h := NewHandler(svc, nil)

			svc.On("Transition", mock.Anything, int64(7), int64(4), common.StatusPublished).
				Return(nil, tc.err)

			req := authedRequest(t, http.MethodPost, "/records/4/transition", map[string]string{
				"target_status": "PUBLISHED",
			})
			rr := httptest.NewRecorder()
			h.Router().ServeHTTP(rr, req)

			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestRescheduleEndpoint(t *testing.T) {
	svc := new(MockRecordService)
	h := NewHandler(svc, nil)

	at := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
	rec := &dbmysql.PublishRecord{RecordID: 4, OwnerID: 7, Status: string(common.StatusScheduled), ScheduledAt: &at}
	svc.On("Reschedule", mock.Anything, int64(7), int64(4), at).Return(rec, nil)

	req := authedRequest(t, http.MethodPut, "/records/4/schedule", map[string]string{
		"scheduled_at": at.Format(time.RFC3339),
	})
	rr := httptest.NewRecorder()
	h.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestListAttemptsEndpoint(t *testing.T) {
	svc := new(MockRecordService)
	journal := new(MockJournal)
	h := NewHandler(svc, journal)

	rec := &dbmysql.PublishRecord{RecordID: 4, OwnerID: 7, Status: string(common.StatusFailed)}
	svc.On("GetRecord", mock.Anything, int64(7), int64(4)).Return(rec, nil)
	journal.On("ByRecord", mock.Anything, int64(4)).Return([]dbmongo.AttemptEntry{
		{RecordID: 4, Attempt: 1, Outcome: common.OutcomeRetry, Reason: "timeout"},
		{RecordID: 4, Attempt: 2, Outcome: common.OutcomeFailed, Reason: "retry budget exhausted"},
	}, nil)

	req := authedRequest(t, http.MethodGet, "/records/4/attempts", nil)
	rr := httptest.NewRecorder()
	h.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var entries []dbmongo.AttemptEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, common.OutcomeFailed, entries[1].Outcome)
}

func TestListAttemptsEndpoint_JournalDisabled(t *testing.T) {
	svc := new(MockRecordService)
	h := NewHandler(svc, nil)

	rec := &dbmysql.PublishRecord{RecordID: 4, OwnerID: 7, Status: string(common.StatusDraft)}
	svc.On("GetRecord", mock.Anything, int64(7), int64(4)).Return(rec, nil)

	req := authedRequest(t, http.MethodGet, "/records/4/attempts", nil)
	rr := httptest.NewRecorder()
	h.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestHealthEndpointIsPublic(t *testing.T) {
	h := NewHandler(new(MockRecordService), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
