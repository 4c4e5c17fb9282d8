package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	billingdomain "gymflow-service/internal/domain/billing"
	"gymflow-service/internal/domain/membership"
	"gymflow-service/internal/domain/payment"
	xerrors "gymflow-service/internal/pkg/errors"
	service "gymflow-service/internal/service/billing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSource struct {
	records []membership.MemberRecord
	err     error
}

func (s *stubSource) ListActiveMemberships(context.Context, int64, time.Time, time.Time) ([]membership.MemberRecord, error) {
	return s.records, s.err
}

func (s *stubSource) ListGymIDs(context.Context) ([]int64, error) { return []int64{7}, s.err }

type stubBillStore struct {
	bills map[string]*billingdomain.MonthlyBill
}

func (s *stubBillStore) InsertFinalized(_ context.Context, bill *billingdomain.MonthlyBill) (*billingdomain.MonthlyBill, bool, error) {
	if s.bills == nil {
		s.bills = make(map[string]*billingdomain.MonthlyBill)
	}
	s.bills[bill.ID] = bill
	return bill, true, nil
}

func (s *stubBillStore) FindByID(_ context.Context, id string) (*billingdomain.MonthlyBill, error) {
	if b, ok := s.bills[id]; ok {
		return b, nil
	}
	return nil, xerrors.ErrNotFound
}

func (s *stubBillStore) FindByMonth(context.Context, int64, int, int) (*billingdomain.MonthlyBill, error) {
	return nil, xerrors.ErrNotFound
}

func (s *stubBillStore) ListFinalized(context.Context, int64, int) ([]billingdomain.MonthlyBill, error) {
	return nil, nil
}

type stubPayments struct{}

func (stubPayments) ListForMonth(context.Context, int64, int, int) ([]payment.Event, error) {
	return nil, nil
}

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	Retryable bool            `json:"retryable"`
}

func newTestRouter(source *stubSource) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := service.NewService(source, &stubBillStore{}, stubPayments{}, zap.NewNop()).
		WithClock(func() time.Time { return time.Date(2026, time.June, 20, 12, 0, 0, 0, time.UTC) })
	h := NewBillingHandler(svc)

	r := gin.New()
	r.GET("/gyms/:gym_id/billing/current", h.GetCurrentMonthBill)
	r.GET("/gyms/:gym_id/billing/history", h.GetBillingHistory)
	r.GET("/billing/bills/:bill_id", h.GetBillDetail)
	r.POST("/billing/finalize", h.Finalize)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestGetCurrentMonthBillEndpoint(t *testing.T) {
	from := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := newTestRouter(&stubSource{records: []membership.MemberRecord{{
		MemberID: 1, GymID: 7, Name: "A", Tier: billingdomain.TierBasic,
		MonthlyFee: 900, ActiveFrom: from,
	}}})

	w, env := doRequest(t, r, http.MethodGet, "/gyms/7/billing/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	var bill billingdomain.BillResponse
	require.NoError(t, json.Unmarshal(env.Data, &bill))
	assert.Equal(t, int64(7), bill.GymID)
	assert.Equal(t, 6, bill.BillMonth)
	assert.InDelta(t, 900, bill.TotalAmount, 1e-9)
	assert.True(t, bill.IsCurrent)
}

func TestGetCurrentMonthBillInvalidGymID(t *testing.T) {
	r := newTestRouter(&stubSource{})

	w, env := doRequest(t, r, http.MethodGet, "/gyms/abc/billing/current", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestGetCurrentMonthBillUpstreamDown(t *testing.T) {
	r := newTestRouter(&stubSource{err: xerrors.ErrUpstreamUnavailable})

	w, env := doRequest(t, r, http.MethodGet, "/gyms/7/billing/current", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, env.Success)
	assert.True(t, env.Retryable)
}

func TestGetBillDetailNotFound(t *testing.T) {
	r := newTestRouter(&stubSource{})

	w, env := doRequest(t, r, http.MethodGet, "/billing/bills/01J5ZXDEADBEEF", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}

func TestFinalizeEndpointValidation(t *testing.T) {
	r := newTestRouter(&stubSource{})

	// Month out of range fails request binding.
	w, _ := doRequest(t, r, http.MethodPost, "/billing/finalize",
		billingdomain.FinalizeMonthInput{GymID: 7, Month: 13, Year: 2026})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The in-progress month cannot be frozen.
	w, env := doRequest(t, r, http.MethodPost, "/billing/finalize",
		billingdomain.FinalizeMonthInput{GymID: 7, Month: 6, Year: 2026})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestFinalizeEndpointFreezesClosedMonth(t *testing.T) {
	from := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := newTestRouter(&stubSource{records: []membership.MemberRecord{{
		MemberID: 1, GymID: 7, Name: "A", Tier: billingdomain.TierBasic,
		MonthlyFee: 900, ActiveFrom: from,
	}}})

	w, env := doRequest(t, r, http.MethodPost, "/billing/finalize",
		billingdomain.FinalizeMonthInput{GymID: 7, Month: 5, Year: 2026})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)

	var bill billingdomain.BillResponse
	require.NoError(t, json.Unmarshal(env.Data, &bill))
	assert.True(t, bill.IsFinalized)
	assert.Equal(t, 5, bill.BillMonth)
	assert.InDelta(t, 900, bill.TotalAmount, 1e-9)
}
