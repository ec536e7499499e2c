package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matsuni.ru/matsuni-bot/internal/features/report"
	"matsuni.ru/matsuni-bot/internal/features/roster"
)

type fakeMembers struct {
	members []*roster.Member
}

func (f *fakeMembers) ListMembers(_ context.Context, _ bool) ([]*roster.Member, error) {
	return f.members, nil
}

type fakeReports struct{}

func (f *fakeReports) BuildPeriodReport(_ context.Context, startDate, endDate string) (*report.PeriodReport, error) {
	entries := []report.Entry{{Username: "alice", Matsuni: 2, Date: startDate}}
	return report.Aggregate(entries, startDate, endDate)
}

type fakeTotals struct {
	byPeriod map[string][]report.MemberTotal
}

func (f *fakeTotals) PeriodTotals(_ context.Context, periodID string) ([]report.MemberTotal, error) {
	return f.byPeriod[periodID], nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	members := &fakeMembers{members: []*roster.Member{
		{Username: "alice", Status: roster.StatusActive},
		{Username: "bob", Status: roster.StatusInactive},
	}}
	totals := &fakeTotals{byPeriod: map[string][]report.MemberTotal{
		"2024-01-01_2024-01-07": {
			{Username: "alice", TotalMatsuni: 5, Rank: 1},
		},
	}}
	srv := NewServer(":0", members, &fakeReports{}, totals)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body["members_total"])
	assert.Equal(t, 1, body["members_active"])
}

func TestReport(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/report?start=2024-01-01&end=2024-01-07")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rpt report.PeriodReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpt))
	assert.Equal(t, 1, rpt.TotalMembers)
	assert.Equal(t, 7, rpt.TotalDays)
}

func TestTotalsReturnsSavedPeriod(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/totals?start=2024-01-01&end=2024-01-07")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		PeriodID string               `json:"period_id"`
		Members  []report.MemberTotal `json:"members"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "2024-01-01_2024-01-07", body.PeriodID)
	require.Len(t, body.Members, 1)
	assert.Equal(t, "alice", body.Members[0].Username)
}

func TestTotalsUnknownPeriodEmpty(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/totals?start=2023-01-01&end=2023-01-07")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Members []report.MemberTotal `json:"members"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Members)
}

func TestTotalsBadPeriod(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/totals?start=junk&end=2024-01-07")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReportBadPeriod(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/report?start=2024-02-01&end=2024-01-01")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/report?start=junk&end=2024-01-01")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
