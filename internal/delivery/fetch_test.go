package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResponse_upcomingShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		kind     UpcomingKind
		values   []string
		delivery bool
	}{
		{"list", `{"delivery":"2025-06-10","upcoming":["11 juni, 2025","12 juni, 2025"]}`, UpcomingList, []string{"2025-06-10", "11 juni, 2025", "12 juni, 2025"}, true},
		{"single", `{"delivery":"2025-06-10","upcoming":"11 juni, 2025"}`, UpcomingSingle, []string{"2025-06-10", "11 juni, 2025"}, true},
		{"null", `{"delivery":null,"upcoming":null}`, UpcomingAbsent, []string{}, false},
		{"absent", `{}`, UpcomingAbsent, []string{}, false},
		{"empty list", `{"delivery":null,"upcoming":[]}`, UpcomingList, []string{}, false},
		{"mixed list", `{"upcoming":["2025-01-01",42,null,"2025-01-02"]}`, UpcomingList, []string{"2025-01-01", "2025-01-02"}, false},
		{"non-string delivery", `{"delivery":20250610,"upcoming":{"x":1}}`, UpcomingAbsent, []string{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var r Response
			require.NoError(t, json.Unmarshal([]byte(tc.body), &r))
			require.Equal(t, tc.kind, r.Upcoming.Kind)
			require.Equal(t, tc.delivery, r.Delivery.Valid)
			require.Equal(t, tc.values, r.Values())
		})
	}
}

func TestClient_Fetch(t *testing.T) {
	var gotQuery, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("postalCode")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"delivery":"2025-06-10","upcoming":["11 juni, 2025","not-a-date"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/sendoutarrival/closest", "56632", time.Second)
	resp, err := c.Fetch(context.Background())

	require.NoError(t, err)
	require.Equal(t, "56632", gotQuery)
	require.Equal(t, "application/json", gotAccept)
	require.Equal(t, "2025-06-10", resp.Delivery.Value)
	require.Equal(t, []string{"11 juni, 2025", "not-a-date"}, resp.Upcoming.Values())
}

func TestClient_Fetch_statusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "56632", time.Second).Fetch(context.Background())

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, http.StatusBadGateway, fe.StatusCode)
	require.Contains(t, err.Error(), "502")
}

func TestClient_Fetch_badJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "56632", time.Second).Fetch(context.Background())

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, http.StatusOK, fe.StatusCode)
	require.ErrorContains(t, err, "decoding body")
}

func TestClient_Fetch_timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, "56632", 50*time.Millisecond).Fetch(context.Background())

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Zero(t, fe.StatusCode)
}

func TestClient_Fetch_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient("http://127.0.0.1:1", "56632", time.Second).Fetch(ctx)

	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestClient_URL(t *testing.T) {
	u, err := NewClient("https://portal.postnord.com/api/sendoutarrival/closest", "56632", 0).URL()

	require.NoError(t, err)
	require.Equal(t, "https://portal.postnord.com/api/sendoutarrival/closest?postalCode=56632", u)
}
