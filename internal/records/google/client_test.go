package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"taxilog/internal/core"
)

func fakeSheets(t *testing.T, tabs map[string][][]interface{}) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := r.URL.Path
		if i := strings.Index(path, "/values/"); i >= 0 {
			q := r.URL.Query()
			if q.Get("valueRenderOption") != "UNFORMATTED_VALUE" || q.Get("dateTimeRenderOption") != "FORMATTED_STRING" {
				http.Error(w, `{"error":{"code":400,"message":"formatted values requested"}}`, http.StatusBadRequest)
				return
			}
			tab := strings.SplitN(path[i+len("/values/"):], "!", 2)[0]
			values, ok := tabs[tab]
			if !ok {
				http.Error(w, `{"error":{"code":400,"message":"Unable to parse range"}}`, http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"range": tab + "!A1:Z", "majorDimension": "ROWS", "values": values})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1"})
	}))
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	require.NoError(t, err)
	return NewWithService(svc, Config{SpreadsheetID: "sheet-1", Location: time.UTC})
}

func TestClientListsFilterByDriverAndRange(t *testing.T) {
	c := fakeSheets(t, map[string][][]interface{}{
		"Rides": {
			{"Driver", "Date", "Fare", "Tips", "Distance"},
			{"d1", "2024-03-12", "50", "5", "20"},
			{"d2", "2024-03-12", "70", "0", "10"},
			{"d1", "2024-02-01", "99", "0", "1"},
		},
		"Insurance": {
			{"Driver", "Start Date", "Amount"},
			{"d1", "2024-03-11", "300"},
			{"d1", "2023-03-11", "280"},
		},
	})
	week := core.ResolvePeriod("week", time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC))

	rides, err := c.ListRides(context.Background(), "d1", week)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, 50.0, rides[0].Fare.Float())

	ins, err := c.ListInsuranceExpenses(context.Background(), "d1", week)
	require.NoError(t, err)
	require.Len(t, ins, 1)
	assert.Equal(t, 300.0, ins[0].Amount.Float())

	require.NoError(t, c.Ping(context.Background()))
}

func TestClientReadsUnformattedNumbers(t *testing.T) {
	c := fakeSheets(t, map[string][][]interface{}{
		"Fuel": {
			{"Driver", "Date", "Amount", "Liters"},
			{"d1", "2024-03-12", 1234.5, 1234567},
		},
	})

	fuel, err := c.ListFuelExpenses(context.Background(), "d1", core.AllTime(time.UTC))
	require.NoError(t, err)
	require.Len(t, fuel, 1)
	assert.Equal(t, 1234.5, fuel[0].Amount.Float())
	assert.Equal(t, 1234567.0, fuel[0].Quantity.Float())
}

func TestClientMissingTabFails(t *testing.T) {
	c := fakeSheets(t, map[string][][]interface{}{})
	_, err := c.ListFuelExpenses(context.Background(), "d1", core.AllTime(time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read Fuel!A:Z")
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.EqualError(t, err, "missing GOOGLE_SPREADSHEET_ID")
}

func TestCredentialsPreferInlineJSON(t *testing.T) {
	b, err := credentials(Config{ServiceAccountJSON: `{"type":"service_account"}`, ServiceAccountFile: "/nope"})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, string(b))

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err = credentials(Config{})
	require.Error(t, err)
}
