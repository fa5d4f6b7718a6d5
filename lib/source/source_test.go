package source

import (
	"context"
	"diningsync/lib/food"
	"diningsync/lib/testutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCSVFile(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "nc_state_dining_menu.csv",
		"Date,Location,Meal,Food Name,Serving Size (g),Calories\n"+
			"2024-09-03,Fountain,Breakfast,Biscuit,85,190\n"+
			"2024-09-03,Fountain,Breakfast,Apple,N/A,95\n")

	records, err := CSVFile{Path: path}.FetchBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Biscuit", records[0].Name)
	require.Equal(t, food.Amount(190), records[0].Calories)
	require.False(t, records[1].ServingGrams.Known)
}

func TestCSVFileMissing(t *testing.T) {
	_, err := CSVFile{Path: filepath.Join(t.TempDir(), "missing.csv")}.FetchBatch(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestCSVFileWrongLayout(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "menu.csv", "Item,Kcal\nBiscuit,190\n")
	_, err := CSVFile{Path: path}.FetchBatch(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestHTTPFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "menu-token", r.Header.Get("X-Api-Key"))
		w.Header().Set("content-type", "application/json")
		w.Write([]byte(`[
			{"date": "2024-09-03", "location": "Fountain", "meal": "Lunch", "name": "Biscuit", "calories": 190, "protein": "4g"},
			{"name": "Apple", "calories": null}
		]`))
	}))
	defer server.Close()

	feed := NewHTTPFeed(HTTPFeedConfig{
		Url:     server.URL,
		Headers: map[string]string{"X-Api-Key": "menu-token"},
	}, nil)
	records, err := feed.FetchBatch(context.Background())
	require.NoError(t, err)

	expected := []food.Record{
		{
			Date:     "2024-09-03",
			Location: "Fountain",
			Meal:     "Lunch",
			Name:     "Biscuit",
			Calories: food.Amount(190),
			Protein:  food.Amount(4),
		},
		{Name: "Apple"},
	}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Fatal(diff)
	}
}

func TestHTTPFeedUnavailable(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "not a list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>maintenance</html>`))
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(test.handler)
			defer server.Close()

			_, err := NewHTTPFeed(HTTPFeedConfig{Url: server.URL}, nil).FetchBatch(context.Background())
			require.ErrorIs(t, err, ErrSourceUnavailable)
		})
	}

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	_, err := NewHTTPFeed(HTTPFeedConfig{Url: url}, nil).FetchBatch(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)

	_, err = NewHTTPFeed(HTTPFeedConfig{}, nil).FetchBatch(context.Background())
	require.ErrorIs(t, err, ErrSourceUnavailable)
}
