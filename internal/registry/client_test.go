package registry_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"satchel/internal/config"
	"satchel/internal/registry"
	"satchel/internal/services"
)

func newClient(t *testing.T, handler http.Handler) *registry.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := registry.New(config.Registry{
		BaseURL:        srv.URL,
		Username:       "satchel",
		APIKey:         "sekret",
		TimeoutSeconds: 5,
	})
	require.NoError(t, err)
	return client
}

func listResponse(objects any) string {
	payload := map[string]any{
		"meta":    map[string]any{"total_count": 1},
		"objects": objects,
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func TestNewRejectsMissingCredentials(t *testing.T) {
	_, err := registry.New(config.Registry{BaseURL: "http://manager.local"})
	require.ErrorIs(t, err, services.ErrConfiguration)

	_, err = registry.New(config.Registry{Username: "u", APIKey: "k"})
	require.ErrorIs(t, err, services.ErrConfiguration)
}

func TestFindJournal(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/journals/", r.URL.Path)
		require.Equal(t, "0102-6720", r.URL.Query().Get("print_issn"))
		require.Equal(t, "1", r.URL.Query().Get("limit"))
		require.Equal(t, "satchel", r.URL.Query().Get("username"))
		require.Equal(t, "sekret", r.URL.Query().Get("api_key"))
		fmt.Fprint(w, listResponse([]map[string]string{{
			"resource_uri":   "/api/v1/journals/70/",
			"title":          "Revista de Saude Publica",
			"publisher_name": "Faculdade de Saude Publica",
			"print_issn":     "0102-6720",
		}}))
	}))

	journal, err := client.FindJournal(context.Background(), registry.PrintISSN, "0102-6720")
	require.NoError(t, err)
	require.Equal(t, "Revista de Saude Publica", journal.Title)
	require.Equal(t, "/api/v1/journals/70/", journal.ResourceURI)
}

func TestFindJournalNotFound(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listResponse([]map[string]string{}))
	}))

	_, err := client.FindJournal(context.Background(), registry.ElectronicISSN, "0042-9686")
	require.ErrorIs(t, err, services.ErrNotFound)
}

func TestFindJournalServerError(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))

	_, err := client.FindJournal(context.Background(), registry.PrintISSN, "0102-6720")
	require.ErrorIs(t, err, services.ErrRemote)

	var apiErr *registry.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestOneIssue(t *testing.T) {
	issues := []map[string]string{{
		"resource_uri": "/api/v1/issues/123/",
		"volume":       "29",
		"number":       "3",
	}}
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/issues/", r.URL.Path)
		require.Equal(t, "0102-6720", r.URL.Query().Get("print_issn"))
		require.Equal(t, "1678-4464", r.URL.Query().Get("eletronic_issn"))
		require.Equal(t, "29", r.URL.Query().Get("volume"))
		require.Equal(t, "3", r.URL.Query().Get("number"))
		require.Empty(t, r.URL.Query().Get("suppl_volume"))
		fmt.Fprint(w, listResponse(issues))
	}))

	issue, err := client.OneIssue(context.Background(), registry.IssueFilter{
		PrintISSN:      "0102-6720",
		ElectronicISSN: "1678-4464",
		Volume:         "29",
		Number:         "3",
	})
	require.NoError(t, err)
	require.Equal(t, "/api/v1/issues/123/", issue.ResourceURI)
}

func TestOneIssueAmbiguous(t *testing.T) {
	issues := []map[string]string{
		{"resource_uri": "/api/v1/issues/123/"},
		{"resource_uri": "/api/v1/issues/124/"},
	}
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listResponse(issues))
	}))

	_, err := client.OneIssue(context.Background(), registry.IssueFilter{Volume: "29"})
	require.ErrorIs(t, err, services.ErrDuplicate)
}

func TestPostCheckinReturnsLocation(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkins/", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "42", payload["attempt_ref"])
		require.Equal(t, "0102-6720-rsp-29-03.xml", payload["package_name"])

		w.Header().Set("Location", "/api/v1/checkins/77/")
		w.WriteHeader(http.StatusCreated)
	}))

	uri, err := client.PostCheckin(context.Background(), registry.Checkin{
		AttemptRef:  "42",
		PackageName: "0102-6720-rsp-29-03.xml",
		Article:     "/api/v1/checkins_articles/9/",
	})
	require.NoError(t, err)
	require.Equal(t, "/api/v1/checkins/77/", uri)
}

func TestPostNoticeFailure(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))

	err := client.PostNotice(context.Background(), registry.Notice{
		Checkin: "/api/v1/checkins/77/",
		Stage:   "journal",
		Status:  "error",
	})
	require.ErrorIs(t, err, services.ErrRemote)
}
