package stasher_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"satchel/internal/config"
	"satchel/internal/services"
	"satchel/internal/stasher"
)

func TestTargetPath(t *testing.T) {
	got := stasher.TargetPath("01JGA5Y6", "img/fig01.tif")
	require.Equal(t, "/articles/01JGA5Y6/fig01.tif", got)
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := stasher.New(config.Storage{})
	require.ErrorIs(t, err, services.ErrConfiguration)
}

func TestSend(t *testing.T) {
	var gotPath, gotBody, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(body)
		gotUser, _, _ = r.BasicAuth()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	backend, err := stasher.New(config.Storage{
		BaseURL:  srv.URL,
		Username: "satchel",
		APIKey:   "sekret",
		BasePath: "/static",
	})
	require.NoError(t, err)

	uri, err := backend.Send(context.Background(),
		strings.NewReader("%PDF-1.4"), stasher.TargetPath("01JGA5Y6", "article.pdf"))
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/static/articles/01JGA5Y6/article.pdf", uri)
	require.Equal(t, "/static/articles/01JGA5Y6/article.pdf", gotPath)
	require.Equal(t, "%PDF-1.4", gotBody)
	require.Equal(t, "satchel", gotUser)
}

func TestSendFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	backend, err := stasher.New(config.Storage{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = backend.Send(context.Background(), strings.NewReader("x"), "/articles/a/x.xml")
	require.ErrorIs(t, err, services.ErrRemote)
}
