package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibreTranslateClientTranslate(t *testing.T) {
	var gotBody translateRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"translatedText": "bonjour"}`)
	}))
	defer ts.Close()

	client := NewLibreTranslateClient(ts.URL, testLogger())
	got, err := client.Translate(context.Background(), "hello", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, "bonjour", got)

	assert.Equal(t, "hello", gotBody.Q)
	assert.Equal(t, "en", gotBody.Source)
	assert.Equal(t, "fr", gotBody.Target)
	assert.Equal(t, "text", gotBody.Format)
}

func TestLibreTranslateClientErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error": "boom"}`)
	}))
	defer ts.Close()

	client := NewLibreTranslateClient(ts.URL, testLogger())
	_, err := client.Translate(context.Background(), "hello", "en", "fr")
	assert.Error(t, err)
}

func TestLibreTranslateClientHealthAndLanguages(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/languages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"code": "en", "name": "English"}, {"code": "fr", "name": "French"}]`)
	}))
	defer ts.Close()

	client := NewLibreTranslateClient(ts.URL, testLogger())
	require.NoError(t, client.CheckHealth(context.Background()))

	langs, err := client.SupportedLanguages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "fr"}, langs)
}

func TestLibreTranslateClientHealthFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client := NewLibreTranslateClient(ts.URL, testLogger())
	assert.Error(t, client.CheckHealth(context.Background()))
}
