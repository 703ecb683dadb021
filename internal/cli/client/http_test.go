package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api, err := NewAPIClientWithConfig(testAPIKey, srv.URL)
	require.NoError(t, err)
	return api
}

func TestAPIClient_Get_SendsBearerToken(t *testing.T) {
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testAPIKey, r.Header.Get("Authorization"))
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/domains", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":[{"id":"dom-1","name":"Finance"}]}`))
	})

	resp, err := api.Get("/domains")
	require.NoError(t, err)

	var domains []Domain
	require.NoError(t, json.Unmarshal(resp.Data, &domains))
	require.Len(t, domains, 1)
	assert.Equal(t, "Finance", domains[0].Name)
}

func TestAPIClient_Post_MarshalsBody(t *testing.T) {
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Finance", body["name"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"dom-1","name":"Finance"}}`))
	})

	resp, err := api.Post("/domains", map[string]string{"name": "Finance"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Data)
}

func TestAPIClient_ErrorResponse(t *testing.T) {
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"domain not found","code":"NOT_FOUND"}`))
	})

	_, err := api.Get("/domains/missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "domain not found", apiErr.Message)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestAPIClient_NonJSONErrorBody(t *testing.T) {
	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	})

	_, err := api.Get("/health")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "bad gateway")
}

func TestAPIClient_PostFile_SendsMultipart(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(tmpFile, []byte("pdf bytes"), 0644))

	api := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "report.pdf", header.Filename)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{"id":"item-1","source_file":"owner/item-1/report.pdf"}}`))
	})

	resp, err := api.PostFile("/knowledge/item-1/attach", tmpFile)
	require.NoError(t, err)

	var result struct {
		SourceFile string `json:"source_file"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, "owner/item-1/report.pdf", result.SourceFile)
}

func TestAPIClient_PostFile_MissingFile(t *testing.T) {
	api, err := NewAPIClientWithConfig(testAPIKey, "http://localhost:0")
	require.NoError(t, err)

	_, err = api.PostFile("/knowledge/item-1/attach", filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}
