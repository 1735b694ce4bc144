package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"granthx/internal/api"
	"granthx/internal/apitest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== NewClient ==========

func TestNewClient_EmptyBaseUsesDefault(t *testing.T) {
	c := api.NewClient("")
	assert.Equal(t, api.DefaultBaseURL, c.BaseURL())
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := api.NewClient("https://granthx.ai/ ")
	assert.Equal(t, "https://granthx.ai", c.BaseURL())
}

// ========== Chat ==========

func TestChat_ReturnsResponse(t *testing.T) {
	srv := apitest.New(t)
	srv.Reply("Hello there")

	c := api.NewClient(srv.URL)
	got, err := c.Chat(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello there", got)
	assert.Equal(t, []string{"hi"}, srv.Queries())
}

func TestChat_MissingResponseField(t *testing.T) {
	srv := apitest.New(t)

	c := api.NewClient(srv.URL)
	got, err := c.Chat(context.Background(), "hi")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChat_NonJSONSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>gateway page</html>"))
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL)
	got, err := c.Chat(context.Background(), "hi")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChat_ServerErrorCarriesMessage(t *testing.T) {
	srv := apitest.New(t)
	srv.Fail(apitest.Failure{Status: http.StatusBadGateway, Message: "model offline"})

	c := api.NewClient(srv.URL)
	_, err := c.Chat(context.Background(), "hi")
	require.Error(t, err)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "model offline", apiErr.Message)
}

func TestChat_ServerErrorWithoutBody(t *testing.T) {
	srv := apitest.New(t)
	srv.Fail(apitest.Failure{Status: http.StatusInternalServerError})

	c := api.NewClient(srv.URL)
	_, err := c.Chat(context.Background(), "hi")

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Empty(t, apiErr.Message)
	assert.Contains(t, apiErr.Error(), "500")
}

func TestChat_TransportFailure(t *testing.T) {
	c := api.NewClient("http://127.0.0.1:1")
	_, err := c.Chat(context.Background(), "hi")
	require.Error(t, err)

	var apiErr *api.Error
	assert.False(t, errors.As(err, &apiErr))
}

// ========== UploadFile ==========

func TestUploadFile_SendsMultipartFileField(t *testing.T) {
	srv := apitest.New(t)

	c := api.NewClient(srv.URL)
	err := c.UploadFile(context.Background(), "report.pdf", strings.NewReader("%PDF-1.4 body"))
	require.NoError(t, err)

	uploads := srv.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "report.pdf", uploads[0].Name)
	assert.Equal(t, "%PDF-1.4 body", string(uploads[0].Content))
}

func TestUploadFile_Rejected(t *testing.T) {
	srv := apitest.New(t)
	srv.Fail(apitest.Failure{Status: http.StatusRequestEntityTooLarge, Message: "file too large"})

	c := api.NewClient(srv.URL)
	err := c.UploadFile(context.Background(), "big.csv", strings.NewReader("a,b"))

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "file too large", apiErr.Message)
}

// ========== IndexURLOrText ==========

func TestIndexURLOrText_SendsInput(t *testing.T) {
	srv := apitest.New(t)

	c := api.NewClient(srv.URL)
	require.NoError(t, c.IndexURLOrText(context.Background(), "https://x.io"))
	assert.Equal(t, []string{"https://x.io"}, srv.Inputs())
}

func TestIndexURLOrText_CancelledContext(t *testing.T) {
	srv := apitest.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := api.NewClient(srv.URL)
	err := c.IndexURLOrText(ctx, "text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, srv.Inputs())
}

// ========== RequestContext ==========

func TestRequestContext_ZeroMeansNoDeadline(t *testing.T) {
	ctx, cancel := api.RequestContext(context.Background(), 0)
	defer cancel()

	_, ok := ctx.Deadline()
	assert.False(t, ok)

	cancel()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestRequestContext_PositiveSetsDeadline(t *testing.T) {
	ctx, cancel := api.RequestContext(context.Background(), time.Minute)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}
