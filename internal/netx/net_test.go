package netx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadToPresignedURL(t *testing.T) {
	body := []byte("sealed object")

	t.Run("success", func(t *testing.T) {
		var gotBody []byte
		var gotCT, gotMethod string

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotCT = r.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		err := UploadToPresignedURL(context.Background(), ts.Client(), ts.URL+"/bucket/key?X-Amz-Signature=abc", body)
		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, gotMethod)
		assert.Equal(t, "application/octet-stream", gotCT)
		assert.Equal(t, body, gotBody)
	})

	t.Run("non-200", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("SignatureDoesNotMatch"))
		}))
		defer ts.Close()

		err := UploadToPresignedURL(context.Background(), ts.Client(), ts.URL, body)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upload failed: 403")
		assert.Contains(t, err.Error(), "SignatureDoesNotMatch")
	})

	t.Run("network error", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		err := UploadToPresignedURL(context.Background(), http.DefaultClient, ts.URL, body)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "upload failed")
	})
}

func TestDownloadFromPresignedURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer ts.Close()

	b, err := DownloadFromPresignedURL(context.Background(), ts.Client(), ts.URL+"/ok", 10)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(b))

	_, err = DownloadFromPresignedURL(context.Background(), ts.Client(), ts.URL+"/ok", 9)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = DownloadFromPresignedURL(context.Background(), ts.Client(), ts.URL+"/missing", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download failed: 404")
}

func TestDownloadFromPresignedURL_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DownloadFromPresignedURL(ctx, ts.Client(), ts.URL, 10)
	assert.ErrorIs(t, err, context.Canceled)
}
