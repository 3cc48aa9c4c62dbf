package stability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testImage = []byte("\x89PNG\r\n\x1a\nfake image bytes")

func testRequest(outputPath string) GenerationRequest {
	return GenerationRequest{
		Image:      testImage,
		ImageMIME:  "image/png",
		Filename:   "cat.png",
		Params:     DefaultParams(),
		OutputPath: outputPath,
	}
}

func TestGenerate(t *testing.T) {
	t.Run("success writes the GLB and reports the flat cost", func(t *testing.T) {
		glb := []byte("glTF\x02\x00\x00\x00binary model payload")
		var req *http.Request
		var imagePart []byte
		var imageFilename, imageContentType string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req = r
			require.NoError(t, r.ParseMultipartForm(1<<20))
			file, header, err := r.FormFile("image")
			require.NoError(t, err)
			defer file.Close()
			imagePart, err = io.ReadAll(file)
			require.NoError(t, err)
			imageFilename = header.Filename
			imageContentType = header.Header.Get("Content-Type")
			w.Header().Set("Content-Type", "model/gltf-binary")
			w.Write(glb)
		}))
		defer ts.Close()

		outputPath := filepath.Join(t.TempDir(), "cat.glb")
		client := NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "sk-test"})
		result, err := client.Generate(context.Background(), testRequest(outputPath))
		require.NoError(t, err)

		assert.Equal(t, "/v2beta/3d/stable-fast-3d", req.URL.Path)
		assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
		assert.Equal(t, testImage, imagePart)
		assert.Equal(t, "cat.png", imageFilename)
		assert.Equal(t, "image/png", imageContentType)
		assert.Equal(t, "1024", req.FormValue("texture_resolution"))
		assert.Equal(t, "0.85", req.FormValue("foreground_ratio"))
		assert.Equal(t, "none", req.FormValue("remesh"))
		assert.Empty(t, req.FormValue("vertex_count"))

		assert.Equal(t, &GenerationResult{
			OutputPath:     outputPath,
			BytesWritten:   len(glb),
			CreditsCharged: 10,
		}, result)

		written, err := os.ReadFile(outputPath)
		require.NoError(t, err)
		assert.Equal(t, glb, written)
	})

	t.Run("vertex_count is sent when not at its default", func(t *testing.T) {
		var vertexCount string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			vertexCount = r.FormValue("vertex_count")
			w.Write([]byte("glb"))
		}))
		defer ts.Close()

		client := NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "sk-test"})
		req := testRequest(filepath.Join(t.TempDir(), "out.glb"))
		req.Params.VertexCount = 15000
		_, err := client.Generate(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "15000", vertexCount)
	})

	t.Run("parent directories are created for the output path", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("glb"))
		}))
		defer ts.Close()

		outputPath := filepath.Join(t.TempDir(), "models", "nested", "out.glb")
		client := NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "sk-test"})
		_, err := client.Generate(context.Background(), testRequest(outputPath))
		require.NoError(t, err)
		_, err = os.Stat(outputPath)
		assert.NoError(t, err)
	})

	t.Run("429 maps to a retriable rate limit error and writes no file", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"name":"rate_limit_exceeded","errors":["too many requests"]}`))
		}))
		defer ts.Close()

		outputPath := filepath.Join(t.TempDir(), "out.glb")
		client := NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "sk-test"})
		_, err := client.Generate(context.Background(), testRequest(outputPath))
		require.Error(t, err)
		assert.Equal(t, KindRateLimited, KindOf(err))
		assert.True(t, IsRetriable(err))
		assert.Contains(t, err.Error(), "150 requests per 10 seconds")

		_, err = os.Stat(outputPath)
		assert.True(t, os.IsNotExist(err), "no file should be written on failure")
	})

	t.Run("400 carries the remote validation detail verbatim", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"name":"bad_request","errors":["image too small","side must be at least 64 pixels"]}`))
		}))
		defer ts.Close()

		client := NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "sk-test"})
		_, err := client.Generate(context.Background(), testRequest(filepath.Join(t.TempDir(), "out.glb")))
		require.Error(t, err)
		assert.Equal(t, KindInvalidInput, KindOf(err))
		assert.False(t, IsRetriable(err))
		assert.Contains(t, err.Error(), "image too small, side must be at least 64 pixels")
	})

	t.Run("401 and 403 map to missing credentials", func(t *testing.T) {
		for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				w.Write([]byte(`{"message":"invalid api key"}`))
			}))
			client := NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "sk-bogus"})
			_, err := client.Generate(context.Background(), testRequest(filepath.Join(t.TempDir(), "out.glb")))
			ts.Close()
			require.Error(t, err, "status %d", status)
			assert.Equal(t, KindMissingCredentials, KindOf(err))
		}
	})

	t.Run("404 maps to not found", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer ts.Close()

		client := NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "sk-test"})
		_, err := client.Generate(context.Background(), testRequest(filepath.Join(t.TempDir(), "out.glb")))
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("5xx maps to a retriable server error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer ts.Close()

		client := NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "sk-test"})
		_, err := client.Generate(context.Background(), testRequest(filepath.Join(t.TempDir(), "out.glb")))
		require.Error(t, err)
		assert.Equal(t, KindServerError, KindOf(err))
		assert.True(t, IsRetriable(err))
	})

	t.Run("unexpected success status maps to unknown", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer ts.Close()

		client := NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "sk-test"})
		_, err := client.Generate(context.Background(), testRequest(filepath.Join(t.TempDir(), "out.glb")))
		require.Error(t, err)
		assert.Equal(t, KindUnknown, KindOf(err))
		assert.False(t, IsRetriable(err))
	})

	t.Run("timeout maps to a retriable network timeout", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(500 * time.Millisecond)
		}))
		defer ts.Close()

		client := NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "sk-test", GenerateTimeout: 20 * time.Millisecond})
		_, err := client.Generate(context.Background(), testRequest(filepath.Join(t.TempDir(), "out.glb")))
		require.Error(t, err)
		assert.Equal(t, KindNetworkTimeout, KindOf(err))
		assert.True(t, IsRetriable(err))
	})

	t.Run("missing API key fails before any network I/O", func(t *testing.T) {
		requests := 0
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		defer ts.Close()

		client := NewClient(ClientOpts{BaseURL: ts.URL})
		_, err := client.Generate(context.Background(), testRequest(filepath.Join(t.TempDir(), "out.glb")))
		require.Error(t, err)
		assert.Equal(t, KindMissingCredentials, KindOf(err))
		assert.Equal(t, 0, requests)
	})

	t.Run("invalid parameters fail before any network I/O", func(t *testing.T) {
		requests := 0
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		defer ts.Close()

		client := NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "sk-test"})
		req := testRequest(filepath.Join(t.TempDir(), "out.glb"))
		req.Params.TextureResolution = "768"
		_, err := client.Generate(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, KindInvalidInput, KindOf(err))
		assert.Equal(t, 0, requests)
	})

	t.Run("empty image payload is rejected locally", func(t *testing.T) {
		client := NewClient(ClientOpts{BaseURL: "http://127.0.0.1:1", APIKey: "sk-test"})
		req := testRequest(filepath.Join(t.TempDir(), "out.glb"))
		req.Image = nil
		_, err := client.Generate(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, KindInvalidInput, KindOf(err))
	})
}

func TestBalance(t *testing.T) {
	t.Run("parses the credits field", func(t *testing.T) {
		var req *http.Request
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req = r
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"credits":42.5}`))
		}))
		defer ts.Close()

		client := NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "sk-test"})
		balance, err := client.Balance(context.Background())
		require.NoError(t, err)
		assert.Equal(t, &BalanceResult{Credits: 42.5}, balance)
		assert.Equal(t, "/v1/user/balance", req.URL.Path)
		assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
	})

	t.Run("unparseable body maps to unknown", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer ts.Close()

		client := NewClient(ClientOpts{BaseURL: ts.URL, APIKey: "sk-test"})
		_, err := client.Balance(context.Background())
		require.Error(t, err)
		assert.Equal(t, KindUnknown, KindOf(err))
	})

	t.Run("missing API key fails before any network I/O", func(t *testing.T) {
		requests := 0
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		defer ts.Close()

		client := NewClient(ClientOpts{BaseURL: ts.URL})
		_, err := client.Balance(context.Background())
		require.Error(t, err)
		assert.Equal(t, KindMissingCredentials, KindOf(err))
		assert.Equal(t, 0, requests)
	})
}
