package olsdk

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sdkClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, &Session{
		Cookies: map[string]string{"overleaf_session2": "auth"},
		CSRF:    "csrf-token",
	})
	require.NoError(t, err)
	return c
}

func TestUpload(t *testing.T) {
	c := sdkClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/project/p1/upload", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "folder-1", q.Get("folder_id"))
		assert.Equal(t, "csrf-token", q.Get("_csrf"))
		assert.Equal(t, "main.tex", q.Get("qqfilename"))
		assert.Equal(t, "9", q.Get("qqtotalfilesize"))
		assert.NotEmpty(t, q.Get("qquuid"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		part, _, err := r.FormFile("qqfile")
		require.NoError(t, err)
		body, err := io.ReadAll(part)
		require.NoError(t, err)
		assert.Equal(t, []byte("tex bytes"), body)

		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})

	err := c.Upload(context.Background(), "p1", "folder-1", "main.tex", []byte("tex bytes"))
	assert.NoError(t, err)
}

func TestUpload_Rejected(t *testing.T) {
	c := sdkClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"success": false})
	})

	err := c.Upload(context.Background(), "p1", "f1", "main.tex", []byte("x"))
	assert.ErrorIs(t, err, ErrUploadRejected)
}

func TestCreateFolder(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		c := sdkClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/project/p1/folder", r.URL.Path)

			var body createFolderRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "root-id", body.ParentFolderID)
			assert.Equal(t, "figures", body.Name)

			json.NewEncoder(w).Encode(map[string]string{"_id": "folder-new"})
		})

		id, err := c.CreateFolder(context.Background(), "p1", "root-id", "figures")
		require.NoError(t, err)
		assert.Equal(t, "folder-new", id)
	})

	t.Run("already exists", func(t *testing.T) {
		c := sdkClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})

		id, err := c.CreateFolder(context.Background(), "p1", "root-id", "figures")
		require.NoError(t, err)
		assert.Empty(t, id)
	})
}

func TestEnsureFolder(t *testing.T) {
	info := &ProjectInfo{
		RootFolder: []*Folder{{
			ID: "root-id",
			Folders: []*Folder{
				{ID: "sections-id", Name: "Sections"},
			},
		}},
	}

	t.Run("root for empty dir", func(t *testing.T) {
		c := sdkClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})

		id, err := c.EnsureFolder(context.Background(), "p1", info, "")
		require.NoError(t, err)
		assert.Equal(t, "root-id", id)
	})

	t.Run("existing folder matched case-insensitively", func(t *testing.T) {
		c := sdkClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})

		id, err := c.EnsureFolder(context.Background(), "p1", info, "sections")
		require.NoError(t, err)
		assert.Equal(t, "sections-id", id)
	})

	t.Run("missing segments created", func(t *testing.T) {
		var created []string
		c := sdkClient(t, func(w http.ResponseWriter, r *http.Request) {
			var body createFolderRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			created = append(created, body.Name)
			json.NewEncoder(w).Encode(map[string]string{"_id": "id-" + body.Name})
		})

		id, err := c.EnsureFolder(context.Background(), "p1", info, "sections/figures/plots")
		require.NoError(t, err)
		assert.Equal(t, "id-plots", id)
		assert.Equal(t, []string{"figures", "plots"}, created, "only the missing segments hit the server")
	})
}
