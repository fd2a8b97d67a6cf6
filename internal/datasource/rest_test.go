package datasource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sua-org/scene-controller/internal/core"
)

func TestNewRESTRequiresReachableRootCert(t *testing.T) {
	_, err := NewREST("https://example.invalid", "", "/no/such/cert.pem")
	assert.Error(t, err)
}

func TestRESTGetScenesSendsAuthHeaderAndParsesEnvelope(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/api/v1/scenes", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []core.ScenePayload{{UID: "scene-1"}},
		})
	}))
	defer srv.Close()

	ds, err := NewREST(srv.URL, "abc123", "")
	require.NoError(t, err)

	res, err := ds.GetScenes(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Scenes, 1)
	assert.Equal(t, "scene-1", res.Scenes[0].UID)
	assert.Equal(t, "Token abc123", gotAuth)
}

func TestRESTNonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ds, err := NewREST(srv.URL, "", "")
	require.NoError(t, err)

	_, err = ds.GetScenes(context.Background())
	assert.Error(t, err)
}

func TestRESTUpdateCameraSendsPatchWithJSONBody(t *testing.T) {
	var gotMethod string
	var gotBody core.CameraPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		assert.Equal(t, "/api/v1/cameras/cam-1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ds, err := NewREST(srv.URL, "", "")
	require.NoError(t, err)

	payload := core.CameraPayload{UID: "cam-1"}
	require.NoError(t, ds.UpdateCamera(context.Background(), "cam-1", payload))
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "cam-1", gotBody.UID)
}

func TestRESTBaseURLTrimsTrailingSlash(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{"results": []core.AssetClass{}})
	}))
	defer srv.Close()

	ds, err := NewREST(srv.URL+"/", "", "")
	require.NoError(t, err)
	_, err = ds.GetAssets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/assets", gotPath, "no double slash between base URL and path")
}
