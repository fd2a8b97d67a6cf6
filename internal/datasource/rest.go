package datasource

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sua-org/scene-controller/internal/core"
)

func init() {
	Register("rest", func(settings map[string]string) (DataSource, error) {
		baseURL := settings["url"]
		if baseURL == "" {
			return nil, fmt.Errorf("datasource: rest adapter requires a url")
		}
		return NewREST(baseURL, settings["auth"], settings["root_cert"])
	})
}

// REST is the Data Source Adapter backed by the scene-management REST
// service: a single *http.Client, a token attached as an Authorization
// header, and JSON-decoded envelope responses.
type REST struct {
	BaseURL  string
	AuthUser string // "user:token" form, sent as the REST_AUTH value
	HTTP     *http.Client
}

// NewREST builds a REST adapter. rootCertPath, if set, is loaded into
// the client's TLS trust pool instead of the system pool — the same
// root-cert override the scene management service's REST_URL/RootCert
// settings expect.
func NewREST(baseURL, auth, rootCertPath string) (*REST, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := &http.Client{Timeout: 15 * time.Second}

	if rootCertPath != "" {
		pem, err := os.ReadFile(rootCertPath)
		if err != nil {
			return nil, fmt.Errorf("datasource: reading root cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("datasource: root cert %s has no usable certificates", rootCertPath)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool},
		}
	}

	return &REST{BaseURL: baseURL, AuthUser: auth, HTTP: httpClient}, nil
}

func (r *REST) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if r.AuthUser != "" {
		req.Header.Set("Authorization", "Token "+r.AuthUser)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (r *REST) do(req *http.Request, out interface{}) error {
	resp, err := r.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("datasource: rest request failed: status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (r *REST) GetScenes(ctx context.Context) (Result, error) {
	req, err := r.newRequest(ctx, http.MethodGet, "/api/v1/scenes", nil)
	if err != nil {
		return Result{}, err
	}
	var envelope struct {
		Results []core.ScenePayload `json:"results"`
	}
	if err := r.do(req, &envelope); err != nil {
		return Result{}, err
	}
	return Result{Scenes: envelope.Results}, nil
}

func (r *REST) GetCamera(ctx context.Context, cameraUID string) (core.CameraPayload, error) {
	req, err := r.newRequest(ctx, http.MethodGet, "/api/v1/cameras/"+cameraUID, nil)
	if err != nil {
		return core.CameraPayload{}, err
	}
	var payload core.CameraPayload
	if err := r.do(req, &payload); err != nil {
		return core.CameraPayload{}, err
	}
	return payload, nil
}

func (r *REST) UpdateCamera(ctx context.Context, cameraUID string, payload core.CameraPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := r.newRequest(ctx, http.MethodPatch, "/api/v1/cameras/"+cameraUID, body)
	if err != nil {
		return err
	}
	return r.do(req, nil)
}

func (r *REST) GetAssets(ctx context.Context) ([]core.AssetClass, error) {
	req, err := r.newRequest(ctx, http.MethodGet, "/api/v1/assets", nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Results []core.AssetClass `json:"results"`
	}
	if err := r.do(req, &envelope); err != nil {
		return nil, err
	}
	return envelope.Results, nil
}

func (r *REST) GetChildScenes(ctx context.Context, sceneUID string) ([]core.ChildPayload, error) {
	req, err := r.newRequest(ctx, http.MethodGet, "/api/v1/scenes/"+sceneUID+"/children", nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Results []core.ChildPayload `json:"results"`
	}
	if err := r.do(req, &envelope); err != nil {
		return nil, err
	}
	return envelope.Results, nil
}

func (r *REST) SetTRSMatrix(ctx context.Context, sceneUID string, m [16]float64) error {
	body, err := json.Marshal(struct {
		TRSMatrix [16]float64 `json:"trs_xyz_to_lla"`
	}{m})
	if err != nil {
		return err
	}
	req, err := r.newRequest(ctx, http.MethodPatch, "/api/v1/scenes/"+sceneUID, body)
	if err != nil {
		return err
	}
	return r.do(req, nil)
}
