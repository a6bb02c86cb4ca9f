package gatewaysvc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/credential"
	inmemcred "github.com/trezcool/masomo-console/storage/credential/inmem"
	tu "github.com/trezcool/masomo-console/testutil"
)

func newTestGateway(t *testing.T, baseURL string, store credential.Store, reg prometheus.Registerer) *Gateway {
	t.Helper()
	gw, err := New(Config{
		BaseURL:    baseURL,
		Timeout:    5 * time.Second,
		Store:      store,
		Logger:     tu.NewLogger(),
		Registerer: reg,
	})
	require.NoError(t, err)
	return gw
}

func TestNew(t *testing.T) {
	store := inmemcred.NewStore()
	logger := tu.NewLogger()

	tests := []struct {
		name    string
		conf    Config
		wantErr bool
	}{
		{name: "valid", conf: Config{BaseURL: "http://api.test", Store: store, Logger: logger}},
		{name: "missing base url", conf: Config{Store: store, Logger: logger}, wantErr: true},
		{name: "missing store", conf: Config{BaseURL: "http://api.test", Logger: logger}, wantErr: true},
		{name: "missing logger", conf: Config{BaseURL: "http://api.test", Store: store}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, err := New(tt.conf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://api.test", gw.BaseURL())
		})
	}
}

func TestNew_ResolvesBaseURL(t *testing.T) {
	gw := newTestGateway(t, " , http://a.test/,http://b.test", inmemcred.NewStore(), nil)
	assert.Equal(t, "http://a.test", gw.BaseURL())
}

func TestGateway_Bearer(t *testing.T) {
	ctx := context.Background()
	api := tu.NewAPI(t)
	store := inmemcred.NewStore()
	gw := newTestGateway(t, api.URL(), store, nil)

	// anonymous: no header at all
	err := gw.Get(ctx, "/students/", nil)
	assert.True(t, core.IsAuthorization(err))
	assert.Equal(t, "", api.LastAuthorization())

	// the token is read on every call
	token := api.Token(t, "admin@masomo.test")
	require.NoError(t, store.Set(ctx, credential.Credential{Token: token}))
	require.NoError(t, gw.Get(ctx, "/students/", nil))
	assert.Equal(t, "Bearer "+token, api.LastAuthorization())

	require.NoError(t, store.Clear(ctx))
	_ = gw.Get(ctx, "/students/", nil)
	assert.Equal(t, "", api.LastAuthorization())
}

func TestGateway_RequestID(t *testing.T) {
	ids := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get(HeaderRequestID)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, inmemcred.NewStore(), nil)
	require.NoError(t, gw.Delete(context.Background(), "/students/1"))
	require.NoError(t, gw.Delete(context.Background(), "/students/1"))

	first, second := <-ids, <-ids
	assert.Len(t, first, 36)
	assert.NotEqual(t, first, second)
}

func TestGateway_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   core.ErrorKind
		wantDetail string
		wantFields []core.DetailItem
		wantRaw    string
	}{
		{name: "string detail", status: 400, body: `{"detail":"Incorrect email or password"}`, wantKind: core.KindRemote, wantDetail: "Incorrect email or password"},
		{
			name: "validation list", status: 422,
			body:       `{"detail":[{"loc":["body","password"],"msg":"too short","type":"value_error"},{"loc":["body",0],"msg":"bad"}]}`,
			wantKind:   core.KindValidation,
			wantFields: []core.DetailItem{{Msg: "too short", Loc: []string{"body", "password"}}, {Msg: "bad", Loc: []string{"body", "0"}}},
		},
		{name: "unauthorized", status: 401, body: `{"detail":"Not authenticated"}`, wantKind: core.KindAuthorization, wantDetail: "Not authenticated"},
		{name: "forbidden", status: 403, body: ``, wantKind: core.KindAuthorization},
		{name: "object detail", status: 500, body: `{"detail":{"code":7}}`, wantKind: core.KindRemote, wantRaw: `{"code":7}`},
		{name: "list without msg", status: 400, body: `{"detail":["x"]}`, wantKind: core.KindRemote, wantRaw: `["x"]`},
		{name: "no detail", status: 502, body: `{"error":"bad gateway"}`, wantKind: core.KindRemote},
		{name: "not json", status: 500, body: `<html>oops</html>`, wantKind: core.KindRemote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			gw := newTestGateway(t, srv.URL, inmemcred.NewStore(), nil)
			err := gw.Post(context.Background(), "/auth/register", map[string]string{"email": "a@b.com"}, nil)

			apiErr, ok := core.AsAPIError(err)
			require.True(t, ok, "want *core.APIError, got %T", err)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			assert.Equal(t, tt.wantRaw, apiErr.Raw)
			if tt.wantFields == nil {
				assert.Empty(t, apiErr.Fields)
			} else {
				assert.Equal(t, tt.wantFields, apiErr.Fields)
			}
		})
	}
}

func TestGateway_TransportError(t *testing.T) {
	api := tu.NewAPI(t)
	api.Close()

	gw := newTestGateway(t, api.URL(), inmemcred.NewStore(), nil)
	err := gw.Get(context.Background(), "/students/", nil)

	apiErr, ok := core.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, core.KindTransport, apiErr.Kind)
	assert.Equal(t, 0, apiErr.StatusCode)
	assert.NotEmpty(t, core.LoginErrorMessage(err))
}

func TestGateway_NoRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gw := newTestGateway(t, srv.URL, inmemcred.NewStore(), nil)
	assert.Error(t, gw.Get(context.Background(), "/students/", nil))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGateway_Form(t *testing.T) {
	api := tu.NewAPI(t)
	api.AddAccount(t, "a@b.com", "secret")
	gw := newTestGateway(t, api.URL(), inmemcred.NewStore(), nil)

	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := gw.Form(context.Background(), "/auth/login", map[string][]string{
		"username": {"a@b.com"},
		"password": {"secret"},
	}, &out)
	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
}

func TestGateway_Upload(t *testing.T) {
	ctx := context.Background()
	api := tu.NewAPI(t)
	store := inmemcred.NewStore(credential.Credential{Token: api.Token(t, "a@b.com")})
	gw := newTestGateway(t, api.URL(), store, nil)

	resp, err := gw.Upload(ctx, "/utils/remove-bg", "image/png", FilePart{
		Field:    "file",
		Filename: "/tmp/photo \"1\".jpg",
		Content:  strings.NewReader("jpeg-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte(nil), tu.PNGHeader...), "jpeg-bytes"...), resp.Body)

	up, ok := api.LastUpload(tu.Route(http.MethodPost, "/utils/remove-bg"))
	require.True(t, ok)
	assert.Equal(t, `photo "1".jpg`, up.Filename)
	assert.Equal(t, []byte("jpeg-bytes"), up.Content)
}

func TestGateway_Metrics(t *testing.T) {
	ctx := context.Background()
	api := tu.NewAPI(t)
	reg := prometheus.NewRegistry()
	gw := newTestGateway(t, api.URL(), inmemcred.NewStore(), reg)

	_ = gw.Get(ctx, "/students/", nil)
	_ = gw.Get(ctx, "/students/", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(gw.metrics.requests.WithLabelValues("GET", "/students/", "401")))
	assert.Equal(t, 1, testutil.CollectAndCount(gw.metrics.duration))

	// a second gateway cannot register the same collectors twice
	_, err := New(Config{BaseURL: api.URL(), Store: inmemcred.NewStore(), Logger: tu.NewLogger(), Registerer: reg})
	assert.Error(t, err)
}
