package shopapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/dayyanintl/surgishop/config"
	"github.com/dayyanintl/surgishop/internal/app"
	"github.com/dayyanintl/surgishop/internal/dbtest"
	"github.com/dayyanintl/surgishop/internal/domain"
	"github.com/dayyanintl/surgishop/internal/mail"
	"github.com/dayyanintl/surgishop/internal/webserver"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (r *recordingSender) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) to(addr string) []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []mail.Message
	for _, m := range r.sent {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

type fakeUploader struct {
	mu    sync.Mutex
	names []string
	types []string
}

func (f *fakeUploader) Upload(_ context.Context, name string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	f.types = append(f.types, contentType)
	return "https://cdn.example.com/images/" + name, nil
}

type harness struct {
	t        *testing.T
	app      *app.Application
	mail     *recordingSender
	uploader *fakeUploader
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := *config.DefaultAppConfig
	cfg.System.Workdir = t.TempDir()
	cfg.Database.Type = "sqlite"
	cfg.Web.Secret = "test-secret"
	cfg.Shop.OwnerEmail = "owner@example.com"

	a := app.NewApplication(&cfg)
	a.OverrideDB(dbtest.Open(t))
	require.NoError(t, a.SetupServices())
	sender := &recordingSender{}
	require.NoError(t, a.OverrideMailSender(sender))
	uploader := &fakeUploader{}
	a.OverrideUploader(uploader)
	t.Cleanup(a.Release)

	webserver.Init(a)
	Init()
	return &harness{t: t, app: a, mail: sender, uploader: uploader}
}

func (h *harness) user(email, role string) (*domain.User, string) {
	h.t.Helper()
	u := dbtest.User(h.t, h.app.DB(), email, role)
	pair, err := h.app.Tokens().Issue(u.ID, u.Role)
	require.NoError(h.t, err)
	return u, pair.AccessToken
}

func (h *harness) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(h.t, err)
		reader = strings.NewReader(string(data))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return h.serve(req)
}

func (h *harness) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	webserver.Root().ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the data member of a success envelope into out and
// returns the meta block, if any.
func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) *Meta {
	t.Helper()
	var env struct {
		Data jsoniter.RawMessage `json:"data"`
		Meta *Meta               `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env.Meta
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp webserver.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}
