package api

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/go-chi/chi/v5"
	"github.com/vocdoni/payments-backend/internal/testutil"
	"github.com/vocdoni/payments-backend/payments"
	"github.com/vocdoni/payments-backend/validator"
)

const (
	testSecret        = "super-secret"
	testWebhookSecret = "whsec_api_test"
	testFrontendURL   = "https://app.example.org"
)

// testAPI is an API server backed by the in-memory platform.
type testAPI struct {
	api *API
	srv *httptest.Server
	gw  *testutil.Gateway
	svc *payments.Service
}

func newTestAPI(c *qt.C, conf *Config) *testAPI {
	gw := testutil.NewGateway()
	svc, err := payments.New(gw, &payments.Config{
		WebhookSecret: testWebhookSecret,
		FrontendURL:   testFrontendURL,
	})
	c.Assert(err, qt.IsNil)
	c.Cleanup(svc.Close)
	if conf == nil {
		conf = &Config{}
	}
	conf.Service = svc
	a := New(conf)
	c.Assert(a, qt.IsNotNil)
	srv := httptest.NewServer(a.Router())
	c.Cleanup(srv.Close)
	return &testAPI{api: a, srv: srv, gw: gw, svc: svc}
}

// mustMarshal helper function marshalls the input interface into a byte slice.
// It panics if the marshalling fails.
func mustMarshal(i any) []byte {
	b, err := json.Marshal(i)
	if err != nil {
		panic(err)
	}
	return b
}

// request sends body (marshalled unless it already is a []byte) and returns
// the status code and the response body.
func (t *testAPI) request(c *qt.C, method, path string, body any, headers map[string]string) (int, []byte) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		reader = bytes.NewReader(mustMarshal(b))
	}
	req, err := http.NewRequest(method, t.srv.URL+path, reader)
	c.Assert(err, qt.IsNil)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	c.Assert(err, qt.IsNil)
	defer func() { _ = resp.Body.Close() }()
	respBody, err := io.ReadAll(resp.Body)
	c.Assert(err, qt.IsNil)
	return resp.StatusCode, respBody
}

// errorCode extracts the code of an error envelope.
func errorCode(c *qt.C, body []byte) int {
	var envelope struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	c.Assert(json.Unmarshal(body, &envelope), qt.IsNil, qt.Commentf("body: %s", body))
	return envelope.Code
}

func decode[T any](c *qt.C, body []byte) *T {
	out := new(T)
	c.Assert(json.Unmarshal(body, out), qt.IsNil, qt.Commentf("body: %s", body))
	return out
}

func TestNewRequiresService(t *testing.T) {
	c := qt.New(t)
	c.Assert(New(nil), qt.IsNil)
	c.Assert(New(&Config{}), qt.IsNil)
}

func TestPing(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(c, nil)
	status, body := ta.request(c, http.MethodGet, pingEndpoint, nil, nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(string(body), qt.Equals, ".")
}

func TestMetricsAreExposed(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(c, nil)
	// produce at least one sample of the webhook counter
	status, _ := ta.request(c, http.MethodPost, webhookEndpoint, []byte(`{}`),
		map[string]string{payments.SignatureHeader: "t=1,v1=bad"})
	c.Assert(status, qt.Equals, http.StatusBadRequest)

	status, body := ta.request(c, http.MethodGet, metricsEndpoint, nil, nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(string(body), qt.Contains, "payments_webhook_events_total")
}

func TestOperatorToken(t *testing.T) {
	c := qt.New(t)
	now := time.Now()
	token, expiration, err := OperatorToken(testSecret, time.Hour, now)
	c.Assert(err, qt.IsNil)
	c.Assert(token, qt.Not(qt.Equals), "")
	c.Assert(expiration.Equal(now.Add(time.Hour)), qt.IsTrue)
}

func TestWriteJSON(t *testing.T) {
	c := qt.New(t)

	w := httptest.NewRecorder()
	httpWriteJSON(w, &URLResponse{URL: "https://example.org"})
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Header().Get("Content-Type"), qt.Equals, "application/json")
	c.Assert(w.Body.String(), qt.Equals, `{"url":"https://example.org"}`+"\n")

	// a value JSON cannot represent answers a server error, not a broken 200
	w = httptest.NewRecorder()
	httpWriteJSON(w, map[string]any{"value": math.Inf(1)})
	c.Assert(w.Code, qt.Equals, http.StatusInternalServerError)
	c.Assert(errorCode(c, w.Body.Bytes()), qt.Equals, 50001)
}

func TestValidatedMiddleware(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(c, nil)

	var got *PortalRequest
	r := chi.NewRouter()
	r.With(ta.api.validated(PortalRequest{})...).Post("/", func(w http.ResponseWriter, r *http.Request) {
		got, _ = validator.Model[PortalRequest](r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"customerId":"cus_1"}`))))
	c.Assert(w.Code, qt.Equals, http.StatusNoContent)
	c.Assert(got, qt.DeepEquals, &PortalRequest{CustomerID: "cus_1"})

	got = nil
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{}`))))
	c.Assert(w.Code, qt.Equals, http.StatusBadRequest)
	c.Assert(errorCode(c, w.Body.Bytes()), qt.Equals, 40004)
	c.Assert(got, qt.IsNil)
}
