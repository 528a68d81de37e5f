package runtime

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neakor/hemera/pkg/args"
	"github.com/neakor/hemera/pkg/config"
	"github.com/neakor/hemera/pkg/logging"
	"github.com/neakor/hemera/pkg/metrics"
	"github.com/neakor/hemera/pkg/rest"
	"github.com/neakor/hemera/pkg/tlsutil"
)

// greetRequest pulls the caller's name from the decoded arguments.
type greetRequest struct {
	name string
}

func (r *greetRequest) Parse(_ []string, arguments args.Arguments) error {
	name, ok := arguments.Text("name")
	if !ok {
		name = "world"
	}
	r.name = name
	return nil
}

type greetResponse struct {
	Greeting string `json:"greeting"`
}

func (r *greetResponse) Status() rest.Status { return rest.StatusOK }

func (r *greetResponse) JSON() ([]byte, error) { return json.Marshal(r) }

// greetProcessor is a minimal active processor counting invocations.
type greetProcessor struct {
	invocations atomic.Int64
}

func (p *greetProcessor) NewRequest() rest.Request { return &greetRequest{} }

func (p *greetProcessor) Redirect(rest.Request) rest.RedirectBehavior { return rest.Invoke }

func (p *greetProcessor) RedirectURI(rest.Request, rest.Response) string { return "" }

func (p *greetProcessor) Process(request rest.Request) (rest.Response, error) {
	p.invocations.Add(1)
	greet := request.(*greetRequest)
	return &greetResponse{Greeting: "hello " + greet.name}, nil
}

// singleProcessorResource answers every method with one processor.
type singleProcessorResource struct {
	processor rest.Processor
}

func (r *singleProcessorResource) Processor([]string, rest.Method) rest.Processor {
	return r.processor
}

func newTestRuntime(t *testing.T, cfg *config.Configuration, reg *metrics.Registry) (*Runtime, *greetProcessor) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfiguration()
		cfg.Port = 0
	}
	processor := &greetProcessor{}
	registry := rest.NewPathRegistry()
	require.NoError(t, registry.Add("services/greet", &singleProcessorResource{processor: processor}))

	opts := []Option{WithLogger(logging.Nop())}
	if reg != nil {
		opts = append(opts, WithMetrics(reg))
	}
	rt := New(cfg, registry, opts...)
	require.NoError(t, rt.Start())
	t.Cleanup(func() { _ = rt.Stop() })
	return rt, processor
}

func baseURL(rt *Runtime) string {
	return "http://" + rt.Addr().String()
}

func TestRuntimeServesRequests(t *testing.T) {
	t.Parallel()
	rt, processor := newTestRuntime(t, nil, nil)

	resp, err := http.Get(baseURL(rt) + "/services/greet?name=ada")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "Hemera/1.1", resp.Header.Get("Server"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"greeting":"hello ada"}`, string(body))
	assert.Equal(t, int64(1), processor.invocations.Load())
}

func TestRuntimeNotFoundDocument(t *testing.T) {
	t.Parallel()
	rt, _ := newTestRuntime(t, nil, nil)

	resp, err := http.Get(baseURL(rt) + "/services/missing?x=1")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t,
		`{"http_status":"C404_NotFound","exception":"No such service provided: /services/missing?x=1"}`,
		string(body))
}

func TestRuntimeJSONPWrapping(t *testing.T) {
	t.Parallel()
	rt, _ := newTestRuntime(t, nil, nil)

	resp, err := http.Get(baseURL(rt) + "/services/greet?name=ada&callback=cb")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "cb("), "got %q", body)
	assert.True(t, strings.HasSuffix(string(body), ")"))
}

func TestRuntimeBodyOverridesQuery(t *testing.T) {
	t.Parallel()
	rt, _ := newTestRuntime(t, nil, nil)

	form := url.Values{"name": {"body"}}
	resp, err := http.Post(
		baseURL(rt)+"/services/greet?name=query",
		"application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"greeting":"hello body"}`, string(body))
}

func TestRuntimeKeepAliveExchangesInOrder(t *testing.T) {
	t.Parallel()
	rt, processor := newTestRuntime(t, nil, nil)

	conn, err := net.Dial("tcp", rt.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	reader := bufio.NewReader(conn)

	for i := 0; i < 3; i++ {
		_, err = fmt.Fprintf(conn, "GET /services/greet?name=n%d HTTP/1.1\r\nHost: localhost\r\n\r\n", i)
		require.NoError(t, err)
		resp, err := http.ReadResponse(reader, nil)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, fmt.Sprintf(`{"greeting":"hello n%d"}`, i), string(body))
	}
	assert.Equal(t, int64(3), processor.invocations.Load())
}

func TestRuntimeConnectionMetrics(t *testing.T) {
	t.Parallel()
	reg := metrics.NewRegistry()
	rt, _ := newTestRuntime(t, nil, reg)

	resp, err := http.Get(baseURL(rt) + "/services/greet")
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	http.DefaultClient.CloseIdleConnections()

	assert.Eventually(t, func() bool {
		return reg.Gauge("connections_active").Value() == 0
	}, 3*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, reg.Counter("connections_accepted_total").Value(), uint64(1))
	assert.GreaterOrEqual(t, reg.Counter("requests_total").LabelValue("200"), uint64(1))
}

func TestRuntimeIdleConnectionTimesOut(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultConfiguration()
	cfg.Port = 0
	cfg.ReadTimeout = 1
	reg := metrics.NewRegistry()
	rt, _ := newTestRuntime(t, cfg, reg)

	conn, err := net.Dial("tcp", rt.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// Give the acceptor time to register the pump before waiting.
	assert.Eventually(t, func() bool {
		return reg.Gauge("connections_active").Value() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return reg.Gauge("connections_active").Value() == 0
	}, 4*time.Second, 50*time.Millisecond)
}

func TestRuntimeTLS(t *testing.T) {
	t.Parallel()
	cert, err := tlsutil.GenerateSelfSigned(tlsutil.DefaultCertificateConfig())
	require.NoError(t, err)
	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certFile, cert.CertPEM, 0o600))
	require.NoError(t, os.WriteFile(keyFile, cert.KeyPEM, 0o600))

	cfg := config.DefaultConfiguration()
	cfg.Port = 0
	cfg.TLS = &config.TLSConfig{Enabled: true, CertFile: certFile, KeyFile: keyFile}
	rt, _ := newTestRuntime(t, cfg, nil)

	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	defer client.CloseIdleConnections()
	resp, err := client.Get("https://" + rt.Addr().String() + "/services/greet?name=tls")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"greeting":"hello tls"}`, string(body))
}

func TestRuntimeStopDoesNotBlockReaders(t *testing.T) {
	t.Parallel()
	rt, _ := newTestRuntime(t, nil, nil)

	// An open connection gives the shutdown a pump to drain.
	conn, err := net.Dial("tcp", rt.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	stopDone := make(chan error, 1)
	go func() { stopDone <- rt.Stop() }()

	// State readers answer while the drain is in flight: running flips
	// before the pumps finish winding down.
	assert.Eventually(t, func() bool { return !rt.IsRunning() }, 2*time.Second, time.Millisecond)
	assert.NotNil(t, rt.Addr())
	assert.Equal(t, time.Duration(0), rt.Uptime())
	require.NoError(t, <-stopDone)
}

func TestRuntimeLifecycle(t *testing.T) {
	t.Parallel()
	rt, _ := newTestRuntime(t, nil, nil)

	assert.True(t, rt.IsRunning())
	assert.Error(t, rt.Start(), "second start must be rejected")
	assert.Greater(t, rt.Uptime(), time.Duration(0))

	require.NoError(t, rt.Stop())
	assert.False(t, rt.IsRunning())
	assert.Equal(t, time.Duration(0), rt.Uptime())
	assert.NoError(t, rt.Stop(), "stop is idempotent")
	assert.Error(t, rt.Start(), "a stopped runtime is not restartable")
}
