package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	neturl "net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetWithParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/items/42", r.URL.Path)
		assert.Equal(t, int64(0), r.ContentLength)
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 42}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.NewRequest().
		BaseURI(server.URL).
		Path("/items/{id}").
		URLParameters(42).
		Get(context.Background())

	require.NoError(t, err)
	defer resp.Close()
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, FamilySuccess, resp.Family())
	assert.Equal(t, server.URL+"/items/42", resp.URL)
	body, err := resp.BodyString()
	require.NoError(t, err)
	assert.Contains(t, body, "42")
}

func TestClient_PostMultipart(t *testing.T) {
	binary := []byte{0x00, 0x10, 0x80, 0xff}
	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, binary, 0644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, []string{"foo"}, r.MultipartForm.Value["name"])
		if !assert.Len(t, r.MultipartForm.File["file"], 1) {
			return
		}
		header := r.MultipartForm.File["file"][0]
		assert.Equal(t, "blob.bin", header.Filename)
		f, err := header.Open()
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		content, _ := io.ReadAll(f)
		assert.Equal(t, binary, content)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	resp, err := NewClient().NewRequest().
		BaseURI(server.URL).
		Path("upload").
		Field("name", "foo").
		FileField("file", path).
		Post(context.Background())

	require.NoError(t, err)
	defer resp.Close()
	assert.Equal(t, 201, resp.StatusCode)
}

func TestClient_PostURLEncoded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "lang=en", r.URL.RawQuery)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "lang=en&name=Jane+Doe&tags=a%2Cb", string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	resp, err := NewClient().NewRequest().
		BaseURI(server.URL).
		Path("people").
		Query("lang=en").
		Field("name", "Jane Doe").
		Field("tags", "a,b").
		Post(context.Background())

	require.NoError(t, err)
	defer resp.Close()
	assert.Equal(t, 204, resp.StatusCode)
}

func TestClient_PutRawData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PUT", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"name":"test"}`, string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := NewClient().NewRequest().
		BaseURI(server.URL).
		Header("Content-Type", "text/plain").
		Data([]byte(`{"name":"test"}`), "application/json").
		Put(context.Background())

	require.NoError(t, err)
	defer resp.Close()
	assert.Equal(t, 200, resp.StatusCode)
}

func TestClient_FailsOnUnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such item"))
	}))
	defer server.Close()

	client := NewClient()

	_, err := client.NewRequest().BaseURI(server.URL).Get(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 404, se.StatusCode)
	assert.Equal(t, FamilyClientError, se.Family)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "CLIENT_ERROR")
	body, err := se.Response.BodyString()
	require.NoError(t, err)
	assert.Equal(t, "no such item", body)

	resp, err := client.NewRequest().BaseURI(server.URL).DoNotFailOn(404).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	resp.Close()

	resp, err = client.NewRequest().BaseURI(server.URL).DoNotFailOnFamily(FamilyClientError).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	resp.Close()

	_, err = client.NewRequest().BaseURI(server.URL).DoNotFailOn(409).DoNotFailOnFamily(FamilyServerError).Get(context.Background())
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
}

func TestClient_NeverFollowsRedirects(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path == "/final" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient()

	_, err := client.NewRequest().BaseURI(server.URL).Path("start").Head(context.Background())
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, FamilyRedirection, se.Family)

	resp, err := client.NewRequest().
		BaseURI(server.URL).
		Path("start").
		DoNotFailOnFamily(FamilyRedirection).
		Head(context.Background())
	require.NoError(t, err)
	defer resp.Close()
	assert.Equal(t, 302, resp.StatusCode)
	assert.True(t, resp.IsRedirect())
	assert.Equal(t, "/final", resp.Location())
	assert.Equal(t, 2, hits)
}

func TestClient_EmbeddedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("user:pass"))
		assert.Equal(t, expected, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	target := strings.Replace(server.URL, "http://", "http://user:pass@", 1) + "/path"
	resp, err := NewClient().NewRequest().Path(target).Delete(context.Background())

	require.NoError(t, err)
	defer resp.Close()
	assert.Equal(t, server.URL+"/path", resp.URL)
	assert.NotContains(t, resp.URL, "user:pass")
}

type proxyRecorder struct {
	hosts []string
	auth  []string
}

func newProxy(t *testing.T, rec *proxyRecorder) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.hosts = append(rec.hosts, r.URL.Host)
		rec.auth = append(rec.auth, r.Header.Get("Proxy-Authorization"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("via proxy"))
	}))
}

func TestClient_UsesConfiguredProxy(t *testing.T) {
	rec := &proxyRecorder{}
	proxy := newProxy(t, rec)
	defer proxy.Close()

	proxyURL, err := neturl.Parse(proxy.URL)
	require.NoError(t, err)

	client := NewClient(WithDefaults(Defaults{
		Proxy:                        proxyURL,
		ProxyUser:                    "bob",
		ProxyPassword:                "pw",
		BypassProxyForLocalAddresses: true,
	}))

	resp, err := client.NewRequest().BaseURI("http://api.test").Path("items").Get(context.Background())
	require.NoError(t, err)
	defer resp.Close()

	body, _ := resp.BodyString()
	assert.Equal(t, "via proxy", body)
	assert.Equal(t, []string{"api.test"}, rec.hosts)
	assert.Equal(t, []string{"Basic Ym9iOnB3"}, rec.auth)
}

func TestClient_BypassesProxyForLocalAddresses(t *testing.T) {
	rec := &proxyRecorder{}
	proxy := newProxy(t, rec)
	defer proxy.Close()
	proxyURL, _ := neturl.Parse(proxy.URL)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("direct"))
	}))
	defer server.Close()
	local := strings.Replace(server.URL, "127.0.0.1", "localhost", 1)

	client := NewClient(WithDefaults(Defaults{Proxy: proxyURL, BypassProxyForLocalAddresses: true}))
	resp, err := client.NewRequest().BaseURI(local).Get(context.Background())
	require.NoError(t, err)
	body, _ := resp.BodyString()
	assert.Equal(t, "direct", body)
	assert.Empty(t, rec.hosts)

	client = NewClient(WithDefaults(Defaults{Proxy: proxyURL}))
	resp, err = client.NewRequest().BaseURI(local).Get(context.Background())
	require.NoError(t, err)
	body, _ = resp.BodyString()
	assert.Equal(t, "via proxy", body)
	require.Len(t, rec.hosts, 1)
	assert.True(t, strings.HasPrefix(rec.hosts[0], "localhost:"))
}

func TestClient_BypassedProxyCredentialsStayLocal(t *testing.T) {
	rec := &proxyRecorder{}
	proxy := newProxy(t, rec)
	defer proxy.Close()
	proxyURL, _ := neturl.Parse(proxy.URL)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Proxy-Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	local := strings.Replace(server.URL, "127.0.0.1", "localhost", 1)

	client := NewClient(WithDefaults(Defaults{
		Proxy:                        proxyURL,
		ProxyUser:                    "bob",
		ProxyPassword:                "pw",
		BypassProxyForLocalAddresses: true,
	}))
	resp, err := client.NewRequest().BaseURI(local).Get(context.Background())
	require.NoError(t, err)
	resp.Close()
	assert.Empty(t, rec.hosts)
}

// newTunnelProxy answers CONNECT requests by piping bytes to the target.
func newTunnelProxy(t *testing.T, connectAuth *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodConnect {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		*connectAuth = append(*connectAuth, r.Header.Get("Proxy-Authorization"))

		upstream, err := net.Dial("tcp", r.Host)
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		hijacker, ok := w.(http.Hijacker)
		if !ok {
			upstream.Close()
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		conn, buf, err := hijacker.Hijack()
		if err != nil {
			upstream.Close()
			return
		}
		if _, err := conn.Write([]byte("HTTP/1.1 200 Connection established\r\n\r\n")); err != nil {
			conn.Close()
			upstream.Close()
			return
		}

		go func() {
			defer upstream.Close()
			_, _ = io.Copy(upstream, buf)
		}()
		go func() {
			defer conn.Close()
			_, _ = io.Copy(conn, upstream)
		}()
	}))
}

func TestClient_TunnelKeepsProxyCredentialsFromTarget(t *testing.T) {
	var originAuth []string
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		originAuth = append(originAuth, r.Header.Get("Proxy-Authorization"))
		_, _ = w.Write([]byte("secure"))
	}))
	defer server.Close()

	var connectAuth []string
	proxy := newTunnelProxy(t, &connectAuth)
	defer proxy.Close()
	proxyURL, _ := neturl.Parse(proxy.URL)

	client := NewClient(WithDefaults(Defaults{
		Proxy:                proxyURL,
		ProxyUser:            "bob",
		ProxyPassword:        "secret",
		TrustAllCertificates: true,
	}))

	resp, err := client.NewRequest().BaseURI(server.URL).Path("items").Get(context.Background())
	require.NoError(t, err)
	body, err := resp.BodyString()
	require.NoError(t, err)

	assert.Equal(t, "secure", body)
	assert.Equal(t, []string{BasicAuthHeader("bob", "secret")}, connectAuth)
	assert.Equal(t, []string{""}, originAuth)
}

func TestClient_HostHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "virtual.test", r.Host)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := NewClient().NewRequest().
		BaseURI(server.URL).
		Header("Host", "virtual.test").
		Get(context.Background())
	require.NoError(t, err)
	resp.Close()
}

func TestClient_TransportConfig(t *testing.T) {
	var got TransportConfig
	client := NewClient(
		WithDefaults(Defaults{TrustAllCertificates: true}),
		WithTransportFactory(func(cfg TransportConfig) http.RoundTripper {
			got = cfg
			return roundTripFunc(func(r *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusOK,
					Status:     "200 OK",
					Header:     make(http.Header),
					Body:       io.NopCloser(strings.NewReader("")),
					Request:    r,
				}, nil
			})
		}),
	)

	resp, err := client.NewRequest().BaseURI("https://api.test").Get(context.Background())
	require.NoError(t, err)
	resp.Close()

	assert.Nil(t, got.Proxy)
	assert.True(t, got.InsecureSkipVerify)
	assert.Equal(t, DefaultConnectTimeout, got.ConnectTimeout)
	assert.Zero(t, got.ReadTimeout)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := NewClient().NewRequest().
		BaseURI(server.URL).
		Timeout(50 * time.Millisecond).
		Get(context.Background())

	require.Error(t, err)
	var netErr net.Error
	require.True(t, errors.As(err, &netErr))
	assert.True(t, netErr.Timeout())
}

func TestClient_ConfigurationErrorBeforeConnecting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer server.Close()

	_, err := NewClient().NewRequest().BaseURI(server.URL).Field("a", "b").Get(context.Background())
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = NewClient().NewRequest().BaseURI(server.URL).Data([]byte("x"), "").Field("a", "b").Post(context.Background())
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestClient_LogRequestDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Served-By", "test")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	client := NewClient(WithLogger(logger))

	resp, err := client.NewRequest().
		BaseURI(server.URL).
		Authorization("alice", "secret").
		Header("X-Request-Id", "abc").
		Get(context.Background())
	require.NoError(t, err)
	resp.Close()
	assert.Empty(t, buf.String())

	resp, err = client.NewRequest().
		BaseURI(server.URL).
		Authorization("alice", "secret").
		Header("X-Request-Id", "abc").
		LogRequestDetails().
		Get(context.Background())
	require.NoError(t, err)
	resp.Close()

	out := buf.String()
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "user=alice")
	assert.Contains(t, out, "X-Request-Id=abc")
	assert.Contains(t, out, `Authorization="Basic ****"`)
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "X-Served-By=test")
	assert.NotContains(t, out, "secret")
	assert.NotContains(t, out, base64.StdEncoding.EncodeToString([]byte("alice:secret")))
}

func TestDefaultClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	SetDefaults(Defaults{BaseURI: server.URL})
	defer SetDefaults(Defaults{})

	assert.Equal(t, server.URL, DefaultClient().Defaults().BaseURI)

	resp, err := NewRequest().Path("status").Get(context.Background())
	require.NoError(t, err)
	defer resp.Close()
	assert.Equal(t, 200, resp.StatusCode)
}

func TestResponse_IsSuccess(t *testing.T) {
	tests := []struct {
		statusCode int
		expected   bool
	}{
		{200, true},
		{201, true},
		{204, true},
		{299, true},
		{300, false},
		{400, false},
		{404, false},
		{500, false},
	}

	for _, tt := range tests {
		resp := &Response{StatusCode: tt.statusCode}
		assert.Equal(t, tt.expected, resp.IsSuccess(), "StatusCode: %d", tt.statusCode)
	}
}

func TestResponse_Bytes(t *testing.T) {
	resp := &Response{Body: io.NopCloser(strings.NewReader("hello"))}

	b, err := resp.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	b, err = resp.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}
