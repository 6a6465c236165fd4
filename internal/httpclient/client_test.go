package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		want    bool
	}{
		{"127.0.0.1:1080", true},
		{"localhost:9050", true},
		{"proxy.example.com:65535", true},
		{"", false},
		{"127.0.0.1", false},
		{":1080", false},
		{"127.0.0.1:", false},
		{"127.0.0.1:0", false},
		{"127.0.0.1:65536", false},
		{"127.0.0.1:abc", false},
		{"socks5://127.0.0.1:1080", false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			t.Parallel()
			if got := isValidProxyAddress(tt.address); got != tt.want {
				t.Errorf("isValidProxyAddress(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		client, err := New()
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if client.Timeout != DefaultTimeout {
			t.Errorf("Timeout = %v, want %v", client.Timeout, DefaultTimeout)
		}
		if client.Jar == nil {
			t.Error("expected a cookie jar")
		}
	})

	t.Run("custom timeout", func(t *testing.T) {
		t.Parallel()

		client, err := New(WithTimeout(5 * time.Second))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if client.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want 5s", client.Timeout)
		}
	})

	t.Run("invalid proxy", func(t *testing.T) {
		t.Parallel()

		if _, err := New(WithProxy("not-a-proxy")); !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("valid proxy", func(t *testing.T) {
		t.Parallel()

		if _, err := New(WithProxy("127.0.0.1:1080")); err != nil {
			t.Errorf("New() error = %v", err)
		}
	})
}

func TestHeaderInjection(t *testing.T) {
	t.Parallel()

	got := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := New(
		WithCookie("region=eu"),
		WithHeaders(map[string]string{"Accept-Language": "de-DE"}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Cookie", "consent=yes")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	resp.Body.Close()

	header := <-got
	if gotCookie := header.Get("Cookie"); gotCookie != "consent=yes; region=eu" {
		t.Errorf("Cookie = %q", gotCookie)
	}
	if gotLang := header.Get("Accept-Language"); gotLang != "de-DE" {
		t.Errorf("Accept-Language = %q", gotLang)
	}
}

func TestRedirectLimit(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		http.Redirect(w, r, fmt.Sprintf("/hop/%d", n), http.StatusFound)
	}))
	defer srv.Close()

	client, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Errorf("StatusCode = %d, want 302", resp.StatusCode)
	}
	if n := hits.Load(); n != MaxRedirects {
		t.Errorf("server hit %d times, want %d", n, MaxRedirects)
	}
}

func serveOnce(t *testing.T, reply []byte) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
	if err != nil {
		t.Fatalf("failed to start mock server: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 3)
		_, _ = conn.Read(buf)
		_, _ = conn.Write(reply)
	}()

	return listener.Addr().String()
}

func TestCheckProxy(t *testing.T) {
	t.Parallel()

	t.Run("SOCKS5 without auth", func(t *testing.T) {
		t.Parallel()
		addr := serveOnce(t, []byte{0x05, 0x00})
		if got := CheckProxy(context.Background(), addr); got != ProxyStatusOK {
			t.Errorf("CheckProxy() = %v, want OK", got)
		}
	})

	t.Run("HTTP server", func(t *testing.T) {
		t.Parallel()
		addr := serveOnce(t, []byte("HTTP/1.1 200 OK\r\n\r\n"))
		if got := CheckProxy(context.Background(), addr); got != ProxyStatusWrongType {
			t.Errorf("CheckProxy() = %v, want WrongType", got)
		}
	})

	t.Run("SOCKS5 requiring auth", func(t *testing.T) {
		t.Parallel()
		addr := serveOnce(t, []byte{0x05, 0xFF})
		got := CheckProxy(context.Background(), addr)
		if got != ProxyStatusWrongType {
			t.Errorf("CheckProxy() = %v, want WrongType", got)
		}
		if !errors.Is(got.Err(), ErrProxyNotSOCKS5) {
			t.Errorf("Err() = %v", got.Err())
		}
	})

	t.Run("nothing listening", func(t *testing.T) {
		t.Parallel()

		listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatal(err)
		}
		addr := listener.Addr().String()
		listener.Close()

		if got := CheckProxy(context.Background(), addr); got != ProxyStatusCannotConnect {
			t.Errorf("CheckProxy() = %v, want CannotConnect", got)
		}
	})
}

func TestProxyStatusString(t *testing.T) {
	t.Parallel()

	for status, want := range map[ProxyStatus]string{
		ProxyStatusOK:            "OK",
		ProxyStatusWrongType:     "wrong type (not SOCKS5)",
		ProxyStatusCannotConnect: "cannot connect",
		ProxyStatusTimeout:       "timeout",
		ProxyStatus(99):          "unknown",
	} {
		if got := status.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", status, got, want)
		}
	}
	if ProxyStatusOK.Err() != nil {
		t.Error("expected nil error for OK")
	}
}
