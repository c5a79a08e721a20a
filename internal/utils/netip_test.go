package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHostOnly(t *testing.T) {
	tests := map[string]string{
		"example.com":      "example.com",
		"example.com:8080": "example.com",
		"10.0.0.1:443":     "10.0.0.1",
		"[::1]:8080":       "::1",
		"[::1]":            "::1",
		"::1":              "::1",
		" spaced.test ":    "spaced.test",
		"":                 "",
	}
	for in, want := range tests {
		if got := HostOnly(in); got != want {
			t.Errorf("HostOnly(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{
			name:   "remote addr",
			remote: "203.0.113.7:51234",
			want:   "203.0.113.7",
		},
		{
			name:    "untrusted proxy headers are ignored",
			remote:  "203.0.113.7:51234",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.1", "CF-Connecting-IP": "198.51.100.2"},
			want:    "203.0.113.7",
		},
		{
			name:       "cloudflare header wins",
			remote:     "127.0.0.1:9000",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1", "CF-Connecting-IP": "198.51.100.2"},
			trustProxy: true,
			want:       "198.51.100.2",
		},
		{
			name:       "left-most forwarded for",
			remote:     "127.0.0.1:9000",
			headers:    map[string]string{"X-Forwarded-For": " 198.51.100.1 , 10.0.0.2"},
			trustProxy: true,
			want:       "198.51.100.1",
		},
		{
			name:       "real ip",
			remote:     "127.0.0.1:9000",
			headers:    map[string]string{"X-Real-IP": "198.51.100.3"},
			trustProxy: true,
			want:       "198.51.100.3",
		},
		{
			name:       "garbage header falls through",
			remote:     "127.0.0.1:9000",
			headers:    map[string]string{"CF-Connecting-IP": "not-an-ip", "X-Real-IP": "198.51.100.3"},
			trustProxy: true,
			want:       "198.51.100.3",
		},
		{
			name:       "no usable header keeps remote addr",
			remote:     "127.0.0.1:9000",
			headers:    map[string]string{"X-Forwarded-For": "unknown"},
			trustProxy: true,
			want:       "127.0.0.1",
		},
		{
			name:   "mapped v6 is unmapped",
			remote: "[::ffff:192.0.2.1]:80",
			want:   "192.0.2.1",
		},
		{
			name:   "unparseable remote",
			remote: "pipe",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAllowList(t *testing.T) {
	list, rejected := ParseAllowList([]string{"10.0.0.0/8", " 192.168.1.4 ", "", "fd00::/8", "nonsense"})
	if diff := cmp.Diff([]string{"nonsense"}, rejected); diff != "" {
		t.Errorf("ParseAllowList() rejected mismatch (-want +got):\n%s", diff)
	}
	if list.Empty() {
		t.Fatal("Empty() = true, want false")
	}

	tests := map[string]bool{
		"10.1.2.3":         true,
		"192.168.1.4":      true,
		"192.168.1.5":      false,
		"fd00::1":          true,
		"::ffff:10.0.0.1":  true,
		"203.0.113.7":      false,
		"":                 false,
		"not-an-ip":        false,
		"[192.168.1.4]:80": true,
	}
	for ip, want := range tests {
		if got := list.Contains(ip); got != want {
			t.Errorf("Contains(%q) = %v, want %v", ip, got, want)
		}
	}

	empty, _ := ParseAllowList(nil)
	if !empty.Empty() {
		t.Errorf("ParseAllowList(nil).Empty() = false, want true")
	}
}
