package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeAddr(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty falls back to default", "", "127.0.0.1:8080"},
		{"bind-all becomes loopback", "0.0.0.0:9090", "127.0.0.1:9090"},
		{"missing host becomes loopback", ":8080", "127.0.0.1:8080"},
		{"explicit host kept", "10.0.0.5:8080", "10.0.0.5:8080"},
		{"unparseable falls back to default", "not-an-addr", "127.0.0.1:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, probeAddr(tt.raw))
		})
	}
}

func TestProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.True(t, probe(strings.TrimPrefix(server.URL, "http://")))
}

func TestProbe_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := strings.TrimPrefix(server.URL, "http://")
	server.Close()

	assert.False(t, probe(addr))
}

func TestProbe_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	assert.False(t, probe(strings.TrimPrefix(server.URL, "http://")))
}
