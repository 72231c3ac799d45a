// Command healthcheck probes the panel server's health endpoint and exits
// 0 or 1. It exists for container HEALTHCHECK directives, where a shell
// and curl are unavailable in a scratch image.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"
)

const (
	defaultAddr  = "127.0.0.1:8080"
	probeTimeout = 2 * time.Second
)

func main() {
	if !probe(probeAddr(os.Getenv("COMMENTPANEL_LISTEN_ADDR"))) {
		os.Exit(1)
	}
}

// probe performs one GET against the panel's health endpoint. Anything
// other than a timely 200 is a failure.
func probe(addr string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/api/v1/health", nil)
	if err != nil {
		return false
	}

	client := &http.Client{Timeout: probeTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// probeAddr maps the server's listen address to one the probe can dial.
// The server may bind 0.0.0.0 inside the container; the probe runs in the
// same network namespace, so loopback is the address to hit.
func probeAddr(raw string) string {
	if raw == "" {
		return defaultAddr
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return defaultAddr
	}

	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
