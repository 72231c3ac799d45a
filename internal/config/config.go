// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/lmeunier/commentpanel/internal/domain/model"
)

// Config holds the panel server configuration.
type Config struct {
	// PageURL is the product comment page the panel is mounted for; its
	// path must contain /product/{id}/comments.
	PageURL string
	// APIBaseURL is the comment service origin, without the /api prefix.
	APIBaseURL string
	ListenAddr string
}

// Load reads the panel configuration from environment variables.
// COMMENTPANEL_PAGE_URL is required. Optional variables with defaults:
// COMMENTPANEL_API_BASE_URL (http://127.0.0.1:8000),
// COMMENTPANEL_LISTEN_ADDR (127.0.0.1:8080).
func Load() (*Config, error) {
	pageURL := os.Getenv("COMMENTPANEL_PAGE_URL")
	if pageURL == "" {
		return nil, fmt.Errorf("COMMENTPANEL_PAGE_URL is required")
	}

	apiBaseURL := "http://127.0.0.1:8000"
	if v, ok := os.LookupEnv("COMMENTPANEL_API_BASE_URL"); ok {
		apiBaseURL = strings.TrimSuffix(v, "/")
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("COMMENTPANEL_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	return &Config{
		PageURL:    pageURL,
		APIBaseURL: apiBaseURL,
		ListenAddr: listenAddr,
	}, nil
}

// BackendConfig holds the development comment service configuration.
type BackendConfig struct {
	ListenAddr string
	DBPath     string
	// Username is the dev viewer every request is authenticated as.
	Username string
	// Permissions are the dev viewer's global permission codenames,
	// granted on every comment.
	Permissions []string
	// Superuser grants the comment model codenames on every comment
	// regardless of ownership.
	Superuser bool
}

// LoadBackend reads the development backend configuration from environment
// variables. All variables are optional: COMMENTSD_LISTEN_ADDR
// (127.0.0.1:8000), COMMENTSD_DB_PATH (commentsd.db), COMMENTSD_USERNAME
// (dev), COMMENTSD_PERMISSIONS (comma-separated codenames, default grants
// both moderator tokens), COMMENTSD_SUPERUSER (false unless "true" or "1").
func LoadBackend() (*BackendConfig, error) {
	listenAddr := "127.0.0.1:8000"
	if v, ok := os.LookupEnv("COMMENTSD_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "commentsd.db"
	if v, ok := os.LookupEnv("COMMENTSD_DB_PATH"); ok {
		dbPath = v
	}

	username := "dev"
	if v, ok := os.LookupEnv("COMMENTSD_USERNAME"); ok && v != "" {
		username = v
	}

	permissions := []string{model.PermChangeAll, model.PermDeleteAll}
	if v, ok := os.LookupEnv("COMMENTSD_PERMISSIONS"); ok {
		permissions = []string{}
		for _, codename := range strings.Split(v, ",") {
			codename = strings.TrimSpace(codename)
			if codename != "" {
				permissions = append(permissions, codename)
			}
		}
	}

	superuser := false
	if v, ok := os.LookupEnv("COMMENTSD_SUPERUSER"); ok {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			superuser = true
		case "", "0", "false", "no":
			superuser = false
		default:
			return nil, fmt.Errorf("COMMENTSD_SUPERUSER has invalid boolean %q", v)
		}
	}

	return &BackendConfig{
		ListenAddr:  listenAddr,
		DBPath:      dbPath,
		Username:    username,
		Permissions: permissions,
		Superuser:   superuser,
	}, nil
}
