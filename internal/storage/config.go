package storage

import (
	"strings"

	"github.com/forkful/forkful/backend/internal/config"
)

// publicBase returns the URL prefix objects in bucket are served under.
func publicBase(cfg config.MinIOConfig) string {
	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	return base + "/" + cfg.Bucket
}
