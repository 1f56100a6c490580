package registry

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/telekom/k8s-fleetcred/pkg/version"
)

const fetchTimeout = 30 * time.Second

// Loader reads registry documents from local paths or http(s) catalog
// endpoints. Documents are read fresh on every invocation; there is no
// persisted merged form.
type Loader struct {
	http   *resty.Client
	logger *zap.SugaredLogger
}

// NewLoader creates a loader. Remote sources share one HTTP client with a
// request timeout and the engine's user agent.
func NewLoader(logger *zap.SugaredLogger) *Loader {
	client := resty.New().
		SetTimeout(fetchTimeout).
		SetHeader("User-Agent", version.UserAgent()).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	return &Loader{http: client, logger: logger}
}

// LoadBase reads and parses the base catalog. The catalog is authoritative:
// a missing, unreadable, or malformed catalog fails the whole run.
func (l *Loader) LoadBase(ctx context.Context, source string) (Document, error) {
	if strings.TrimSpace(source) == "" {
		return Document{}, fmt.Errorf("base catalog source is not configured")
	}
	data, err := l.fetch(ctx, source)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read base catalog: %w", err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return Document{}, fmt.Errorf("failed to parse base catalog %s: %w", source, err)
	}
	l.logger.Debugw("loaded base catalog", "source", source, "clusters", len(doc.Clusters))
	return doc, nil
}

// LoadOverrides reads and parses the user overrides. Overrides are optional:
// an empty source or an absent local file yields an empty document, leaving
// every entry at its base state. A configured remote source that cannot be
// fetched is still an error.
func (l *Loader) LoadOverrides(ctx context.Context, source string) (Document, error) {
	if strings.TrimSpace(source) == "" {
		return Document{}, nil
	}
	if !isRemote(source) {
		if _, err := os.Stat(source); os.IsNotExist(err) {
			l.logger.Debugw("no override document present", "source", source)
			return Document{}, nil
		}
	}
	data, err := l.fetch(ctx, source)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read overrides: %w", err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return Document{}, fmt.Errorf("failed to parse overrides %s: %w", source, err)
	}
	l.logger.Debugw("loaded overrides", "source", source, "clusters", len(doc.Clusters))
	return doc, nil
}

func (l *Loader) fetch(ctx context.Context, source string) ([]byte, error) {
	if isRemote(source) {
		resp, err := l.http.R().SetContext(ctx).Get(source)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("failed to fetch %s: status %d", source, resp.StatusCode())
		}
		return resp.Body(), nil
	}
	return os.ReadFile(source)
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "https://") || strings.HasPrefix(source, "http://")
}

// parseDocument unmarshals strictly so unknown fields and type mismatches in
// a catalog surface as load errors instead of silently dropped data.
func parseDocument(data []byte) (Document, error) {
	var doc Document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}
