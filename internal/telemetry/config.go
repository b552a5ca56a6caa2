package telemetry

import (
	"strconv"
	"strings"
	"time"

	"github.com/vortexhq/vortex/internal/errdef"
)

const (
	envEndpoint    = "VORTEX_OTEL_ENDPOINT"
	envInsecure    = "VORTEX_OTEL_INSECURE"
	envService     = "VORTEX_OTEL_SERVICE"
	envDialTimeout = "VORTEX_OTEL_DIAL_TIMEOUT"
	envHeaders     = "VORTEX_OTEL_HEADERS"

	defaultServiceName = "vortex"
	defaultDialTimeout = 5 * time.Second
)

type Config struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
	DialTimeout time.Duration
	Headers     map[string]string
}

// Enabled reports whether an exporter endpoint was configured; without one
// the instrumenter stays a no-op.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// ConfigFromEnv reads exporter settings through the supplied env getter so
// tests can inject values without touching the process environment.
func ConfigFromEnv(getenv func(string) string) Config {
	cfg := Config{
		Endpoint:    strings.TrimSpace(getenv(envEndpoint)),
		ServiceName: defaultServiceName,
		DialTimeout: defaultDialTimeout,
	}

	if v := strings.TrimSpace(getenv(envInsecure)); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.Insecure = parsed
		}
	}
	if v := strings.TrimSpace(getenv(envService)); v != "" {
		cfg.ServiceName = v
	}
	if v := strings.TrimSpace(getenv(envDialTimeout)); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			cfg.DialTimeout = parsed
		}
	}
	if headers, err := ParseHeaders(getenv(envHeaders)); err == nil {
		cfg.Headers = headers
	}
	return cfg
}

// ParseHeaders splits "k=v, k2=v2" pairs for exporter metadata. Blank input
// yields nil; a pair without '=' is a parse error.
func ParseHeaders(raw string) (map[string]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	headers := make(map[string]string)
	for _, pair := range strings.Split(trimmed, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.IndexByte(pair, '=')
		if idx < 0 {
			return nil, errdef.New(errdef.CodeParse, "telemetry header %q is not key=value", pair)
		}
		key := strings.TrimSpace(pair[:idx])
		if key == "" {
			return nil, errdef.New(errdef.CodeParse, "telemetry header %q has an empty key", pair)
		}
		headers[key] = strings.TrimSpace(pair[idx+1:])
	}
	if len(headers) == 0 {
		return nil, nil
	}
	return headers, nil
}
