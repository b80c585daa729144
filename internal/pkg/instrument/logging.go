package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// installDefaultLogger replaces slog's default with a handler stack that
// writes JSON to stdout, mirrors records to the OTLP log bridge, stamps the
// service name and correlation id, and redacts configured fields. OTP codes
// and password fields pass through log call sites, so redaction lives here
// rather than at each caller.
func installDefaultLogger(serviceName string, lp *sdklog.LoggerProvider, maskFields []string) {
	stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				a.Key = "ts"
			case slog.LevelKey:
				a.Key = "severity"
			case slog.SourceKey:
				src, ok := a.Value.Any().(*slog.Source)
				if !ok {
					return a
				}
				// Trim the build path; only the in-repo part is useful.
				if _, rel, found := strings.Cut(src.File, "/internal/"); found {
					return slog.String("file", fmt.Sprintf("internal/%s:%d", rel, src.Line))
				}
				return slog.Attr{}
			}
			return a
		},
	})

	var h slog.Handler = stdout
	if lp != nil {
		h = fanoutHandler{stdout, otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp))}
	}
	h = &redactHandler{next: h, fields: normalizeFieldSet(maskFields)}

	slog.SetDefault(slog.New(&taggingHandler{Handler: h, service: serviceName}))
}

// taggingHandler appends the service name and, when present, the request
// correlation id to every record.
type taggingHandler struct {
	slog.Handler
	service string
}

func (h *taggingHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetCorrelationID(ctx); id != "" {
		r.AddAttrs(slog.String("_cID", id))
	}
	r.AddAttrs(slog.String("service", h.service))

	return h.Handler.Handle(ctx, r)
}

// fanoutHandler delivers each record to every handler that accepts its level.
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanoutHandler, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	next := make(fanoutHandler, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}

// redactHandler replaces the values of configured attribute names with "***".
// It descends into groups, string-keyed maps, and JSON-looking string or
// []byte payloads, since request bodies get logged whole in places.
type redactHandler struct {
	next   slog.Handler
	fields map[string]struct{}
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, r slog.Record) error {
	if len(h.fields) == 0 {
		return h.next.Handle(ctx, r)
	}

	clean := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(h.redact(a))
		return true
	})

	return h.next.Handle(ctx, clean)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &redactHandler{next: h.next.WithAttrs(attrs), fields: h.fields}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{next: h.next.WithGroup(name), fields: h.fields}
}

func (h *redactHandler) redact(a slog.Attr) slog.Attr {
	if h.hit(a.Key) {
		return slog.String(a.Key, "***")
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		members := a.Value.Group()
		clean := make([]slog.Attr, 0, len(members))
		for _, m := range members {
			clean = append(clean, h.redact(m))
		}
		a.Value = slog.GroupValue(clean...)
	case slog.KindString:
		if s, ok := h.redactJSON([]byte(a.Value.String())); ok {
			a.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any:
			a.Value = slog.AnyValue(h.redactTree(v))
		case map[string]string:
			clean := make(map[string]any, len(v))
			for k, s := range v {
				clean[k] = s
			}
			a.Value = slog.AnyValue(h.redactTree(clean))
		case []byte:
			if s, ok := h.redactJSON(v); ok {
				a.Value = slog.StringValue(s)
			}
		}
	}

	return a
}

func (h *redactHandler) redactJSON(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", false
	}

	clean, err := json.Marshal(h.redactTree(body))
	if err != nil {
		return "", false
	}

	return string(clean), true
}

func (h *redactHandler) redactTree(v any) any {
	switch val := v.(type) {
	case map[string]any:
		clean := make(map[string]any, len(val))
		for k, member := range val {
			if h.hit(k) {
				clean[k] = "***"
			} else {
				clean[k] = h.redactTree(member)
			}
		}
		return clean
	case []any:
		clean := make([]any, len(val))
		for i, member := range val {
			clean[i] = h.redactTree(member)
		}
		return clean
	default:
		return v
	}
}

func (h *redactHandler) hit(key string) bool {
	_, found := h.fields[strings.ToLower(key)]
	return found
}

func normalizeFieldSet(fields []string) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(strings.ToLower(f))
		if f != "" {
			set[f] = struct{}{}
		}
	}
	return set
}
