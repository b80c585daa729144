package router

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Bodies are logged whole; anything past this is cut so a large payload
// cannot flood the log pipeline.
const logBodyLimit = 32 * 1024

// middlewareObservability wraps every request in a server span, counts and
// times it, and logs the request and response bodies with secret fields
// masked. The masked field list comes from instrument.log_mask_fields, the
// same list the slog handler uses, so a value is hidden everywhere or nowhere.
func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	masked := maskedFieldSet(cfg)
	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	latency, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routePattern(r)
			start := time.Now()

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
				),
			)
			defer span.End()

			reqBody := snoopRequestBody(r)
			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"headers", maskedHeaders(r.Header, masked),
				"body", renderBody(reqBody, masked),
			)

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusOr(http.StatusOK)
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			if rec.err != nil {
				span.RecordError(rec.err)
			}
			switch {
			case status < 500:
				span.SetStatus(codes.Ok, "")
			case rec.err != nil:
				span.SetStatus(codes.Error, rec.err.Error())
			default:
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			span.SetAttributes(attrs...)
			span.SetAttributes(
				semconv.NetworkProtocolVersionKey.String(r.Proto),
				semconv.ServerAddressKey.String(r.Host),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Int("http.response_content_length", rec.written),
			)

			if requests != nil {
				requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if latency != nil {
				latency.Record(ctx, float64(time.Since(start).Milliseconds()),
					metric.WithAttributes(attrs...))
			}

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"status", status,
				"bytes", rec.written,
				"latency_ms", time.Since(start).Milliseconds(),
				"body", rec.renderBody(masked),
			)
		})
	}
}

// responseRecorder captures the status, size, and the first logBodyLimit
// bytes of the response so the access log can include them.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	written int
	body    *bytes.Buffer
	capped  bool
	err     error
}

func (w *responseRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if w.body != nil && !w.capped && len(p) > 0 {
		room := logBodyLimit - w.body.Len()
		switch {
		case room <= 0:
			w.capped = true
		case len(p) > room:
			w.body.Write(p[:room])
			w.capped = true
		default:
			w.body.Write(p)
		}
	}

	n, err := w.ResponseWriter.Write(p)
	w.written += n

	return n, err
}

// SetError lets the endpoint wrapper hand the original error to the span.
func (w *responseRecorder) SetError(err error) {
	w.err = err
}

func (w *responseRecorder) statusOr(fallback int) int {
	if w.status == 0 {
		return fallback
	}
	return w.status
}

func (w *responseRecorder) renderBody(masked map[string]struct{}) any {
	if w.body == nil {
		return nil
	}

	body := renderBody(w.body.Bytes(), masked)
	if w.capped {
		return map[string]any{"body": body, "truncated": true}
	}

	return body
}

func (w *responseRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

func (w *responseRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := w.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func routePattern(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

// snoopRequestBody reads up to the log limit and stitches the body back
// together so the handler still sees the full stream.
func snoopRequestBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}

	peeked, _ := io.ReadAll(io.LimitReader(r.Body, logBodyLimit+1))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(peeked), r.Body))

	if len(peeked) > logBodyLimit {
		return peeked[:logBodyLimit]
	}
	return peeked
}

// renderBody turns a captured body into a loggable value: parsed JSON with
// masked fields when possible, the raw text otherwise, a placeholder when
// the bytes are not text at all.
func renderBody(body []byte, masked map[string]struct{}) any {
	if len(body) == 0 {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err == nil {
		return maskTree(parsed, masked)
	}

	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	return string(body)
}

func maskTree(v any, masked map[string]struct{}) any {
	switch val := v.(type) {
	case map[string]any:
		clean := make(map[string]any, len(val))
		for k, member := range val {
			if _, hit := masked[strings.ToLower(k)]; hit {
				clean[k] = "***"
			} else {
				clean[k] = maskTree(member, masked)
			}
		}
		return clean
	case []any:
		clean := make([]any, len(val))
		for i, member := range val {
			clean[i] = maskTree(member, masked)
		}
		return clean
	default:
		return v
	}
}

func maskedHeaders(headers http.Header, masked map[string]struct{}) http.Header {
	if len(masked) == 0 {
		return headers
	}

	clean := headers.Clone()
	for key := range clean {
		if _, hit := masked[strings.ToLower(key)]; hit {
			clean.Set(key, "***")
		}
	}
	return clean
}

func maskedFieldSet(cfg config.Config) map[string]struct{} {
	set := make(map[string]struct{})
	if cfg == nil {
		return set
	}

	for _, field := range cfg.GetArray("instrument.log_mask_fields") {
		field = strings.TrimSpace(strings.ToLower(field))
		if field != "" {
			set[field] = struct{}{}
		}
	}
	return set
}
