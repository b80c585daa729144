package router

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

// Request embeds http.Request and adds the accessors handlers actually need:
// typed path/query reads and strict JSON body decoding.
type Request struct {
	*http.Request
}

// GetParam reads an httprouter path parameter.
func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// GetParamInt64 parses a path parameter as an integer.
func (r *Request) GetParamInt64(key string) (int64, error) {
	value, err := strconv.ParseInt(r.GetParam(key), 10, 64)
	if err != nil {
		return 0, goerror.NewInvalidFormat("param must integer value")
	}

	return value, nil
}

// GetQuery returns the trimmed value of a query parameter.
func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// GetQueries returns every value given for a repeatable query parameter.
func (r *Request) GetQueries(key string) []string {
	return r.URL.Query()[key]
}

// GetQueryInt32 parses an optional integer query parameter. Absent means 0.
func (r *Request) GetQueryInt32(key string) (int32, error) {
	v, err := r.queryInt(key, 32)
	return int32(v), err
}

// GetQueryInt16 parses an optional integer query parameter. Absent means 0.
func (r *Request) GetQueryInt16(key string) (int16, error) {
	v, err := r.queryInt(key, 16)
	return int16(v), err
}

func (r *Request) queryInt(key string, bits int) (int64, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.ParseInt(raw, 10, bits)
	if err != nil {
		return 0, goerror.NewInvalidFormat()
	}

	return value, nil
}

// GetQueryDate parses an optional date query parameter with the given layout.
func (r *Request) GetQueryDate(key, layout string) (time.Time, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return time.Time{}, nil
	}

	value, err := time.Parse(layout, raw)
	if err != nil {
		return time.Time{}, goerror.NewInvalidFormat("Invalid query " + key)
	}

	return value, nil
}

// DecodeBody unmarshals the JSON body into dst. Unknown fields and trailing
// content are rejected, and an empty body is an error, so a handler that
// tolerates an absent body must check before calling.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return goerror.NewInvalidFormat()
	}

	return nil
}

// GetCookie returns the named cookie's value, or "" when the cookie is absent.
func (r *Request) GetCookie(name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}

	return c.Value
}

// ClientIP returns the peer address without the port. The IP middleware
// rewrites RemoteAddr from forwarding headers before handlers run.
func (r *Request) ClientIP() string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}

	return r.RemoteAddr
}
