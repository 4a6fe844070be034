package http

import (
	"fmt"
	"mime"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

type Response struct {
	Status     int      `json:"status"`
	StatusText string   `json:"status_text"`
	Headers    []Header `json:"headers"`
	Body       string   `json:"body"`

	Duration time.Duration `json:"-"`
}

// Header returns the first value of the named header, ignoring case.
func (r *Response) Header(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Values returns every value of the named header in order, ignoring case.
func (r *Response) Values(name string) []string {
	var values []string
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			values = append(values, h.Value)
		}
	}
	return values
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType(), "json")
}

// Cookies parses the Set-Cookie headers of the response.
func (r *Response) Cookies() []*http.Cookie {
	h := make(http.Header)
	for _, v := range r.Values("Set-Cookie") {
		h.Add("Set-Cookie", v)
	}
	return (&http.Response{Header: h}).Cookies()
}

// Size is the length of the decoded body in bytes.
func (r *Response) Size() int {
	return len(r.Body)
}

func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

func (r *Response) IsRedirect() bool {
	return r.Status >= 300 && r.Status < 400
}

func (r *Response) IsClientError() bool {
	return r.Status >= 400 && r.Status < 500
}

func (r *Response) IsServerError() bool {
	return r.Status >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// FlattenHeaders emits one pair per value. Names are sorted; values keep the
// order the server sent them in. Values that are not visible ASCII are
// dropped.
func FlattenHeaders(h http.Header) []Header {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := make([]Header, 0, len(h))
	for _, name := range names {
		for _, value := range h[name] {
			if !ValidHeaderValue(value) {
				continue
			}
			headers = append(headers, Header{Name: name, Value: value})
		}
	}
	return headers
}

// DecodeText converts a response payload to text. A charset declared in
// contentType is honoured; anything that is not valid UTF-8 afterwards is
// rejected.
func DecodeText(payload []byte, contentType string) (string, error) {
	if charset := charsetOf(contentType); charset != "" && !isUTF8(charset) {
		if enc, err := htmlindex.Get(charset); err == nil {
			decoded, err := enc.NewDecoder().Bytes(payload)
			if err != nil {
				return "", fmt.Errorf("decoding %s payload: %w", charset, err)
			}
			payload = decoded
		}
	}

	if !utf8.Valid(payload) {
		return "", fmt.Errorf("payload of %d bytes is not valid UTF-8 text", len(payload))
	}
	return string(payload), nil
}

func charsetOf(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(params["charset"]))
}

func isUTF8(charset string) bool {
	return charset == "utf-8" || charset == "utf8"
}
