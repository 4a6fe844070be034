package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Body type tags accepted on the wire.
const (
	BodyTypeRaw        = "raw"
	BodyTypeURLEncoded = "x-www-form-urlencoded"
	BodyTypeFormData   = "form-data"
	BodyTypeNone       = "none"
)

// Settings is the per-call transport policy.
type Settings struct {
	FollowRedirects bool `json:"follow_redirects" yaml:"follow_redirects"`
	VerifySSL       bool `json:"verify_ssl" yaml:"verify_ssl"`
}

// DefaultSettings follows redirects and verifies certificates.
func DefaultSettings() Settings {
	return Settings{FollowRedirects: true, VerifySSL: true}
}

// KeyValueItem is one multipart form field.
type KeyValueItem struct {
	Key     string `json:"key" yaml:"key"`
	Value   string `json:"value" yaml:"value"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Header is a single (name, value) pair. It marshals as a two element
// JSON array.
type Header struct {
	Name  string
	Value string
}

func (h Header) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{h.Name, h.Value})
}

func (h *Header) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("header must be a [name, value] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("header must be a [name, value] pair, got %d elements", len(pair))
	}
	h.Name, h.Value = pair[0], pair[1]
	return nil
}

// Body is the closed set of request payload encodings: RawBody,
// URLEncodedBody, FormDataBody and NoBody.
type Body interface {
	bodyType() string
}

// RawBody is sent verbatim.
type RawBody struct {
	Text string
}

// URLEncodedBody is sent verbatim; the caller has already encoded it.
type URLEncodedBody struct {
	Text string
}

// FormDataBody is encoded as multipart/form-data.
type FormDataBody struct {
	Items []KeyValueItem
}

// NoBody attaches no payload.
type NoBody struct{}

func (RawBody) bodyType() string        { return BodyTypeRaw }
func (URLEncodedBody) bodyType() string { return BodyTypeURLEncoded }
func (FormDataBody) bodyType() string   { return BodyTypeFormData }
func (NoBody) bodyType() string         { return BodyTypeNone }

// BodyTypeOf returns the wire tag of b.
func BodyTypeOf(b Body) string {
	if b == nil {
		return BodyTypeNone
	}
	return b.bodyType()
}

// BodyFromTag maps the free-text wire tag onto a Body. Unknown tags and a
// missing text for raw or urlencoded bodies yield NoBody.
func BodyFromTag(tag string, text *string, form []KeyValueItem) Body {
	switch tag {
	case BodyTypeFormData:
		return FormDataBody{Items: form}
	case BodyTypeRaw:
		if text != nil {
			return RawBody{Text: *text}
		}
	case BodyTypeURLEncoded:
		if text != nil {
			return URLEncodedBody{Text: *text}
		}
	}
	return NoBody{}
}

// Request describes one call. It is not modified by the executor.
type Request struct {
	Method   string
	URL      string
	Headers  []Header
	Body     Body
	Settings Settings
}

// NewRequest returns a request with no body and default settings.
func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:   method,
		URL:      requestURL,
		Body:     NoBody{},
		Settings: DefaultSettings(),
	}
}

func (r *Request) AddHeader(name, value string) *Request {
	r.Headers = append(r.Headers, Header{Name: name, Value: value})
	return r
}

func (r *Request) SetBody(b Body) *Request {
	r.Body = b
	return r
}

func (r *Request) SetSettings(s Settings) *Request {
	r.Settings = s
	return r
}

// Payload is the flat shape a host application sends.
type Payload struct {
	Method   string         `json:"method"`
	URL      string         `json:"url"`
	Headers  []Header       `json:"headers"`
	BodyType string         `json:"body_type"`
	Body     *string        `json:"body"`
	FormData []KeyValueItem `json:"form_data"`
	Settings Settings       `json:"settings"`
}

// payloadSettings mirrors Settings with every field required on the wire.
type payloadSettings struct {
	FollowRedirects *bool `json:"follow_redirects"`
	VerifySSL       *bool `json:"verify_ssl"`
}

// UnmarshalJSON rejects unknown fields and requires settings with both flags
// present.
func (p *Payload) UnmarshalJSON(data []byte) error {
	type plain Payload
	var wire struct {
		plain
		Settings *payloadSettings `json:"settings"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return err
	}

	switch {
	case wire.Settings == nil:
		return errors.New("settings is required")
	case wire.Settings.FollowRedirects == nil:
		return errors.New("settings.follow_redirects is required")
	case wire.Settings.VerifySSL == nil:
		return errors.New("settings.verify_ssl is required")
	}

	*p = Payload(wire.plain)
	p.Settings = Settings{
		FollowRedirects: *wire.Settings.FollowRedirects,
		VerifySSL:       *wire.Settings.VerifySSL,
	}
	return nil
}

// Request converts the payload into a Request.
func (p *Payload) Request() *Request {
	headers := make([]Header, len(p.Headers))
	copy(headers, p.Headers)
	return &Request{
		Method:   p.Method,
		URL:      p.URL,
		Headers:  headers,
		Body:     BodyFromTag(p.BodyType, p.Body, p.FormData),
		Settings: p.Settings,
	}
}

// ParseMethod validates method as an HTTP token. Standard verbs are matched
// case-insensitively and returned upper-cased; extension methods keep their
// case.
func ParseMethod(method string) (string, error) {
	if method == "" {
		return "", fmt.Errorf("empty method")
	}
	for i, r := range method {
		if !httpguts.IsTokenRune(r) {
			return "", fmt.Errorf("%q contains illegal character %q at position %d", method, r, i)
		}
	}
	upper := strings.ToUpper(method)
	if _, ok := standardMethods[upper]; ok {
		return upper, nil
	}
	return method, nil
}

var standardMethods = map[string]struct{}{
	"GET":     {},
	"HEAD":    {},
	"POST":    {},
	"PUT":     {},
	"PATCH":   {},
	"DELETE":  {},
	"CONNECT": {},
	"OPTIONS": {},
	"TRACE":   {},
}

// SkippedHeader records a header dropped by CleanHeaders.
type SkippedHeader struct {
	Header Header
	Reason string
}

// CleanHeaders returns the headers that are valid on the wire, in order,
// along with the ones it dropped.
func CleanHeaders(headers []Header) (kept []Header, skipped []SkippedHeader) {
	kept = make([]Header, 0, len(headers))
	for _, h := range headers {
		switch {
		case !httpguts.ValidHeaderFieldName(h.Name):
			skipped = append(skipped, SkippedHeader{Header: h, Reason: "invalid name"})
		case !ValidHeaderValue(h.Value):
			skipped = append(skipped, SkippedHeader{Header: h, Reason: "invalid value"})
		default:
			kept = append(kept, h)
		}
	}
	return kept, skipped
}

// ValidHeaderValue reports whether v is visible ASCII, with horizontal tabs
// allowed.
func ValidHeaderValue(v string) bool {
	if !httpguts.ValidHeaderFieldValue(v) {
		return false
	}
	for i := 0; i < len(v); i++ {
		if b := v[i]; b != '\t' && (b < 0x20 || b > 0x7e) {
			return false
		}
	}
	return true
}

// EnabledFields returns the form items that are enabled and have a non-blank
// key, in order.
func EnabledFields(items []KeyValueItem) []KeyValueItem {
	fields := make([]KeyValueItem, 0, len(items))
	for _, item := range items {
		if !item.Enabled || strings.TrimSpace(item.Key) == "" {
			continue
		}
		fields = append(fields, item)
	}
	return fields
}
