package document

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/abdul-hamid-achik/sendhttp/packages/core/env"
	"github.com/abdul-hamid-achik/sendhttp/packages/http"
)

// rawContentTypes maps raw_type to the implicit Content-Type
var rawContentTypes = map[string]string{
	"text":       "text/plain",
	"json":       "application/json",
	"javascript": "application/javascript",
	"html":       "text/html",
	"xml":        "application/xml",
}

// Build turns d into an executor request. Templates are resolved with a
// clone of resolver extended with d's variables; unset settings take the
// values in defaults.
func Build(d *Document, resolver *env.Resolver, defaults http.Settings) *http.Request {
	if resolver == nil {
		resolver = env.NewResolver()
	}
	r := resolver.Clone()
	r.SetVariables(d.Variables)

	method := strings.TrimSpace(r.Resolve(d.Method))
	if method == "" {
		method = "GET"
	}

	req := http.NewRequest(method, buildURL(d, r))
	req.Headers = buildHeaders(d, r)
	req.Body = buildBody(d.Body, r)
	req.Settings = http.Settings{
		FollowRedirects: boolOr(d.Settings.FollowRedirects, defaults.FollowRedirects),
		VerifySSL:       boolOr(d.Settings.VerifySSL, defaults.VerifySSL),
	}
	return req
}

func boolOr(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}

type queryParam struct {
	key, value string
}

// buildURL rebuilds the query from params, in order, when the document has
// any. An api-key sent as a query parameter replaces a param of the same key.
// URLs that do not parse are returned resolved but otherwise untouched.
func buildURL(d *Document, r *env.Resolver) string {
	rawURL := strings.TrimSpace(r.Resolve(d.URL))
	apiKeyQuery := d.Auth != nil && d.Auth.Type == AuthAPIKey && d.Auth.AddTo == "query" && d.Auth.Key != ""
	if len(d.Params) == 0 && !apiKeyQuery {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	var params []queryParam
	if len(d.Params) > 0 {
		for _, p := range enabledRows(d.Params) {
			params = append(params, queryParam{key: r.Resolve(strings.TrimSpace(p.Key)), value: r.Resolve(p.Value)})
		}
	} else {
		for _, pair := range strings.Split(u.RawQuery, "&") {
			if pair == "" {
				continue
			}
			k, v, _ := strings.Cut(pair, "=")
			key, _ := url.QueryUnescape(k)
			value, _ := url.QueryUnescape(v)
			params = append(params, queryParam{key: key, value: value})
		}
	}

	if apiKeyQuery {
		key := r.Resolve(d.Auth.Key)
		kept := params[:0]
		for _, p := range params {
			if p.key != key {
				kept = append(kept, p)
			}
		}
		params = append(kept, queryParam{key: key, value: r.Resolve(d.Auth.Value)})
	}

	u.RawQuery = encodePairs(params)
	return u.String()
}

// encodePairs is url.Values.Encode without the key sorting.
func encodePairs(params []queryParam) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value))
	}
	return b.String()
}

func enabledRows(rows []KeyValue) []KeyValue {
	kept := make([]KeyValue, 0, len(rows))
	for _, row := range rows {
		if row.IsEnabled() && strings.TrimSpace(row.Key) != "" {
			kept = append(kept, row)
		}
	}
	return kept
}

func buildHeaders(d *Document, r *env.Resolver) []http.Header {
	var headers []http.Header
	for _, h := range enabledRows(d.Headers) {
		headers = append(headers, http.Header{
			Name:  r.Resolve(strings.TrimSpace(h.Key)),
			Value: r.Resolve(h.Value),
		})
	}

	if d.Auth != nil {
		headers = applyAuth(headers, d.Auth, r)
	}

	if ct := implicitContentType(d.Body); ct != "" && !hasHeader(headers, "Content-Type") {
		headers = append(headers, http.Header{Name: "Content-Type", Value: ct})
	}
	return headers
}

func applyAuth(headers []http.Header, auth *Auth, r *env.Resolver) []http.Header {
	switch auth.Type {
	case AuthAPIKey:
		if auth.AddTo != "query" && auth.Key != "" {
			return setHeader(headers, r.Resolve(auth.Key), r.Resolve(auth.Value))
		}
	case AuthBearer:
		if token := r.Resolve(auth.Token); token != "" {
			return setHeader(headers, "Authorization", "Bearer "+token)
		}
	case AuthBasic:
		if username := r.Resolve(auth.Username); username != "" {
			creds := username + ":" + r.Resolve(auth.Password)
			return setHeader(headers, "Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(creds)))
		}
	}
	return headers
}

// setHeader replaces every header named name (ignoring case) with one value.
func setHeader(headers []http.Header, name, value string) []http.Header {
	kept := make([]http.Header, 0, len(headers)+1)
	for _, h := range headers {
		if !strings.EqualFold(h.Name, name) {
			kept = append(kept, h)
		}
	}
	return append(kept, http.Header{Name: name, Value: value})
}

func hasHeader(headers []http.Header, name string) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return true
		}
	}
	return false
}

func implicitContentType(b *Body) string {
	if b == nil {
		return ""
	}
	switch b.Type {
	case BodyRaw:
		if ct, ok := rawContentTypes[b.RawType]; ok {
			return ct
		}
		return rawContentTypes["text"]
	case BodyURLEncoded:
		return "application/x-www-form-urlencoded"
	}
	return ""
}

func buildBody(b *Body, r *env.Resolver) http.Body {
	if b == nil {
		return http.NoBody{}
	}

	switch b.Type {
	case BodyRaw:
		return http.RawBody{Text: r.Resolve(b.Content)}
	case BodyURLEncoded:
		if len(b.Form) == 0 {
			return http.URLEncodedBody{Text: r.Resolve(b.Content)}
		}
		var params []queryParam
		for _, row := range enabledRows(b.Form) {
			params = append(params, queryParam{key: r.Resolve(strings.TrimSpace(row.Key)), value: r.Resolve(row.Value)})
		}
		return http.URLEncodedBody{Text: encodePairs(params)}
	case BodyFormData:
		items := make([]http.KeyValueItem, 0, len(b.Form))
		for _, row := range b.Form {
			items = append(items, http.KeyValueItem{
				Key:     r.Resolve(row.Key),
				Value:   r.Resolve(row.Value),
				Enabled: row.IsEnabled(),
			})
		}
		return http.FormDataBody{Items: items}
	default:
		return http.NoBody{}
	}
}
