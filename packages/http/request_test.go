package http

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		method  string
		want    string
		wantErr bool
	}{
		{"GET", "GET", false},
		{"get", "GET", false},
		{"Post", "POST", false},
		{"options", "OPTIONS", false},
		{"PROPFIND", "PROPFIND", false},
		{"m-search", "m-search", false},
		{"GE T", "", true},
		{"", "", true},
		{"GET\n", "", true},
		{"GET(", "", true},
		{"PÖST", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			got, err := ParseMethod(tt.method)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanHeaders(t *testing.T) {
	kept, skipped := CleanHeaders([]Header{
		{Name: "X Bad", Value: "v"},
		{Name: "Valid-Header", Value: "ok"},
		{Name: "Accept", Value: "a"},
		{Name: "", Value: "empty name"},
		{Name: "X-Ctl", Value: "bad\x00value"},
		{Name: "X-Name", Value: "café"},
		{Name: "X-Latin1", Value: "caf\xe9"},
		{Name: "X-Del", Value: "a\x7fb"},
		{Name: "X-Tab", Value: "a\tb"},
		{Name: "Accept", Value: "b"},
	})

	assert.Equal(t, []Header{
		{Name: "Valid-Header", Value: "ok"},
		{Name: "Accept", Value: "a"},
		{Name: "X-Tab", Value: "a\tb"},
		{Name: "Accept", Value: "b"},
	}, kept)
	require.Len(t, skipped, 6)
	assert.Equal(t, "invalid name", skipped[0].Reason)
	for _, s := range skipped[2:] {
		assert.Equal(t, "invalid value", s.Reason, s.Header.Name)
	}
}

func TestValidHeaderValue(t *testing.T) {
	assert.True(t, ValidHeaderValue(""))
	assert.True(t, ValidHeaderValue("text/html; charset=utf-8"))
	assert.True(t, ValidHeaderValue("a\tb ~"))
	assert.False(t, ValidHeaderValue("café"))
	assert.False(t, ValidHeaderValue("a\r\nb"))
	assert.False(t, ValidHeaderValue("\x7f"))
}

func TestEnabledFields(t *testing.T) {
	fields := EnabledFields([]KeyValueItem{
		{Key: "a", Value: "1", Enabled: true},
		{Key: "", Value: "2", Enabled: true},
		{Key: "b", Value: "3", Enabled: false},
		{Key: "   ", Value: "4", Enabled: true},
		{Key: " c ", Value: "5", Enabled: true},
	})

	assert.Equal(t, []KeyValueItem{
		{Key: "a", Value: "1", Enabled: true},
		{Key: " c ", Value: "5", Enabled: true},
	}, fields)
}

func TestBodyFromTag(t *testing.T) {
	form := []KeyValueItem{{Key: "a", Value: "1", Enabled: true}}

	assert.Equal(t, RawBody{Text: "hello"}, BodyFromTag("raw", strPtr("hello"), nil))
	assert.Equal(t, RawBody{Text: ""}, BodyFromTag("raw", strPtr(""), nil))
	assert.Equal(t, NoBody{}, BodyFromTag("raw", nil, nil))
	assert.Equal(t, URLEncodedBody{Text: "a=1"}, BodyFromTag("x-www-form-urlencoded", strPtr("a=1"), nil))
	assert.Equal(t, FormDataBody{Items: form}, BodyFromTag("form-data", strPtr("ignored"), form))
	assert.Equal(t, NoBody{}, BodyFromTag("binary", strPtr("data"), nil))
	assert.Equal(t, NoBody{}, BodyFromTag("", nil, nil))
}

func TestPayload_UnmarshalJSON(t *testing.T) {
	data := `{
		"method": "post",
		"url": "https://example.com/upload",
		"headers": [["X-A", "1"], ["X-A", "2"]],
		"body_type": "raw",
		"body": "hello",
		"form_data": [],
		"settings": {"follow_redirects": false, "verify_ssl": true}
	}`

	var p Payload
	require.NoError(t, json.Unmarshal([]byte(data), &p))
	req := p.Request()

	assert.Equal(t, "post", req.Method)
	assert.Equal(t, "https://example.com/upload", req.URL)
	assert.Equal(t, []Header{{Name: "X-A", Value: "1"}, {Name: "X-A", Value: "2"}}, req.Headers)
	assert.Equal(t, RawBody{Text: "hello"}, req.Body)
	assert.Equal(t, Settings{FollowRedirects: false, VerifySSL: true}, req.Settings)
}

func TestPayload_UnmarshalJSONRequiresSettings(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing settings", `{"method": "GET", "url": "https://example.com"}`, "settings is required"},
		{"null settings", `{"method": "GET", "url": "https://example.com", "settings": null}`, "settings is required"},
		{"missing verify_ssl", `{"method": "GET", "url": "https://example.com", "settings": {"follow_redirects": true}}`, "settings.verify_ssl is required"},
		{"missing follow_redirects", `{"method": "GET", "url": "https://example.com", "settings": {"verify_ssl": true}}`, "settings.follow_redirects is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Payload
			assert.EqualError(t, json.Unmarshal([]byte(tt.data), &p), tt.want)
		})
	}
}

func TestPayload_UnmarshalJSONRejectsUnknownFields(t *testing.T) {
	var p Payload
	assert.Error(t, json.Unmarshal([]byte(`{"url": "https://example.com", "extra": 1, "settings": {"follow_redirects": true, "verify_ssl": true}}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"url": "https://example.com", "settings": {"follow_redirects": true, "verify_ssl": true, "proxy": "x"}}`), &p))
}

func TestHeader_UnmarshalJSONRejectsBadShape(t *testing.T) {
	var h Header
	assert.Error(t, json.Unmarshal([]byte(`["only-name"]`), &h))
	assert.Error(t, json.Unmarshal([]byte(`{"name": "x"}`), &h))
}

func TestEncodeBody(t *testing.T) {
	t.Run("no body", func(t *testing.T) {
		encoded, err := EncodeBody(NoBody{})
		require.NoError(t, err)
		assert.Nil(t, encoded)
	})

	t.Run("raw", func(t *testing.T) {
		encoded, err := EncodeBody(RawBody{Text: `{"a":1}`})
		require.NoError(t, err)
		assert.Empty(t, encoded.ContentType)
		assert.Equal(t, int64(7), encoded.Length)
	})

	t.Run("form data", func(t *testing.T) {
		encoded, err := EncodeBody(FormDataBody{Items: []KeyValueItem{{Key: "a", Value: "1", Enabled: true}}})
		require.NoError(t, err)
		assert.Contains(t, encoded.ContentType, "multipart/form-data; boundary=")
		assert.Positive(t, encoded.Length)
	})
}
