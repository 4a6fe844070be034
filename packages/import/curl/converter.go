// Package curl converts curl command lines into request documents.
package curl

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/sendhttp/packages/core/document"
)

// Converter converts curl commands to request documents.
type Converter struct {
	// explicitRedirects records curl's no-follow default in the document
	explicitRedirects bool
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithExplicitRedirects writes follow_redirects: false for commands without
// -L, instead of leaving the configured default in charge.
func WithExplicitRedirects(explicit bool) Option {
	return func(c *Converter) {
		c.explicitRedirects = explicit
	}
}

func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		explicitRedirects: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParsedCurl represents a parsed curl command. Headers and form fields keep
// their command-line order.
type ParsedCurl struct {
	Method          string
	URL             string
	Headers         [][2]string
	Data            []string
	URLEncode       []string
	Form            [][2]string
	BasicAuth       string
	Insecure        bool
	FollowRedirects bool
	Name            string
}

// ConvertCommand converts a single curl command to a document.
func (c *Converter) ConvertCommand(curlCmd string) (*document.Document, error) {
	parsed, err := c.Parse(curlCmd)
	if err != nil {
		return nil, err
	}
	return c.ToDocument(parsed), nil
}

// ConvertFile converts a file of curl commands, one per line with
// backslash continuations, to documents.
func (c *Converter) ConvertFile(path string) ([]*document.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return c.ConvertReader(file)
}

func (c *Converter) ConvertReader(r io.Reader) ([]*document.Document, error) {
	var commands []string
	var currentCmd strings.Builder
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasSuffix(line, "\\") {
			currentCmd.WriteString(strings.TrimSuffix(line, "\\"))
			currentCmd.WriteString(" ")
			continue
		}

		currentCmd.WriteString(line)
		commands = append(commands, currentCmd.String())
		currentCmd.Reset()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read commands: %w", err)
	}

	if currentCmd.Len() > 0 {
		commands = append(commands, currentCmd.String())
	}

	docs := make([]*document.Document, 0, len(commands))
	for i, cmd := range commands {
		d, err := c.ConvertCommand(cmd)
		if err != nil {
			return nil, fmt.Errorf("failed to convert command %d: %w", i+1, err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// Parse parses a curl command string into a ParsedCurl struct.
func (c *Converter) Parse(curlCmd string) (*ParsedCurl, error) {
	parsed := &ParsedCurl{}

	curlCmd = strings.TrimSpace(curlCmd)
	if curlCmd == "curl" {
		return nil, fmt.Errorf("no URL specified")
	}
	curlCmd = strings.TrimPrefix(curlCmd, "curl ")

	tokens := tokenize(curlCmd)
	value := func(i int) (string, error) {
		if i+1 >= len(tokens) {
			return "", fmt.Errorf("missing value for %s", tokens[i])
		}
		return tokens[i+1], nil
	}

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		switch token {
		case "-X", "--request":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Method = v
			i++

		case "-H", "--header":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			if name, val, ok := strings.Cut(v, ":"); ok {
				parsed.Headers = append(parsed.Headers, [2]string{strings.TrimSpace(name), strings.TrimSpace(val)})
			}
			i++

		case "-d", "--data", "--data-raw", "--data-binary", "--data-ascii":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Data = append(parsed.Data, v)
			i++

		case "--data-urlencode":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.URLEncode = append(parsed.URLEncode, v)
			i++

		case "-F", "--form", "--form-string":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			name, val, _ := strings.Cut(v, "=")
			parsed.Form = append(parsed.Form, [2]string{name, val})
			i++

		case "-u", "--user":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.BasicAuth = v
			i++

		case "-k", "--insecure":
			parsed.Insecure = true

		case "-L", "--location":
			parsed.FollowRedirects = true

		case "-A", "--user-agent":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers = append(parsed.Headers, [2]string{"User-Agent", v})
			i++

		case "-e", "--referer":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers = append(parsed.Headers, [2]string{"Referer", v})
			i++

		case "-b", "--cookie":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers = append(parsed.Headers, [2]string{"Cookie", v})
			i++

		case "--url":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.URL = v
			i++

		default:
			if strings.HasPrefix(token, "-") {
				// Skip unknown flags with potential values
				if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
					i++
				}
				continue
			}
			if parsed.URL == "" && isURL(token) {
				parsed.URL = token
			}
		}
	}

	if parsed.URL == "" {
		return nil, fmt.Errorf("no URL found in curl command")
	}

	if parsed.Method == "" {
		parsed.Method = "GET"
		if len(parsed.Data) > 0 || len(parsed.URLEncode) > 0 || len(parsed.Form) > 0 {
			parsed.Method = "POST"
		}
	}

	parsed.Name = generateName(parsed.URL, parsed.Method)

	return parsed, nil
}

// ToDocument converts a ParsedCurl to a request document.
func (c *Converter) ToDocument(parsed *ParsedCurl) *document.Document {
	d := &document.Document{
		Name:   parsed.Name,
		Method: parsed.Method,
		URL:    parsed.URL,
	}

	contentType := ""
	for _, h := range parsed.Headers {
		if strings.EqualFold(h[0], "Content-Type") {
			contentType = h[1]
		}
		d.Headers = append(d.Headers, document.KeyValue{Key: h[0], Value: h[1]})
	}

	if parsed.BasicAuth != "" {
		user, pass, _ := strings.Cut(parsed.BasicAuth, ":")
		d.Auth = &document.Auth{Type: document.AuthBasic, Username: user, Password: pass}
	}

	switch {
	case len(parsed.Form) > 0:
		body := &document.Body{Type: document.BodyFormData}
		for _, f := range parsed.Form {
			body.Form = append(body.Form, document.KeyValue{Key: f[0], Value: f[1]})
		}
		d.Body = body

	case len(parsed.URLEncode) > 0 || (len(parsed.Data) > 0 && isFormContent(contentType, parsed.Data)):
		d.Body = &document.Body{Type: document.BodyURLEncoded, Content: encodeData(parsed.Data, parsed.URLEncode)}

	case len(parsed.Data) > 0:
		content := strings.Join(parsed.Data, "&")
		body := &document.Body{Type: document.BodyRaw, Content: content}
		if strings.Contains(contentType, "json") || (contentType == "" && looksLikeJSON(content)) {
			body.RawType = "json"
		}
		d.Body = body
	}

	if parsed.Insecure {
		d.Settings.VerifySSL = boolPtr(false)
	}
	if parsed.FollowRedirects {
		d.Settings.FollowRedirects = boolPtr(true)
	} else if c.explicitRedirects {
		d.Settings.FollowRedirects = boolPtr(false)
	}

	return d
}

// WriteYAML writes docs as a multi-document YAML stream that LoadFile reads
// back.
func WriteYAML(w io.Writer, docs []*document.Document) error {
	var buf bytes.Buffer
	buf.WriteString("# Generated from curl commands\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, d := range docs {
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode %s: %w", d.DisplayName(), err)
		}
	}
	if err := enc.Close(); err != nil {
		return err
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// isFormContent reports whether -d data is a urlencoded form. curl sends -d
// as application/x-www-form-urlencoded unless told otherwise.
func isFormContent(contentType string, data []string) bool {
	if contentType != "" {
		return strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded")
	}
	for _, d := range data {
		if looksLikeJSON(d) {
			return false
		}
	}
	return true
}

// encodeData joins -d pieces verbatim and --data-urlencode pieces encoded,
// the way curl does.
func encodeData(data, urlencode []string) string {
	parts := append([]string{}, data...)
	for _, u := range urlencode {
		name, val, ok := strings.Cut(u, "=")
		if !ok {
			parts = append(parts, url.QueryEscape(u))
			continue
		}
		if name == "" {
			parts = append(parts, url.QueryEscape(val))
			continue
		}
		parts = append(parts, name+"="+url.QueryEscape(val))
	}
	return strings.Join(parts, "&")
}

func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

func boolPtr(b bool) *bool {
	return &b
}

// tokenize splits a curl command into tokens, respecting quotes.
func tokenize(cmd string) []string {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	escaped := false

	for _, r := range cmd {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			if inSingleQuote {
				current.WriteRune(r)
			} else {
				escaped = true
			}
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
			} else {
				current.WriteRune(r)
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
			} else {
				current.WriteRune(r)
			}
		case ' ', '\t':
			if inSingleQuote || inDoubleQuote {
				current.WriteRune(r)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "{{")
}

var urlPathPattern = regexp.MustCompile(`https?://[^/]+(/[^?#]*)?`)

// generateName builds a request name like get_users_1 from the method and
// URL path.
func generateName(rawURL, method string) string {
	matches := urlPathPattern.FindStringSubmatch(rawURL)

	path := "/"
	if len(matches) > 1 && matches[1] != "" {
		path = matches[1]
	}

	path = strings.Trim(path, "/")
	if path == "" {
		path = "root"
	}

	path = strings.ReplaceAll(path, "/", "_")
	path = strings.ReplaceAll(path, "-", "_")

	return strings.ToLower(method) + "_" + path
}
