package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Auth types
const (
	AuthNone   = "none"
	AuthAPIKey = "api-key"
	AuthBearer = "bearer"
	AuthBasic  = "basic"
)

// Body types
const (
	BodyNone       = "none"
	BodyRaw        = "raw"
	BodyURLEncoded = "x-www-form-urlencoded"
	BodyFormData   = "form-data"
)

// KeyValue is an editable row; rows are enabled unless stated otherwise.
type KeyValue struct {
	Key     string `yaml:"key"`
	Value   string `yaml:"value"`
	Enabled *bool  `yaml:"enabled,omitempty"`
}

func (kv KeyValue) IsEnabled() bool {
	return kv.Enabled == nil || *kv.Enabled
}

type Auth struct {
	Type string `yaml:"type" validate:"omitempty,oneof=none api-key bearer basic"`

	// api-key
	Key   string `yaml:"key,omitempty" validate:"required_if=Type api-key"`
	Value string `yaml:"value,omitempty"`
	AddTo string `yaml:"add_to,omitempty" validate:"omitempty,oneof=header query"`

	// bearer
	Token string `yaml:"token,omitempty"`

	// basic
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

type Body struct {
	Type    string     `yaml:"type" validate:"omitempty,oneof=none raw x-www-form-urlencoded form-data"`
	RawType string     `yaml:"raw_type,omitempty" validate:"omitempty,oneof=text json javascript html xml"`
	Content string     `yaml:"content,omitempty"`
	Form    []KeyValue `yaml:"form,omitempty"`
}

// Settings are tri-state; nil falls back to the configured default.
type Settings struct {
	FollowRedirects *bool `yaml:"follow_redirects,omitempty"`
	VerifySSL       *bool `yaml:"verify_ssl,omitempty"`
}

// Document describes one request.
type Document struct {
	Name      string            `yaml:"name,omitempty"`
	Method    string            `yaml:"method,omitempty"`
	URL       string            `yaml:"url" validate:"required"`
	Params    []KeyValue        `yaml:"params,omitempty"`
	Headers   []KeyValue        `yaml:"headers,omitempty"`
	Auth      *Auth             `yaml:"auth,omitempty"`
	Body      *Body             `yaml:"body,omitempty"`
	Settings  Settings          `yaml:"settings,omitempty"`
	Variables map[string]string `yaml:"variables,omitempty"`

	// Source is the file the document was loaded from
	Source string `yaml:"-"`
}

// DisplayName is the name, or METHOD URL when unnamed.
func (d *Document) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	method := d.Method
	if method == "" {
		method = "GET"
	}
	return method + " " + d.URL
}

// Extensions lists the file extensions LoadFile accepts
var Extensions = []string{".yaml", ".yml", ".json"}

// IsDocumentFile reports whether path has a document extension.
func IsDocumentFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LoadFile parses and validates every document in path.
func LoadFile(path string) ([]*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	docs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, d := range docs {
		d.Source = path
	}
	return docs, nil
}

// Parse decodes one or more YAML/JSON documents. Unknown fields are errors.
func Parse(data []byte) ([]*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var docs []*Document
	for i := 0; ; i++ {
		var d Document
		err := dec.Decode(&d)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i+1, err)
		}
		if err := Validate(&d); err != nil {
			return nil, fmt.Errorf("document %d: %w", i+1, err)
		}
		docs = append(docs, &d)
	}

	if len(docs) == 0 {
		return nil, errors.New("no request documents found")
	}
	return docs, nil
}

// CollectFiles expands directories into the document files they contain.
func CollectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && IsDocumentFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
