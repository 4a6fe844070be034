package env

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Func is a template function. Arguments are passed as written.
type Func func(args []string) string

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

func defaultFuncs() map[string]Func {
	return map[string]Func{
		"uuid": func(_ []string) string {
			return uuid.NewString()
		},
		"timestamp": func(_ []string) string {
			return strconv.FormatInt(time.Now().Unix(), 10)
		},
		"timestampMs": func(_ []string) string {
			return strconv.FormatInt(time.Now().UnixMilli(), 10)
		},
		"now": func(args []string) string {
			layout := time.RFC3339
			if len(args) > 0 && args[0] != "" {
				layout = args[0]
			}
			return time.Now().Format(layout)
		},
		"base64": func(args []string) string {
			return base64.StdEncoding.EncodeToString([]byte(strings.Join(args, ",")))
		},
		"urlEncode": func(args []string) string {
			return url.QueryEscape(strings.Join(args, ","))
		},
	}
}

// splitArgs splits on commas outside of quotes and strips the quotes.
func splitArgs(s string) []string {
	var args []string
	var current strings.Builder
	var quote rune

	for _, ch := range s {
		switch {
		case quote != 0 && ch == quote:
			quote = 0
		case quote == 0 && (ch == '"' || ch == '\''):
			quote = ch
		case quote == 0 && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	if s != "" {
		args = append(args, strings.TrimSpace(current.String()))
	}
	return args
}
