package http

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// EncodedBody is a request payload ready for the transport.
type EncodedBody struct {
	Reader io.Reader
	// ContentType is set only when the encoding dictates it (multipart).
	ContentType string
	Length      int64
}

// EncodeBody encodes b for the wire. A nil return means no payload.
func EncodeBody(b Body) (*EncodedBody, error) {
	switch body := b.(type) {
	case RawBody:
		return verbatim(body.Text), nil
	case URLEncodedBody:
		return verbatim(body.Text), nil
	case FormDataBody:
		return BuildMultipartBody(EnabledFields(body.Items))
	case NoBody, nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported body type %T", b)
	}
}

func verbatim(text string) *EncodedBody {
	return &EncodedBody{
		Reader: bytes.NewBufferString(text),
		Length: int64(len(text)),
	}
}

// BuildMultipartBody writes fields as text parts in order.
func BuildMultipartBody(fields []KeyValueItem) (*EncodedBody, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, field := range fields {
		if err := writer.WriteField(field.Key, field.Value); err != nil {
			return nil, fmt.Errorf("writing form field %q: %w", field.Key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	return &EncodedBody{
		Reader:      body,
		ContentType: writer.FormDataContentType(),
		Length:      int64(body.Len()),
	}, nil
}
