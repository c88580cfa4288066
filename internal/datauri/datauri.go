// Package datauri encodes and decodes self-describing data URIs.
//
// The wire format is:
//
//	data:{mimeType}[;name={filename}][;base64],{payload}
//
// The name segment, when present, always precedes the base64 segment. The
// payload is literal text unless the base64 segment is present, in which
// case it is standard base64 alphabet text.
//
// This package also hosts the filename-extension to mime-type table used
// when a caller supplies a filename but no explicit mime type.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Scheme is the data URI scheme prefix.
const Scheme = "data:"

// DefaultMimeType is used when no mime type is declared or inferable.
const DefaultMimeType = "application/octet-stream"

// ErrMalformed is returned by Parse when the input is not a valid data URI:
// missing scheme prefix, missing comma separator, or a payload that fails
// base64 decoding when the base64 segment is present.
var ErrMalformed = errors.New("malformed data URI")

// DataURI is a decoded data URI. Payload always holds the raw decoded bytes
// regardless of the wire encoding.
type DataURI struct {
	MimeType string
	Filename string // empty when no name segment was present
	Base64   bool   // wire encoding of the payload
	Payload  []byte
}

// Encode builds a data URI string from raw payload bytes.
//
// filename may be empty, in which case no name segment is emitted. When
// base64Encode is true the payload is base64-encoded and the base64 segment
// is appended after the name segment. mimeType defaults to DefaultMimeType
// when empty.
func Encode(payload []byte, mimeType, filename string, base64Encode bool) string {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	var b strings.Builder
	b.WriteString(Scheme)
	b.WriteString(mimeType)
	if filename != "" {
		b.WriteString(";name=")
		b.WriteString(filename)
	}
	if base64Encode {
		b.WriteString(";base64")
	}
	b.WriteByte(',')
	if base64Encode {
		b.WriteString(base64.StdEncoding.EncodeToString(payload))
	} else {
		b.Write(payload)
	}
	return b.String()
}

// Parse decodes a data URI string. The returned Payload holds raw bytes;
// base64 payloads are decoded. Returns ErrMalformed (wrapped with detail)
// when the scheme prefix is missing, the comma separator is absent, or the
// payload fails base64 decoding.
func Parse(uri string) (*DataURI, error) {
	rest, ok := strings.CutPrefix(uri, Scheme)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrMalformed, Scheme)
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing comma separator", ErrMalformed)
	}

	d := &DataURI{}
	for i, seg := range strings.Split(header, ";") {
		switch {
		case i == 0:
			d.MimeType = seg
		case seg == "base64":
			d.Base64 = true
		case strings.HasPrefix(seg, "name="):
			d.Filename = strings.TrimPrefix(seg, "name=")
		}
	}
	if d.MimeType == "" {
		d.MimeType = DefaultMimeType
	}

	if d.Base64 {
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding base64 payload: %v", ErrMalformed, err)
		}
		d.Payload = raw
	} else {
		d.Payload = []byte(payload)
	}
	return d, nil
}

// mimeByExt maps bare filename extensions to mime types.
var mimeByExt = map[string]string{
	"txt":  "text/plain",
	"html": "text/html",
	"css":  "text/css",
	"js":   "application/javascript",
	"json": "application/json",
	"xml":  "application/xml",
	"csv":  "text/csv",
	"tsv":  "text/tab-separated-values",
	"md":   "text/markdown",
}

// MimeTypeForFilename infers a mime type from the filename's extension.
// Filenames without an extension, and unknown extensions, map to
// DefaultMimeType.
func MimeTypeForFilename(filename string) string {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 || idx == len(filename)-1 {
		return DefaultMimeType
	}
	if mime, ok := mimeByExt[filename[idx+1:]]; ok {
		return mime
	}
	return DefaultMimeType
}
