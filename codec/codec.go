// Package codec is the versioned payload encoding used by serialized
// requests and responses. A payload is a tag line followed by a JSON
// document:
//
//	pkg.Stats/2
//	{"hits":10}
//
// Decode refuses a payload whose tag differs from the one the target type
// would be encoded with.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
)

// Tagged lets a type choose its own tag, usually to carry a version. Use a
// value receiver so values and pointers encode alike.
type Tagged interface {
	PayloadTag() string
}

// VersionMismatch is returned by Decode when the payload tag is not the
// tag of the target type.
type VersionMismatch struct {
	Want string
	Got  string
}

func (e *VersionMismatch) Error() string {
	return fmt.Sprintf("codec: version mismatch: want %q, got %q", e.Want, e.Got)
}

// ErrMalformed is returned for payloads without a tag line.
var ErrMalformed = errors.New("codec: malformed payload")

// ContentType is sent with encoded payloads.
const ContentType = "application/x-tagged-json"

// TagOf returns the tag v is encoded with.
func TagOf(v any) string {
	if t, ok := v.(Tagged); ok {
		return t.PayloadTag()
	}
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil {
		return "nil"
	}
	return rt.String()
}

// Encode renders v with its tag line.
func Encode(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: encode %s: %w", TagOf(v), err)
	}
	tag := TagOf(v)
	out := make([]byte, 0, len(tag)+1+len(body))
	out = append(out, tag...)
	out = append(out, '\n')
	return append(out, body...), nil
}

// Decode checks the tag line of data against v and unmarshals the rest into
// v, which must be a pointer.
func Decode(data []byte, v any) error {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return ErrMalformed
	}
	want, got := TagOf(v), string(data[:i])
	if want != got {
		return &VersionMismatch{Want: want, Got: got}
	}
	if err := json.Unmarshal(data[i+1:], v); err != nil {
		return fmt.Errorf("codec: decode %s: %w", want, err)
	}
	return nil
}
