// Package attachments uploads chat file attachments to object storage.
package attachments

import (
	"context"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// MaxSize is the largest accepted attachment in bytes
const MaxSize = 10 << 20

// Store uploads an object and returns a URL the conversation parties can
// fetch it from
type Store interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ObjectKey builds a unique object key for a file attached to a request
func ObjectKey(requestID, fileName string) string {
	name := unsafeChars.ReplaceAllString(path.Base(strings.TrimSpace(fileName)), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	return "requests/" + requestID + "/" + uuid.New().String() + "-" + name
}
