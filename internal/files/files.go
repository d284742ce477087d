// Package files loads message attachments from disk.
package files

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/raphaelgruber/brandtalk/internal/models"
)

// MaxAttachmentSize caps how much of a file is attached to a message.
const MaxAttachmentSize = 1 << 20 // 1 MiB

// Load reads one file into an attachment. Text files carry their content
// inline so it can be shown to the model; binary files are attached by
// name only.
func Load(path string) (models.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("stat attachment: %w", err)
	}
	if info.IsDir() {
		return models.Attachment{}, fmt.Errorf("attachment %s is a directory", path)
	}
	if info.Size() > MaxAttachmentSize {
		return models.Attachment{}, fmt.Errorf("attachment %s too large: %d bytes (max %d)", path, info.Size(), MaxAttachmentSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("read attachment: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	contentType := detectType(path, data)
	att := models.Attachment{
		ID:   uuid.NewString(),
		Name: filepath.Base(path),
		Type: contentType,
		Size: info.Size(),
		URL:  "file://" + abs,
	}
	if isText(contentType, data) {
		att.Content = string(data)
	}
	return att, nil
}

// LoadAll reads several files; the first failure aborts the whole batch.
func LoadAll(paths []string) ([]models.Attachment, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	out := make([]models.Attachment, 0, len(paths))
	for _, path := range paths {
		att, err := Load(path)
		if err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	return out, nil
}

func detectType(path string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		// Strip charset parameters, the plain type is enough.
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		return t
	}
	if utf8.Valid(data) {
		return "text/plain"
	}
	return "application/octet-stream"
}

var textualTypes = map[string]bool{
	"application/json":       true,
	"application/xml":        true,
	"application/yaml":       true,
	"application/javascript": true,
}

func isText(contentType string, data []byte) bool {
	if strings.HasPrefix(contentType, "text/") || textualTypes[contentType] {
		return utf8.Valid(data)
	}
	return false
}
