// Package download delivers generated documents to the user. The core
// hands bytes plus a filename to a sink and never knows the mechanism;
// the CLI writes files into an export directory, the HTTP server sends
// attachments.
package download

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// DirSink writes offered downloads into a directory.
type DirSink struct {
	Dir string
	Log zerolog.Logger
}

// Offer writes data under the sink directory. The mime type is recorded
// only in the log; the filename carries the extension.
func (s DirSink) Offer(filename, mimeType string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(s.Dir, filename)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	s.Log.Info().Str("path", path).Str("mime", mimeType).Int("bytes", len(data)).Msg("export written")
	return nil
}
