// Package scanner enumerates the work items of an invocation: local files
// matching a glob for uploads, remote keys under a prefix for downloads.
package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sgaunet/s3-nocheck-resource/pkg/dto"
	"github.com/sgaunet/s3-nocheck-resource/pkg/errs"
	"github.com/sgaunet/s3-nocheck-resource/pkg/storage"
)

// Service handles enumeration of work items
type Service struct {
	log *slog.Logger
}

// NewService creates a new scanner service
func NewService() *Service {
	return &Service{
		log: slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger for the scanner
func (s *Service) SetLogger(log *slog.Logger) {
	s.log = log
}

// CleanPrefix collapses runs of slashes. Dot segments are kept as is so the
// keys stay under the exact prefix reported as the version.
func CleanPrefix(prefix string) string {
	for strings.Contains(prefix, "//") {
		prefix = strings.ReplaceAll(prefix, "//", "/")
	}
	return prefix
}

// ObjectKey joins prefix and the base name of localPath into a key.
func ObjectKey(prefix, localPath string) string {
	base := filepath.Base(localPath)
	if prefix == "" {
		return base
	}
	return CleanPrefix(strings.TrimSuffix(prefix, "/") + "/" + base)
}

// UploadItems expands pattern below inputDir and returns one upload item per
// matching file, in lexical walk order. Files whose path matches except are
// skipped. Entries that cannot be resolved are logged and skipped; only an
// invalid pattern is an error.
func (s *Service) UploadItems(inputDir, pattern string, except *regexp.Regexp, prefix string) ([]dto.WorkItem, error) {
	pattern = path.Clean(strings.TrimLeft(filepath.ToSlash(pattern), "/"))
	if !doublestar.ValidatePattern(pattern) {
		return nil, errs.Configuration("glob", "failed to read glob pattern %q", pattern)
	}

	items := []dto.WorkItem{}
	err := doublestar.GlobWalk(os.DirFS(inputDir), pattern, func(rel string, d fs.DirEntry) error {
		localPath := filepath.Join(inputDir, filepath.FromSlash(rel))
		if d == nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			s.log.Error("Skipping unreadable entry",
				slog.String("path", localPath),
				slog.String("error", errs.New(errs.KindEnumeration, "glob", localPath, err).Error()))
			return nil
		}
		if info.IsDir() {
			s.log.Debug("Ignoring directory", slog.String("path", localPath))
			return nil
		}
		if except != nil && except.MatchString(localPath) {
			s.log.Info("Ignoring", slog.String("path", localPath))
			return nil
		}
		item := dto.WorkItem{
			Direction: dto.Upload,
			LocalPath: localPath,
			Key:       ObjectKey(prefix, localPath),
		}
		s.log.Debug("Queue upload", slog.String("path", item.LocalPath), slog.String("key", item.Key))
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, errs.Configuration("glob", "failed to expand glob pattern %q: %w", pattern, err)
	}
	return items, nil
}

// DownloadItems lists every key under prefix and maps it to a file named
// after the key's base name directly inside outputDir. An empty listing
// yields no items.
func (s *Service) DownloadItems(
	ctx context.Context,
	store storage.ObjectStore,
	bucket, prefix, outputDir string,
) ([]dto.WorkItem, error) {
	keys, err := store.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return nil, errs.Transfer("list", prefix, err)
	}

	items := make([]dto.WorkItem, 0, len(keys))
	seen := make(map[string]string, len(keys))
	for _, key := range keys {
		localPath := filepath.Join(outputDir, path.Base(key))
		if prev, ok := seen[localPath]; ok {
			s.log.Warn("Objects share a file name, the last one written wins",
				slog.String("path", localPath), slog.String("key", key), slog.String("previous", prev))
		}
		seen[localPath] = key
		s.log.Info("Downloading", slog.String("key", key), slog.String("path", localPath))
		items = append(items, dto.WorkItem{
			Direction: dto.Download,
			LocalPath: localPath,
			Key:       key,
		})
	}
	return items, nil
}
