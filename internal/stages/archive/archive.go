// Package archive implements the final stage: the delivery folder is packed
// into one compressed tarball whose SHA-256 checksum is computed from the
// exact bytes written to disk, in the same streaming pass. The checksum is
// never a second read over the finished file, so there is no window in
// which archive and checksum could drift apart.
package archive

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"hifidel/internal/checkpoint"
	"hifidel/internal/fileutil"
	"hifidel/internal/logging"
	"hifidel/internal/run"
	"hifidel/internal/services"
)

// StageName is the fixed stage identifier.
const StageName = "archive"

// Stage packages the delivery folder.
type Stage struct {
	logger *slog.Logger
}

// New constructs the archive stage.
func New(logger *slog.Logger) *Stage {
	return &Stage{logger: logging.NewComponentLogger(logger, StageName)}
}

func (s *Stage) Name() string { return StageName }

func (s *Stage) Marker(r *run.Run) checkpoint.Marker {
	return checkpoint.ForStage(r.OutputDir, StageName)
}

// Execute writes <run>.tar.gz plus its .sha256 companion. It fails when none
// of the expected delivery subfolders exist.
func (s *Stage) Execute(ctx context.Context, r *run.Run) error {
	logger := logging.WithContext(ctx, s.logger)

	subfolders := []string{r.DeliveryFastqDir(), r.DeliveryQCDir(), r.DeliverySheetsDir()}
	any := false
	for _, dir := range subfolders {
		if fileutil.DirExists(dir) {
			any = true
			break
		}
	}
	if !any {
		return services.Wrap(services.ErrArchive, StageName, "scan delivery",
			"no delivery subfolders exist under "+r.DeliveryDir(), nil)
	}

	sum, err := writeArchive(r.ArchivePath(), r.DeliveryDir(), r.Name)
	if err != nil {
		return services.Wrap(services.ErrArchive, StageName, "write archive", "", err)
	}

	checksumLine := fmt.Sprintf("%x  %s\n", sum, filepath.Base(r.ArchivePath()))
	if err := os.WriteFile(r.ChecksumPath(), []byte(checksumLine), 0o644); err != nil {
		return services.Wrap(services.ErrArchive, StageName, "write checksum", "", err)
	}

	for _, path := range []string{r.ArchivePath(), r.ChecksumPath()} {
		if err := fileutil.SyncFile(path); err != nil {
			return services.Wrap(services.ErrArchive, StageName, "sync artifact", "", err)
		}
	}

	logger.Info("delivery archive written",
		logging.String("archive", r.ArchivePath()),
		logging.String("checksum", r.ChecksumPath()),
	)
	return nil
}

// writeArchive streams a tar.gz of root to dest. The gzip output is teed
// into the checksum hash as it is written, so the returned digest covers the
// exact bytes on disk.
func writeArchive(dest, root, topDir string) ([]byte, error) {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	hasher := sha256.New()
	gz := gzip.NewWriter(io.MultiWriter(out, hasher))
	tw := tar.NewWriter(gz)

	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(filepath.Join(topDir, rel))
		if rel == "." {
			name = topDir
		} else if strings.HasPrefix(filepath.Base(path), ".") {
			// Checkpoint markers are run-internal state, not deliverables.
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = name
		if info.IsDir() {
			header.Name += "/"
		}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tw, file)
		return err
	})
	if walkErr != nil {
		return nil, walkErr
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, err
	}
	return hasher.Sum(nil), nil
}
