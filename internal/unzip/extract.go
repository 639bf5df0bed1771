package unzip

import (
	"archive/zip"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/wagiedev/procshim-go/internal/errors"
)

// Status is the coarse outcome of an extraction, as reported to hosts.
type Status int

const (
	// StatusOK means every entry was extracted.
	StatusOK Status = iota
	// StatusOpen means the archive could not be opened or parsed.
	StatusOpen
	// StatusWrite means an entry could not be written.
	StatusWrite
	// StatusUnsafePath means an entry was rejected for its path or type.
	StatusUnsafePath
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusOpen:
		return "open"
	case StatusWrite:
		return "write"
	case StatusUnsafePath:
		return "unsafe_path"
	default:
		return "unknown"
	}
}

// errOpen marks failures to open the archive itself.
var errOpen = stderrors.New("cannot open archive")

// StatusOf classifies an error returned by Extract.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case stderrors.Is(err, errors.ErrUnsafeArchivePath):
		return StatusUnsafePath
	case stderrors.Is(err, errOpen):
		return StatusOpen
	default:
		return StatusWrite
	}
}

// Extractor unpacks archives.
type Extractor struct {
	log *slog.Logger
}

// New creates an Extractor. A nil logger disables logging.
func New(log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Extractor{log: log.With("component", "unzip")}
}

// Extract unpacks archive into destDir, creating it if needed, and
// returns the number of regular files written.
//
// Extraction stops at the first failing entry; entries written before it
// are left in place. ctx is checked between entries.
func (x *Extractor) Extract(ctx context.Context, archive, destDir string) (int, error) {
	zr, err := zip.OpenReader(archive)
	if stderrors.Is(err, zip.ErrInsecurePath) && zr != nil {
		// Entry names are vetted individually by safeJoin.
		err = nil
	}

	if err != nil {
		return 0, &errors.ExtractError{Archive: archive, Err: fmt.Errorf("%w: %w", errOpen, err)}
	}
	defer zr.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return 0, &errors.ExtractError{Archive: archive, Err: err}
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return 0, &errors.ExtractError{Archive: archive, Err: err}
	}

	x.log.Debug("Extracting archive", "archive", archive, "dest", root, "entries", len(zr.File))

	files := 0

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return files, err
		}

		wrote, err := x.extractEntry(root, f)
		if err != nil {
			x.log.Warn("Failed to extract entry", "archive", archive, "entry", f.Name, "error", err)

			return files, &errors.ExtractError{Archive: archive, Entry: f.Name, Err: err}
		}

		if wrote {
			files++
		}
	}

	x.log.Info("Archive extracted", "archive", archive, "files", files)

	return files, nil
}

// extractEntry writes one entry and reports whether it was a regular file.
func (x *Extractor) extractEntry(root string, f *zip.File) (bool, error) {
	target, err := safeJoin(root, f.Name)
	if err != nil {
		return false, err
	}

	mode := f.Mode()

	switch {
	case mode&fs.ModeSymlink != 0:
		return false, fmt.Errorf("symbolic link: %w", errors.ErrUnsafeArchivePath)

	case f.FileInfo().IsDir():
		return false, os.MkdirAll(target, dirPerm(mode))

	case !mode.IsRegular():
		return false, fmt.Errorf("unsupported entry type %s: %w", mode.Type(), errors.ErrUnsafeArchivePath)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return false, err
	}

	if err := writeFile(target, f, filePerm(mode)); err != nil {
		return false, err
	}

	return true, nil
}

func writeFile(target string, f *zip.File, perm fs.FileMode) (err error) {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}

	// OpenFile's perm is filtered by umask and ignored for existing files.
	return os.Chmod(target, perm)
}

// safeJoin resolves name under root, rejecting absolute names and any
// name that escapes root after cleaning.
func safeJoin(root, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty entry name: %w", errors.ErrUnsafeArchivePath)
	}

	slashed := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("absolute entry name: %w", errors.ErrUnsafeArchivePath)
	}

	target := filepath.Join(root, filepath.FromSlash(slashed))

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry escapes destination: %w", errors.ErrUnsafeArchivePath)
	}

	return target, nil
}

func filePerm(mode fs.FileMode) fs.FileMode {
	perm := mode.Perm()
	if perm == 0 {
		return 0o644
	}

	return perm
}

func dirPerm(mode fs.FileMode) fs.FileMode {
	perm := mode.Perm()
	if perm == 0 {
		return 0o755
	}

	// Directories must stay traversable for the entries inside them.
	return perm | 0o700
}
