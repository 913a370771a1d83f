// Package archive bundles old debug logs into tar.xz archives so the
// working directory stays readable between editing sessions.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

// CreateTarXz archives the named files into a tar.xz at dstPath. Archive
// member names are the file basenames. Timestamps are normalized so the
// same inputs produce equivalent archives.
func CreateTarXz(dstPath string, files []string) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	out, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	xzw, err := xz.NewWriter(out)
	if err != nil {
		return fmt.Errorf("xz writer: %w", err)
	}
	tw := tar.NewWriter(xzw)

	now := time.Now()
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("tar header %s: %w", path, err)
		}
		header.Name = filepath.Base(path)
		header.ModTime = now

		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("write header %s: %w", path, err)
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		if _, err := io.Copy(tw, f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		f.Close()
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}
	if err := xzw.Close(); err != nil {
		return fmt.Errorf("close xz: %w", err)
	}
	return nil
}

// ListTarXz returns the member names of a tar.xz archive.
func ListTarXz(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	xzr, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("xz reader: %w", err)
	}
	tr := tar.NewReader(xzr)

	var names []string
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read archive: %w", err)
		}
		names = append(names, header.Name)
	}
	return names, nil
}

// ArchiveLogs collects debug logs in dir matching pattern, writes them to a
// timestamped tar.xz under dir, and removes the originals. Returns the
// archive path and the archived file names; with no matches it returns
// empty values and no error.
func ArchiveLogs(dir, pattern string) (string, []string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	// Never archive archives.
	var files []string
	for _, m := range matches {
		if strings.HasSuffix(m, ".tar.xz") {
			continue
		}
		files = append(files, m)
	}
	if len(files) == 0 {
		return "", nil, nil
	}
	sort.Strings(files)

	dst := filepath.Join(dir, fmt.Sprintf("logs-%s.tar.xz", time.Now().Format("20060102-150405")))
	if err := CreateTarXz(dst, files); err != nil {
		return "", nil, err
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
		if err := os.Remove(f); err != nil {
			return dst, names, fmt.Errorf("remove %s: %w", f, err)
		}
	}
	return dst, names, nil
}
