package discovery

import (
	"archive/zip"
	"io/fs"
	"regexp"

	"github.com/pkg/errors"
)

// OpenArchive opens a zip/JAR-style archive at path and returns an fs.FS
// rooted at the given directory name inside it. Entries are matched via
// "^<quoted-dir>.+" and the directory prefix is stripped, the way JAR
// archive scanning does, per the discovery search order; entries that
// don't fall under dir are invisible through the returned fs.FS.
func OpenArchive(path, dir string) (fs.FS, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "discovery: failed to open archive %s", path)
	}

	if len(matchingEntries(&r.Reader, dir)) == 0 {
		_ = r.Close()
		return nil, errors.Errorf("discovery: directory %s not found in archive %s", dir, path)
	}

	sub, err := fs.Sub(r, dir)
	if err != nil {
		_ = r.Close()
		return nil, errors.Wrapf(err, "discovery: directory %s not found in archive %s", dir, path)
	}

	return &closingFS{FS: sub, closer: r}, nil
}

// matchingEntries returns the archive entries whose names fall under dir,
// matching the "^<quoted-dir>.+" pattern the spec describes for streaming
// JAR entries.
func matchingEntries(r *zip.Reader, dir string) []*zip.File {
	re := regexp.MustCompile("^" + regexp.QuoteMeta(dir) + `.+`)

	var matches []*zip.File
	for _, f := range r.File {
		if re.MatchString(f.Name) {
			matches = append(matches, f)
		}
	}
	return matches
}

type closingFS struct {
	fs.FS
	closer *zip.ReadCloser
}

// Close releases the underlying archive handle. Callers that obtained this
// fs.FS via OpenArchive should close it once discovery is complete.
func (c *closingFS) Close() error {
	return c.closer.Close()
}
