// Package discovery locates migration files on the filesystem or inside a
// zip/JAR-style archive, groups the up and down half of each migration id
// together, and produces the abstract kind.Descriptor set the rest of the
// engine operates on.
//
// Resolution follows a three-step search order: the resource filesystems
// (a primary fs.FS, typically an embedded or resource filesystem, then a
// fallback fs.FS), then the plain filesystem at "<parent>/<name>", and
// finally "<name>" as a relative path.
package discovery

import (
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/wrenchdb/wrench/pkg/consts"
	"github.com/wrenchdb/wrench/pkg/kind"
)

// Options configures where and how Discovery searches for migration files.
type Options struct {
	// MigrationDir is the directory name to search. Default "migrations".
	MigrationDir string

	// ParentDir is the filesystem parent tried after the resource-loader
	// search fails. Default "resources/".
	ParentDir string

	// Exclude lists filenames to ignore during discovery. The configured
	// InitScript (or the default "init.sql") is always excluded.
	Exclude []string

	// InitScript is the init script filename, excluded from migration
	// discovery and loaded separately via LoadInitScript. Default
	// "init.sql".
	InitScript string

	// Separator overrides the statement separator SQL kinds split on.
	// Default "--;;".
	Separator string

	// Primary and Fallback are resource-loader-style filesystems tried, in
	// order, before falling back to plain filesystem paths. Either may be
	// nil.
	Primary  fs.FS
	Fallback fs.FS
}

func (o Options) migrationDir() string {
	if o.MigrationDir == "" {
		return consts.DefaultMigrationDir
	}
	return o.MigrationDir
}

func (o Options) parentDir() string {
	if o.ParentDir == "" {
		return consts.DefaultParentMigrationDir
	}
	return o.ParentDir
}

func (o Options) initScript() string {
	if o.InitScript == "" {
		return consts.DefaultInitScript
	}
	return o.InitScript
}

func (o Options) excludeSet() map[string]bool {
	set := make(map[string]bool, len(o.Exclude)+1)
	for _, name := range o.Exclude {
		set[name] = true
	}
	set[o.initScript()] = true
	return set
}

// Resolve locates the migration directory and returns it as an fs.FS,
// trying, in order: the primary resource filesystem, the fallback resource
// filesystem, "<parent>/<name>" on disk, then "<name>" as a plain relative
// path.
func Resolve(opts Options) (fs.FS, error) {
	name := opts.migrationDir()

	for _, loader := range []fs.FS{opts.Primary, opts.Fallback} {
		if loader == nil {
			continue
		}
		if sub, err := fs.Sub(loader, name); err == nil {
			if _, err := fs.Stat(sub, "."); err == nil {
				return sub, nil
			}
		}
	}

	onDisk := filepath.Join(opts.parentDir(), name)
	if info, err := os.Stat(onDisk); err == nil && info.IsDir() {
		return os.DirFS(onDisk), nil
	}

	if info, err := os.Stat(name); err == nil && info.IsDir() {
		return os.DirFS(name), nil
	}

	return nil, errors.Errorf("discovery: migration directory %q not found", name)
}

// filenameRe matches the SQL migration filename grammar:
// <digits>-<name>.(up|down).sql, with an optional .no-tx variant.
var filenameRe = regexp.MustCompile(`^(\d+)-(.+)\.(up|down)(\.no-tx)?\.sql$`)

// Discover walks dir (lexical order, via fs.WalkDir) and groups matching
// SQL migration files into a map of id to Descriptor. Files that don't
// match the filename grammar (logged as a warning), or that are listed in
// Exclude, are skipped with no error. Files whose leading digits don't
// parse as an int64 are skipped as a malformed id.
func Discover(dir fs.FS, opts Options) (map[int64]*kind.Descriptor, error) {
	exclude := opts.excludeSet()

	type half struct {
		payload       string
		transactional bool
	}
	ups := map[int64]half{}
	downs := map[int64]half{}
	names := map[int64]string{}

	err := fs.WalkDir(dir, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		filename := normalizeFilename(path.Base(filepath.ToSlash(p)))
		if exclude[filename] {
			return nil
		}

		m := filenameRe.FindStringSubmatch(filename)
		if m == nil {
			slog.Warn("discovery: ignoring file that does not match the migration filename grammar", "file", p)
			return nil
		}

		id, perr := strconv.ParseInt(m[1], 10, 64)
		if perr != nil || id == consts.ReservationID {
			return nil // bad or reserved id: skipped
		}

		content, rerr := fs.ReadFile(dir, p)
		if rerr != nil {
			return errors.Wrapf(rerr, "discovery: failed to read %s", p)
		}

		direction := m[3]
		h := half{payload: string(content), transactional: m[4] == ""}
		names[id] = m[2]
		if direction == "up" {
			ups[id] = h
		} else {
			downs[id] = h
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "discovery: walk failed")
	}

	ids := make(map[int64]struct{}, len(names))
	for id := range ups {
		ids[id] = struct{}{}
	}
	for id := range downs {
		ids[id] = struct{}{}
	}

	descriptors := make(map[int64]*kind.Descriptor, len(ids))
	for id := range ids {
		up, hasUp := ups[id]
		down, hasDown := downs[id]

		transactional := true
		switch {
		case hasUp:
			transactional = up.transactional
		case hasDown:
			transactional = down.transactional
		}

		k, berr := kind.Build("sql", up.payload, down.payload)
		if berr != nil {
			return nil, errors.Wrapf(berr, "discovery: failed to build kind for migration %d", id)
		}
		if opts.Separator != "" {
			if cfg, ok := k.(kind.Configurable); ok {
				cfg.SetSeparator(opts.Separator)
			}
		}

		descriptors[id] = &kind.Descriptor{
			ID:            id,
			Name:          names[id],
			Tag:           "sql",
			Transactional: transactional,
			Kind:          k,
		}
	}

	return descriptors, nil
}

// normalizeFilename decodes spaces and percent-encoded characters and
// normalizes backslashes to forward slashes, as required for filenames
// sourced from resource loaders or archive entries, before extracting the
// base filename.
func normalizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if decoded, err := url.QueryUnescape(name); err == nil {
		name = decoded
	}
	return path.Base(name)
}

// SortedIDs returns the keys of a descriptor map in ascending order.
func SortedIDs(descriptors map[int64]*kind.Descriptor) []int64 {
	ids := make([]int64, 0, len(descriptors))
	for id := range descriptors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LoadInitScript reads the configured init script from dir, returning its
// raw content. Callers run it via kind.NewSql(content, "").Up.
func LoadInitScript(dir fs.FS, opts Options) (string, error) {
	content, err := fs.ReadFile(dir, opts.initScript())
	if err != nil {
		return "", errors.Wrapf(err, "discovery: failed to read init script %s", opts.initScript())
	}
	return string(content), nil
}
