// Package library enumerates the markdown files served by the viewer and
// the optional _config.toml grouping file that sits alongside them.
package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// FileInfo is the per-file metadata exposed by the listing API.
type FileInfo struct {
	Name          string   `json:"name"`
	Path          string   `json:"path"`
	Size          int64    `json:"size"`
	SizeHuman     string   `json:"size_human"`
	Modified      int64    `json:"modified"`
	ModifiedHuman string   `json:"modified_human"`
	Groups        []string `json:"groups"`
	IsGrouped     bool     `json:"is_grouped"`
}

// Library lists markdown files under a root directory, filtered by
// include/exclude glob patterns.
type Library struct {
	Root    string
	Include []string
	Exclude []string
}

// New returns a Library rooted at dir. Empty include means "all markdown".
func New(dir string, include, exclude []string) (*Library, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", abs)
	}
	return &Library{Root: abs, Include: include, Exclude: exclude}, nil
}

// IsMarkdown reports whether path has a markdown extension.
func IsMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

func (l *Library) matches(rel string) bool {
	for _, pat := range l.Exclude {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return false
		}
	}
	if len(l.Include) == 0 {
		return IsMarkdown(rel)
	}
	for _, pat := range l.Include {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return IsMarkdown(rel)
		}
	}
	return false
}

// List returns metadata for every matching markdown file directly in the
// root, sorted by path. Subdirectories are not descended: the viewer
// addresses files by name, so only flat entries are servable. Group
// membership comes from _config.toml when present.
func (l *Library) List() ([]FileInfo, error) {
	groups, err := l.LoadGroups()
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]bool)
	for _, files := range groups {
		for _, f := range files {
			grouped[f] = true
		}
	}

	var out []FileInfo
	err = filepath.WalkDir(l.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			if path != l.Root {
				return fs.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(l.Root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !l.matches(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		base := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		out = append(out, FileInfo{
			Name:          d.Name(),
			Path:          rel,
			Size:          info.Size(),
			SizeHuman:     FormatSize(info.Size()),
			Modified:      info.ModTime().Unix(),
			ModifiedHuman: info.ModTime().Format("2006-01-02 15:04:05"),
			Groups:        groupsFor(groups, base),
			IsGrouped:     grouped[base],
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Resolve turns a request filename into an absolute path inside the root,
// rejecting traversal attempts and non-markdown names.
func (l *Library) Resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(name)))
	if clean == "" || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid path %q", name)
	}
	if !IsMarkdown(clean) {
		return "", fmt.Errorf("only markdown files are supported")
	}
	joined := filepath.Join(l.Root, clean)
	rel, err := filepath.Rel(l.Root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes root")
	}
	if _, err := os.Stat(joined); err != nil {
		return "", fmt.Errorf("file not found: %s", name)
	}
	return joined, nil
}

// Info returns metadata for a single file inside the root.
func (l *Library) Info(name string) (FileInfo, error) {
	full, err := l.Resolve(name)
	if err != nil {
		return FileInfo{}, err
	}
	st, err := os.Stat(full)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Name:          filepath.Base(full),
		Path:          filepath.ToSlash(name),
		Size:          st.Size(),
		SizeHuman:     FormatSize(st.Size()),
		Modified:      st.ModTime().Unix(),
		ModifiedHuman: st.ModTime().Format("2006-01-02 15:04:05"),
	}, nil
}

func groupsFor(groups map[string][]string, base string) []string {
	var out []string
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, f := range groups[name] {
			if f == base {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// FormatSize renders a byte count in human-readable form.
func FormatSize(size int64) string {
	f := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if f < 1024.0 {
			return fmt.Sprintf("%.1f %s", f, unit)
		}
		f /= 1024.0
	}
	return fmt.Sprintf("%.1f TB", f)
}

// ModTime returns the modification time of a file inside the root.
func (l *Library) ModTime(name string) (time.Time, error) {
	full, err := l.Resolve(name)
	if err != nil {
		return time.Time{}, err
	}
	st, err := os.Stat(full)
	if err != nil {
		return time.Time{}, err
	}
	return st.ModTime(), nil
}

// Read returns the raw markdown content of a file inside the root.
func (l *Library) Read(name string) ([]byte, error) {
	full, err := l.Resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}
