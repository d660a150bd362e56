package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"panelscan/types"
)

// DiscoverChapters lists the chapters under root. Every immediate
// subdirectory is a chapter; a root without subdirectories is itself the only
// chapter. Files are the regular files accepted by accept, sorted by path.
func DiscoverChapters(root string, accept func(path string) bool) ([]types.Chapter, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read root %s: %w", root, err)
	}

	dirs := lo.Filter(entries, func(e os.DirEntry, _ int) bool { return e.IsDir() })
	if len(dirs) == 0 {
		files, err := chapterFiles(root, accept)
		if err != nil {
			return nil, err
		}
		return []types.Chapter{{Name: filepath.Base(root), Path: root, Files: files}}, nil
	}

	sort.SliceStable(dirs, func(i, j int) bool {
		a, b := strings.ToLower(dirs[i].Name()), strings.ToLower(dirs[j].Name())
		if a != b {
			return a < b
		}
		return dirs[i].Name() < dirs[j].Name()
	})

	chapters := make([]types.Chapter, 0, len(dirs))
	for _, d := range dirs {
		path := filepath.Join(root, d.Name())
		files, err := chapterFiles(path, accept)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, types.Chapter{Name: d.Name(), Path: path, Files: files})
	}
	return chapters, nil
}

func chapterFiles(dir string, accept func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read chapter %s: %w", dir, err)
	}
	files := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		if !e.Type().IsRegular() {
			return "", false
		}
		path := filepath.Join(dir, e.Name())
		return path, accept(path)
	})
	sort.Strings(files)
	return files, nil
}

// ExtensionFilter accepts paths whose lowercase extension is in exts. An
// empty list accepts everything.
func ExtensionFilter(exts []string) func(string) bool {
	if len(exts) == 0 {
		return func(string) bool { return true }
	}
	allowed := lo.Associate(exts, func(ext string) (string, bool) {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		return ext, true
	})
	return func(path string) bool {
		return allowed[strings.ToLower(filepath.Ext(path))]
	}
}

// CountFiles summarizes what a scan of chapters will load
func CountFiles(chapters []types.Chapter) FileStats {
	return FileStats{
		totalFiles: lo.SumBy(chapters, func(c types.Chapter) int { return len(c.Files) }),
		chapters:   len(chapters),
	}
}
