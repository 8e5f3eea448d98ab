package nfo

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// discDirs mark a folder as a DVD or Blu-ray structure.
var discDirs = []string{"VIDEO_TS", "BDMV", "video_ts", "bdmv"}

// stackMarker matches a trailing multi-part suffix such as ".cd1" or " - part2".
var stackMarker = regexp.MustCompile(`(?i)[ ._-]+(cd|dvd|part|disc|pt)[0-9]+$`)

// Layout names the sidecar and artwork files for one asset.
type Layout struct {
	Dir    string
	NFO    string
	Poster string
	Fanart string
	Disc   bool
}

// CleanName returns the Kodi base name for a video file: the extension and
// any trailing stack marker are removed.
func CleanName(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.TrimSpace(stackMarker.ReplaceAllString(name, ""))
}

// IsDisc reports whether dir contains a DVD or Blu-ray structure.
func IsDisc(dir string) bool {
	for _, sub := range discDirs {
		if info, err := os.Stat(filepath.Join(dir, sub)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// LayoutFor returns where the sidecar and artwork for path belong.
// Disc folders use movie.nfo, poster.jpg and fanart.jpg. Other folders and
// files use <name>.nfo, <name>-poster.jpg and <name>-fanart.jpg next to the
// asset, where <name> is the folder name or the cleaned file name.
func LayoutFor(path string) (Layout, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Layout{}, fmt.Errorf("inspecting asset: %w", err)
	}

	if info.IsDir() {
		if IsDisc(path) {
			return Layout{
				Dir:    path,
				NFO:    filepath.Join(path, "movie.nfo"),
				Poster: filepath.Join(path, "poster.jpg"),
				Fanart: filepath.Join(path, "fanart.jpg"),
				Disc:   true,
			}, nil
		}
		return namedLayout(path, filepath.Base(path)), nil
	}

	return namedLayout(filepath.Dir(path), CleanName(filepath.Base(path))), nil
}

func namedLayout(dir, name string) Layout {
	return Layout{
		Dir:    dir,
		NFO:    filepath.Join(dir, name+".nfo"),
		Poster: filepath.Join(dir, name+"-poster.jpg"),
		Fanart: filepath.Join(dir, name+"-fanart.jpg"),
	}
}

// FindSidecar returns the first existing sidecar for path. Besides the
// Layout location it checks the names other tools write: movie.nfo,
// VIDEO_TS.nfo and index.nfo inside disc folders, and the unstripped file
// stem or a folder-level movie.nfo for files.
func FindSidecar(path string) (string, bool) {
	var candidates []string
	if layout, err := LayoutFor(path); err == nil {
		candidates = append(candidates, layout.NFO)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		candidates = append(candidates, filepath.Join(path, "movie.nfo"))
		for _, sub := range discDirs {
			subPath := filepath.Join(path, sub)
			candidates = append(candidates,
				filepath.Join(subPath, "movie.nfo"),
				filepath.Join(subPath, "VIDEO_TS.nfo"),
				filepath.Join(subPath, "index.nfo"))
		}
	} else {
		candidates = append(candidates,
			strings.TrimSuffix(path, filepath.Ext(path))+".nfo",
			filepath.Join(filepath.Dir(path), "movie.nfo"))
	}

	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			return c, true
		}
	}
	return "", false
}
