package h264decoder

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// installDirs are checked after PATH, per GOOS.
var installDirs = map[string][]string{
	"windows": {`C:\ffmpeg\bin`, `C:\Program Files\ffmpeg\bin`},
	"darwin":  {"/opt/homebrew/bin", "/usr/local/bin", "/usr/bin"},
	"linux":   {"/usr/bin", "/usr/local/bin", "/snap/bin"},
}

// FindFFmpeg resolves the ffmpeg executable. An explicit path, then
// FFMPEG_PATH, must exist when given; otherwise PATH and the usual install
// directories are searched.
func FindFFmpeg(custom string) (string, error) {
	for _, explicit := range []struct{ what, path string }{
		{"custom path", custom},
		{"FFMPEG_PATH", os.Getenv("FFMPEG_PATH")},
	} {
		if explicit.path == "" {
			continue
		}
		if isFile(explicit.path) {
			return explicit.path, nil
		}
		return "", fmt.Errorf("%w: %s %s not found", ErrFFmpegNotFound, explicit.what, explicit.path)
	}

	name := "ffmpeg"
	if runtime.GOOS == "windows" {
		name = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	for _, dir := range installDirs[runtime.GOOS] {
		if p := dir + string(os.PathSeparator) + name; isFile(p) {
			return p, nil
		}
	}
	return "", ErrFFmpegNotFound
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
