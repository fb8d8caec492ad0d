//go:build ORT

package hugot

import (
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
)

func newSession() (*hugot.Session, error) {
	opts := []options.WithOption{}
	if dir := resolveORTLibDir(); dir != "" {
		opts = append(opts, options.WithOnnxLibraryPath(dir))
	}
	return hugot.NewORTSession(opts...)
}

// resolveORTLibDir finds the ONNX Runtime shared library directory:
// ORT_LIB_DIR, then lib/ next to the executable. An empty result lets
// hugot use platform defaults.
func resolveORTLibDir() string {
	if dir := os.Getenv("ORT_LIB_DIR"); dir != "" {
		return dir
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(filepath.Dir(exe), "lib")
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return candidate
	}
	return ""
}
