package resource

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Resolver maps resource source keys to decodable locations. URLs pass
// through; relative paths are looked up under Root. Results are memoized.
type Resolver struct {
	Root  string
	cache map[string]string
}

func NewResolver(root string) *Resolver {
	return &Resolver{Root: root, cache: map[string]string{}}
}

// Resolve returns a path or URL for key, or "" when nothing matches.
func (r *Resolver) Resolve(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if v, ok := r.cache[key]; ok {
		return v
	}
	v := r.resolve(key)
	r.cache[key] = v
	return v
}

func (r *Resolver) resolve(key string) string {
	if strings.Contains(key, "://") {
		return key
	}
	candidates := []string{key}
	if !filepath.IsAbs(key) && r.Root != "" {
		candidates = append([]string{filepath.Join(r.Root, key)}, candidates...)
	}
	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && !st.IsDir() {
			abs, err := filepath.Abs(c)
			if err != nil {
				return c
			}
			return abs
		}
	}
	return ""
}

// Forget drops memoized results, e.g. after files were added.
func (r *Resolver) Forget() { clear(r.cache) }

// ProbeDuration asks ffprobe for the container duration of src.
func ProbeDuration(ctx context.Context, bin, src string) (float64, error) {
	if bin == "" {
		bin = "ffprobe"
	}
	out, err := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		src,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", src, err)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: parse duration %q: %w", src, strings.TrimSpace(string(out)), err)
	}
	return d, nil
}
