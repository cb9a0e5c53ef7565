// Package resource supplies the media the timeline arranges: a YAML catalog
// kept in the workspace and a resolver that turns source keys into paths the
// decoder can open.
package resource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"splice-cli/internal/model"
	"splice-cli/internal/store"
)

// FileName is the catalog file inside the workspace directory.
const FileName = "resources.yaml"

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

type file struct {
	Resources []model.Resource `yaml:"resources"`
}

// Catalog is the workspace resource list. It implements model.ResourceFinder.
type Catalog struct {
	path  string
	items map[string]model.Resource
}

// PathIn returns the catalog path inside a workspace directory.
func PathIn(dir string) string { return filepath.Join(dir, FileName) }

// Open reads the catalog at path. A missing file yields an empty catalog.
func Open(path string) (*Catalog, error) {
	c := &Catalog{path: path, items: map[string]model.Resource{}}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, r := range f.Resources {
		if err := Validate(r); err != nil {
			return nil, fmt.Errorf("%s: resource %q: %w", path, r.ID, err)
		}
		if _, dup := c.items[r.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate resource %q", path, r.ID)
		}
		c.items[r.ID] = r
	}
	return c, nil
}

func (c *Catalog) Path() string { return c.path }

func (c *Catalog) FindResource(id string) (model.Resource, bool) {
	r, ok := c.items[id]
	return r, ok
}

// List returns resources sorted by id.
func (c *Catalog) List() []model.Resource {
	out := make([]model.Resource, 0, len(c.items))
	for _, r := range c.items {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Put validates r and adds or replaces it.
func (c *Catalog) Put(r model.Resource) error {
	if err := Validate(r); err != nil {
		return err
	}
	c.items[r.ID] = r
	return nil
}

func (c *Catalog) Remove(id string) bool {
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	return true
}

// Save writes the catalog back to its path.
func (c *Catalog) Save() error {
	b, err := yaml.Marshal(file{Resources: c.List()})
	if err != nil {
		return err
	}
	return store.WriteFileAtomic(c.path, b, 0o644)
}

// Validate checks a resource before it enters the catalog.
func Validate(r model.Resource) error {
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required, validation.Match(idPattern)),
		validation.Field(&r.Kind, validation.Required, validation.In(model.ResourceImage, model.ResourceAudio, model.ResourceVideo)),
		validation.Field(&r.Src, validation.When(r.Kind != model.ResourceImage, validation.Required)),
		validation.Field(&r.DurationSec, validation.Min(0.0)),
		validation.Field(&r.Width, validation.Min(0)),
		validation.Field(&r.Height, validation.Min(0)),
		validation.Field(&r.VideoAudio, validation.In(model.VideoAudioPresent, model.VideoAudioAbsent)),
		validation.Field(&r.Notes, validation.Each(validation.By(validateNote))),
		validation.Field(&r.Peaks, validation.Each(validation.Min(0.0), validation.Max(1.0))),
	); err != nil {
		return err
	}
	if r.VideoAudio != "" && r.Kind != model.ResourceVideo {
		return fmt.Errorf("videoAudio: only video resources carry embedded audio")
	}
	return nil
}

func validateNote(v any) error {
	n, ok := v.(model.NoteEvent)
	if !ok {
		return errors.New("not a note event")
	}
	return validation.ValidateStruct(&n,
		validation.Field(&n.TimeSec, validation.Min(0.0)),
		validation.Field(&n.DurationSec, validation.Required, validation.Min(0.0)),
		validation.Field(&n.Pitch, validation.Min(0), validation.Max(127)),
		validation.Field(&n.Velocity, validation.Min(0.0), validation.Max(1.0)),
	)
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9._-]+`)

// SlugID derives a catalog id from a file name.
func SlugID(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	s := slugInvalid.ReplaceAllString(strings.ToLower(base), "-")
	s = strings.Trim(s, "-._")
	if s == "" {
		s = "resource"
	}
	return s
}

// KindForPath guesses the resource kind from a file extension.
func KindForPath(path string) (model.ResourceKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".mp3", ".flac", ".ogg", ".opus", ".m4a", ".aac", ".aif", ".aiff":
		return model.ResourceAudio, true
	case ".mp4", ".mov", ".mkv", ".webm", ".avi", ".m4v":
		return model.ResourceVideo, true
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp":
		return model.ResourceImage, true
	}
	return "", false
}
