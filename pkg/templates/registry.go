package templates

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"jordanella.com/rehearsal-bot/internal/cv"
	"jordanella.com/rehearsal-bot/internal/logging"
)

// ManifestFile is the YAML index stored next to the reference images
const ManifestFile = "templates.yaml"

// Element names used by the automation cycle
const (
	StartButton = "start"
	SkipButton  = "skip"
	EndButton   = "end"
)

// ErrNotFound is returned for unknown reference names
var ErrNotFound = errors.New("reference not found")

// Reference is a stored picture of a UI element and where it was taken
type Reference struct {
	Name       string
	Path       string
	Region     cv.Rect
	CapturedAt time.Time
}

// ReferenceDefinition represents a reference in the YAML manifest
type ReferenceDefinition struct {
	Name       string    `yaml:"name"`
	Path       string    `yaml:"path"`
	Region     cv.Rect   `yaml:"region"`
	CapturedAt time.Time `yaml:"captured_at,omitempty"`
}

// ReferenceFile represents the structure of the manifest
type ReferenceFile struct {
	References []ReferenceDefinition `yaml:"references"`
}

// Registry manages the reference templates of one directory
type Registry struct {
	mu         sync.RWMutex
	references map[string]Reference
	basePath   string
	cache      *HistogramCache
	logger     *logging.Logger
}

// NewRegistry creates a registry rooted at basePath
func NewRegistry(basePath string) *Registry {
	return &Registry{
		references: make(map[string]Reference),
		basePath:   basePath,
		cache:      NewHistogramCache(),
		logger:     logging.NewLogger("Templates"),
	}
}

// ImageFileName is the conventional file name for a reference image
func ImageFileName(name string) string {
	return name + "_button_ref.png"
}

// Load reads the manifest if present and registers any conventionally named
// images the manifest does not mention. A missing directory is not an error.
func (r *Registry) Load() error {
	manifest := filepath.Join(r.basePath, ManifestFile)
	data, err := os.ReadFile(manifest)
	switch {
	case err == nil:
		if err := r.loadManifest(data); err != nil {
			return err
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("failed to read template manifest %s: %w", manifest, err)
	}

	entries, err := os.ReadDir(r.basePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read template directory %s: %w", r.basePath, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), "_button_ref.png")
		if entry.IsDir() || !ok || name == "" {
			continue
		}
		if _, known := r.references[name]; known {
			continue
		}
		r.references[name] = Reference{Name: name, Path: filepath.Join(r.basePath, entry.Name())}
	}

	r.logger.InfoWithContext("References loaded", map[string]interface{}{
		"dir":   r.basePath,
		"count": len(r.references),
	})
	return nil
}

func (r *Registry) loadManifest(data []byte) error {
	var file ReferenceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal template manifest: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, def := range file.References {
		if def.Name == "" {
			return fmt.Errorf("reference %d: name cannot be empty", i+1)
		}
		if def.Path == "" {
			return fmt.Errorf("reference %d (%s): path cannot be empty", i+1, def.Name)
		}
		r.references[def.Name] = Reference{
			Name:       def.Name,
			Path:       filepath.Join(r.basePath, def.Path),
			Region:     def.Region,
			CapturedAt: def.CapturedAt,
		}
	}
	return nil
}

// Get returns the reference registered under name
func (r *Registry) Get(name string) (Reference, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.references[name]
	return ref, ok
}

// Has checks if a reference exists
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns all references sorted by name
func (r *Registry) List() []Reference {
	r.mu.RLock()
	defer r.mu.RUnlock()

	refs := make([]Reference, 0, len(r.references))
	for _, ref := range r.references {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs
}

// Reference returns the histogram of a stored reference. Unreadable images
// are logged and reported as missing so detection degrades instead of
// failing.
func (r *Registry) Reference(name string) (cv.Histogram, bool) {
	ref, ok := r.Get(name)
	if !ok {
		return cv.Histogram{}, false
	}

	h, err := r.cache.Get(ref.Path)
	if err != nil {
		r.logger.ErrorWithContext("Failed to load reference", err, map[string]interface{}{
			"reference": name,
			"path":      ref.Path,
		})
		return cv.Histogram{}, false
	}
	return h, true
}

// Save stores img as the reference for name and rewrites the manifest
func (r *Registry) Save(name string, img image.Image, region cv.Rect) (Reference, error) {
	if name == "" {
		return Reference{}, fmt.Errorf("reference name cannot be empty")
	}

	file := ImageFileName(name)
	path := filepath.Join(r.basePath, file)
	if err := cv.SavePNG(img, path); err != nil {
		return Reference{}, err
	}
	r.cache.Invalidate(path)

	ref := Reference{Name: name, Path: path, Region: region, CapturedAt: time.Now()}

	r.mu.Lock()
	r.references[name] = ref
	r.mu.Unlock()

	if err := r.writeManifest(); err != nil {
		return Reference{}, err
	}

	r.logger.InfoWithContext("Reference saved", map[string]interface{}{
		"reference": name,
		"path":      path,
		"region":    region.String(),
	})
	return ref, nil
}

// Remove deletes a reference and its image
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	ref, ok := r.references[name]
	if ok {
		delete(r.references, name)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	r.cache.Invalidate(ref.Path)
	if err := os.Remove(ref.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", ref.Path, err)
	}
	return r.writeManifest()
}

func (r *Registry) writeManifest() error {
	var file ReferenceFile
	for _, ref := range r.List() {
		rel, err := filepath.Rel(r.basePath, ref.Path)
		if err != nil {
			rel = ref.Path
		}
		file.References = append(file.References, ReferenceDefinition{
			Name:       ref.Name,
			Path:       filepath.ToSlash(rel),
			Region:     ref.Region,
			CapturedAt: ref.CapturedAt,
		})
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("failed to marshal template manifest: %w", err)
	}
	if err := os.MkdirAll(r.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create template directory: %w", err)
	}
	return os.WriteFile(filepath.Join(r.basePath, ManifestFile), data, 0644)
}
