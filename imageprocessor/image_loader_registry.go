package imageprocessor

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders map[string]ImageLoader
	mutex   sync.RWMutex
}

// NewImageLoaderRegistry creates a registry with the standard loader
// registered for every supported extension
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}
	registry.registerStandardLoaders()
	return registry
}

// registerStandardLoaders registers loaders for standard image formats
func (r *ImageLoaderRegistry) registerStandardLoaders() {
	standardLoader := NewStandardImageLoader()
	for _, ext := range GetSupportedExtensions() {
		r.RegisterLoader(ext, standardLoader)
	}
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.loaders[ext] = loader
}

// GetLoader returns the loader for the given path, or nil
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.loaders[strings.ToLower(filepath.Ext(path))]
}

// CanLoadFile checks if any registered loader can handle the given file
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	return r.GetLoader(path) != nil
}

// LoadImage loads an image using the appropriate registered loader
func (r *ImageLoaderRegistry) LoadImage(path string) (*RGBImage, error) {
	loader := r.GetLoader(path)
	if loader == nil {
		return nil, fmt.Errorf("no suitable loader found for: %s", path)
	}
	return loader.LoadImage(path)
}
