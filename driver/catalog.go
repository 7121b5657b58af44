package driver

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/mci-runtime/errors"
)

// Factory opens one driver instance.
type Factory func(ctx context.Context, p OpenParams) (Driver, error)

// Catalog is the set of installed device types and the file extensions that
// map onto them. It implements Loader and ExtensionResolver.
type Catalog struct {
	factories  map[string]Factory
	extensions map[string]string
	order      []string
	mu         sync.RWMutex
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		factories:  make(map[string]Factory),
		extensions: make(map[string]string),
	}
}

// Register installs a device type. Registering a type again replaces its factory.
func (c *Catalog) Register(deviceType string, f Factory) {
	key := strings.ToLower(deviceType)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.factories[key]; !ok {
		c.order = append(c.order, key)
	}
	c.factories[key] = f
}

// RegisterExtension maps a file extension (with or without the dot) to a device type.
func (c *Catalog) RegisterExtension(ext, deviceType string) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extensions[ext] = strings.ToLower(deviceType)
}

// Installed returns the installed device types in registration order.
func (c *Catalog) Installed() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// IsInstalled reports whether deviceType has a registered factory.
func (c *Catalog) IsInstalled(deviceType string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.factories[strings.ToLower(deviceType)]
	return ok
}

// DeviceTypeFor returns the device type registered for path's extension.
func (c *Catalog) DeviceTypeFor(path string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.extensions[ext]
	return t, ok
}

// Load opens a driver for p.DeviceType.
func (c *Catalog) Load(ctx context.Context, p OpenParams) (Driver, error) {
	key := strings.ToLower(p.DeviceType)
	c.mu.RLock()
	f, ok := c.factories[key]
	c.mu.RUnlock()
	if !ok {
		return nil, errors.DeviceNotInstalled(p.DeviceType)
	}

	d, err := f(ctx, p)
	if err != nil {
		Logger().Debug("driver load failed",
			zap.String("type", key),
			zap.Uint32("device", uint32(p.DeviceID)),
			zap.Error(err))
		if errors.KindOf(err) != "" {
			return nil, err
		}
		return nil, errors.New(errors.PhaseRegistry, errors.KindCannotLoadDriver).
			Path(key).
			Cause(err).
			Detail("cannot load driver").
			Build()
	}
	if d == nil {
		return nil, errors.New(errors.PhaseRegistry, errors.KindCannotLoadDriver).
			Path(key).
			Detail("factory returned no driver").
			Build()
	}
	return d, nil
}

var (
	_ Loader            = (*Catalog)(nil)
	_ ExtensionResolver = (*Catalog)(nil)
)
