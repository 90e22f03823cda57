package datacontext

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/fable/internal/logging"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/ports"
)

const (
	// ScopeLocal addresses the attribute map of the save.
	ScopeLocal = "local"
	// ScopeExternalPrefix prefixes the name of an external dataset scope.
	ScopeExternalPrefix = "external:"
)

// ExternalScope returns the scope name for the named dataset.
func ExternalScope(name string) string { return ScopeExternalPrefix + name }

// Context is an immutable snapshot of local attributes plus a lazily filled,
// shared cache of external datasets.
type Context struct {
	local  map[string]domain.Value
	loader ports.DatasetLoader
	logger *slog.Logger
	cache  *datasetCache
}

// Option configures a Context.
type Option func(*Context)

// WithLoader sets the loader used for external datasets.
// Without one every external lookup reports a missing value.
func WithLoader(loader ports.DatasetLoader) Option {
	return func(c *Context) {
		c.loader = loader
	}
}

// WithLogger sets the logger used to report dataset load failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		c.logger = logger
	}
}

// New builds a Context. The local map is copied.
func New(local map[string]domain.Value, opts ...Option) *Context {
	c := &Context{
		local:  make(map[string]domain.Value, len(local)),
		logger: logging.NewNop(),
		cache:  &datasetCache{entries: make(map[string]cacheEntry)},
	}
	for k, v := range local {
		c.local[k] = v
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromMap builds a Context from plain Go values.
func FromMap(local map[string]any, opts ...Option) *Context {
	return New(domain.FromMap(local), opts...)
}

// Local returns a copy of the local attributes.
func (c *Context) Local() map[string]domain.Value {
	out := make(map[string]domain.Value, len(c.local))
	for k, v := range c.local {
		out[k] = v
	}
	return out
}

// With returns a new snapshot with key set to value. The dataset cache and
// loader are shared with c.
func (c *Context) With(key string, value domain.Value) *Context {
	next := &Context{
		local:  c.Local(),
		loader: c.loader,
		logger: c.logger,
		cache:  c.cache,
	}
	next.local[key] = value
	return next
}

// WithAll returns a new snapshot whose local attributes are replaced by
// local. The dataset cache and loader are shared with c.
func (c *Context) WithAll(local map[string]domain.Value) *Context {
	next := &Context{
		local:  make(map[string]domain.Value, len(local)),
		loader: c.loader,
		logger: c.logger,
		cache:  c.cache,
	}
	for k, v := range local {
		next.local[k] = v
	}
	return next
}

// Get looks up path in scope. See GetContext.
func (c *Context) Get(scope, path string) (domain.Value, bool) {
	return c.GetContext(context.Background(), scope, path)
}

// GetContext looks up path in scope ("local" or "external:<name>").
// For external scopes an empty path selects the whole dataset.
func (c *Context) GetContext(ctx context.Context, scope, path string) (domain.Value, bool) {
	switch {
	case scope == ScopeLocal || scope == "":
		return c.lookupLocal(path)
	case strings.HasPrefix(scope, ScopeExternalPrefix):
		name := strings.TrimPrefix(scope, ScopeExternalPrefix)
		return c.lookupExternal(ctx, name, path)
	default:
		return domain.Value{}, false
	}
}

// Dataset returns the whole document of the named dataset.
func (c *Context) Dataset(ctx context.Context, name string) (domain.Value, bool) {
	return c.dataset(ctx, name)
}

// Indexed follows an index dataset to the fields it names. The index maps
// each detail to {"file_path": <dataset>, "fields": [<path>...]}; the result
// maps every listed path to its value in that dataset, null when absent.
// It reports false when the index, the detail or the target dataset is
// missing, or when the detail lists no fields.
func (c *Context) Indexed(ctx context.Context, index, detail string) (map[string]domain.Value, bool) {
	entry, ok := c.lookupExternal(ctx, index, "")
	if !ok {
		return nil, false
	}
	entry, ok = entry.Field(detail)
	if !ok {
		return nil, false
	}

	file, _ := entry.Field("file_path")
	target, _ := file.Str()
	target = datasetName(target)
	fieldList, _ := entry.Field("fields")
	fields, _ := fieldList.Array()
	if target == "" || len(fields) == 0 {
		return nil, false
	}
	if _, ok := c.dataset(ctx, target); !ok {
		return nil, false
	}

	out := make(map[string]domain.Value, len(fields))
	for _, f := range fields {
		name, ok := f.Str()
		if !ok || name == "" {
			continue
		}
		v, found := c.lookupExternal(ctx, target, name)
		if !found {
			v = domain.Null()
		}
		out[name] = v
	}
	return out, true
}

// datasetName strips a document extension from an index file_path.
func datasetName(filePath string) string {
	name := strings.TrimSpace(filePath)
	switch filepath.Ext(name) {
	case ".json", ".yaml", ".yml", ".hjson":
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// Reload drops the cached entry of one dataset so that the next lookup
// loads it again.
func (c *Context) Reload(name string) {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	delete(c.cache.entries, name)
}

// ReloadAll drops every cached dataset.
func (c *Context) ReloadAll() {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	c.cache.entries = make(map[string]cacheEntry)
}

func (c *Context) lookupLocal(raw string) (domain.Value, bool) {
	path, err := ParsePath(raw)
	if err != nil || path[0].Key == "" {
		return domain.Value{}, false
	}
	root, ok := c.local[path[0].Key]
	if !ok {
		return domain.Value{}, false
	}
	first := Segment{Indexes: path[0].Indexes}
	return Walk(root, append(Path{first}, path[1:]...))
}

func (c *Context) lookupExternal(ctx context.Context, name, raw string) (domain.Value, bool) {
	doc, ok := c.dataset(ctx, name)
	if !ok {
		return domain.Value{}, false
	}
	if strings.TrimSpace(raw) == "" {
		return doc, true
	}
	path, err := ParsePath(raw)
	if err != nil {
		return domain.Value{}, false
	}
	return Walk(doc, path)
}

func (c *Context) dataset(ctx context.Context, name string) (domain.Value, bool) {
	if name == "" {
		return domain.Value{}, false
	}

	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	if e, ok := c.cache.entries[name]; ok {
		return e.doc, e.found
	}
	if c.loader == nil {
		return domain.Value{}, false
	}

	doc, err := c.loader.Load(ctx, name)
	if err != nil {
		if !errors.Is(err, domain.ErrDatasetNotFound) {
			c.logger.Warn("dataset load failed", "dataset", name, "err", err)
		}
		// Cancellation is not a verdict on the dataset; don't cache it.
		if ctx.Err() == nil {
			c.cache.entries[name] = cacheEntry{}
		}
		return domain.Value{}, false
	}
	c.cache.entries[name] = cacheEntry{doc: doc, found: true}
	return doc, true
}

// Walk traverses v along path. A segment with an empty key applies its
// indexes to the current value.
func Walk(v domain.Value, path Path) (domain.Value, bool) {
	cur := v
	for _, seg := range path {
		if seg.Key != "" {
			next, ok := cur.Field(seg.Key)
			if !ok {
				return domain.Value{}, false
			}
			cur = next
		}
		for _, idx := range seg.Indexes {
			if cur.Kind() != domain.KindArray {
				return domain.Value{}, false
			}
			if item, ok := cur.Index(idx); ok {
				cur = item
			}
			// out of bounds: keep the whole array
		}
	}
	return cur, true
}

type datasetCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	doc   domain.Value
	found bool
}
