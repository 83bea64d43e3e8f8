package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/stepwise-mcp/stepwise/internal/config"
	"github.com/stepwise-mcp/stepwise/internal/log"
)

// Source records where a resolved workflow came from.
type Source string

const (
	SourceBuiltIn Source = "built-in"
	SourceProject Source = "project"
)

// Entry is one workflow as resolved for a project.
type Entry struct {
	Definition *Definition
	Source     Source
}

// Catalog resolves workflow names for a project: the embedded library,
// filtered by domain, overlaid with definitions installed under the
// project's workflow directory. Resolution results are cached per project
// until invalidated by an install or a watcher event.
type Catalog struct {
	domains []string

	mu    sync.RWMutex
	cache map[string]map[string]Entry

	watcher *fsnotify.Watcher
	watched map[string]string // watched dir -> project path
	done    chan struct{}
}

// NewCatalog builds a catalog with the given domain filter. An empty filter
// loads only the code domain.
func NewCatalog(domains []string) *Catalog {
	if len(domains) == 0 {
		domains = []string{"code"}
	}
	return &Catalog{
		domains: domains,
		cache:   make(map[string]map[string]Entry),
		watched: make(map[string]string),
	}
}

// Domains returns the active domain filter.
func (c *Catalog) Domains() []string {
	return c.domains
}

func (c *Catalog) domainAllowed(domain string) bool {
	for _, d := range c.domains {
		if d == domain {
			return true
		}
	}
	return false
}

// ListBuiltIn returns the embedded workflows within the domain filter,
// sorted by name.
func (c *Catalog) ListBuiltIn() []*Definition {
	var defs []*Definition
	for _, name := range BuiltInNames() {
		def := BuiltIn()[name]
		if c.domainAllowed(def.Domain) {
			defs = append(defs, def)
		}
	}
	return defs
}

// UnloadedBuiltIn returns the embedded workflows excluded by the domain
// filter, sorted by name.
func (c *Catalog) UnloadedBuiltIn() []*Definition {
	var defs []*Definition
	for _, name := range BuiltInNames() {
		def := BuiltIn()[name]
		if !c.domainAllowed(def.Domain) {
			defs = append(defs, def)
		}
	}
	return defs
}

// ResolveForProject returns the workflows available to a project, keyed by
// name. Project-local definitions win name collisions against built-ins and
// ignore the domain filter: installing a workflow is loading it.
func (c *Catalog) ResolveForProject(projectPath string) map[string]Entry {
	c.mu.RLock()
	cached, ok := c.cache[projectPath]
	c.mu.RUnlock()
	if ok {
		return copyEntries(cached)
	}

	resolved := make(map[string]Entry)
	for _, def := range c.ListBuiltIn() {
		resolved[def.Name] = Entry{Definition: def, Source: SourceBuiltIn}
	}

	c.migrateLegacy(projectPath)
	for name, def := range c.scanProject(projectPath) {
		resolved[name] = Entry{Definition: def, Source: SourceProject}
	}

	c.mu.Lock()
	c.cache[projectPath] = resolved
	c.mu.Unlock()

	c.watchDir(config.WorkflowsDir(projectPath), projectPath)

	return copyEntries(resolved)
}

// Names returns the resolved workflow names for a project, sorted.
func (c *Catalog) Names(projectPath string) []string {
	resolved := c.ResolveForProject(projectPath)
	names := make([]string, 0, len(resolved))
	for name := range resolved {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get resolves one workflow by name for a project.
func (c *Catalog) Get(projectPath, name string) (*Definition, error) {
	resolved := c.ResolveForProject(projectPath)
	if entry, ok := resolved[name]; ok {
		return entry.Definition, nil
	}
	return nil, &NotFoundError{Name: name, Available: c.Names(projectPath)}
}

// Install validates source as a workflow definition and writes it into the
// project's workflow directory. A non-empty name overrides the name declared
// in the source. Returns the installed definition.
func (c *Catalog) Install(projectPath string, source []byte, name string) (*Definition, error) {
	def, err := Parse(source)
	if err != nil {
		return nil, err
	}
	if name != "" {
		def.Name = name
	}

	dir := config.WorkflowsDir(projectPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workflow dir: %w", err)
	}

	data := source
	if name != "" {
		// Renamed on install, so the file must carry the new name.
		if data, err = Marshal(def); err != nil {
			return nil, err
		}
	}
	target := filepath.Join(dir, def.Name+".yaml")
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return nil, fmt.Errorf("write workflow: %w", err)
	}

	c.Invalidate(projectPath)
	c.watchDir(dir, projectPath)
	return def, nil
}

// Invalidate drops the cached resolution for one project.
func (c *Catalog) Invalidate(projectPath string) {
	c.mu.Lock()
	delete(c.cache, projectPath)
	c.mu.Unlock()
}

// migrateLegacy moves a pre-catalog single-file workflow into the workflow
// directory. The legacy file stays behind and an existing target is never
// overwritten, so the migration is idempotent. Failures only log: a broken
// legacy file must not take workflow resolution down with it.
func (c *Catalog) migrateLegacy(projectPath string) {
	legacy := config.LegacyWorkflowPath(projectPath)
	data, err := os.ReadFile(legacy)
	if err != nil {
		return
	}

	name := "custom"
	if def, err := Parse(data); err == nil && def.Name != "" {
		name = def.Name
	}

	target := filepath.Join(config.WorkflowsDir(projectPath), name+".yaml")
	if _, err := os.Stat(target); err == nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		log.Warn("legacy workflow migration failed", "project", projectPath, log.Err(err))
		return
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		log.Warn("legacy workflow migration failed", "project", projectPath, log.Err(err))
		return
	}
	log.Info("migrated legacy workflow", "project", projectPath, "workflow", name)
}

// scanProject parses every definition in the project's workflow directory.
// Files that fail to parse are skipped with a warning so one bad file does
// not hide the rest.
func (c *Catalog) scanProject(projectPath string) map[string]*Definition {
	dir := config.WorkflowsDir(projectPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	defs := make(map[string]*Definition)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		def, err := ParseFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Warn("skipping invalid workflow file", "file", entry.Name(), log.Err(err))
			continue
		}
		defs[def.Name] = def
	}
	return defs
}

// Watch starts picking up external edits to project workflow directories,
// invalidating the affected project's cache on any event. Optional: without
// it the cache still refreshes on Install.
func (c *Catalog) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	c.mu.Lock()
	c.watcher = watcher
	c.done = make(chan struct{})
	// Directories scanned before the watcher existed.
	for dir := range c.watched {
		if err := watcher.Add(dir); err != nil {
			log.Warn("watch workflow dir failed", "dir", dir, log.Err(err))
		}
	}
	c.mu.Unlock()

	go c.watchLoop(watcher)
	return nil
}

func (c *Catalog) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			dir := filepath.Dir(event.Name)
			c.mu.RLock()
			project, known := c.watched[dir]
			c.mu.RUnlock()
			if known {
				log.Debug("workflow dir changed", "event", event.Op.String(), "file", event.Name)
				c.Invalidate(project)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn("workflow watcher error", log.Err(err))
		case <-c.done:
			return
		}
	}
}

// watchDir registers a workflow directory for invalidation events. Safe to
// call repeatedly and before Watch; missing directories are recorded and
// added once they exist (Install re-registers after creating the dir).
func (c *Catalog) watchDir(dir, projectPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.watched[dir] = projectPath
	if c.watcher == nil {
		return
	}
	if _, err := os.Stat(dir); err != nil {
		return
	}
	if err := c.watcher.Add(dir); err != nil {
		log.Warn("watch workflow dir failed", "dir", dir, log.Err(err))
	}
}

// Close stops the watcher, if one was started.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher == nil {
		return nil
	}
	close(c.done)
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

func copyEntries(in map[string]Entry) map[string]Entry {
	out := make(map[string]Entry, len(in))
	for name, entry := range in {
		out[name] = entry
	}
	return out
}
