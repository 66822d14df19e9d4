// Package cache implements the content-addressed global toolchain cache:
// the JSON registry mapping toolchain_id -> CachedToolchain, and the
// invariants the provisioning pipeline relies on (§4.2).
package cache

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/toolchainkit/toolchainkit/internal/fsutil"
)

// CachedToolchain is one entry in the global cache registry.
type CachedToolchain struct {
	ToolchainID      string    `json:"toolchain_id"`
	InstallPath      string    `json:"path"`
	SHA256           string    `json:"sha256"`
	SizeBytes        int64     `json:"size_bytes"`
	Version          string    `json:"version"`
	SourceURL        string    `json:"source_url"`
	RefCount         int       `json:"ref_count"`
	FirstInstalledAt time.Time `json:"first_installed_at"`
	LastAccessedAt   time.Time `json:"last_accessed_at"`
}

// registryFile is the on-disk shape of registry.json: a flat object keyed by
// toolchain_id. Field names match §6's "path, sha256, size_bytes, version"
// minimum and carry the rest of CachedToolchain alongside.
type registryFile map[string]*CachedToolchain

// Registry is the process-side handle onto registry.json. Readers may read
// without a lock (a single JSON parse of a whole-file atomic write);
// mutations take the global cache lock first.
type Registry struct {
	path     string
	lockPath string
	mu       sync.Mutex // serializes in-process writers; the file lock serializes cross-process ones
}

// New returns a Registry backed by registry.json under the given global
// cache root (see internal/fsutil.GlobalLayout).
func New(layout *fsutil.GlobalLayout) *Registry {
	return &Registry{
		path:     layout.RegistryLog,
		lockPath: layout.Locks + string(os.PathSeparator) + "registry.lock",
	}
}

// NewAt is a lower-level constructor for tests that don't want a full
// GlobalLayout.
func NewAt(registryPath, lockPath string) *Registry {
	return &Registry{path: registryPath, lockPath: lockPath}
}

// load reads registry.json. A missing file is treated as empty. A corrupted
// file is a recoverable error: the registry is treated as empty rather than
// attempting implicit destructive repair (§4.2 invariants).
func (r *Registry) load() (registryFile, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return registryFile{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return registryFile{}, nil
	}
	var reg registryFile
	if err := gojson.Unmarshal(data, &reg); err != nil {
		// Corrupted registry: recoverable, never destructive. Callers that
		// only read get an empty view; callers that write will overwrite
		// the corrupt file with a fresh one on their next mutation.
		return registryFile{}, nil
	}
	if reg == nil {
		reg = registryFile{}
	}
	return reg, nil
}

func (r *Registry) save(reg registryFile) error {
	data, err := gojson.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	return fsutil.AtomicWrite(r.path, data, 0o644)
}

// GetToolchainInfo looks up id without taking the global cache lock (reads
// observe either the pre-write or post-write value because saves are
// write-temp-and-rename).
func (r *Registry) GetToolchainInfo(id string) (*CachedToolchain, error) {
	reg, err := r.load()
	if err != nil {
		return nil, err
	}
	entry, ok := reg[id]
	if !ok {
		return nil, nil
	}
	return entry, nil
}

// Register persists entry, taking the global cache lock first. A zero
// FirstInstalledAt is stamped with now, and a zero LastAccessedAt is set to
// FirstInstalledAt.
func (r *Registry) Register(entry *CachedToolchain) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return fsutil.WithLock(r.lockPath, func() error {
		reg, err := r.load()
		if err != nil {
			return err
		}
		if entry.FirstInstalledAt.IsZero() {
			entry.FirstInstalledAt = time.Now()
		}
		if entry.LastAccessedAt.IsZero() {
			entry.LastAccessedAt = entry.FirstInstalledAt
		}
		reg[entry.ToolchainID] = entry
		return r.save(reg)
	})
}

// TouchAccess updates LastAccessedAt for id to now, under the global lock.
func (r *Registry) TouchAccess(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return fsutil.WithLock(r.lockPath, func() error {
		reg, err := r.load()
		if err != nil {
			return err
		}
		entry, ok := reg[id]
		if !ok {
			return nil
		}
		entry.LastAccessedAt = time.Now()
		return r.save(reg)
	})
}

// IterToolchains returns a stable-ordered snapshot of every registered
// toolchain.
func (r *Registry) IterToolchains() ([]*CachedToolchain, error) {
	reg, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]*CachedToolchain, 0, len(reg))
	for _, v := range reg {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ToolchainID < out[j].ToolchainID })
	return out, nil
}

// IncRef / DecRef adjust the reference count of a cached toolchain. No
// orchestration path calls these yet (§9 Open Question: GC is modeled but
// unexercised); they exist for a future "uninstall" command.
func (r *Registry) IncRef(id string) error {
	return r.adjustRef(id, 1)
}

func (r *Registry) DecRef(id string) error {
	return r.adjustRef(id, -1)
}

func (r *Registry) adjustRef(id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return fsutil.WithLock(r.lockPath, func() error {
		reg, err := r.load()
		if err != nil {
			return err
		}
		entry, ok := reg[id]
		if !ok {
			return fmt.Errorf("toolchain %s not registered", id)
		}
		entry.RefCount += delta
		if entry.RefCount < 0 {
			entry.RefCount = 0
		}
		return r.save(reg)
	})
}

// Remove deletes id's registry entry. Per the §3 invariant, the registry
// entry must disappear before the installation directory is removed — so
// callers doing GC call Remove first, then remove InstallPath.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return fsutil.WithLock(r.lockPath, func() error {
		reg, err := r.load()
		if err != nil {
			return err
		}
		delete(reg, id)
		return r.save(reg)
	})
}
