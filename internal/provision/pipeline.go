// Package provision implements the toolchain provisioning pipeline (§4.1):
// given a (type, version, platform) request, materialize a ready-to-use
// compiler installation under the global cache and register it, guaranteeing
// at-most-one concurrent materialization per toolchain_id.
//
// Two kinds of provider satisfy plugins.ToolchainProvider here. Downloading
// providers (LLVMProvider, GCCProvider, ZigProvider) run the full pipeline:
// lock, resolve metadata, download, verify, extract, register. The system
// provider (SystemToolchainProvider) instead discovers a compiler already
// installed on the host — the only path available for MSVC, which has no
// freely redistributable archive to download — grounded on
// original_source/toolchainkit/toolchain/system_detector.py.
package provision

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/toolchainkit/toolchainkit/internal/cache"
	"github.com/toolchainkit/toolchainkit/internal/errs"
	"github.com/toolchainkit/toolchainkit/internal/fsutil"
	"github.com/toolchainkit/toolchainkit/internal/plugins"
)

// State is one stage of the per-request state machine described in §4.1.
type State int

const (
	StateIdle State = iota
	StateLockHeld
	StateMetadataResolved
	StateDownloading
	StateVerifying
	StateExtracting
	StateRegistering
	StateDone
	StateDownloadFailed
	StateChecksumMismatch
	StateExtractFailed
	StateNoProvider
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLockHeld:
		return "lock_held"
	case StateMetadataResolved:
		return "metadata_resolved"
	case StateDownloading:
		return "downloading"
	case StateVerifying:
		return "verifying"
	case StateExtracting:
		return "extracting"
	case StateRegistering:
		return "registering"
	case StateDone:
		return "done"
	case StateDownloadFailed:
		return "download_failed"
	case StateChecksumMismatch:
		return "checksum_mismatch"
	case StateExtractFailed:
		return "extract_failed"
	case StateNoProvider:
		return "no_provider"
	default:
		return "unknown"
	}
}

// Metadata is what a provider resolves a (version, platform) request to
// before any bytes move: the download URL, expected hash, and size.
type Metadata struct {
	URL       string
	SHA256    string
	SizeBytes int64
}

// metadataTable maps version -> platform string -> Metadata. It is the
// "embedded table" metadata source §4.1 step 4 names as one option; a
// provider could equally resolve a remote manifest, but none of the
// corpus's examples exercise that path so it isn't built here.
type metadataTable map[string]map[string]Metadata

// Pipeline is the shared machinery every downloading provider drives: the
// global cache registry, the per-id lock directory, and the download/verify/
// extract steps. Concrete providers differ only in their metadata table and
// toolchain type name.
type Pipeline struct {
	registry *cache.Registry
	layout   *fsutil.GlobalLayout
}

// NewPipeline builds a Pipeline against the given registry and global cache
// layout.
func NewPipeline(registry *cache.Registry, layout *fsutil.GlobalLayout) *Pipeline {
	return &Pipeline{registry: registry, layout: layout}
}

// resolveVersion picks the concrete version a "latest" request resolves to,
// using semver ordering over the table's keys; ties or unparsable keys fall
// back to lexicographic order so the call never fails outright.
func resolveVersion(table metadataTable, version string) string {
	if version != "latest" {
		return version
	}
	versions := make([]string, 0, len(table))
	for v := range table {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		vi, erri := semver.NewVersion(versions[i])
		vj, errj := semver.NewVersion(versions[j])
		if erri == nil && errj == nil {
			return vi.LessThan(vj)
		}
		return versions[i] < versions[j]
	})
	if len(versions) == 0 {
		return version
	}
	return versions[len(versions)-1]
}

// provide runs the full §4.1 algorithm for toolchainType@version on
// platformString, resolving its download metadata from table.
func (p *Pipeline) provide(toolchainType, version, platformString string, table metadataTable, progress func(plugins.ProgressFrame)) (string, error) {
	resolved := resolveVersion(table, version)
	id := fmt.Sprintf("%s-%s-%s", toolchainType, resolved, platformString)

	// Step 1: registry fast path.
	if path, err := p.checkRegistry(id); err != nil {
		return "", err
	} else if path != "" {
		return path, nil
	}

	lockPath := filepath.Join(p.layout.Locks, id+".lock")

	var finalPath string
	err := fsutil.WithLock(lockPath, func() error {
		// Step 3: double-checked re-read under the lock.
		if path, err := p.checkRegistry(id); err != nil {
			return err
		} else if path != "" {
			finalPath = path
			return nil
		}

		// Step 4: resolve metadata.
		versionTable, ok := table[resolved]
		if !ok {
			return &errs.NoProviderError{Type: toolchainType, Version: version}
		}
		meta, ok := versionTable[platformString]
		if !ok {
			return &errs.NoProviderError{Type: toolchainType, Version: version}
		}

		path, err := p.materialize(id, resolved, meta, progress)
		if err != nil {
			return err
		}
		finalPath = path
		return nil
	})
	if err != nil {
		return "", err
	}
	return finalPath, nil
}

func (p *Pipeline) checkRegistry(id string) (string, error) {
	entry, err := p.registry.GetToolchainInfo(id)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return "", nil
	}
	if _, statErr := os.Stat(entry.InstallPath); statErr != nil {
		// Registered but the directory is gone: treat as absent so the
		// pipeline re-provisions rather than returning a dangling path.
		return "", nil
	}
	if err := p.registry.TouchAccess(id); err != nil {
		return "", err
	}
	return entry.InstallPath, nil
}

// archiveExt extracts the recognized archive suffix from a download URL so
// the temp file fsutil.ExtractArchive sees ends in a suffix it dispatches
// on, defaulting to ".tar.gz" for any other or missing suffix.
func archiveExt(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return ".tar.gz"
	case strings.HasSuffix(lower, ".zip"):
		return ".zip"
	case strings.HasSuffix(lower, ".tar"):
		return ".tar"
	default:
		return ".tar.gz"
	}
}

// materialize runs steps 5-9: download, verify, extract, register.
func (p *Pipeline) materialize(id, version string, meta Metadata, progress func(plugins.ProgressFrame)) (string, error) {
	archivePath := filepath.Join(p.layout.Toolchains, id+".download"+archiveExt(meta.URL))
	defer os.Remove(archivePath)

	emit := func(phase string, bytes, total int64) {
		if progress == nil {
			return
		}
		frame := plugins.ProgressFrame{Phase: phase, Bytes: bytes, Total: total}
		if total > 0 {
			frame.Percentage = float64(bytes) / float64(total) * 100
		}
		progress(frame)
	}

	if err := downloadWithRetry(meta.URL, archivePath, meta.SizeBytes, func(done, total int64) {
		emit("downloading", done, total)
	}); err != nil {
		return "", &errs.DownloadFailedError{URL: meta.URL, Attempt: maxDownloadAttempts, Err: err}
	}

	sum, err := fsutil.SHA256File(archivePath)
	if err != nil {
		return "", err
	}
	if !fsutil.HashesEqual(sum, meta.SHA256) {
		return "", &errs.ChecksumMismatchError{ToolchainID: id, Expected: meta.SHA256, Actual: sum}
	}

	extractTmp := filepath.Join(p.layout.Toolchains, id+".tmp")
	os.RemoveAll(extractTmp)
	if err := fsutil.ExtractArchive(archivePath, extractTmp, func(done, total int64) {
		emit("extracting", done, total)
	}); err != nil {
		os.RemoveAll(extractTmp)
		return "", &errs.ExtractFailedError{Archive: archivePath, Err: err}
	}

	finalDir := filepath.Join(p.layout.Toolchains, id)
	os.RemoveAll(finalDir)
	if err := os.Rename(extractTmp, finalDir); err != nil {
		os.RemoveAll(extractTmp)
		return "", &errs.ExtractFailedError{Archive: archivePath, Err: err}
	}

	now := time.Now()
	if err := p.registry.Register(&cache.CachedToolchain{
		ToolchainID:      id,
		InstallPath:      finalDir,
		SHA256:           sum,
		SizeBytes:        meta.SizeBytes,
		Version:          version,
		SourceURL:        meta.URL,
		FirstInstalledAt: now,
		LastAccessedAt:   now,
	}); err != nil {
		return "", err
	}

	emit("complete", meta.SizeBytes, meta.SizeBytes)
	return finalDir, nil
}
