// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package artifacts

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Bundle files are named {domain}_v{version}.gob.gz.
const bundleExt = ".gob.gz"

// BundleMetadata describes a stored bundle.
type BundleMetadata struct {
	// Domain is the prediction domain ("crop", "fertilizer").
	Domain string `json:"domain"`

	// Version increases monotonically per domain.
	Version int `json:"version"`

	// SavedAt is when the bundle was written.
	SavedAt time.Time `json:"saved_at"`

	// Source is where the documents were packed from, usually a directory.
	Source string `json:"source,omitempty"`

	// Checksum is the SHA-256 of the uncompressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`

	// Roles lists which documents the bundle carries.
	Roles []string `json:"roles"`
}

// storedFile is the on-disk format.
type storedFile struct {
	Metadata       BundleMetadata
	CompressedData []byte
}

// Store keeps versioned artifact bundles in a directory.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	// latest version per domain
	versions map[string]int
}

// NewStore opens (and creates) a bundle store at baseDir.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}
	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("scan existing bundles: %w", err)
	}
	return s, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.baseDir }

func (s *Store) scan() error {
	versions, err := s.allVersions()
	if err != nil {
		return err
	}
	for domain, vs := range versions {
		s.versions[domain] = vs[0]
	}
	return nil
}

// allVersions lists versions per domain, newest first.
func (s *Store) allVersions() (map[string][]int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]int)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		domain, version, ok := parseBundleFilename(entry.Name())
		if !ok {
			continue
		}
		out[domain] = append(out[domain], version)
	}
	for _, vs := range out {
		sort.Sort(sort.Reverse(sort.IntSlice(vs)))
	}
	return out, nil
}

// parseBundleFilename splits "crop_v3.gob.gz" into ("crop", 3).
func parseBundleFilename(name string) (domain string, version int, ok bool) {
	base, found := strings.CutSuffix(name, bundleExt)
	if !found {
		return "", 0, false
	}
	i := strings.LastIndex(base, "_v")
	if i <= 0 {
		return "", 0, false
	}
	v, err := strconv.Atoi(base[i+2:])
	if err != nil || v <= 0 {
		return "", 0, false
	}
	return base[:i], v, true
}

// Save writes docs as the next version for domain and returns its metadata.
func (s *Store) Save(ctx context.Context, domain string, docs Documents, source string) (BundleMetadata, error) {
	if err := ctx.Err(); err != nil {
		return BundleMetadata{}, err
	}
	if docs.Model == nil && docs.MinMax == nil && docs.Standard == nil {
		return BundleMetadata{}, fmt.Errorf("bundle for %s has no documents", domain)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(docs); err != nil {
		return BundleMetadata{}, fmt.Errorf("encode bundle: %w", err)
	}
	hash := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return BundleMetadata{}, fmt.Errorf("compress bundle: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return BundleMetadata{}, fmt.Errorf("finalize compression: %w", err)
	}

	meta := BundleMetadata{
		Domain:    domain,
		Version:   s.versions[domain] + 1,
		SavedAt:   time.Now().UTC(),
		Source:    source,
		Checksum:  hex.EncodeToString(hash[:]),
		SizeBytes: int64(compressed.Len()),
		Roles:     docs.roles(),
	}

	// Write to a temp file and rename so readers never see a partial bundle.
	path := s.bundlePath(domain, meta.Version)
	tmp, err := os.CreateTemp(s.baseDir, ".bundle-*")
	if err != nil {
		return BundleMetadata{}, fmt.Errorf("create bundle file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }() //nolint:errcheck // no-op after a successful rename

	if err := gob.NewEncoder(tmp).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		_ = tmp.Close() //nolint:errcheck // the encode error is returned
		return BundleMetadata{}, fmt.Errorf("write bundle file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return BundleMetadata{}, fmt.Errorf("close bundle file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return BundleMetadata{}, fmt.Errorf("install bundle file: %w", err)
	}

	s.versions[domain] = meta.Version
	return meta, nil
}

// Load reads a bundle. Version 0 means the latest.
func (s *Store) Load(ctx context.Context, domain string, version int) (Documents, *BundleMetadata, error) {
	if err := ctx.Err(); err != nil {
		return Documents{}, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		var ok bool
		version, ok = s.versions[domain]
		if !ok {
			return Documents{}, nil, fmt.Errorf("no bundle found for %s", domain)
		}
	}

	sf, err := readStoredFile(s.bundlePath(domain, version))
	if err != nil {
		return Documents{}, nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return Documents{}, nil, fmt.Errorf("decompress bundle: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // read errors are reported below

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return Documents{}, nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != sf.Metadata.Checksum {
		return Documents{}, nil, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, checksum)
	}

	var docs Documents
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&docs); err != nil {
		return Documents{}, nil, fmt.Errorf("decode bundle: %w", err)
	}
	return docs, &sf.Metadata, nil
}

// LatestVersion returns the newest version stored for domain.
func (s *Store) LatestVersion(domain string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[domain]
	return v, ok
}

// List returns metadata for every stored bundle, ordered by domain and then
// newest version first.
func (s *Store) List(ctx context.Context) ([]BundleMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions, err := s.allVersions()
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	domains := make([]string, 0, len(versions))
	for d := range versions {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	var out []BundleMetadata
	for _, d := range domains {
		for _, v := range versions[d] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			sf, err := readStoredFile(s.bundlePath(d, v))
			if err != nil {
				continue
			}
			out = append(out, sf.Metadata)
		}
	}
	return out, nil
}

// Prune keeps the newest keep versions of domain and removes the rest.
func (s *Store) Prune(ctx context.Context, domain string, keep int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if keep < 1 {
		keep = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := s.allVersions()
	if err != nil {
		return 0, fmt.Errorf("read directory: %w", err)
	}
	removed := 0
	for i := keep; i < len(versions[domain]); i++ {
		if err := os.Remove(s.bundlePath(domain, versions[domain][i])); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *Store) bundlePath(domain string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", domain, version, bundleExt))
}

func readStoredFile(path string) (storedFile, error) {
	f, err := os.Open(path) //nolint:gosec // path is built from the store directory
	if err != nil {
		return storedFile{}, fmt.Errorf("open bundle file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return storedFile{}, fmt.Errorf("read bundle file: %w", err)
	}
	return sf, nil
}

func (d Documents) without(role string) Documents {
	switch role {
	case RoleModel:
		d.Model = nil
	case RoleMinMax:
		d.MinMax = nil
	case RoleStandard:
		d.Standard = nil
	}
	return d
}

func (d Documents) roles() []string {
	var roles []string
	if d.Model != nil {
		roles = append(roles, RoleModel)
	}
	if d.MinMax != nil {
		roles = append(roles, RoleMinMax)
	}
	if d.Standard != nil {
		roles = append(roles, RoleStandard)
	}
	return roles
}
