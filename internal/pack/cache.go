package pack

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Increment when the CachePayload format changes.
const cacheSchemaVersion uint16 = 1

// Digest is a sha256 over everything that feeds a package build.
type Digest [sha256.Size]byte

// Cache keeps built package archives on disk, keyed by input digest, so
// repeated deploys of unchanged sources skip the build command.
// Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// CachePayload is the stored build result.
type CachePayload struct {
	Schema  uint16
	Archive []byte
}

// OpenCache initializes the cache under $XDG_CACHE_HOME/skiff (or
// ~/.cache/skiff).
func OpenCache() (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "skiff")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// OpenCacheAt is OpenCache with an explicit root, for tests.
func OpenCacheAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "packages", hex.EncodeToString(key[:])+".mp")
}

// Put writes a payload atomically: temp file then rename.
func (c *Cache) Put(key Digest, payload *CachePayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name()) //nolint:errcheck

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a payload; a missing key or a schema mismatch is a miss, not
// an error.
func (c *Cache) Get(key Digest) (*CachePayload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close() //nolint:errcheck

	var payload CachePayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, nil
	}
	if payload.Schema != cacheSchemaVersion {
		return nil, false, nil
	}
	return &payload, true, nil
}

// DigestInputs hashes the build inputs: the build command, the injected
// env, and the content of every regular file under the spec directory.
// File order is normalized so the digest is stable across platforms.
func DigestInputs(specDir, build string, env map[string]string) (Digest, error) {
	h := sha256.New()
	h.Write([]byte(build))
	h.Write([]byte{0})

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(env[k]))
		h.Write([]byte{0})
	}

	var paths []string
	err := filepath.WalkDir(specDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return Digest{}, err
	}
	sort.Strings(paths)
	for _, path := range paths {
		rel, err := filepath.Rel(specDir, path)
		if err != nil {
			return Digest{}, err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write([]byte{0})
		// #nosec G304 -- files under the operator's spec directory
		f, err := os.Open(path)
		if err != nil {
			return Digest{}, err
		}
		_, err = io.Copy(h, f)
		f.Close() //nolint:errcheck
		if err != nil {
			return Digest{}, err
		}
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}
