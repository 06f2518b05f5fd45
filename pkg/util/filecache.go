// FileCache provides read access to Dart source files through memory-mapped
// regions.
//
// **Behavior:**
//   - Lazy loading: files are mapped on first access
//   - Staleness check: a cached file whose size or modification time changed
//     on disk is unmapped and loaded again
//   - Invalidate drops a single entry (used by the file watcher)
//   - Graceful fallback to os.ReadFile if mmap fails
//
// **Safety Features:**
//   - Optional MaxFiles limit (prevents file descriptor exhaustion)
//   - Optional MaxMemoryMB limit (prevents runaway virtual memory usage)
//   - Thread-safe with sync.RWMutex (parallel reads, exclusive writes)
package util

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/edsrzf/mmap-go"
)

// FileCache provides file access using memory-mapped files.
//
// Thread-safe: Multiple goroutines can call methods concurrently.
type FileCache interface {
	// Get returns the mapped file, loading it on first access or when the
	// file changed on disk since it was mapped.
	Get(filePath string) (*MappedFile, error)

	// ReadSource returns the whole file as a string.
	ReadSource(filePath string) (string, error)

	// FetchCode returns the bytes in [startByte, endByte). (0, 0) returns
	// the whole file.
	FetchCode(filePath string, startByte, endByte uint32) (string, error)

	// Invalidate unmaps filePath so the next access reloads it.
	Invalidate(filePath string)

	// Size returns number of currently cached files.
	Size() int

	// Stats returns current cache metrics.
	Stats() FileCacheStats

	// Close unmaps all files and releases resources.
	Close() error
}

// FileCacheConfig controls FileCache behavior.
type FileCacheConfig struct {
	// MaxFiles is the maximum number of files to keep cached. 0 means
	// unlimited. When the limit is reached Get returns an error.
	MaxFiles int

	// MaxMemoryMB is the maximum virtual memory to map, in MB. 0 means
	// unlimited.
	MaxMemoryMB int

	// EnableMetrics determines whether to track cache statistics.
	EnableMetrics bool

	// Logger for warnings and errors. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultFileCacheConfig returns limits suitable for a single Flutter project.
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{
		MaxFiles:      5000,
		MaxMemoryMB:   1024,
		EnableMetrics: true,
	}
}

// MappedFile represents a memory-mapped file.
type MappedFile struct {
	// Path is the path the file was loaded from.
	Path string

	// Data is the mapped region. Nil for empty files.
	Data mmap.MMap

	// File is kept open while mapped. Nil for fallback entries.
	File *os.File

	Size     int64
	ModTime  time.Time
	MappedAt time.Time

	fallback bool
}

// FileCacheStats tracks cache performance metrics.
type FileCacheStats struct {
	FilesLoaded   int64
	FilesCached   int
	CacheHits     int64
	CacheMisses   int64
	Reloads       int64
	MmapFailures  int64
	TotalMappedMB float64
}

// ErrCacheLimit is returned when loading a file would exceed a configured limit.
var ErrCacheLimit = errors.New("file cache limit reached")

// NewFileCache creates a new FileCache. A nil config uses
// DefaultFileCacheConfig().
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &fileCacheImpl{
		config: config,
		cache:  make(map[string]*MappedFile),
		logger: logger,
	}
}

type fileCacheImpl struct {
	config *FileCacheConfig
	logger *slog.Logger

	cache map[string]*MappedFile
	mu    sync.RWMutex

	stats   FileCacheStats
	statsMu sync.Mutex
}

func (fc *fileCacheImpl) Get(filePath string) (*MappedFile, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		fc.Invalidate(filePath)
		fc.recordMiss()
		return nil, fmt.Errorf("failed to stat file %q: %w", filePath, err)
	}

	fc.mu.RLock()
	mf, ok := fc.cache[filePath]
	fc.mu.RUnlock()
	if ok && fresh(mf, stat) {
		fc.recordHit()
		return mf, nil
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Another goroutine may have reloaded it while we waited.
	if mf, ok := fc.cache[filePath]; ok {
		if fresh(mf, stat) {
			fc.recordHit()
			return mf, nil
		}
		fc.release(mf)
		delete(fc.cache, filePath)
		fc.recordReload()
	}

	if err := fc.checkLimitsWithNewFile(stat.Size()); err != nil {
		fc.recordMiss()
		return nil, err
	}

	mf, err = fc.loadFile(filePath)
	if err != nil {
		fc.recordMiss()
		return nil, err
	}
	fc.cache[filePath] = mf
	fc.recordLoad()
	return mf, nil
}

func fresh(mf *MappedFile, stat os.FileInfo) bool {
	return mf.Size == stat.Size() && mf.ModTime.Equal(stat.ModTime())
}

// checkLimitsWithNewFile must be called while holding mu.Lock.
func (fc *fileCacheImpl) checkLimitsWithNewFile(newFileSize int64) error {
	if fc.config.MaxFiles > 0 && len(fc.cache) >= fc.config.MaxFiles {
		return fmt.Errorf("%w: %d files (limit: %d files)", ErrCacheLimit, len(fc.cache), fc.config.MaxFiles)
	}
	if fc.config.MaxMemoryMB > 0 && newFileSize > 0 {
		currentMB := fc.calculateTotalMappedMBLocked()
		totalMB := currentMB + float64(newFileSize)/(1024*1024)
		if totalMB >= float64(fc.config.MaxMemoryMB) {
			return fmt.Errorf("%w: %.2f MB (limit: %d MB)", ErrCacheLimit, totalMB, fc.config.MaxMemoryMB)
		}
	}
	return nil
}

// loadFile opens and maps a file, falling back to os.ReadFile if mmap fails.
func (fc *fileCacheImpl) loadFile(filePath string) (*MappedFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", filePath, err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file %q: %w", filePath, err)
	}

	mf := &MappedFile{
		Path:     filePath,
		File:     file,
		Size:     stat.Size(),
		ModTime:  stat.ModTime(),
		MappedAt: time.Now(),
	}
	// Zero-length files cannot be mapped.
	if stat.Size() == 0 {
		return mf, nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		fc.logger.Warn("mmap failed, using fallback", "file", filePath, "size", stat.Size(), "error", err)
		file.Close()
		raw, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, fmt.Errorf("mmap failed and fallback failed for %q: mmap error: %v, read error: %w",
				filePath, err, readErr)
		}
		fc.recordMmapFailure()
		mf.Data = mmap.MMap(raw)
		mf.File = nil
		mf.fallback = true
		return mf, nil
	}
	mf.Data = data
	return mf, nil
}

func (fc *fileCacheImpl) ReadSource(filePath string) (string, error) {
	return fc.FetchCode(filePath, 0, 0)
}

func (fc *fileCacheImpl) FetchCode(filePath string, startByte, endByte uint32) (string, error) {
	mf, err := fc.Get(filePath)
	if err != nil {
		return "", err
	}
	// Regions are only unmapped under the write lock.
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	if cur, ok := fc.cache[filePath]; !ok || cur != mf {
		return "", fmt.Errorf("file %q changed while reading", filePath)
	}
	if len(mf.Data) == 0 {
		return "", nil
	}
	if startByte == 0 && endByte == 0 {
		return string(mf.Data), nil
	}
	if endByte <= startByte {
		return "", fmt.Errorf("invalid byte range: endByte (%d) <= startByte (%d)", endByte, startByte)
	}
	if endByte > uint32(len(mf.Data)) {
		return "", fmt.Errorf("invalid byte range: endByte (%d) > file size (%d) for %q",
			endByte, len(mf.Data), filePath)
	}
	return string(mf.Data[startByte:endByte]), nil
}

func (fc *fileCacheImpl) Invalidate(filePath string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if mf, ok := fc.cache[filePath]; ok {
		fc.release(mf)
		delete(fc.cache, filePath)
	}
}

// release must be called while holding mu.Lock.
func (fc *fileCacheImpl) release(mf *MappedFile) error {
	var errs []error
	if mf.Data != nil && !mf.fallback {
		if err := mf.Data.Unmap(); err != nil {
			fc.logger.Warn("failed to unmap file", "path", mf.Path, "error", err)
			errs = append(errs, fmt.Errorf("unmap %q: %w", mf.Path, err))
		}
	}
	if mf.File != nil {
		if err := mf.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", mf.Path, err))
		}
	}
	return errors.Join(errs...)
}

func (fc *fileCacheImpl) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return len(fc.cache)
}

func (fc *fileCacheImpl) Stats() FileCacheStats {
	fc.mu.RLock()
	cached := len(fc.cache)
	totalMB := fc.calculateTotalMappedMBLocked()
	fc.mu.RUnlock()

	fc.statsMu.Lock()
	defer fc.statsMu.Unlock()
	stats := fc.stats
	stats.FilesCached = cached
	stats.TotalMappedMB = totalMB
	return stats
}

func (fc *fileCacheImpl) calculateTotalMappedMBLocked() float64 {
	var total int64
	for _, mf := range fc.cache {
		total += mf.Size
	}
	return float64(total) / (1024 * 1024)
}

func (fc *fileCacheImpl) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var errs []error
	for _, mf := range fc.cache {
		if err := fc.release(mf); err != nil {
			errs = append(errs, err)
		}
	}
	fc.cache = make(map[string]*MappedFile)

	fc.statsMu.Lock()
	fc.logger.Debug("file cache closed",
		"files_loaded", fc.stats.FilesLoaded,
		"cache_hits", fc.stats.CacheHits,
		"reloads", fc.stats.Reloads,
		"mmap_failures", fc.stats.MmapFailures)
	fc.statsMu.Unlock()

	return errors.Join(errs...)
}

func (fc *fileCacheImpl) record(update func(*FileCacheStats)) {
	if !fc.config.EnableMetrics {
		return
	}
	fc.statsMu.Lock()
	update(&fc.stats)
	fc.statsMu.Unlock()
}

func (fc *fileCacheImpl) recordHit()         { fc.record(func(s *FileCacheStats) { s.CacheHits++ }) }
func (fc *fileCacheImpl) recordMiss()        { fc.record(func(s *FileCacheStats) { s.CacheMisses++ }) }
func (fc *fileCacheImpl) recordLoad()        { fc.record(func(s *FileCacheStats) { s.FilesLoaded++ }) }
func (fc *fileCacheImpl) recordReload()      { fc.record(func(s *FileCacheStats) { s.Reloads++ }) }
func (fc *fileCacheImpl) recordMmapFailure() { fc.record(func(s *FileCacheStats) { s.MmapFailures++ }) }
