package kubeconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

const lockTimeout = 1 * time.Second

// Assembler accumulates processed bundles into one combined store and writes
// it with a single atomic replace. Each run starts from an empty store, so
// entries removed from the catalog never survive into the next artifact.
type Assembler struct {
	mu     sync.Mutex
	store  *clientcmdapi.Config
	path   string
	logger *zap.SugaredLogger
}

// NewAssembler creates an assembler targeting path.
func NewAssembler(path string, logger *zap.SugaredLogger) *Assembler {
	return &Assembler{
		store:  clientcmdapi.NewConfig(),
		path:   path,
		logger: logger,
	}
}

// Merge folds a processed bundle into the store by set union on endpoints,
// identities, and contexts. Duplicate names overwrite, last merged wins; the
// last bundle's current context becomes the store's selector. Merges are
// serialized, so pipeline workers may call this concurrently.
func (a *Assembler) Merge(bundle *clientcmdapi.Config) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for name, cluster := range bundle.Clusters {
		a.store.Clusters[name] = cluster
	}
	for name, authInfo := range bundle.AuthInfos {
		a.store.AuthInfos[name] = authInfo
	}
	for name, kctx := range bundle.Contexts {
		a.store.Contexts[name] = kctx
	}
	if bundle.CurrentContext != "" {
		a.store.CurrentContext = bundle.CurrentContext
	}
}

// ContextCount returns the number of contexts merged so far.
func (a *Assembler) ContextCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.store.Contexts)
}

// Finalize serializes the store and replaces the target file atomically:
// write to a temporary file in the target directory, then rename into place.
// Readers polling the path never observe a partially written document and
// need no lock of their own; a separate .lock file serializes concurrent
// writers. On failure the accumulated store is discarded, never partially
// flushed.
func (a *Assembler) Finalize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := clientcmd.Write(*a.store)
	if err != nil {
		return fmt.Errorf("failed to serialize store: %w", err)
	}

	dir := filepath.Dir(a.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	// Use a separate lock file for cross-platform compatibility
	fileLock := flock.New(a.path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	locked, err := fileLock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire store lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire store lock: timeout after %v", lockTimeout)
	}
	defer func() { _ = fileLock.Unlock() }()

	tmp, err := os.CreateTemp(dir, ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary store: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := os.Rename(tmpPath, a.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace store: %w", err)
	}

	a.logger.Infow("wrote combined store",
		"path", a.path,
		"endpoints", len(a.store.Clusters),
		"contexts", len(a.store.Contexts))
	return nil
}
