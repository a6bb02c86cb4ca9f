package document

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// PreviewRef is a local reference to the preview of a selected file.
type PreviewRef string

// PreviewPool hands out preview references. Every acquired reference must be released.
type PreviewPool interface {
	Acquire(f File) (PreviewRef, error)
	Release(ref PreviewRef)
	ActiveCount() int
}

type memPool struct {
	mu     sync.Mutex
	active map[PreviewRef]File
}

// NewMemPool returns a PreviewPool keeping previews in memory.
func NewMemPool() PreviewPool {
	return &memPool{active: make(map[PreviewRef]File)}
}

func (p *memPool) Acquire(f File) (PreviewRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ref := PreviewRef("preview:" + uuid.NewString())
	p.active[ref] = f
	return ref, nil
}

func (p *memPool) Release(ref PreviewRef) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, ref)
}

func (p *memPool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

type tempPool struct {
	dir    string
	mu     sync.Mutex
	active map[PreviewRef]struct{}
}

// NewTempPool returns a PreviewPool writing each preview to its own file under dir.
// References are file paths that an external viewer can open.
func NewTempPool(dir string) PreviewPool {
	return &tempPool{dir: dir, active: make(map[PreviewRef]struct{})}
}

func (p *tempPool) Acquire(f File) (PreviewRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return "", errors.Wrap(err, "creating preview directory")
	}
	path := filepath.Join(p.dir, uuid.NewString()+filepath.Ext(f.Name))
	if err := os.WriteFile(path, f.Data, 0o600); err != nil {
		return "", errors.Wrap(err, "writing preview")
	}
	ref := PreviewRef(path)
	p.active[ref] = struct{}{}
	return ref, nil
}

func (p *tempPool) Release(ref PreviewRef) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.active[ref]; !ok {
		return
	}
	delete(p.active, ref)
	_ = os.Remove(string(ref))
}

func (p *tempPool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}
