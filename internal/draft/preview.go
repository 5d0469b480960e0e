package draft

import (
	"sync"

	"github.com/gravitrone/lectern/internal/course"
)

const previewScheme = "preview:"

// Previews tracks the on-screen preview handles created for queued files.
// Every handle must be released once its queue entry goes away.
type Previews struct {
	mu       sync.Mutex
	live     map[string]course.LocalFile
	released int
}

func NewPreviews() *Previews {
	return &Previews{live: map[string]course.LocalFile{}}
}

// Open creates the handle for key. Opening a live key returns the same handle.
func (p *Previews) Open(key string, f course.LocalFile) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	handle := previewScheme + key
	p.live[handle] = f
	return handle
}

// Release frees handle. It reports false when the handle was not live.
func (p *Previews) Release(handle string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.live[handle]; !ok {
		return false
	}
	delete(p.live, handle)
	p.released++
	return true
}

// Resolve returns the file behind a live handle.
func (p *Previews) Resolve(handle string) (course.LocalFile, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.live[handle]
	return f, ok
}

// Live is the number of handles not yet released.
func (p *Previews) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// Released counts successful releases over the registry's lifetime.
func (p *Previews) Released() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

func (p *Previews) IsLive(handle string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.live[handle]
	return ok
}
