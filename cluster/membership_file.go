package cluster

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FileMembershipProvider watches a YAML file listing cluster members
// and emits a fresh Topology whenever it changes or on a periodic
// heartbeat. It is a test/benchmark fixture, not a production
// membership source — per spec.md §9's design note, its default
// 15s TTL / 3s heartbeat constants mirror the repo's own benchmark
// fixture and must not be treated as canonical for a real provider
// (Consul/Kubernetes/etc. are real collaborators implementing the same
// MembershipProvider interface).
type FileMembershipProvider struct {
	path      string
	ttl       time.Duration
	heartbeat time.Duration

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	version atomic.Uint64

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]func(Topology)
}

// fileMembers is the on-disk shape: a flat list of members.
type fileMembers struct {
	Members []Member `yaml:"members"`
}

// NewFileMembershipProvider builds a provider watching path, using the
// benchmark fixture's defaults (15s TTL, 3s heartbeat) unless
// overridden. The heartbeat re-reads the file; the ttl is kept on the
// provider but not applied, so a member stays in the topology for as
// long as the file lists it.
func NewFileMembershipProvider(path string, ttl, heartbeat time.Duration) *FileMembershipProvider {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	if heartbeat <= 0 {
		heartbeat = 3 * time.Second
	}
	return &FileMembershipProvider{
		path: path, ttl: ttl, heartbeat: heartbeat,
		stopCh: make(chan struct{}), subs: make(map[uint64]func(Topology)),
	}
}

// Subscribe registers onTopology for every snapshot read after the
// call. A snapshot read before it is not replayed; the next heartbeat
// or file change delivers a fresh one.
func (p *FileMembershipProvider) Subscribe(onTopology func(Topology)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = onTopology
	p.mu.Unlock()
	return func() { p.unsubscribe(id) }
}

func (p *FileMembershipProvider) unsubscribe(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, id)
}

func (p *FileMembershipProvider) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	p.watcher = watcher
	if err := watcher.Add(p.path); err != nil {
		watcher.Close()
		return err
	}

	p.reload()

	go p.loop()
	return nil
}

func (p *FileMembershipProvider) loop() {
	ticker := time.NewTicker(p.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				p.reload()
			}
		case <-ticker.C:
			p.reload()
		}
	}
}

func (p *FileMembershipProvider) reload() {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return
	}
	var parsed fileMembers
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return
	}
	version := p.version.Add(1)
	topology := NewTopology(version, parsed.Members)

	p.mu.Lock()
	subs := make([]func(Topology), 0, len(p.subs))
	for _, sub := range p.subs {
		subs = append(subs, sub)
	}
	p.mu.Unlock()
	for _, sub := range subs {
		sub(topology)
	}
}

func (p *FileMembershipProvider) Stop() error {
	close(p.stopCh)
	if p.watcher != nil {
		return p.watcher.Close()
	}
	return nil
}
