// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"context"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/mcpgateway/vmcp/pkg/logger"
	"github.com/mcpgateway/vmcp/pkg/vmcp"
	vmcptransport "github.com/mcpgateway/vmcp/pkg/vmcp/transport"
)

// Connector opens a backend connection for a rendered config. transport.Dial
// satisfies this; tests supply a fake.
type Connector interface {
	Dial(ctx context.Context, cfg *vmcp.ServerConfig, opts vmcptransport.DialOptions) (*client.Client, error)
}

// ConnectorFunc adapts a plain function to Connector.
type ConnectorFunc func(ctx context.Context, cfg *vmcp.ServerConfig, opts vmcptransport.DialOptions) (*client.Client, error)

// Dial implements Connector.
func (f ConnectorFunc) Dial(ctx context.Context, cfg *vmcp.ServerConfig, opts vmcptransport.DialOptions) (*client.Client, error) {
	return f(ctx, cfg, opts)
}

// Config bounds the pool's size and idle-eviction cadence (spec §4.5).
type Config struct {
	MaxInstancesPerTemplate int
	MaxTotalInstances       int
	IdleTimeout             time.Duration
	CleanupInterval         time.Duration
	DialOptions             vmcptransport.DialOptions
}

// Stats is the pool's observability snapshot (spec §4.5 "stats").
type Stats struct {
	Total        int
	Active       int
	Idle         int
	Templates    int
	TotalClients int
}

// Pool is C5: the outbound instance pool.
type Pool struct {
	cfg       Config
	connector Connector
	metrics   *metrics

	mu         sync.Mutex
	instances  map[string]*Instance
	byTemplate map[string]map[string]bool

	sf singleflight.Group

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New constructs a pool and starts its idle-sweep goroutine. Call Close to
// stop the sweep.
func New(cfg Config, connector Connector, reg prometheus.Registerer) *Pool {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	p := &Pool{
		cfg:        cfg,
		connector:  connector,
		metrics:    NewMetrics(reg),
		instances:  make(map[string]*Instance),
		byTemplate: make(map[string]map[string]bool),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	go p.sweepLoop()
	return p
}

// Close stops the idle-sweep goroutine. It does not close any pooled
// transports.
func (p *Pool) Close() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.doneCh
}

// GetOrCreateInstance is the single allocation entry point (spec §4.5).
func (p *Pool) GetOrCreateInstance(
	ctx context.Context,
	templateName string,
	rendered *vmcp.RenderedConfig,
	clientID string,
	shareable bool,
	sessionID string,
) (*Instance, error) {
	key := Key(templateName, rendered.RenderedHash, shareable, sessionID)

	if inst, ok := p.existingUsable(key); ok {
		p.addClient(key, clientID)
		return inst, nil
	}

	v, err, _ := p.sf.Do(key, func() (interface{}, error) {
		if inst, ok := p.existingUsable(key); ok {
			return inst, nil
		}
		if err := p.reserveCapacity(templateName); err != nil {
			return nil, err
		}
		c, dialErr := p.connector.Dial(ctx, rendered.Config, p.cfg.DialOptions)
		if dialErr != nil {
			return nil, dialErr
		}
		inst := &Instance{
			Key:          key,
			TemplateName: templateName,
			Client:       c,
			Config:       rendered.Config,
			VariableHash: rendered.VariableHash,
			RenderedHash: rendered.RenderedHash,
			Status:       vmcp.InstanceIdle,
			ClientIDs:    make(map[string]bool),
			CreatedAt:    time.Now(),
			LastUsedAt:   time.Now(),
		}
		p.register(inst)
		return inst, nil
	})
	if err != nil {
		return nil, err
	}

	inst := v.(*Instance)
	p.addClient(key, clientID)
	return inst, nil
}

func (p *Pool) existingUsable(key string) (*Instance, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	inst, ok := p.instances[key]
	if !ok || inst.Status == vmcp.InstanceTerminating {
		return nil, false
	}
	return inst, true
}

// reserveCapacity enforces the per-template and total ceilings, running a
// single idle-sweep retry before failing (spec §4.5 "Enforce ceilings").
func (p *Pool) reserveCapacity(templateName string) error {
	if p.withinCeilings(templateName) {
		return nil
	}
	p.sweepOnce()
	if p.withinCeilings(templateName) {
		return nil
	}
	p.metrics.capacityRejected.Inc()
	return vmcp.NewError(vmcp.KindCapacityExceeded, "template "+templateName, nil)
}

func (p *Pool) withinCeilings(templateName string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg.MaxTotalInstances > 0 && len(p.instances) >= p.cfg.MaxTotalInstances {
		return false
	}
	if p.cfg.MaxInstancesPerTemplate > 0 && len(p.byTemplate[templateName]) >= p.cfg.MaxInstancesPerTemplate {
		return false
	}
	return true
}

func (p *Pool) register(inst *Instance) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.instances[inst.Key] = inst
	if p.byTemplate[inst.TemplateName] == nil {
		p.byTemplate[inst.TemplateName] = make(map[string]bool)
	}
	p.byTemplate[inst.TemplateName][inst.Key] = true
}

// addClient is idempotent on a duplicate clientID (spec §4.5 "addClient").
func (p *Pool) addClient(key, clientID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	inst, ok := p.instances[key]
	if !ok {
		return
	}
	inst.ClientIDs[clientID] = true
	inst.ReferenceCount = len(inst.ClientIDs)
	inst.Status = vmcp.InstanceActive
	inst.LastUsedAt = time.Now()
}

// RemoveClient drops clientID from the instance at key, decrementing its
// reference count (spec §4.5 "removeClient"). It never closes the
// transport synchronously.
func (p *Pool) RemoveClient(key, clientID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	inst, ok := p.instances[key]
	if !ok {
		return
	}
	delete(inst.ClientIDs, clientID)
	inst.ReferenceCount = len(inst.ClientIDs)
	if inst.ReferenceCount == 0 {
		inst.Status = vmcp.InstanceIdle
		inst.LastUsedAt = time.Now()
	}
}

// ReferenceCount reports the current reference count for the instance at
// key, or -1 if no such instance exists (e.g. already evicted).
func (p *Pool) ReferenceCount(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	inst, ok := p.instances[key]
	if !ok {
		return -1
	}
	return inst.ReferenceCount
}

// Lookup returns the instance at key, if still present.
func (p *Pool) Lookup(key string) (*Instance, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	inst, ok := p.instances[key]
	return inst, ok
}

// Stats returns the pool's current observability snapshot.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Stats{Templates: len(p.byTemplate)}
	for _, inst := range p.instances {
		s.Total++
		s.TotalClients += len(inst.ClientIDs)
		switch inst.Status {
		case vmcp.InstanceActive:
			s.Active++
		case vmcp.InstanceIdle:
			s.Idle++
		}
	}
	return s
}

func (p *Pool) sweepLoop() {
	defer close(p.doneCh)
	ticker := time.NewTicker(p.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.sweepOnce()
		}
	}
}

// sweepOnce evicts every idle instance past its timeout. Reservation and
// removal happen under the pool lock; the transport and client Close calls
// happen outside it (spec §4.5 "Idle sweep").
func (p *Pool) sweepOnce() {
	now := time.Now()
	var toClose []*Instance

	p.mu.Lock()
	for key, inst := range p.instances {
		if inst.Status != vmcp.InstanceIdle {
			continue
		}
		if now.Sub(inst.LastUsedAt) <= p.cfg.IdleTimeout {
			continue
		}
		inst.Status = vmcp.InstanceTerminating
		delete(p.instances, key)
		if set := p.byTemplate[inst.TemplateName]; set != nil {
			delete(set, key)
			if len(set) == 0 {
				delete(p.byTemplate, inst.TemplateName)
			}
		}
		toClose = append(toClose, inst)
	}
	p.mu.Unlock()

	for _, inst := range toClose {
		if err := inst.Client.Close(); err != nil {
			logger.Warnw("closing evicted backend client", "key", inst.Key, "error", err)
		}
		p.metrics.evictionsTotal.Inc()
	}

	p.refreshGauges()
}

func (p *Pool) refreshGauges() {
	stats := p.Stats()
	p.metrics.instancesTotal.Set(float64(stats.Total))
	p.metrics.instancesActive.Set(float64(stats.Active))
	p.metrics.instancesIdle.Set(float64(stats.Idle))
}
