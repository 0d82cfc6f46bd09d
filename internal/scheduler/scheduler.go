package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/manaam216/gemns-integration/internal/dongle"
)

// Sweeper demotes devices that have gone quiet.
type Sweeper interface {
	SweepInactive(now time.Time, timeout time.Duration)
}

// StatusPublisher announces dongle state changes on the bus.
type StatusPublisher interface {
	PublishDongleStatus(d dongle.Dongle)

	// PublishDongleGone clears the retained status of a dongle whose
	// endpoint disappeared.
	PublishDongleGone(port string)
}

// Logger is the minimal logging surface the scheduler needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Scheduler drives the two periodic jobs: dongle discovery and the device
// inactivity sweep. Each job runs on its own ticker so a slow handshake
// never delays offline detection.
type Scheduler struct {
	endpoints  []dongle.Endpoint
	identifier *dongle.Identifier
	dongles    *dongle.Set
	sweeper    Sweeper
	status     StatusPublisher
	frames     dongle.FrameHandler

	discoveryInterval time.Duration
	scanInterval      time.Duration
	offlineTimeout    time.Duration

	logger Logger
	now    func() time.Time

	// runListener runs the stream reader for one dongle until its context
	// ends or the endpoint is lost. Swappable in tests.
	runListener func(ctx context.Context, d dongle.Dongle) error

	// listeners tracks the stream reader running for each identified
	// dongle, keyed by port.
	lmu       sync.Mutex
	listeners map[string]context.CancelFunc

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// Options configures a Scheduler.
type Options struct {
	Endpoints  []dongle.Endpoint
	Identifier *dongle.Identifier
	Dongles    *dongle.Set
	Sweeper    Sweeper
	Status     StatusPublisher

	// Frames, when set, receives every frame read off identified dongles.
	Frames dongle.FrameHandler

	DiscoveryInterval time.Duration
	ScanInterval      time.Duration
	OfflineTimeout    time.Duration

	Logger Logger
}

// New creates a Scheduler from the given options.
func New(opts Options) *Scheduler {
	s := &Scheduler{
		endpoints:         opts.Endpoints,
		identifier:        opts.Identifier,
		dongles:           opts.Dongles,
		sweeper:           opts.Sweeper,
		status:            opts.Status,
		frames:            opts.Frames,
		listeners:         make(map[string]context.CancelFunc),
		discoveryInterval: opts.DiscoveryInterval,
		scanInterval:      opts.ScanInterval,
		offlineTimeout:    opts.OfflineTimeout,
		logger:            opts.Logger,
		now:               time.Now,
		done:              make(chan struct{}),
	}
	if s.discoveryInterval <= 0 {
		s.discoveryInterval = 30 * time.Second
	}
	if s.scanInterval <= 0 {
		s.scanInterval = time.Second
	}
	if s.offlineTimeout <= 0 {
		s.offlineTimeout = 5 * time.Minute
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	s.runListener = func(ctx context.Context, d dongle.Dongle) error {
		return dongle.NewListener(d.Port, d.Protocol, s.frames, s.logger).Run(ctx)
	}
	return s
}

// Start launches the discovery and sweep loops. Both stop when the
// context is cancelled or Stop is called. Discovery runs once
// immediately so dongles are identified before the first tick.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(2)
	go s.discoveryLoop(ctx)
	go s.sweepLoop(ctx)
}

// Stop halts both loops and every dongle stream listener, then waits for
// in-flight work to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })

	s.lmu.Lock()
	for _, cancel := range s.listeners {
		cancel()
	}
	s.lmu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) discoveryLoop(ctx context.Context) {
	defer s.wg.Done()

	s.discoverOnce(ctx)

	ticker := time.NewTicker(s.discoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.discoverOnce(ctx)
		}
	}
}

func (s *Scheduler) sweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.sweeper.SweepInactive(s.now(), s.offlineTimeout)
		}
	}
}

// discoverOnce probes every candidate endpoint that is still worth
// probing. Enablement is read fresh for each endpoint so a control
// message landing mid-cycle takes effect within the same pass.
func (s *Scheduler) discoverOnce(ctx context.Context) {
	for _, ep := range s.endpoints {
		if err := ctx.Err(); err != nil {
			return
		}
		select {
		case <-s.done:
			return
		default:
		}

		if !s.shouldProbe(ep) {
			continue
		}

		known, wasKnown := s.dongles.Get(ep.Port())

		d, err := s.identifier.Identify(ctx, ep)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Debug("endpoint not answering", "port", ep.Port(), "error", err)
			continue
		}

		s.dongles.Upsert(d)

		if !wasKnown || known.Protocol != d.Protocol {
			s.logger.Info("dongle discovered",
				"port", d.Port,
				"protocol", d.Protocol)
			if s.status != nil {
				if current, ok := s.dongles.Get(d.Port); ok {
					s.status.PublishDongleStatus(current)
				}
			}
		}

		if _, known := d.Protocol.Transport(); known {
			s.ensureListener(ctx, d)
		}
	}
}

// ensureListener starts one stream reader per identified dongle. The
// reader outlives discovery passes; it stops with the scheduler, with the
// parent context, or when the endpoint disappears. Frames from dongles
// that get disabled later are filtered downstream, so the reader keeps
// running.
func (s *Scheduler) ensureListener(ctx context.Context, d dongle.Dongle) {
	if s.frames == nil {
		return
	}

	s.lmu.Lock()
	defer s.lmu.Unlock()

	if _, running := s.listeners[d.Port]; running {
		return
	}

	listenCtx, cancel := context.WithCancel(ctx)
	s.listeners[d.Port] = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.runListener(listenCtx, d)
		if err != nil && listenCtx.Err() == nil {
			s.retireDongle(d.Port, err)
		}
	}()
}

// retireDongle destroys a dongle whose endpoint stopped answering: the
// listener is forgotten, the dongle leaves the set, and its retained
// status is cleared. The endpoint rejoins discovery as never-seen, so a
// re-plugged dongle is identified fresh on the next pass.
func (s *Scheduler) retireDongle(port string, cause error) {
	s.lmu.Lock()
	if cancel, ok := s.listeners[port]; ok {
		cancel()
		delete(s.listeners, port)
	}
	s.lmu.Unlock()

	s.dongles.Remove(port)
	s.logger.Warn("dongle retired", "port", port, "error", cause)

	if s.status != nil {
		s.status.PublishDongleGone(port)
	}
}

// shouldProbe filters endpoints that identification would waste time on:
// hardware already identified as foreign, disabled dongles, and endpoints
// whose protocol is toggled off.
func (s *Scheduler) shouldProbe(ep dongle.Endpoint) bool {
	if known, ok := s.dongles.Get(ep.Port()); ok {
		if known.Protocol == dongle.ProtocolUnknown {
			return false
		}
		if !known.Enabled {
			return false
		}
		return s.dongles.ProtocolEnabled(known.Protocol)
	}

	// Never-seen endpoint: honor the configured protocol hint if present.
	if hint := ep.ProtocolHint(); hint != dongle.ProtocolUnknown {
		return s.dongles.ProtocolEnabled(hint)
	}
	return true
}
