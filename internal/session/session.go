// internal/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"weighbridge-service/internal/driver"
	"weighbridge-service/internal/model"
	"weighbridge-service/internal/polling"
	"weighbridge-service/internal/transport"
	"weighbridge-service/internal/utils"
	pkgdriver "weighbridge-service/pkg/driver"
)

// TransportFactory constructs the transport for a loaded device
type TransportFactory func(ep transport.Endpoint, logger *zap.Logger, opts ...transport.Option) *transport.Transport

// Option configures Load
type Option func(*loadOptions)

type loadOptions struct {
	registry      *driver.Registry
	newTransport  TransportFactory
	transportOpts []transport.Option
}

// WithRegistry replaces the default adapter table
func WithRegistry(r *driver.Registry) Option {
	return func(o *loadOptions) { o.registry = r }
}

// WithTransportFactory replaces transport.New
func WithTransportFactory(f TransportFactory) Option {
	return func(o *loadOptions) { o.newTransport = f }
}

// WithTransportOptions adds transport options applied before the device's own
// timeout_ms and buffer_size options
func WithTransportOptions(opts ...transport.Option) Option {
	return func(o *loadOptions) { o.transportOpts = append(o.transportOpts, opts...) }
}

// Session serializes all interaction with one physical device. It owns the
// transport, the protocol adapter and a single polling slot.
type Session struct {
	desc      model.Descriptor
	mu        sync.Mutex
	transport *transport.Transport
	adapter   pkgdriver.Adapter
	scheduler *polling.Scheduler
	logger    *utils.DeviceLogger
}

// Load builds a closed session for desc. An unknown device type, module code
// or port type, or a malformed parameter string, fails with
// model.ErrConfiguration before any transport is constructed.
func Load(desc model.Descriptor, logger *zap.Logger, opts ...Option) (*Session, error) {
	if err := desc.Normalize(); err != nil {
		return nil, err
	}

	lo := loadOptions{newTransport: transport.New}
	for _, opt := range opts {
		opt(&lo)
	}
	if lo.registry == nil {
		lo.registry = driver.NewDefaultRegistry(logger)
	}

	factory, err := lo.registry.Resolve(desc)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", desc.Code, err)
	}
	if factory != nil && desc.PortType == model.PortTypeNone {
		return nil, fmt.Errorf("%w: device %s: %s/%s needs a port",
			model.ErrConfiguration, desc.Code, desc.DeviceType, desc.ModuleCode)
	}

	s := &Session{
		desc:      desc,
		scheduler: polling.NewScheduler(logger.With(zap.String("device_code", desc.Code))),
		logger:    utils.NewDeviceLogger(logger, desc.Code, string(desc.DeviceType), desc.ModuleCode),
	}

	if desc.PortType != model.PortTypeNone {
		ep, err := transport.Configure(desc.PortType, desc.ParamString)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", desc.Code, err)
		}

		reader := model.NewOptionReader(desc.Options, s.logger.Logger)
		topts := append([]transport.Option{}, lo.transportOpts...)
		topts = append(topts,
			transport.WithTimeout(reader.Millis(model.OptionTimeoutMs, 0)),
			transport.WithBufferSize(reader.Int(model.OptionBufferSize, 0)),
		)
		s.transport = lo.newTransport(ep, s.logger.Logger, topts...)
	}

	if factory != nil {
		adapter, err := factory(s.transport, desc, s.logger.Logger)
		if err != nil {
			if !errors.Is(err, model.ErrConfiguration) {
				err = fmt.Errorf("%w: %w", model.ErrConfiguration, err)
			}
			return nil, fmt.Errorf("device %s: %w", desc.Code, err)
		}
		s.adapter = adapter
	}

	s.logger.Debug("Device session loaded", zap.String("role", string(desc.Role())))
	return s, nil
}

// Descriptor returns the device configuration
func (s *Session) Descriptor() model.Descriptor { return s.desc }

// Code returns the device code
func (s *Session) Code() string { return s.desc.Code }

// Connected reports whether the transport is open
func (s *Session) Connected() bool {
	return s.transport != nil && s.transport.Connected()
}

// IsPolling reports whether a polling schedule is active
func (s *Session) IsPolling() bool { return s.scheduler.Active() }

// Stats returns transport counters, or zero stats for port-less devices
func (s *Session) Stats() transport.Stats {
	if s.transport == nil {
		return transport.Stats{}
	}
	return s.transport.Stats()
}

// State summarizes the session for listings
func (s *Session) State() model.DeviceState {
	state := model.DeviceState{
		Code:       s.desc.Code,
		DeviceType: s.desc.DeviceType,
		ModuleCode: s.desc.ModuleCode,
		PortType:   s.desc.PortType,
		Connected:  s.Connected(),
		Polling:    s.IsPolling(),
	}
	if s.transport != nil {
		state.Endpoint = s.transport.Endpoint().String()
	}
	return state
}

// Open connects the transport. It is a no-op when already connected or when
// the device has no port.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked(ctx)
}

func (s *Session) openLocked(ctx context.Context) error {
	if s.transport == nil || s.transport.Connected() {
		return nil
	}
	err := s.transport.Open(ctx)
	s.logger.LogConnection("open", err)
	return err
}

// Close stops polling and releases the transport. Repeated calls are no-ops
// and the session may be opened again afterwards.
func (s *Session) Close() error {
	s.scheduler.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Session) closeLocked() error {
	if s.transport == nil || !s.transport.Connected() {
		return nil
	}
	err := s.transport.Close()
	s.logger.LogConnection("close", err)
	return err
}

// ExecuteCommand runs cmd through the adapter serving role, opening the
// transport first if needed. model.RoleNone selects the device's own role.
// Calls on one session are totally ordered.
func (s *Session) ExecuteCommand(ctx context.Context, role model.Role, cmd pkgdriver.Command) (pkgdriver.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executeLocked(ctx, role, cmd)
}

func (s *Session) executeLocked(ctx context.Context, role model.Role, cmd pkgdriver.Command) (pkgdriver.Result, error) {
	if err := s.capable(role); err != nil {
		return nil, err
	}
	if err := s.openLocked(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := s.adapter.Execute(ctx, cmd)

	errorNr := 0
	if result != nil {
		errorNr = result.Header().ErrorNr
	}
	s.logger.LogCommand(cmd.Token, time.Since(start), errorNr, err)

	return result, err
}

func (s *Session) capable(role model.Role) error {
	own := s.desc.Role()
	if role == model.RoleNone {
		role = own
	}
	if s.adapter == nil || role == model.RoleNone || role != own {
		return fmt.Errorf("%w: device %s has no %q capability",
			model.ErrCapabilityMissing, s.desc.Code, role)
	}
	return nil
}

// Scale runs cmd against the scale adapter
func (s *Session) Scale(ctx context.Context, cmd pkgdriver.Command) (*pkgdriver.ScaleResult, error) {
	return typed[*pkgdriver.ScaleResult](s, ctx, model.RoleScale, cmd)
}

// Card runs cmd against the card reader adapter
func (s *Session) Card(ctx context.Context, cmd pkgdriver.Command) (*pkgdriver.CardResult, error) {
	return typed[*pkgdriver.CardResult](s, ctx, model.RoleCard, cmd)
}

// Display runs cmd against the display adapter
func (s *Session) Display(ctx context.Context, cmd pkgdriver.Command) (*pkgdriver.DisplayResult, error) {
	return typed[*pkgdriver.DisplayResult](s, ctx, model.RoleDisplay, cmd)
}

func typed[T pkgdriver.Result](s *Session, ctx context.Context, role model.Role, cmd pkgdriver.Command) (T, error) {
	var zero T
	result, err := s.ExecuteCommand(ctx, role, cmd)
	if err != nil {
		return zero, err
	}
	r, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("%w: adapter returned %T for role %s", model.ErrCapabilityMissing, result, role)
	}
	return r, nil
}

// StartPolling replaces any active schedule with one that executes cmd after
// initialDelay and then every interval, delivering each result to callback.
// Failures never stop the schedule: the transport is closed so the next tick
// reconnects, and an error result with ErrorNrPolling is delivered instead.
// The capability is checked once up front.
func (s *Session) StartPolling(role model.Role, cmd pkgdriver.Command, callback pkgdriver.ResultCallback, initialDelay, interval time.Duration) (uuid.UUID, error) {
	if callback == nil {
		return uuid.Nil, fmt.Errorf("%w: polling callback required", model.ErrConfiguration)
	}
	if err := s.capable(role); err != nil {
		return uuid.Nil, err
	}
	if role == model.RoleNone {
		role = s.desc.Role()
	}

	id, err := s.scheduler.Start(initialDelay, interval, func(ctx context.Context) {
		if result, ok := s.pollOnce(ctx, role, cmd); ok {
			callback(result)
		}
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", model.ErrConfiguration, err)
	}
	return id, nil
}

// pollOnce runs one tick under the session lock. ok is false when the
// schedule was canceled while waiting for the lock.
func (s *Session) pollOnce(ctx context.Context, role model.Role, cmd pkgdriver.Command) (result pkgdriver.Result, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return nil, false
	}

	result, err := s.safeExecute(context.WithoutCancel(ctx), role, cmd)
	if err == nil && result != nil {
		return result, true
	}
	if err == nil {
		err = errors.New("adapter returned no result")
	}

	if cerr := s.closeLocked(); cerr != nil {
		s.logger.Debug("Close after polling failure failed", zap.Error(cerr))
	}
	s.logger.Warn("Polling tick failed", zap.String("token", cmd.Token), zap.Error(err))
	return pkgdriver.NewErrorResult(role, pkgdriver.ErrorNrPolling, err.Error()), true
}

func (s *Session) safeExecute(ctx context.Context, role model.Role, cmd pkgdriver.Command) (result pkgdriver.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Adapter panicked during polling", zap.Any("panic", r), zap.Stack("stacktrace"))
			result, err = nil, fmt.Errorf("adapter panic: %v", r)
		}
	}()
	return s.executeLocked(ctx, role, cmd)
}

// StopPolling cancels the active schedule. A tick already running completes.
func (s *Session) StopPolling() {
	s.scheduler.Stop()
}

// PollingID returns the active schedule id or uuid.Nil
func (s *Session) PollingID() uuid.UUID { return s.scheduler.ID() }
