// internal/session/manager.go
package session

import (
	"errors"
	"fmt"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"weighbridge-service/internal/model"
)

// Manager holds every loaded session keyed by device code
type Manager struct {
	sessions *xsync.MapOf[string, *Session]
	opts     []Option
	logger   *zap.Logger
}

// NewManager creates an empty manager. opts are passed to every Load.
func NewManager(logger *zap.Logger, opts ...Option) *Manager {
	return &Manager{
		sessions: xsync.NewMapOf[string, *Session](),
		opts:     opts,
		logger:   logger.With(zap.String("component", "session_manager")),
	}
}

// Load creates and registers a session for desc. Device codes must be unique.
func (m *Manager) Load(desc model.Descriptor) (*Session, error) {
	s, err := Load(desc, m.logger, m.opts...)
	if err != nil {
		return nil, err
	}

	if _, loaded := m.sessions.LoadOrStore(s.Code(), s); loaded {
		return nil, fmt.Errorf("%w: duplicate device code %s", model.ErrConfiguration, s.Code())
	}

	m.logger.Info("Device loaded",
		zap.String("device_code", s.Code()),
		zap.String("device_type", string(desc.DeviceType)),
		zap.String("module_code", s.Descriptor().ModuleCode),
	)
	return s, nil
}

// LoadAll loads every descriptor and returns the joined errors of those that
// failed. Valid devices are loaded even when others fail.
func (m *Manager) LoadAll(descs []model.Descriptor) error {
	var errs []error
	for _, desc := range descs {
		if _, err := m.Load(desc); err != nil {
			m.logger.Error("Failed to load device", zap.String("device_code", desc.Code), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Get returns the session for code
func (m *Manager) Get(code string) (*Session, error) {
	s, ok := m.sessions.Load(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrDeviceNotFound, code)
	}
	return s, nil
}

// List returns all sessions ordered by code
func (m *Manager) List() []*Session {
	list := make([]*Session, 0, m.sessions.Size())
	m.sessions.Range(func(_ string, s *Session) bool {
		list = append(list, s)
		return true
	})
	sort.Slice(list, func(i, j int) bool { return list[i].Code() < list[j].Code() })
	return list
}

// Descriptors returns the descriptors of all sessions ordered by code
func (m *Manager) Descriptors() []model.Descriptor {
	list := m.List()
	descs := make([]model.Descriptor, len(list))
	for i, s := range list {
		descs[i] = s.Descriptor()
	}
	return descs
}

// Remove closes and unregisters the session for code
func (m *Manager) Remove(code string) error {
	s, ok := m.sessions.LoadAndDelete(code)
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrDeviceNotFound, code)
	}
	return s.Close()
}

// CloseAll stops polling and closes every session
func (m *Manager) CloseAll() error {
	var errs []error
	for _, s := range m.List() {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("device %s: %w", s.Code(), err))
		}
	}
	m.logger.Info("All device sessions closed", zap.Int("count", m.sessions.Size()))
	return errors.Join(errs...)
}
