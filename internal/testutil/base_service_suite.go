package testutil

import (
	"context"

	"github.com/keygate/keygate/internal/config"
	"github.com/keygate/keygate/internal/logger"
	"github.com/stretchr/testify/suite"
)

// BaseServiceSuite provides the shared fixtures service tests need: an
// in-memory provider gateway, a recording notification publisher and a
// logger.
type BaseServiceSuite struct {
	suite.Suite
	ctx       context.Context
	cfg       *config.Configuration
	gateway   *InMemoryBillingGateway
	publisher *InMemoryLifecyclePublisher
	logger    *logger.Logger
}

// SetupSuite initializes shared, stateless fixtures.
func (s *BaseServiceSuite) SetupSuite() {
	s.cfg = config.GetDefaultConfig()
	log, err := logger.NewLogger(s.cfg)
	s.Require().NoError(err)
	s.logger = log
}

// SetupTest resets all mutable state before each test.
func (s *BaseServiceSuite) SetupTest() {
	s.ctx = SetupContext()
	s.gateway = NewInMemoryBillingGateway()
	s.publisher = NewInMemoryLifecyclePublisher()
}

func (s *BaseServiceSuite) Context() context.Context {
	return s.ctx
}

func (s *BaseServiceSuite) Config() *config.Configuration {
	return s.cfg
}

func (s *BaseServiceSuite) Gateway() *InMemoryBillingGateway {
	return s.gateway
}

func (s *BaseServiceSuite) Publisher() *InMemoryLifecyclePublisher {
	return s.publisher
}

func (s *BaseServiceSuite) Logger() *logger.Logger {
	return s.logger
}
