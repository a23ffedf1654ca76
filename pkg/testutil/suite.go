package testutil

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// PipelineSuite provides a context and a scratch directory per test
type PipelineSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	startTime time.Time
}

// SetupTest runs before each test in the suite
func (s *PipelineSuite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), time.Minute)
	s.startTime = time.Now()
	s.tempDir = s.T().TempDir()
}

// TearDownTest runs after each test in the suite
func (s *PipelineSuite) TearDownTest() {
	s.cancel()
	s.T().Logf("test completed in %v", time.Since(s.startTime))
}

// Context returns the test context
func (s *PipelineSuite) Context() context.Context {
	return s.ctx
}

// TempDir returns the scratch directory
func (s *PipelineSuite) TempDir() string {
	return s.tempDir
}

// Path joins elem onto the scratch directory
func (s *PipelineSuite) Path(elem ...string) string {
	return filepath.Join(append([]string{s.tempDir}, elem...)...)
}

// CreateTempFile creates a file with content inside the scratch directory
func (s *PipelineSuite) CreateTempFile(name string, content []byte) string {
	path := s.Path(name)
	require.NoError(s.T(), os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(s.T(), os.WriteFile(path, content, 0o644))
	return path
}
