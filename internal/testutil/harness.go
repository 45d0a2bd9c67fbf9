package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/taskgrid/internal/app"
)

// SafeBuffer is a thread-safe buffer for capturing run output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Output string
	Err    error
	App    *app.App
}

// RunGrid writes the given .hcl files to a temp directory, runs the app
// against them end to end with the core modules, and returns the combined
// log/emit output and the run error. Startup panics are folded into Err.
func RunGrid(t *testing.T, files map[string]string) *HarnessResult {
	t.Helper()

	gridDir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(gridDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg, err := app.NewConfig(app.Config{
		GridPath:     gridDir,
		LogLevel:     "debug",
		LogFormat:    "text",
		WorkerCount:  4,
		PumpInterval: time.Millisecond,
	})
	require.NoError(t, err)

	out := &SafeBuffer{}
	var testApp *app.App
	var panicErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = fmt.Errorf("application startup panicked: %v", r)
			}
		}()
		testApp = app.NewApp(out, cfg, nil)
	}()
	if panicErr != nil {
		return &HarnessResult{Output: out.String(), Err: panicErr}
	}

	runErr := testApp.Run(context.Background())
	return &HarnessResult{Output: out.String(), Err: runErr, App: testApp}
}
