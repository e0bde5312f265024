package integration

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/leengari/coltable/internal/engine"
	"github.com/leengari/coltable/internal/metrics"
	"github.com/leengari/coltable/internal/network"
	"github.com/leengari/coltable/internal/storage"
	"github.com/leengari/coltable/internal/storage/manager"
	"github.com/leengari/coltable/internal/testutil"
	"github.com/leengari/coltable/internal/wal"
)

// stack is a running server with every collaborator wired the way the
// command line tool wires them.
type stack struct {
	addr     string
	paths    storage.Paths
	registry *manager.Registry
	metrics  *metrics.Collector
	journal  *wal.WAL
}

func startStack(t *testing.T) *stack {
	t.Helper()
	logger := testutil.DiscardLogger()
	paths := storage.Paths{DataDir: t.TempDir()}

	journal, err := wal.Open(filepath.Join(paths.DataDir, "coltable.wal"), wal.WithSync(false))
	assert.NilError(t, err)

	collector := metrics.New()
	registry, err := manager.NewRegistry(paths, 8,
		manager.WithLogger(logger),
		manager.WithObserver(collector),
		manager.WithLogHook(collector),
		manager.WithCheckpointer(journal),
	)
	assert.NilError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	watcher := manager.NewWatcher(registry)
	assert.NilError(t, watcher.Start(ctx))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NilError(t, err)
	server := network.NewServer(registry,
		network.WithLogger(logger),
		network.WithJournal(journal),
	)
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, listener) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NilError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
		watcher.Close()
		journal.Close()
	})

	return &stack{
		addr:     listener.Addr().String(),
		paths:    paths,
		registry: registry,
		metrics:  collector,
		journal:  journal,
	}
}

type client struct {
	enc *json.Encoder
	dec *json.Decoder
}

func (s *stack) dial(t *testing.T) *client {
	t.Helper()
	conn, err := net.Dial("tcp", s.addr)
	assert.NilError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &client{enc: json.NewEncoder(conn), dec: json.NewDecoder(conn)}
}

// do sends one command and fails the test if the server reports an error
func (c *client) do(t *testing.T, command string) engine.Result {
	t.Helper()
	res := c.try(t, command)
	assert.Equal(t, res.Error, "", "command %q", command)
	return res
}

func (c *client) try(t *testing.T, command string) engine.Result {
	t.Helper()
	assert.NilError(t, c.enc.Encode(network.Request{Command: command}))
	var res engine.Result
	assert.NilError(t, c.dec.Decode(&res))
	return res
}
