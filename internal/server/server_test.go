package server

import (
	"bufio"
	"encoding/binary"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/searchd/internal/config"
)

func TestSplitIntoSlicesEvenDivision(t *testing.T) {
	paths := []string{"a", "b", "c", "d"}
	slices := splitIntoSlices(paths, 2)
	require.Len(t, slices, 2)
	assert.Len(t, slices[0], 2)
	assert.Len(t, slices[1], 2)
}

func TestSplitIntoSlicesRemainderInTail(t *testing.T) {
	paths := []string{"a", "b", "c", "d", "e"}
	slices := splitIntoSlices(paths, 2)
	require.Len(t, slices, 2)
	assert.Len(t, slices[0], 2)
	assert.Len(t, slices[1], 3)
}

func TestSplitIntoSlicesMinimumOne(t *testing.T) {
	paths := []string{"a"}
	slices := splitIntoSlices(paths, 0)
	require.Len(t, slices, 1)
	assert.Equal(t, paths, slices[0])
}

func newTestServer(t *testing.T, port int) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello world"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("hello there"), 0644))

	cfg := config.Default(dir, port)
	cfg.Index.IntervalMs = 50
	cfg.Index.WatchForCreates = false
	cfg.Pool.Workers = 2
	v := config.NewValidator()
	require.NoError(t, v.ValidateAndSetDefaults(cfg))

	s, err := New(cfg)
	require.NoError(t, err)
	return s, dir
}

func TestServerAcceptsBinaryClientsAndReindexes(t *testing.T) {
	s, _ := newTestServer(t, 0)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s.listener = ln
	require.NoError(t, s.pool.Start())
	s.running.Store(true)

	done := make(chan struct{})
	go func() {
		s.acceptLoop()
		close(done)
	}()

	// Let at least one reindex round happen.
	time.Sleep(300 * time.Millisecond)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	sendBinaryQuery(t, conn, "hello")
	count := readBinaryCount(t, conn)
	assert.GreaterOrEqual(t, count, uint32(1))

	// Stop waits for in-flight tasks, and the handler of an open client
	// connection keeps running until the peer closes it.
	conn.Close()
	require.NoError(t, s.Stop())
	<-done
}

func sendBinaryQuery(t *testing.T, conn net.Conn, q string) {
	t.Helper()
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(q)))
	_, err := conn.Write(lenBuf[:])
	require.NoError(t, err)
	_, err = conn.Write([]byte(q))
	require.NoError(t, err)
}

func readBinaryCount(t *testing.T, conn net.Conn) uint32 {
	t.Helper()
	r := bufio.NewReader(conn)
	var countBuf [4]byte
	_, err := io.ReadFull(r, countBuf[:])
	require.NoError(t, err)
	return binary.BigEndian.Uint32(countBuf[:])
}
