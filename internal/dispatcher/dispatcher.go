// Package dispatcher owns a single client connection end to end:
// protocol sniffing, query service, and socket teardown. Go's net.Conn
// already blocks natively on read/write, so the per-connection I/O here
// relies on that instead of spinning on a non-blocking socket.
package dispatcher

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/standardbeagle/searchd/internal/logging"
	"github.com/standardbeagle/searchd/internal/metrics"
	"github.com/standardbeagle/searchd/internal/store"
	"github.com/standardbeagle/searchd/internal/types"
)

var log = logging.For("dispatcher")

var httpMethods = []string{"GET", "POST", "PUT", "DELETE", "HEAD", "CONNECT", "OPTIONS", "TRACE", "PATCH"}

// Searcher abstracts the inverted index for the dispatcher so tests can
// supply a fake without pulling in the index package.
type Searcher interface {
	Search(query string) []types.FileID
}

// Dispatcher serves both the binary and HTTP wire protocols on accepted
// connections.
type Dispatcher struct {
	index Searcher
	store *store.ContentStore
}

func New(index Searcher, contentStore *store.ContentStore) *Dispatcher {
	return &Dispatcher{index: index, store: contentStore}
}

// Serve owns conn for its full lifetime: it sniffs the protocol, serves
// one or more queries, and always closes conn before returning. No
// error here ever propagates to the caller; it is contained, logged
// with the peer address, and the connection is closed.
func (d *Dispatcher) Serve(conn net.Conn) {
	defer conn.Close()
	peer := conn.RemoteAddr().String()

	// Wait for the first bytes only, then sniff whatever has arrived (at
	// most the 1024-byte buffer), so a short request is never held back
	// waiting for a full buffer.
	r := bufio.NewReaderSize(conn, 1024)
	if _, err := r.Peek(1); err != nil && err != io.EOF {
		log.Error("peek failed from %s: %v", peer, err)
		return
	}
	peeked, _ := r.Peek(r.Buffered())

	if looksLikeHTTP(peeked) {
		if err := d.serveHTTP(conn, r); err != nil {
			log.Error("http session with %s ended: %v", peer, err)
		}
		return
	}

	if err := d.serveBinary(conn, r); err != nil {
		log.Error("binary session with %s ended: %v", peer, err)
	}
}

func looksLikeHTTP(prefix []byte) bool {
	for _, m := range httpMethods {
		if bytes.HasPrefix(prefix, []byte(m)) {
			return true
		}
	}
	return false
}

// serveBinary implements the length-prefixed binary protocol: repeated
// query/response rounds until the peer closes or sends a zero-length
// frame.
func (d *Dispatcher) serveBinary(conn net.Conn, r *bufio.Reader) error {
	for {
		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read query length: %w", err)
		}
		length := binary.BigEndian.Uint32(lenBuf[:])
		if length == 0 {
			return nil
		}

		queryBuf := make([]byte, length)
		if _, err := io.ReadFull(r, queryBuf); err != nil {
			return fmt.Errorf("read query body: %w", err)
		}

		paths := d.searchPaths(string(queryBuf))

		var countBuf [4]byte
		binary.BigEndian.PutUint32(countBuf[:], uint32(len(paths)))
		if _, err := conn.Write(countBuf[:]); err != nil {
			return fmt.Errorf("write result count: %w", err)
		}

		for _, p := range paths {
			var plenBuf [4]byte
			binary.BigEndian.PutUint32(plenBuf[:], uint32(len(p)))
			if _, err := conn.Write(plenBuf[:]); err != nil {
				return fmt.Errorf("write path length: %w", err)
			}
			if len(p) == 0 {
				continue
			}
			if _, err := conn.Write([]byte(p)); err != nil {
				return fmt.Errorf("write path: %w", err)
			}
		}
	}
}

// serveHTTP implements a single GET /?q=... request/response round,
// always closing the connection afterward.
func (d *Dispatcher) serveHTTP(conn net.Conn, r *bufio.Reader) error {
	requestLine, headerErr := readRequestHead(r)
	if headerErr != nil {
		return fmt.Errorf("read request head: %w", headerErr)
	}

	method, target, ok := parseRequestLine(requestLine)
	if !ok {
		return writeHTTPStatus(conn, 400, "Bad Request")
	}
	if method != "GET" {
		return writeHTTPStatus(conn, 405, "Method Not Allowed")
	}

	query, ok := extractQueryParam(target, "q")
	if !ok {
		return writeHTTPStatus(conn, 400, "Bad Request")
	}

	paths := d.searchPaths(query)
	body := renderResultsJSON(paths)

	header := fmt.Sprintf(
		"HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: %d\r\nConnection: close\r\n\r\n",
		len(body),
	)
	if _, err := conn.Write([]byte(header)); err != nil {
		return fmt.Errorf("write response header: %w", err)
	}
	_, err := conn.Write([]byte(body))
	return err
}

func (d *Dispatcher) searchPaths(query string) []string {
	start := time.Now()
	ids := d.index.Search(query)
	metrics.SearchLatency.Observe(time.Since(start).Seconds())
	paths := make([]string, 0, len(ids))
	for _, id := range ids {
		p := d.store.Path(id)
		if p == "" {
			// A search hit should always resolve to a known path; drop defensively.
			continue
		}
		paths = append(paths, p)
	}
	return paths
}

// readRequestHead reads bytes up to and including the blank line that
// terminates HTTP headers, and returns only the request line.
func readRequestHead(r *bufio.Reader) (string, error) {
	var head bytes.Buffer
	for {
		line, err := r.ReadString('\n')
		head.WriteString(line)
		if err != nil {
			return "", err
		}
		if strings.TrimRight(line, "\r\n") == "" {
			break
		}
	}
	firstLine, _, _ := strings.Cut(head.String(), "\n")
	return strings.TrimRight(firstLine, "\r"), nil
}

func parseRequestLine(line string) (method, target string, ok bool) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// extractQueryParam percent-decodes the query string after the first
// '?' (including '+' -> space, via net/url's form-encoding semantics,
// the idiomatic stdlib fit for this exact encoding) and returns the
// value of name.
func extractQueryParam(target, name string) (string, bool) {
	_, rawQuery, found := strings.Cut(target, "?")
	if !found {
		return "", false
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", false
	}
	if _, present := values[name]; !present {
		return "", false
	}
	return values.Get(name), true
}

// renderResultsJSON hand-builds the response body, escaping only '\'
// and '"'. encoding/json.Marshal would additionally escape HTML-sensitive
// and non-ASCII runes, which the wire format here does not call for.
func renderResultsJSON(paths []string) string {
	var b strings.Builder
	b.WriteString(`{ "results": [`)
	for i, p := range paths {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('"')
		b.WriteString(escapeJSONString(p))
		b.WriteByte('"')
	}
	b.WriteString(`] }`)
	return b.String()
}

func escapeJSONString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || c == '"' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

func writeHTTPStatus(conn net.Conn, code int, reason string) error {
	resp := fmt.Sprintf("HTTP/1.1 %s %s\r\nContent-Length: 0\r\nConnection: close\r\n\r\n", strconv.Itoa(code), reason)
	_, err := conn.Write([]byte(resp))
	return err
}
