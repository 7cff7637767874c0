// Command client is a REPL-style client for the searchd binary wire
// protocol: `client <server_ip> <port>`.
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/searchd/internal/version"
	"github.com/standardbeagle/searchd/pkg/pathutil"
)

func main() {
	app := &cli.App{
		Name:      "searchd-client",
		Usage:     "interactive client for a searchd server",
		Version:   version.Version,
		ArgsUsage: "<server_ip> <port>",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit(fmt.Sprintf("usage: %s <server_ip> <port>", c.App.Name), 1)
	}

	addr := net.JoinHostPort(c.Args().Get(0), c.Args().Get(1))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to connect to %s: %v", addr, err), 1)
	}
	defer conn.Close()

	cwd, _ := os.Getwd()

	scanner := bufio.NewScanner(os.Stdin)
	reader := bufio.NewReader(conn)

	for {
		fmt.Print("query> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			break
		}

		if err := sendQuery(conn, line); err != nil {
			return cli.Exit(fmt.Sprintf("write failed: %v", err), 1)
		}
		paths, err := readResponse(reader)
		if err != nil {
			return cli.Exit(fmt.Sprintf("read failed: %v", err), 1)
		}

		for _, p := range paths {
			fmt.Println(pathutil.ToRelative(p, cwd))
		}
		fmt.Printf("(%d results)\n", len(paths))
	}

	return sendTerminate(conn)
}

func sendQuery(conn net.Conn, query string) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(query)))
	if _, err := conn.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := conn.Write([]byte(query))
	return err
}

func sendTerminate(conn net.Conn) error {
	var lenBuf [4]byte
	_, err := conn.Write(lenBuf[:])
	return err
}

func readResponse(r *bufio.Reader) ([]string, error) {
	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, err
	}
	count := binary.BigEndian.Uint32(countBuf[:])

	paths := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		var plenBuf [4]byte
		if _, err := io.ReadFull(r, plenBuf[:]); err != nil {
			return nil, err
		}
		plen := binary.BigEndian.Uint32(plenBuf[:])
		if plen == 0 {
			paths = append(paths, "")
			continue
		}
		buf := make([]byte, plen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		paths = append(paths, string(buf))
	}
	return paths, nil
}
