// Command nsrvmctl is a thin convenience client for the daemon's admin
// socket: it parses a method name and JSON arguments off the command
// line, sends one "api" frame, prints the reply, and exits.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"

	domainbroker "github.com/orlv/nsrvm/internal/domain/broker"
	infrabroker "github.com/orlv/nsrvm/internal/infrastructure/broker"
)

func main() {
	rootDir := flag.String("root", ".", "root directory holding the services/ tree")
	argsJSON := flag.String("args", "{}", "JSON-encoded arguments for the method")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: nsrvmctl [-root dir] [-args json] <method>")
		os.Exit(2)
	}
	method := flag.Arg(0)

	var args map[string]any
	if err := json.Unmarshal([]byte(*argsJSON), &args); err != nil {
		fmt.Fprintf(os.Stderr, "nsrvmctl: invalid -args: %v\n", err)
		os.Exit(2)
	}

	if err := run(*rootDir, method, args); err != nil {
		fmt.Fprintf(os.Stderr, "nsrvmctl: %v\n", err)
		os.Exit(1)
	}
}

func run(rootDir, method string, args map[string]any) error {
	socketPath := rootDir + "/services/nsrvm.sock"
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", socketPath, err)
	}
	defer func() { _ = conn.Close() }()

	const reqID uint32 = 1
	body := map[string]any{"method": method}
	for k, v := range args {
		body[k] = v
	}
	frame, err := domainbroker.NewFrame("api", reqID, body)
	if err != nil {
		return fmt.Errorf("building request frame: %w", err)
	}

	enc := infrabroker.NewEncoder(conn)
	if err := enc.Encode(frame); err != nil {
		return fmt.Errorf("sending request: %w", err)
	}

	dec := infrabroker.NewDecoder(conn)
	line, err := dec.Next()
	if err != nil {
		return fmt.Errorf("reading reply: %w", err)
	}

	reply, isSigint, err := domainbroker.ParseLine(line)
	if err != nil || isSigint {
		return fmt.Errorf("decoding reply: %w", err)
	}

	out, err := json.MarshalIndent(reply, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting reply: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
