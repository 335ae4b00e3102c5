// Package sdk is the mirror library a service process imports to talk
// back to its supervisor over the inherited IPC channel: it stamps
// correlation ids, frames requests, and resolves replies, mirroring the
// discipline the supervisor's own Message Broker applies on its side of
// the same wire.
package sdk

import (
	"fmt"
	"os"

	domainbroker "github.com/orlv/nsrvm/internal/domain/broker"
	infrabroker "github.com/orlv/nsrvm/internal/infrastructure/broker"
)

// channelFD is the descriptor number the supervisor's executor attaches
// the child's end of the IPC socketpair on (see broker.ChildFD).
const channelFD = 3

// Client is a service process's handle onto its supervisor.
type Client struct {
	enc     *infrabroker.Encoder
	dec     *infrabroker.Decoder
	counter *domainbroker.CorrelationCounter
	pending *domainbroker.PendingTable

	incoming chan domainbroker.Frame
	sigint   chan struct{}
	done     chan struct{}
}

// Connect opens the mirror-library client on the inherited channel
// descriptor. Call this once at service startup, before making any
// getConfig/api/setPublicApi/setChildServices calls.
//
// Returns:
//   - *Client: the connected client.
//   - error: non-nil only if os.NewFile rejects the descriptor number; a
//     descriptor that is not open is not detected here.
func Connect() (*Client, error) {
	f := os.NewFile(channelFD, "nsrvm-ipc-child")
	if f == nil {
		return nil, fmt.Errorf("sdk: channel descriptor %d not available", channelFD)
	}
	c := &Client{
		enc:      infrabroker.NewEncoder(f),
		dec:      infrabroker.NewDecoder(f),
		counter:  domainbroker.NewCorrelationCounter(),
		pending:  domainbroker.NewPendingTable(domainbroker.DefaultReplyTimeout),
		incoming: make(chan domainbroker.Frame, 16),
		sigint:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Sigint returns a channel that receives a value whenever the
// supervisor relays the "SIGINT" sentinel message — the substitute for
// a native signal on platforms without one.
//
// Returns:
//   - <-chan struct{}: fires once per relayed sentinel.
func (c *Client) Sigint() <-chan struct{} {
	return c.sigint
}

// Incoming returns the channel of frames that carried no "_reqId" —
// unsolicited pushes from the supervisor outside the request/reply
// protocol. Reserved for future use; no core operation currently
// pushes unsolicited frames to a child.
//
// Returns:
//   - <-chan domainbroker.Frame: unsolicited frames from the supervisor.
func (c *Client) Incoming() <-chan domainbroker.Frame {
	return c.incoming
}

// Call issues method as an "api" request and blocks for the reply.
//
// Params:
//   - method: the control-plane method name.
//   - args: additional fields merged into the request body.
//
// Returns:
//   - domainbroker.Frame: the reply frame.
//   - error: any transport, encode, or reply-timeout error.
func (c *Client) Call(method string, args map[string]any) (domainbroker.Frame, error) {
	body := map[string]any{"method": method}
	for k, v := range args {
		body[k] = v
	}
	return c.request("api", body)
}

// GetConfig requests the service's own current configuration and api
// key from the supervisor.
//
// Returns:
//   - domainbroker.Frame: the getConfig reply (config, apiKey fields).
//   - error: any transport or timeout error.
func (c *Client) GetConfig() (domainbroker.Frame, error) {
	return c.request("getConfig", nil)
}

// SetPublicApi replaces this service's advertised public-API descriptor
// list.
//
// Params:
//   - descriptors: at most 16 {name, description} entries.
//
// Returns:
//   - error: any transport or timeout error.
func (c *Client) SetPublicApi(descriptors []map[string]any) error {
	_, err := c.request("setPublicApi", map[string]any{"api": descriptors})
	return err
}

// SetChildServices requests registration of sub-services under this
// process's own name as parent.
//
// Params:
//   - services: the desired sub-service configuration list.
//
// Returns:
//   - error: any transport or timeout error.
func (c *Client) SetChildServices(services []map[string]any) error {
	_, err := c.request("setChildServices", map[string]any{"services": services})
	return err
}

// Exit notifies the supervisor of an impending clean exit.
//
// Returns:
//   - error: any transport or timeout error.
func (c *Client) Exit() error {
	_, err := c.request("exit", nil)
	return err
}

// Close releases any outstanding callers with ErrClosed. The read loop
// is not stopped; it runs until the channel reaches end of stream.
func (c *Client) Close() {
	close(c.done)
	c.pending.Close()
}

func (c *Client) request(cmd string, fields map[string]any) (domainbroker.Frame, error) {
	id := c.counter.Next()
	frame, err := domainbroker.NewFrame(cmd, id, fields)
	if err != nil {
		return nil, err
	}
	if err := c.enc.Encode(frame); err != nil {
		return nil, err
	}
	raw, err := c.pending.Await(id)
	if err != nil {
		return nil, err
	}
	frame, _, err = domainbroker.ParseLine(raw)
	if err != nil {
		return nil, err
	}
	return frame, nil
}

func (c *Client) readLoop() {
	for {
		line, err := c.dec.Next()
		if err != nil {
			return
		}
		frame, isSigint, err := domainbroker.ParseLine(line)
		if err != nil {
			// Malformed line from the supervisor; drop it and keep reading.
			continue
		}
		if isSigint {
			select {
			case c.sigint <- struct{}{}:
			default:
			}
			continue
		}
		if reqID, ok := frame.ReqID(); ok {
			c.pending.Resolve(reqID, line)
			continue
		}
		select {
		case c.incoming <- frame:
		default:
		}
	}
}
