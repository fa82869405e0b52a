// internal/app/ingest/client.go
package ingest

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/dalemusser/sensorhub/internal/app/system/limits"
)

// Client is a minimal TCP client for the ingest protocol: one Send is
// one message/acknowledgment exchange on a persistent connection. Used
// by the device simulator and the server tests. Not safe for concurrent
// Send calls on the same Client.
type Client struct {
	conn net.Conn

	// Timeout bounds one full exchange (write + read). Zero means no
	// deadline.
	Timeout time.Duration
}

// Dial connects to an ingest server at addr ("host:port").
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn, Timeout: 10 * time.Second}, nil
}

// Send writes one message and reads its acknowledgment.
func (c *Client) Send(msg Message) (Response, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return Response{}, fmt.Errorf("encode message: %w", err)
	}

	if c.Timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
			return Response{}, err
		}
	}

	if _, err := c.conn.Write(payload); err != nil {
		return Response{}, fmt.Errorf("write message: %w", err)
	}

	buf := make([]byte, limits.MaxIngestMessage)
	n, err := c.conn.Read(buf)
	if err != nil {
		return Response{}, fmt.Errorf("read acknowledgment: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(buf[:n], &resp); err != nil {
		return Response{}, fmt.Errorf("decode acknowledgment: %w", err)
	}
	return resp, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
