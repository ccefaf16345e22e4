package listener

import (
	"bytes"
	"io"
)

// lineConn normalizes line endings across transports. Telnet clients send
// \r\n and expect it back, an SSH client without a PTY sends a bare \r.
// Everything above the listener layer only ever sees and writes \n.
type lineConn struct {
	rw io.ReadWriter
}

func newLineConn(rw io.ReadWriter) io.ReadWriter {
	return &lineConn{rw: rw}
}

func (c *lineConn) Read(p []byte) (int, error) {
	n, err := c.rw.Read(p)
	if n == 0 {
		return n, err
	}
	data := bytes.ReplaceAll(p[:n], []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
	return copy(p, data), err
}

func (c *lineConn) Write(p []byte) (int, error) {
	_, err := c.rw.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n")))
	// Report the caller's length, not the expanded one.
	return len(p), err
}
