package niri

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
)

var errInvalidUnixSocket = errors.New("invalid unix socket")

type ipcConn struct {
	socketConn *net.UnixConn
	reader     *bufio.Reader
}

func newIPCConn(path string) (ipcConn, error) {
	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return ipcConn{}, fmt.Errorf("failed to resolve unix address: %v", err)
	}

	conn, err := net.DialUnix("unix", nil, addr)
	if err != nil {
		return ipcConn{}, fmt.Errorf("%w: %v", errInvalidUnixSocket, err)
	}

	return ipcConn{
		socketConn: conn,
		reader:     bufio.NewReader(conn),
	}, nil
}

// Send writes one message as a single newline-terminated line. The protocol
// requires every message to fit on one line.
func (ipc ipcConn) Send(msg []byte) error {
	if _, err := ipc.socketConn.Write(append(msg, '\n')); err != nil {
		return fmt.Errorf("failed to send message: %v", err)
	}

	return nil
}

// Receive reads exactly one line. Full window snapshots can be large, so no
// line length limit is imposed.
func (ipc ipcConn) Receive() ([]byte, error) {
	line, err := ipc.reader.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(bytes.TrimSpace(line)) > 0 {
			return bytes.TrimSpace(line), nil
		}

		return nil, fmt.Errorf("failed to receive response: %v", err)
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, errors.New("response was empty")
	}

	return line, nil
}

// ReceiveAsync reads lines until the peer closes the connection, delivering
// each on the returned channel. The result channel is closed on EOF; any
// other read failure is delivered on the error channel before both
// goroutine exits.
func (ipc ipcConn) ReceiveAsync() (chan []byte, chan error) {
	var (
		resCh = make(chan []byte)
		errCh = make(chan error, 1)
	)

	go func(resCh chan []byte, errCh chan error) {
		defer close(resCh)

		for {
			line, err := ipc.reader.ReadBytes('\n')
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
					return
				}

				errCh <- fmt.Errorf("failed to receive event: %v", err)
				return
			}

			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}

			resCh <- line
		}
	}(resCh, errCh)

	return resCh, errCh
}

func (ipc ipcConn) Close() error {
	return ipc.socketConn.Close()
}
