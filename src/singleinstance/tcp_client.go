package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

func (c *tcpClient) Delegate(ctx context.Context, command string) (bool, error) {
	timeout := dialTimeout(ctx, 2*time.Second)
	start, end := getPortRange()
	for port := start; port <= end; port++ {
		addr := residentAddr(port)
		if !ping(addr, timeout) {
			continue
		}
		return true, send(addr, command, timeout)
	}
	return false, nil
}

func send(addr, command string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(command + "\n"); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return err
	}
	switch status {
	case successResponse:
		return nil
	case errorResponse:
		msg, _ := io.ReadAll(br)
		return errors.New(string(msg))
	}
	return errors.New("singleinstance: unexpected response " + status)
}
