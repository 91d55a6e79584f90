package socket

import (
	"testing"
)

func TestFailOnPortInUse(t *testing.T) {
	l, err := NewUDPListener(15960)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer l.Close()
	l2, err := NewUDPListener(15960)
	if err == nil {
		l2.Close()
		t.Errorf("expected busy port error, but got none")
	}
	if !IsPortBusyError(err) {
		t.Errorf("expected port busy classification for %v", err)
	}
}

func TestSenderResolvesDestination(t *testing.T) {
	c, dst, err := NewUDPSender("127.0.0.1:15961")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer c.Close()
	if dst.Port != 15961 {
		t.Errorf("expected port 15961, got %v", dst.Port)
	}
}

func TestSenderBadAddress(t *testing.T) {
	if _, _, err := NewUDPSender("not an address"); err == nil {
		t.Errorf("expected resolve error, but got none")
	}
}
