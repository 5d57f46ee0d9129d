package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/peer"
)

func TestPeerIPFromContextStripsPort(t *testing.T) {
	addr := &net.TCPAddr{IP: net.ParseIP("203.0.113.7"), Port: 54321}
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: addr})

	assert.Equal(t, "203.0.113.7", peerIPFromContext(ctx))
}

func TestPeerIPFromContextKeepsAddrWithoutPort(t *testing.T) {
	addr := fakeAddr("203.0.113.7")
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: addr})

	assert.Equal(t, "203.0.113.7", peerIPFromContext(ctx))
}

func TestPeerIPFromContextMissingPeer(t *testing.T) {
	assert.Equal(t, "", peerIPFromContext(context.Background()))
}

type fakeAddr string

func (a fakeAddr) Network() string { return "fake" }
func (a fakeAddr) String() string  { return string(a) }
