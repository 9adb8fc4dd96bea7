package client

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/hashicorp/mdns"

	"termibbl/internal/protocol"
)

// Discover browses the LAN for advertised servers and returns host:port
// addresses.
func Discover(ctx context.Context, timeout time.Duration) ([]string, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	params := mdns.DefaultParams(protocol.ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	errc := make(chan error, 1)
	go func() {
		errc <- mdns.Query(params)
		close(entries)
	}()

	var found []string
	seen := make(map[string]bool)
	for {
		select {
		case e, ok := <-entries:
			if !ok {
				if err := <-errc; err != nil {
					return found, fmt.Errorf("mdns query: %w", err)
				}
				return found, nil
			}
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			addr := net.JoinHostPort(e.AddrV4.String(), strconv.Itoa(e.Port))
			if !seen[addr] {
				seen[addr] = true
				found = append(found, addr)
			}
		case <-ctx.Done():
			return found, ctx.Err()
		}
	}
}
