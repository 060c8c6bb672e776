// Package discovery advertises and finds relay servers on the local network
// over mDNS.
package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service relays register under.
const ServiceType = "_canco._tcp"

// DefaultBrowseTimeout is how long Browse listens for answers.
const DefaultBrowseTimeout = 2 * time.Second

// Advertisement is a running mDNS responder.
type Advertisement struct {
	server *mdns.Server
}

// Advertise registers a relay listening on port. An empty instance uses the
// host name. The returned Advertisement must be shut down.
func Advertise(instance string, port int, info ...string) (*Advertisement, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		instance = host
	}
	if len(info) == 0 {
		info = []string{"canco relay"}
	}

	service, err := mdns.NewMDNSService(
		instance,
		ServiceType,
		"", // .local
		"", // OS host name
		port,
		nil, // auto-detect IPs
		info,
	)
	if err != nil {
		return nil, fmt.Errorf("create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("start mDNS server: %w", err)
	}
	return &Advertisement{server: server}, nil
}

// Shutdown stops answering queries. Safe on a nil Advertisement.
func (a *Advertisement) Shutdown() error {
	if a == nil || a.server == nil {
		return nil
	}
	return a.server.Shutdown()
}

// Entry is a relay found on the network.
type Entry struct {
	Name string   `json:"name"`
	Host string   `json:"host"`
	Addr string   `json:"addr"`
	Info []string `json:"info,omitempty"`
}

// Browse queries for relays until timeout (or ctx) expires and returns the
// distinct IPv4 entries sorted by address.
func Browse(ctx context.Context, timeout time.Duration) ([]Entry, error) {
	if timeout <= 0 {
		timeout = DefaultBrowseTimeout
	}
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, ctx.Err()
	}

	entries := make(chan *mdns.ServiceEntry, 16)
	found := make(chan []Entry, 1)
	go func() { found <- collect(entries) }()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout

	err := mdns.Query(params)
	close(entries)
	out := <-found
	if err != nil {
		return out, fmt.Errorf("mDNS query: %w", err)
	}
	return out, nil
}

// collect drains entries, keeping the first answer per address.
func collect(entries <-chan *mdns.ServiceEntry) []Entry {
	seen := make(map[string]bool)
	out := []Entry{}
	for e := range entries {
		if e == nil || e.AddrV4 == nil || e.Port == 0 {
			continue
		}
		if !strings.Contains(e.Name, ServiceType) {
			continue
		}
		addr := net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port))
		if seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, Entry{
			Name: e.Name,
			Host: e.Host,
			Addr: addr,
			Info: e.InfoFields,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// OutboundIP returns the preferred LAN address of this host, for printing a
// join URL. It falls back to the first non-loopback IPv4 interface address,
// then to 127.0.0.1.
func OutboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err == nil {
		defer conn.Close()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
			return addr.IP.String()
		}
	}

	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return "127.0.0.1"
}
