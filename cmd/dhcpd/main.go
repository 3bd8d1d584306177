// Command dhcpd is the composition root: it loads configuration, builds
// the policy tree and lease pool, and serves DHCPv4 on one UDP listener
// per configured address.
package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tinydhcp/tinydhcp/internal/config"
	"github.com/tinydhcp/tinydhcp/internal/dhcp4"
	"github.com/tinydhcp/tinydhcp/internal/dispatch"
	"github.com/tinydhcp/tinydhcp/internal/iface"
	"github.com/tinydhcp/tinydhcp/internal/metrics"
	"github.com/tinydhcp/tinydhcp/internal/policy"
	"github.com/tinydhcp/tinydhcp/internal/pool"
)

func main() {
	configPath := flag.String("config", "/etc/tinydhcp/config.yaml", "path to the YAML configuration file")
	metricsAddr := flag.String("metrics-addr", "", "address to serve /metrics on; empty disables it")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*configPath, *metricsAddr, logger); err != nil {
		logger.Fatal("fatal error", zap.Error(err))
	}
}

func run(configPath, metricsAddr string, logger *zap.Logger) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", configPath, err)
	}
	cfg, err := config.Load(data)
	if err != nil {
		return err
	}

	policies, err := cfg.Policies()
	if err != nil {
		return fmt.Errorf("failed to build policy tree: %w", err)
	}

	store, err := openStore(cfg.DHCP.Store)
	if err != nil {
		return err
	}
	allocator := pool.New(store, logger)

	seedIDs, err := cfg.ServerIDs()
	if err != nil {
		return err
	}
	knownServerIDs := dispatch.NewServerIDSet(seedIDs...)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	listen := cfg.DHCP.Listen
	if len(listen) == 0 {
		listen = []string{"0.0.0.0:67"}
	}

	var g errgroup.Group
	for _, addrStr := range listen {
		addrStr := addrStr
		udpAddr, err := net.ResolveUDPAddr("udp4", addrStr)
		if err != nil {
			return fmt.Errorf("invalid listen address %q: %w", addrStr, err)
		}
		transport, err := iface.NewUDPTransport(udpAddr)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return serve(transport, allocator, knownServerIDs, policies, m, logger)
		})
		logger.Info("listening", zap.String("address", addrStr))
	}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		g.Go(func() error {
			return http.ListenAndServe(metricsAddr, mux)
		})
		logger.Info("serving metrics", zap.String("address", metricsAddr))
	}

	return g.Wait()
}

func openStore(cfg config.StoreConfig) (pool.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return pool.NewInMemory(), nil
	case "sqlite":
		return pool.OpenSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func serve(transport *iface.UDPTransport, allocator *pool.Allocator, known *dispatch.ServerIDSet, policies []*policy.Policy, m *metrics.Metrics, logger *zap.Logger) error {
	buf := make([]byte, 1500)
	for {
		n, peer, err := transport.ReadFrom(buf)
		if err != nil {
			return fmt.Errorf("listener stopped: %w", err)
		}

		pkt, err := dhcp4.ParsePacket(buf[:n])
		if err != nil {
			logger.Debug("dropping unparsable packet", zap.Error(err), zap.Stringer("peer", peer))
			continue
		}

		// A bound UDP socket (rather than a raw PACKET socket with
		// IP_PKTINFO) can't recover the receiving interface per datagram,
		// so every listener here is assumed single-homed to interface 0.
		ifIndex := uint32(0)
		serverIP, err := transport.IPv4ByIfIndex(ifIndex)
		if err != nil {
			serverIP = net.IPv4zero
		}

		req := &dispatch.Request{Packet: pkt, ServerIP: serverIP, IfIndex: ifIndex}
		reply, err := dispatch.HandlePacket(allocator, req, known, policies, logger)
		mt, _ := pkt.Options.MessageType()
		if err != nil {
			m.ObserveRequest(mt.String(), outcomeOf(err))
			continue
		}
		m.ObserveRequest(mt.String(), "ok")

		if serverID, ok := reply.Options.ServerID(); ok {
			known.Learn(serverID)
		}
		if err := transport.Send(reply.ToBytes(), ifIndex); err != nil {
			logger.Error("failed to send reply", zap.Error(err))
		}
	}
}

func outcomeOf(err error) string {
	var derr *dispatch.Error
	if e, ok := err.(*dispatch.Error); ok {
		derr = e
	}
	if derr == nil {
		return "error"
	}
	return derr.Kind.String()
}
