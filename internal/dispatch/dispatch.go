// Package dispatch implements the request/reply state machine that turns a
// parsed packet into a reply packet or a typed dispatch error (spec.md
// §4.4).
package dispatch

import (
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tinydhcp/tinydhcp/internal/dhcp4"
	"github.com/tinydhcp/tinydhcp/internal/policy"
	"github.com/tinydhcp/tinydhcp/internal/pool"
)

// Request is the per-packet context the dispatcher and the policy
// evaluator both read from.
type Request = policy.Request

// HandlePacket is the public entry point: handle_pkt(pool, request,
// known_server_ids, config) of spec.md §4.4.
func HandlePacket(pool *pool.Allocator, req *Request, known *ServerIDSet, policies []*policy.Policy, logger *zap.Logger) (*dhcp4.Packet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("dispatch").With(zap.String("request_id", uuid.NewString()))

	mt, ok := req.Packet.Options.MessageType()
	if !ok {
		return nil, newError(ParseError, fmt.Errorf("missing message type option"))
	}
	if !mt.Known() {
		return nil, newError(UnknownMessageType, nil)
	}

	switch mt {
	case dhcp4.MessageTypeDiscover:
		reply, err := handleDiscoverOrRequest(pool, req, policies, logger, false)
		if err != nil {
			logDispatchError(logger, req, mt, err)
		}
		return reply, err

	case dhcp4.MessageTypeRequest:
		if serverID, has := req.Packet.Options.ServerID(); has && !known.Contains(serverID) {
			logger.Info("ignoring request for other server", zap.Stringer("server_id", serverID))
			return nil, newError(OtherServer, nil)
		}
		reply, err := handleDiscoverOrRequest(pool, req, policies, logger, true)
		if err != nil {
			logDispatchError(logger, req, mt, err)
		}
		return reply, err

	default:
		return nil, newError(UnknownMessageType, nil)
	}
}

func handleDiscoverOrRequest(allocator *pool.Allocator, req *Request, policies []*policy.Policy, logger *zap.Logger, isRequest bool) (*dhcp4.Packet, error) {
	presp := policy.NewResponse()
	presp.Options.SetServerID(req.ServerIP)
	if clientID, has := req.Packet.Options.ClientID(); has {
		presp.Options.SetClientID(clientID)
	}
	if isRequest {
		presp.Options.SetMessageType(dhcp4.MessageTypeAck)
	} else {
		presp.Options.SetMessageType(dhcp4.MessageTypeOffer)
	}

	if !policy.Apply(policies, req, presp) {
		return nil, newError(NoPolicyConfigured, nil)
	}
	if presp.Address == nil || presp.Address.Len() == 0 {
		return nil, newError(NoLeasesAvailable, nil)
	}

	minLease, maxLease := leaseBounds(presp)
	requested, _ := req.Packet.Options.RequestedIPAddress()
	clientID := req.Packet.ClientID()

	lease, err := allocator.Allocate(clientID, requested, *presp.Address, minLease, maxLease)
	if err != nil {
		if err == pool.ErrNoAssignableAddress {
			return nil, newError(NoLeasesAvailable, err)
		}
		return nil, newError(InternalError, err)
	}

	if isRequest {
		presp.Options.SetLeaseTime(uint32(time.Until(lease.Expire).Seconds()))
	}

	reply := buildReply(req.Packet, lease, presp.Options, isRequest)
	logger.Debug("handled packet",
		zap.Stringer("message_type", mustMessageType(req)),
		zap.String("client_id", fmt.Sprintf("%x", clientID)),
		zap.Stringer("yiaddr", reply.YIAddr),
	)
	return reply, nil
}

func leaseBounds(presp *policy.Response) (time.Duration, time.Duration) {
	if seconds, ok := presp.Options.LeaseTime(); ok {
		d := time.Duration(seconds) * time.Second
		return d, d
	}
	return presp.MinLease, presp.MaxLease
}

func buildReply(req *dhcp4.Packet, lease pool.Lease, options dhcp4.OptionMap, isRequest bool) *dhcp4.Packet {
	reply := &dhcp4.Packet{
		Op:      dhcp4.OpReply,
		HType:   req.HType,
		HLen:    req.HLen,
		Xid:     req.Xid,
		Flags:   req.Flags,
		GIAddr:  req.GIAddr,
		YIAddr:  lease.IP,
		SIAddr:  net.IPv4zero,
		CHAddr:  req.CHAddr,
		Options: options,
	}
	if isRequest {
		reply.CIAddr = req.CIAddr
	} else {
		reply.CIAddr = net.IPv4zero
	}
	return reply
}

func mustMessageType(req *Request) dhcp4.MessageType {
	mt, _ := req.Packet.Options.MessageType()
	return mt
}

func logDispatchError(logger *zap.Logger, req *Request, mt dhcp4.MessageType, err error) {
	var derr *Error
	if e, ok := err.(*Error); ok {
		derr = e
	}
	if derr != nil && derr.Kind == InternalError {
		logger.Error("failed to handle packet", zap.Stringer("message_type", mt), zap.Error(err))
		return
	}
	logger.Debug("failed to handle packet", zap.Stringer("message_type", mt), zap.Error(err))
}
