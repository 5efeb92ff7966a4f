// internal/rpc/backend.go
//
// Backend-service adapter.
//
// Context
// -------
// The Srv mode handler wraps the orchestrator's container in a Backend and
// hands it to a Server.  Remote callers name a service and a method:
//
//	{"service": "orders", "method": "Get", "params": {"id": 7}}
//
// The Backend looks the service up in the container and, when it implements
// Invoker, forwards the call.  Everything else is a NotFound/Unimplemented
// status.
//
// Notes
// -----
// • The service descriptor is written by hand; the JSON codec replaces
//   protobuf marshalling.
// • Oxford commas, two spaces after periods.
package rpc

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yanizio/adeptboot/internal/di"
)

// Fully-qualified names of the backend service.
const (
	ServiceName    = "adept.rpc.Backend"
	CallMethodName = "/" + ServiceName + "/Call"
)

// Invoker is implemented by services callable over RPC.
type Invoker interface {
	Invoke(ctx context.Context, method string, params json.RawMessage) (any, error)
}

// CallRequest is the single RPC input.
type CallRequest struct {
	Service string          `json:"service"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// CallResponse carries the JSON-encoded result.
type CallResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
}

// BackendServer is the handler type of the service descriptor.
type BackendServer interface {
	Call(context.Context, *CallRequest) (*CallResponse, error)
}

// Backend routes calls to services in a container.
type Backend struct {
	reg *di.Container
}

var _ BackendServer = (*Backend)(nil)

// NewBackend wraps reg.
func NewBackend(reg *di.Container) *Backend { return &Backend{reg: reg} }

// Registry returns the wrapped container.
func (b *Backend) Registry() *di.Container { return b.reg }

// Call implements BackendServer.
func (b *Backend) Call(ctx context.Context, in *CallRequest) (*CallResponse, error) {
	if in.Service == "" || in.Method == "" {
		return nil, status.Error(codes.InvalidArgument, "service and method are required")
	}
	svc, err := b.reg.Get(in.Service)
	if err != nil {
		if errors.Is(err, di.ErrServiceNotFound) {
			return nil, status.Errorf(codes.NotFound, "service %q not found", in.Service)
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	inv, ok := svc.(Invoker)
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "service %q is not invokable", in.Service)
	}

	out, err := inv.Invoke(ctx, in.Method, in.Params)
	if err != nil {
		if _, isStatus := status.FromError(err); isStatus {
			return nil, err
		}
		return nil, status.Error(codes.Unknown, err.Error())
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &CallResponse{Result: raw}, nil
}

/*──────────────────────── service descriptor ─────────────────────────────*/

func callHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CallRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BackendServer).Call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CallMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BackendServer).Call(ctx, req.(*CallRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc describes the backend service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BackendServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Call", Handler: callHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "adept/rpc/backend",
}

// Call is the client helper.
func Call(ctx context.Context, cc grpc.ClientConnInterface, in *CallRequest) (*CallResponse, error) {
	out := new(CallResponse)
	if err := cc.Invoke(ctx, CallMethodName, in, out, grpc.CallContentSubtype(CodecName)); err != nil {
		return nil, err
	}
	return out, nil
}
