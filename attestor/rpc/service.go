// Package rpc defines the attestor gRPC service. Requests and responses are
// protobuf well-known types; structured results travel as JSON objects in
// structpb.Struct values.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "attestor.Attestor"

const (
	VerifyAttestationMethod     = "/" + ServiceName + "/VerifyAttestation"
	SubmitAttestationMethod     = "/" + ServiceName + "/SubmitAttestation"
	GetCurrentGuardianSetMethod = "/" + ServiceName + "/GetCurrentGuardianSet"
	GetGuardianSetMethod        = "/" + ServiceName + "/GetGuardianSet"
	IsConsumedMethod            = "/" + ServiceName + "/IsConsumed"
)

// AttestorServer is the server API for the attestor service.
type AttestorServer interface {
	// VerifyAttestation verifies a wire encoded envelope and decodes its
	// payload without consuming it.
	VerifyAttestation(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	// SubmitAttestation verifies a wire encoded envelope and executes its
	// action at most once.
	SubmitAttestation(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	GetCurrentGuardianSet(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetGuardianSet(context.Context, *wrapperspb.UInt32Value) (*structpb.Struct, error)
	// IsConsumed takes an object with emitter_chain, emitter_address and
	// sequence fields.
	IsConsumed(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
}

func RegisterAttestorServer(s grpc.ServiceRegistrar, srv AttestorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AttestorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "VerifyAttestation",
			Handler:    unaryHandler(VerifyAttestationMethod, AttestorServer.VerifyAttestation),
		},
		{
			MethodName: "SubmitAttestation",
			Handler:    unaryHandler(SubmitAttestationMethod, AttestorServer.SubmitAttestation),
		},
		{
			MethodName: "GetCurrentGuardianSet",
			Handler:    unaryHandler(GetCurrentGuardianSetMethod, AttestorServer.GetCurrentGuardianSet),
		},
		{
			MethodName: "GetGuardianSet",
			Handler:    unaryHandler(GetGuardianSetMethod, AttestorServer.GetGuardianSet),
		},
		{
			MethodName: "IsConsumed",
			Handler:    unaryHandler(IsConsumedMethod, AttestorServer.IsConsumed),
		},
	},
	Streams: []grpc.StreamDesc{},
}

func unaryHandler[Req any, PReq interface {
	*Req
	proto.Message
}, Resp proto.Message](
	fullMethod string,
	call func(AttestorServer, context.Context, PReq) (Resp, error),
) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AttestorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AttestorServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AttestorClient is the client API for the attestor service.
type AttestorClient struct {
	cc grpc.ClientConnInterface
}

func NewAttestorClient(cc grpc.ClientConnInterface) *AttestorClient {
	return &AttestorClient{cc: cc}
}

func (c *AttestorClient) VerifyAttestation(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, VerifyAttestationMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AttestorClient) SubmitAttestation(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SubmitAttestationMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AttestorClient) GetCurrentGuardianSet(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetCurrentGuardianSetMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AttestorClient) GetGuardianSet(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetGuardianSetMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AttestorClient) IsConsumed(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, IsConsumedMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
