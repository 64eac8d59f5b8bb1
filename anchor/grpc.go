package anchor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// AnchorServer is the server API for the Anchor gRPC service.
//
// We intentionally use protobuf well-known wrapper types so this package does
// not require a protoc/codegen toolchain: Anchor carries canonical JSON of
// the commitment and receipt, Status carries plain transaction id / status
// strings.
//
// Proto definition: anchor.proto.
type AnchorServer interface {
	Anchor(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Status(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

// UnimplementedAnchorServer can be embedded to have forward compatible implementations.
type UnimplementedAnchorServer struct{}

func (UnimplementedAnchorServer) Anchor(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Anchor not implemented")
}
func (UnimplementedAnchorServer) Status(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Status not implemented")
}

// RegisterAnchorServer registers the Anchor service on a gRPC server.
func RegisterAnchorServer(s grpc.ServiceRegistrar, srv AnchorServer) {
	s.RegisterService(&Anchor_ServiceDesc, srv)
}

// AnchorClient is the client API for the Anchor gRPC service.
type AnchorClient interface {
	Anchor(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Status(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type anchorClient struct{ cc grpc.ClientConnInterface }

func NewAnchorClient(cc grpc.ClientConnInterface) AnchorClient { return &anchorClient{cc: cc} }

func (c *anchorClient) Anchor(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, "/xdao.corridor.anchor.v1.Anchor/Anchor", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *anchorClient) Status(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	err := c.cc.Invoke(ctx, "/xdao.corridor.anchor.v1.Anchor/Status", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func _Anchor_Anchor_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnchorServer).Anchor(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/xdao.corridor.anchor.v1.Anchor/Anchor"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AnchorServer).Anchor(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Anchor_Status_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnchorServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/xdao.corridor.anchor.v1.Anchor/Status"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AnchorServer).Status(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Anchor_ServiceDesc is the grpc.ServiceDesc for Anchor service.
var Anchor_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "xdao.corridor.anchor.v1.Anchor",
	HandlerType: (*AnchorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Anchor", Handler: _Anchor_Anchor_Handler},
		{MethodName: "Status", Handler: _Anchor_Status_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "anchor.proto",
}
