package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "bamboorules.v1.RuleService"

// Full method names, as seen by interceptors.
const (
	EvaluateMethod       = "/" + ServiceName + "/Evaluate"
	EvaluateStoredMethod = "/" + ServiceName + "/EvaluateStored"
)

// RuleServiceServer is the server API for the rule service. Requests and
// responses are protobuf well-known types, so no generated code is needed.
type RuleServiceServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Value, error)
	EvaluateStored(context.Context, *structpb.Struct) (*structpb.Value, error)
}

// RuleServiceDesc describes the rule service for grpc.Server.RegisterService.
var RuleServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RuleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: unaryHandler(EvaluateMethod, RuleServiceServer.Evaluate)},
		{MethodName: "EvaluateStored", Handler: unaryHandler(EvaluateStoredMethod, RuleServiceServer.EvaluateStored)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bamboorules/v1/rules.proto",
}

// RegisterRuleServiceServer registers srv on s.
func RegisterRuleServiceServer(s grpc.ServiceRegistrar, srv RuleServiceServer) {
	s.RegisterService(&RuleServiceDesc, srv)
}

type unaryMethod func(RuleServiceServer, context.Context, *structpb.Struct) (*structpb.Value, error)

func unaryHandler(fullMethod string, call unaryMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RuleServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RuleServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RuleServiceClient calls the rule service over a client connection.
type RuleServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRuleServiceClient returns a client bound to cc.
func NewRuleServiceClient(cc grpc.ClientConnInterface) *RuleServiceClient {
	return &RuleServiceClient{cc: cc}
}

// Evaluate evaluates the inline rule in req.
func (c *RuleServiceClient) Evaluate(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Value, error) {
	out := new(structpb.Value)
	if err := c.cc.Invoke(ctx, EvaluateMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// EvaluateStored evaluates the stored rule named in req.
func (c *RuleServiceClient) EvaluateStored(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Value, error) {
	out := new(structpb.Value)
	if err := c.cc.Invoke(ctx, EvaluateStoredMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
