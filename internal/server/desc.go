package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "quoter.v1.QuoteService"

// QuoteServer is the server API for QuoteService. Every message is a google.protobuf.Struct.
type QuoteServer interface {
	Quote(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReloadCatalog(context.Context, *structpb.Struct) (*structpb.Struct, error)
	History(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportQuote(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterQuoteServer registers srv on s.
func RegisterQuoteServer(s grpc.ServiceRegistrar, srv QuoteServer) {
	s.RegisterService(&QuoteServiceDesc, srv)
}

type unaryMethod func(QuoteServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func handler(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(QuoteServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(QuoteServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// QuoteServiceDesc is the grpc.ServiceDesc for QuoteService.
var QuoteServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QuoteServer)(nil),
	Methods: []grpc.MethodDesc{
		handler("Quote", QuoteServer.Quote),
		handler("ListProducts", QuoteServer.ListProducts),
		handler("ReloadCatalog", QuoteServer.ReloadCatalog),
		handler("History", QuoteServer.History),
		handler("ExportQuote", QuoteServer.ExportQuote),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "quoter/v1/quote.proto",
}

// QuoteClient calls QuoteService.
type QuoteClient struct {
	cc grpc.ClientConnInterface
}

func NewQuoteClient(cc grpc.ClientConnInterface) *QuoteClient { return &QuoteClient{cc: cc} }

// Call invokes method with in and returns the response struct.
func (c *QuoteClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
