package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/fekuna/omnipos-till-service/internal/rpc"
)

const ServiceName = "omnipos.till.v1.ProductService"

type ProductServiceServer interface {
	CreateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProduct(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	ListProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchProducts(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	CountLowStock(context.Context, *wrapperspb.Int32Value) (*wrapperspb.Int64Value, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProductServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Method(ServiceName, "CreateProduct", (ProductServiceServer).CreateProduct),
		rpc.Method(ServiceName, "GetProduct", (ProductServiceServer).GetProduct),
		rpc.Method(ServiceName, "ListProducts", (ProductServiceServer).ListProducts),
		rpc.Method(ServiceName, "SearchProducts", (ProductServiceServer).SearchProducts),
		rpc.Method(ServiceName, "CountLowStock", (ProductServiceServer).CountLowStock),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/till/v1/product.proto",
}

func RegisterProductServiceServer(s grpc.ServiceRegistrar, srv ProductServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
