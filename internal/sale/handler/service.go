package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/fekuna/omnipos-till-service/internal/rpc"
)

const ServiceName = "omnipos.till.v1.SaleService"

type SaleServiceServer interface {
	RecordSale(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReverseLineItem(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	GetSale(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	LastSaleAt(context.Context, *emptypb.Empty) (*timestamppb.Timestamp, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SaleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Method(ServiceName, "RecordSale", (SaleServiceServer).RecordSale),
		rpc.Method(ServiceName, "ReverseLineItem", (SaleServiceServer).ReverseLineItem),
		rpc.Method(ServiceName, "GetSale", (SaleServiceServer).GetSale),
		rpc.Method(ServiceName, "LastSaleAt", (SaleServiceServer).LastSaleAt),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/till/v1/sale.proto",
}

func RegisterSaleServiceServer(s grpc.ServiceRegistrar, srv SaleServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
