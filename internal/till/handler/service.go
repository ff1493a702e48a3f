package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/fekuna/omnipos-till-service/internal/rpc"
)

const ServiceName = "omnipos.till.v1.TillService"

type TillServiceServer interface {
	OpenTill(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	CurrentTill(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetTill(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	Reconcile(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	CloseTill(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTill(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
	ListTills(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSaleDetails(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	RecordExpense(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListExpenses(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	DeleteExpense(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TillServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Method(ServiceName, "OpenTill", (TillServiceServer).OpenTill),
		rpc.Method(ServiceName, "CurrentTill", (TillServiceServer).CurrentTill),
		rpc.Method(ServiceName, "GetTill", (TillServiceServer).GetTill),
		rpc.Method(ServiceName, "Reconcile", (TillServiceServer).Reconcile),
		rpc.Method(ServiceName, "CloseTill", (TillServiceServer).CloseTill),
		rpc.Method(ServiceName, "DeleteTill", (TillServiceServer).DeleteTill),
		rpc.Method(ServiceName, "ListTills", (TillServiceServer).ListTills),
		rpc.Method(ServiceName, "ListSaleDetails", (TillServiceServer).ListSaleDetails),
		rpc.Method(ServiceName, "RecordExpense", (TillServiceServer).RecordExpense),
		rpc.Method(ServiceName, "ListExpenses", (TillServiceServer).ListExpenses),
		rpc.Method(ServiceName, "DeleteExpense", (TillServiceServer).DeleteExpense),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/till/v1/till.proto",
}

func RegisterTillServiceServer(s grpc.ServiceRegistrar, srv TillServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
