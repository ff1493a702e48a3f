package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/fekuna/omnipos-till-service/internal/rpc"
)

const ServiceName = "omnipos.till.v1.TerminalService"

type TerminalServiceServer interface {
	GetCart(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	AddToCart(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveFromCart(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	SendToCashier(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Checkout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetPaymentInput(context.Context, *wrapperspb.BoolValue) (*emptypb.Empty, error)
	WatchNotices(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TerminalServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Method(ServiceName, "GetCart", (TerminalServiceServer).GetCart),
		rpc.Method(ServiceName, "AddToCart", (TerminalServiceServer).AddToCart),
		rpc.Method(ServiceName, "RemoveFromCart", (TerminalServiceServer).RemoveFromCart),
		rpc.Method(ServiceName, "SendToCashier", (TerminalServiceServer).SendToCashier),
		rpc.Method(ServiceName, "Checkout", (TerminalServiceServer).Checkout),
		rpc.Method(ServiceName, "SetPaymentInput", (TerminalServiceServer).SetPaymentInput),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchNotices",
			Handler:       watchNoticesHandler,
			ServerStreams: true,
		},
	},
	Metadata: "omnipos/till/v1/terminal.proto",
}

func watchNoticesHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(TerminalServiceServer).WatchNotices(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

func RegisterTerminalServiceServer(s grpc.ServiceRegistrar, srv TerminalServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
