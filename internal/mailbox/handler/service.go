package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/fekuna/omnipos-till-service/internal/rpc"
)

const ServiceName = "omnipos.till.v1.MailboxService"

type MailboxServiceServer interface {
	Push(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Drain(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Add(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Remove(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	Clear(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MailboxServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Method(ServiceName, "Push", (MailboxServiceServer).Push),
		rpc.Method(ServiceName, "Drain", (MailboxServiceServer).Drain),
		rpc.Method(ServiceName, "Snapshot", (MailboxServiceServer).Snapshot),
		rpc.Method(ServiceName, "Add", (MailboxServiceServer).Add),
		rpc.Method(ServiceName, "Remove", (MailboxServiceServer).Remove),
		rpc.Method(ServiceName, "Clear", (MailboxServiceServer).Clear),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/till/v1/mailbox.proto",
}

func RegisterMailboxServiceServer(s grpc.ServiceRegistrar, srv MailboxServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
