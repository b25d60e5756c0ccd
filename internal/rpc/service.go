// Package rpc exposes the segmentation tool over gRPC. Messages are protobuf
// well-known types, so no generated code is needed: commands take Empty,
// BoolValue or StringValue and results come back as Struct.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "cloudsegment.v1.SegmentationService"

// SegmentationServiceServer is the server API for SegmentationService.
type SegmentationServiceServer interface {
	SegmentIn(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SegmentOut(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Reset(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Pause(context.Context, *wrapperspb.BoolValue) (*emptypb.Empty, error)
	SetMode(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ExportPolyline(context.Context, *wrapperspb.BoolValue) (*structpb.Struct, error)
	ImportPolyline(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegisterSegmentationServiceServer registers srv on s.
func RegisterSegmentationServiceServer(s grpc.ServiceRegistrar, srv SegmentationServiceServer) {
	s.RegisterService(&SegmentationService_ServiceDesc, srv)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unaryHandler builds a grpc.MethodHandler for a method taking Req.
func unaryHandler[Req any, Resp any](name string, call func(SegmentationServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SegmentationServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(name),
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(SegmentationServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// SegmentationService_ServiceDesc is the grpc.ServiceDesc for
// SegmentationService.
var SegmentationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SegmentationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SegmentIn", Handler: unaryHandler("SegmentIn", SegmentationServiceServer.SegmentIn)},
		{MethodName: "SegmentOut", Handler: unaryHandler("SegmentOut", SegmentationServiceServer.SegmentOut)},
		{MethodName: "Reset", Handler: unaryHandler("Reset", SegmentationServiceServer.Reset)},
		{MethodName: "Pause", Handler: unaryHandler("Pause", SegmentationServiceServer.Pause)},
		{MethodName: "SetMode", Handler: unaryHandler("SetMode", SegmentationServiceServer.SetMode)},
		{MethodName: "Status", Handler: unaryHandler("Status", SegmentationServiceServer.Status)},
		{MethodName: "ExportPolyline", Handler: unaryHandler("ExportPolyline", SegmentationServiceServer.ExportPolyline)},
		{MethodName: "ImportPolyline", Handler: unaryHandler("ImportPolyline", SegmentationServiceServer.ImportPolyline)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cloudsegment/v1/segmentation.proto",
}
