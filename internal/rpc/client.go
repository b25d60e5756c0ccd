package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is a thin client for SegmentationService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SegmentIn(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c, "SegmentIn", &emptypb.Empty{}, opts...)
}

func (c *Client) SegmentOut(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c, "SegmentOut", &emptypb.Empty{}, opts...)
}

func (c *Client) Reset(ctx context.Context, opts ...grpc.CallOption) error {
	_, err := invoke[emptypb.Empty](ctx, c, "Reset", &emptypb.Empty{}, opts...)
	return err
}

func (c *Client) Pause(ctx context.Context, on bool, opts ...grpc.CallOption) error {
	_, err := invoke[emptypb.Empty](ctx, c, "Pause", wrapperspb.Bool(on), opts...)
	return err
}

func (c *Client) SetMode(ctx context.Context, mode string, opts ...grpc.CallOption) error {
	_, err := invoke[emptypb.Empty](ctx, c, "SetMode", wrapperspb.String(mode), opts...)
	return err
}

func (c *Client) Status(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c, "Status", &emptypb.Empty{}, opts...)
}

func (c *Client) ExportPolyline(ctx context.Context, mode2D bool, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c, "ExportPolyline", wrapperspb.Bool(mode2D), opts...)
}

func (c *Client) ImportPolyline(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c, "ImportPolyline", wrapperspb.String(id), opts...)
}
