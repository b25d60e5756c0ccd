package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/banshee-data/cloudsegment/internal/contour"
	"github.com/banshee-data/cloudsegment/internal/monitoring"
	"github.com/banshee-data/cloudsegment/internal/segtool"
	"github.com/banshee-data/cloudsegment/internal/storage/sqlite"
)

// PolylineStore loads and saves exported polylines.
type PolylineStore interface {
	segtool.PolylineSaver
	GetPolyline(id string) (*segtool.Polyline, error)
}

// Server implements SegmentationServiceServer on top of a segtool.Tool.
type Server struct {
	tool    *segtool.Tool
	counter *segtool.ExportCounter
	store   PolylineStore
}

var _ SegmentationServiceServer = (*Server)(nil)

// NewServer returns a server driving tool. store may be nil, in which case
// exports are not persisted and imports are unavailable.
func NewServer(tool *segtool.Tool, counter *segtool.ExportCounter, store PolylineStore) *Server {
	if counter == nil {
		counter = &segtool.ExportCounter{}
	}
	return &Server{tool: tool, counter: counter, store: store}
}

// toStruct converts v to a Struct through its JSON encoding.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// grpcError maps tool errors to status codes.
func grpcError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, segtool.ErrInvalidState):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, segtool.ErrOutOfMemory):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, sqlite.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (s *Server) segment(keepInside bool) (*structpb.Struct, error) {
	var err error
	if keepInside {
		_, err = s.tool.SegmentIn()
	} else {
		_, err = s.tool.SegmentOut()
	}
	if err != nil {
		monitoring.Logf("[gRPC] segment keep_inside=%t: %v", keepInside, err)
		return nil, grpcError(err)
	}
	return s.Status(context.Background(), &emptypb.Empty{})
}

// SegmentIn keeps the points inside the current contour.
func (s *Server) SegmentIn(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.segment(true)
}

// SegmentOut hides the points inside the current contour.
func (s *Server) SegmentOut(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.segment(false)
}

func (s *Server) Reset(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.tool.Reset()
	return &emptypb.Empty{}, nil
}

func (s *Server) Pause(ctx context.Context, req *wrapperspb.BoolValue) (*emptypb.Empty, error) {
	if err := s.tool.Pause(req.GetValue()); err != nil {
		return nil, grpcError(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) SetMode(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	mode, err := contour.ParseMode(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.tool.SetMode(mode); err != nil {
		return nil, grpcError(err)
	}
	return &emptypb.Empty{}, nil
}

// Status returns the tool status as a Struct.
func (s *Server) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st, err := toStruct(s.tool.Status())
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode status: %v", err))
	}
	return st, nil
}

// ExportPolyline exports the current contour; the request value selects 2D
// mode.
func (s *Server) ExportPolyline(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error) {
	exportCtx := segtool.ExportContext{
		Counter: s.counter,
		Mode2D:  req.GetValue(),
	}
	if s.store != nil {
		exportCtx.Saver = s.store
	}
	p, err := s.tool.ExportPolyline(exportCtx)
	if err != nil {
		monitoring.Logf("[gRPC] ExportPolyline: %v", err)
		return nil, grpcError(err)
	}
	out, err := toStruct(p)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode polyline: %v", err))
	}
	return out, nil
}

// ImportPolyline loads a stored polyline by ID and makes it the active
// contour.
func (s *Server) ImportPolyline(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if s.store == nil {
		return nil, status.Error(codes.Unimplemented, "no polyline store configured")
	}
	p, err := s.store.GetPolyline(req.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	if err := s.tool.ImportPolyline(p, false); err != nil {
		return nil, grpcError(err)
	}
	return s.Status(ctx, &emptypb.Empty{})
}
