package grpcserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/evaluator"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/render"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName    = "tzoverlap.v1.OverlapService"
	EvaluateMethod = "/" + ServiceName + "/Evaluate"
)

// OverlapServer is the service implementation registered under ServiceName.
type OverlapServer interface {
	Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// Messages are google.protobuf.Struct on both sides, so the descriptor is
// written by hand instead of generated.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OverlapServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tzoverlap/v1/overlap.proto",
}

func evaluateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OverlapServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: EvaluateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OverlapServer).Evaluate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type server struct {
	svc *evaluator.Service
}

func Register(registrar grpc.ServiceRegistrar, svc *evaluator.Service) {
	registrar.RegisterService(&serviceDesc, &server{svc: svc})
}

func (s *server) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	view, err := s.svc.Evaluate(ctx, requestFromStruct(in))
	if err != nil {
		if evaluator.IsInputError(err) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, "evaluation failed")
	}
	out, err := viewToStruct(view)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func requestFromStruct(in *structpb.Struct) evaluator.Request {
	field := func(name string) string {
		v, ok := in.GetFields()[name]
		if !ok {
			return ""
		}
		return v.GetStringValue()
	}
	return evaluator.Request{
		TZ1:    field("tz1"),
		Start1: field("start1"),
		End1:   field("end1"),
		TZ2:    field("tz2"),
		Start2: field("start2"),
		End2:   field("end2"),
	}
}

func requestToStruct(req evaluator.Request) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"tz1":    req.TZ1,
		"start1": req.Start1,
		"end1":   req.End1,
		"tz2":    req.TZ2,
		"start2": req.Start2,
		"end2":   req.End2,
	})
}

// The view travels through its JSON form so field names match the HTTP API.
func viewToStruct(v render.View) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func viewFromStruct(s *structpb.Struct) (render.View, error) {
	if s == nil {
		return render.View{}, errors.New("empty response")
	}
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return render.View{}, err
	}
	var v render.View
	if err := json.Unmarshal(raw, &v); err != nil {
		return render.View{}, err
	}
	return v, nil
}
