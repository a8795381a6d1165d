package grpcserver

import (
	"context"

	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/evaluator"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/render"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote OverlapService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Evaluate(ctx context.Context, req evaluator.Request) (render.View, error) {
	in, err := requestToStruct(req)
	if err != nil {
		return render.View{}, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, EvaluateMethod, in, out); err != nil {
		return render.View{}, err
	}
	return viewFromStruct(out)
}
