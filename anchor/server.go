package anchor

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/corridor/canonical"
	"xdao.co/corridor/model"
)

// Server exposes a Target over the Anchor gRPC service.
type Server struct {
	UnimplementedAnchorServer
	Target Target
}

func (s *Server) Anchor(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Target == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing target")
	}
	var rec model.AnchorCommitment
	if err := json.Unmarshal(in.GetValue(), &rec); err != nil {
		return nil, status.Error(codes.InvalidArgument, ErrBadCommitment.Error())
	}
	c := Commitment{
		CheckpointDigest: rec.CheckpointDigest,
		ChainID:          rec.ChainID,
		Height:           rec.Height,
	}
	r, err := s.Target.Anchor(ctx, c)
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := canonical.Canonicalize(model.AnchorReceipt{
		ChainID:     r.ChainID,
		TxID:        r.TxID,
		BlockNumber: r.BlockNumber,
		Status:      string(r.Status),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "receipt serialization failed")
	}
	return wrapperspb.Bytes(out.Encoded()), nil
}

func (s *Server) Status(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.Target == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing target")
	}
	st, err := s.Target.CheckStatus(ctx, in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.String(string(st)), nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case err == ErrUnknownTx:
		return status.Error(codes.NotFound, err.Error())
	case err == ErrBadCommitment:
		return status.Error(codes.InvalidArgument, err.Error())
	case err == ErrUnavailable:
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
