package anchor

import (
	"context"
	"encoding/json"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/corridor/canonical"
	"xdao.co/corridor/model"
)

// Client implements Target over the Anchor gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client AnchorClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

var _ Target = (*Client)(nil)

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewAnchorClient(cc), Timeout: 0}, nil
}

// NewClient wraps an existing connection, e.g. one backed by bufconn.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewAnchorClient(cc)}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) sealedTarget() {}

func (c *Client) Anchor(ctx context.Context, cm Commitment) (Receipt, error) {
	if c == nil || c.client == nil {
		return Receipt{}, ErrUnavailable
	}
	if err := cm.Validate(); err != nil {
		return Receipt{}, err
	}
	payload, err := canonical.Canonicalize(model.AnchorCommitment{
		CheckpointDigest: cm.CheckpointDigest,
		ChainID:          cm.ChainID,
		Height:           cm.Height,
	})
	if err != nil {
		return Receipt{}, err
	}

	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Anchor(ctx, wrapperspb.Bytes(payload.Encoded()))
	if err != nil {
		return Receipt{}, mapRPC(err)
	}
	var rec model.AnchorReceipt
	if err := json.Unmarshal(reply.GetValue(), &rec); err != nil {
		return Receipt{}, err
	}
	r := Receipt{
		ChainID:     rec.ChainID,
		TxID:        rec.TxID,
		BlockNumber: rec.BlockNumber,
		Status:      Status(rec.Status),
	}
	if !r.Status.Valid() {
		return Receipt{}, ErrUnavailable
	}
	return r, nil
}

func (c *Client) CheckStatus(ctx context.Context, txID string) (Status, error) {
	if c == nil || c.client == nil {
		return "", ErrUnavailable
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Status(ctx, wrapperspb.String(txID))
	if err != nil {
		return "", mapRPC(err)
	}
	st := Status(reply.GetValue())
	if !st.Valid() {
		return "", ErrUnavailable
	}
	return st, nil
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return ErrUnknownTx
	case codes.InvalidArgument:
		return ErrBadCommitment
	case codes.Unavailable:
		return ErrUnavailable
	default:
		// Best-effort: if the server sent a known anchor error message, preserve it.
		switch st.Message() {
		case ErrUnknownTx.Error():
			return ErrUnknownTx
		case ErrBadCommitment.Error():
			return ErrBadCommitment
		case ErrUnavailable.Error():
			return ErrUnavailable
		default:
			return err
		}
	}
}
