package codec

import (
	"context"
	"fmt"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region service
// Full method names on the language service.
const (
	MethodLearnSentence  = "/neuralseed.linguistic.v1.Linguistic/LearnSentence"
	MethodVocabularySize = "/neuralseed.linguistic.v1.Linguistic/VocabularySize"
)

// LinguisticService is the RPC surface of the language service. Requests and
// responses are structpb documents.
type LinguisticService interface {
	LearnSentence(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	VocabularySize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type linguisticServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLinguisticServiceClient binds the service to a connection.
func NewLinguisticServiceClient(cc grpc.ClientConnInterface) LinguisticService {
	return &linguisticServiceClient{cc: cc}
}

func (c *linguisticServiceClient) LearnSentence(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodLearnSentence, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *linguisticServiceClient) VocabularySize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodVocabularySize, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion service

// #region client-struct
// Client adapts the remote language service to the linguistic port. The
// vocabulary size is cached from the last response so reads stay cheap.
type Client struct {
	conn   *grpc.ClientConn
	client LinguisticService
	vocab  atomic.Int64
}

// #endregion client-struct

// #region constructor
// NewClient connects to the language service.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{
		conn:   conn,
		client: NewLinguisticServiceClient(conn),
	}, nil
}

// NewClientWithService creates a Client with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewClientWithService(svc LinguisticService) *Client {
	return &Client{client: svc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region learn
// LearnSentence sends text with a summary of the state it was heard in.
func (c *Client) LearnSentence(ctx context.Context, text string, snap state.Snapshot) error {
	req, err := structpb.NewStruct(map[string]any{
		"text":         text,
		"phase":        string(snap.Phase),
		"dominant_ego": snap.DominantEgo().Name,
		"chaos_index":  snap.ChaosIndex,
		"fitness":      snap.Fitness,
		"narrative":    snap.Narrative,
	})
	if err != nil {
		return fmt.Errorf("learn sentence request: %w", err)
	}
	resp, err := c.client.LearnSentence(ctx, req)
	if err != nil {
		return fmt.Errorf("learn sentence rpc: %w", err)
	}
	c.store(resp)
	return nil
}

// #endregion learn

// #region vocabulary
// VocabularySize returns the last size reported by the service.
func (c *Client) VocabularySize() int {
	return int(c.vocab.Load())
}

// RefreshVocabulary asks the service for its current vocabulary size.
func (c *Client) RefreshVocabulary(ctx context.Context) (int, error) {
	resp, err := c.client.VocabularySize(ctx, &structpb.Struct{})
	if err != nil {
		return 0, fmt.Errorf("vocabulary size rpc: %w", err)
	}
	c.store(resp)
	return c.VocabularySize(), nil
}

func (c *Client) store(resp *structpb.Struct) {
	if resp == nil {
		return
	}
	if v, ok := resp.GetFields()["vocabulary_size"]; ok {
		c.vocab.Store(int64(v.GetNumberValue()))
	}
}

// #endregion vocabulary
