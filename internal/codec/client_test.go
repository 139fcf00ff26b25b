package codec

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/state"
)

// #region mock
type mockLinguisticService struct {
	LinguisticService

	lastLearn *structpb.Struct
	learnResp *structpb.Struct
	learnErr  error

	vocabResp *structpb.Struct
	vocabErr  error
}

func (m *mockLinguisticService) LearnSentence(_ context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	m.lastLearn = in
	return m.learnResp, m.learnErr
}

func (m *mockLinguisticService) VocabularySize(_ context.Context, _ *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	return m.vocabResp, m.vocabErr
}

func sizeResponse(t *testing.T, n int) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(map[string]any{"vocabulary_size": n})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// #endregion mock

// #region constructor-tests
func TestNewClientLazyDial(t *testing.T) {
	client, err := NewClient("localhost:0")
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	defer client.Close()
}

func TestCloseWithoutConnection(t *testing.T) {
	if err := NewClientWithService(&mockLinguisticService{}).Close(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

// #endregion constructor-tests

// #region learn-tests
func TestLearnSentence_Success(t *testing.T) {
	mock := &mockLinguisticService{learnResp: sizeResponse(t, 120)}
	c := NewClientWithService(mock)

	snap := state.New(time.Now(), 0).Snapshot(time.Now())
	if err := c.LearnSentence(context.Background(), "the sky is wide", snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fields := mock.lastLearn.GetFields()
	if fields["text"].GetStringValue() != "the sky is wide" {
		t.Fatalf("unexpected text field %v", fields["text"])
	}
	if fields["dominant_ego"].GetStringValue() != "Guardian" {
		t.Fatalf("unexpected dominant ego %v", fields["dominant_ego"])
	}
	if c.VocabularySize() != 120 {
		t.Fatalf("expected cached vocabulary 120, got %d", c.VocabularySize())
	}
}

func TestLearnSentence_Error(t *testing.T) {
	mock := &mockLinguisticService{learnErr: errors.New("unavailable")}
	c := NewClientWithService(mock)
	err := c.LearnSentence(context.Background(), "x", state.Snapshot{State: *state.New(time.Now(), 0)})
	if err == nil {
		t.Fatal("expected error")
	}
	if c.VocabularySize() != 0 {
		t.Fatal("failed call must not change the cached size")
	}
}

// #endregion learn-tests

// #region vocabulary-tests
func TestRefreshVocabulary(t *testing.T) {
	c := NewClientWithService(&mockLinguisticService{vocabResp: sizeResponse(t, 7)})
	n, err := c.RefreshVocabulary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 || c.VocabularySize() != 7 {
		t.Fatalf("expected 7, got %d / %d", n, c.VocabularySize())
	}
}

func TestRefreshVocabulary_Error(t *testing.T) {
	c := NewClientWithService(&mockLinguisticService{vocabErr: errors.New("down")})
	if _, err := c.RefreshVocabulary(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

// #endregion vocabulary-tests
