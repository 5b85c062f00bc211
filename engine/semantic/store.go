// Package semantic owns all Qdrant operations. The store holds the two
// catalog collections (products, faqs) as named partitions; entries are
// written by the ingestion pipeline and read by the chat service.
package semantic

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// VectorStore wraps the Qdrant gRPC clients. It is safe for concurrent
// use; the only writer is the offline ingestion pipeline.
type VectorStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
}

// New creates a VectorStore connected to Qdrant at the given gRPC address.
func New(addr string) (*VectorStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &VectorStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
	}, nil
}

// Close closes the underlying gRPC connection.
func (v *VectorStore) Close() error {
	return v.conn.Close()
}

// EnsureCollection creates the named collection if it doesn't exist.
// Idempotent: an existing collection is left untouched.
func (v *VectorStore) EnsureCollection(ctx context.Context, name string, dims int) error {
	list, err := v.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == name {
			return nil
		}
	}

	_, err = v.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", name, err)
	}
	return nil
}

// Upsert stores records into the named collection, overwriting entries
// with the same point id. IDs are deterministic, so re-ingesting the same
// dataset replaces rather than appends.
func (v *VectorStore) Upsert(ctx context.Context, collection string, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Embedding},
				},
			},
			Payload: toPayload(r.Payload),
		}
	}

	wait := true
	_, err := v.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %d points into %s: %w", len(records), collection, err)
	}
	return nil
}

// Search performs k-NN similarity search against the named collection and
// returns up to topK hits in the store's ranking order.
func (v *VectorStore) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]SearchResult, error) {
	resp, err := v.points.Search(ctx, &pb.SearchPoints{
		CollectionName: collection,
		Vector:         embedding,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: search %s: %w", collection, err)
	}

	results := make([]SearchResult, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		results[i] = SearchResult{
			ID:      r.GetId().GetUuid(),
			Score:   r.GetScore(),
			Payload: fromPayload(r.GetPayload()),
		}
	}
	return results, nil
}

// Count returns the exact number of points in the named collection.
func (v *VectorStore) Count(ctx context.Context, collection string) (int, error) {
	exact := true
	resp, err := v.points.Count(ctx, &pb.CountPoints{
		CollectionName: collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("semantic: count %s: %w", collection, err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// toPayload converts a generic payload map into Qdrant values.
func toPayload(m map[string]any) map[string]*pb.Value {
	payload := make(map[string]*pb.Value, len(m))
	for k, val := range m {
		switch tv := val.(type) {
		case string:
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
		case int:
			payload[k] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
		case int64:
			payload[k] = &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
		case float64:
			payload[k] = &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
		case bool:
			payload[k] = &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
		default:
			payload[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(tv)}}
		}
	}
	return payload
}

// fromPayload flattens Qdrant values back into strings for display.
func fromPayload(p map[string]*pb.Value) map[string]string {
	out := make(map[string]string, len(p))
	for k, val := range p {
		switch kind := val.GetKind().(type) {
		case *pb.Value_StringValue:
			out[k] = kind.StringValue
		case *pb.Value_IntegerValue:
			out[k] = fmt.Sprintf("%d", kind.IntegerValue)
		case *pb.Value_DoubleValue:
			out[k] = fmt.Sprintf("%g", kind.DoubleValue)
		case *pb.Value_BoolValue:
			out[k] = fmt.Sprintf("%t", kind.BoolValue)
		default:
			out[k] = val.String()
		}
	}
	return out
}
