// Package qdrant stores tagged items in a Qdrant collection over gRPC.
package qdrant

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	domitem "github.com/kailas-cloud/lookbook/internal/domain/item"
	"github.com/kailas-cloud/lookbook/internal/domain/search/hit"
)

const (
	payloadContent = "content"
	scrollPageSize = 256
)

type pointsClient interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
	Scroll(ctx context.Context, in *pb.ScrollPoints, opts ...grpc.CallOption) (*pb.ScrollResponse, error)
	Count(ctx context.Context, in *pb.CountPoints, opts ...grpc.CallOption) (*pb.CountResponse, error)
}

type collectionsClient interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

type healthClient interface {
	HealthCheck(ctx context.Context, in *pb.HealthCheckRequest, opts ...grpc.CallOption) (*pb.HealthCheckReply, error)
}

// Config holds connection and collection parameters.
type Config struct {
	Addr       string // host:port of the gRPC endpoint, usually :6334
	APIKey     string
	Collection string
	Dimensions int
}

// Repo implements the vector store on a Qdrant collection.
type Repo struct {
	conn        *grpc.ClientConn
	points      pointsClient
	collections collectionsClient
	health      healthClient
	collection  string
	dimensions  int
}

// Dial connects to Qdrant. The connection is lazy; the first RPC establishes it.
func Dial(cfg Config) (*Repo, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("qdrant addr is required")
	}
	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}
	conn, err := grpc.NewClient(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	r := newRepo(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), pb.NewQdrantClient(conn), cfg)
	r.conn = conn
	return r, nil
}

func newRepo(p pointsClient, c collectionsClient, h healthClient, cfg Config) *Repo {
	return &Repo{
		points:      p,
		collections: c,
		health:      h,
		collection:  cfg.Collection,
		dimensions:  cfg.Dimensions,
	}
}

func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context, method string, req, reply any,
		cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption,
	) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Close releases the gRPC connection.
func (r *Repo) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close() //nolint:wrapcheck // shutdown path
}

// Ping checks Qdrant availability.
func (r *Repo) Ping(ctx context.Context) error {
	if _, err := r.health.HealthCheck(ctx, &pb.HealthCheckRequest{}); err != nil {
		return fmt.Errorf("qdrant health: %w", err)
	}
	return nil
}

// EnsureIndex creates the collection with Euclid distance if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	resp, err := r.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, c := range resp.GetCollections() {
		if c.GetName() == r.collection {
			return nil
		}
	}

	_, err = r.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{Config: &pb.VectorsConfig_Params{Params: &pb.VectorParams{
			Size:     uint64(r.dimensions),
			Distance: pb.Distance_Euclid,
		}}},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", r.collection, err)
	}
	return nil
}

// Add upserts an item. The item id must be a UUID.
func (r *Repo) Add(ctx context.Context, it domitem.Item, vector []float32) error {
	if r.dimensions > 0 && len(vector) != r.dimensions {
		return fmt.Errorf("vector has %d dimensions, collection expects %d", len(vector), r.dimensions)
	}
	payload := map[string]*pb.Value{
		payloadContent: stringValue(it.Tags()),
	}
	for k, v := range it.Metadata() {
		if v != "" {
			payload[k] = stringValue(v)
		}
	}

	wait := true
	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: it.ID()}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vector}}},
			Payload: payload,
		}},
	})
	if err != nil {
		return fmt.Errorf("upsert %s: %w", it.ID(), err)
	}
	return nil
}

// Query returns the k nearest items. Qdrant reports plain Euclidean distance; it is squared
// here so both backends share the FT L2 convention.
func (r *Repo) Query(ctx context.Context, vector []float32, k int, filters map[string]string) ([]hit.SearchHit, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         vector,
		Limit:          uint64(k),
		Filter:         buildFilter(filters),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.collection, err)
	}

	hits := make([]hit.SearchHit, 0, len(resp.GetResult()))
	for _, pt := range resp.GetResult() {
		d := float64(pt.GetScore())
		content, meta := splitPayload(pt.GetPayload())
		hits = append(hits, hit.New(pointID(pt.GetId()), content, meta, d*d))
	}
	return hits, nil
}

// Corpus returns the stored tag strings of every item.
func (r *Repo) Corpus(ctx context.Context) ([]any, error) {
	var out []any
	err := r.scroll(ctx, func(pt *pb.RetrievedPoint) {
		if v, ok := pt.GetPayload()[payloadContent]; ok {
			out = append(out, v.GetStringValue())
		}
	})
	return out, err
}

// Items returns every stored item in no particular order.
func (r *Repo) Items(ctx context.Context) ([]domitem.Item, error) {
	var out []domitem.Item
	err := r.scroll(ctx, func(pt *pb.RetrievedPoint) {
		content, meta := splitPayload(pt.GetPayload())
		out = append(out, domitem.New(pointID(pt.GetId()), content, meta))
	})
	return out, err
}

// Count returns the exact number of stored items.
func (r *Repo) Count(ctx context.Context) (int, error) {
	exact := true
	resp, err := r.points.Count(ctx, &pb.CountPoints{CollectionName: r.collection, Exact: &exact})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", r.collection, err)
	}
	return int(resp.GetResult().GetCount()), nil
}

func (r *Repo) scroll(ctx context.Context, fn func(*pb.RetrievedPoint)) error {
	limit := uint32(scrollPageSize)
	var offset *pb.PointId
	for {
		resp, err := r.points.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: r.collection,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		})
		if err != nil {
			return fmt.Errorf("scroll %s: %w", r.collection, err)
		}
		for _, pt := range resp.GetResult() {
			fn(pt)
		}
		offset = resp.GetNextPageOffset()
		if offset == nil {
			return nil
		}
	}
}

func buildFilter(filters map[string]string) *pb.Filter {
	var must []*pb.Condition
	for k, v := range filters {
		if v == "" {
			continue
		}
		must = append(must, &pb.Condition{ConditionOneOf: &pb.Condition_Field{Field: &pb.FieldCondition{
			Key:   k,
			Match: &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: v}},
		}}})
	}
	if len(must) == 0 {
		return nil
	}
	return &pb.Filter{Must: must}
}

func splitPayload(payload map[string]*pb.Value) (string, map[string]string) {
	var content string
	meta := make(map[string]string, len(payload))
	for k, v := range payload {
		if k == payloadContent {
			content = v.GetStringValue()
			continue
		}
		meta[k] = v.GetStringValue()
	}
	return content, meta
}

func pointID(id *pb.PointId) string {
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprintf("%d", id.GetNum())
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}
