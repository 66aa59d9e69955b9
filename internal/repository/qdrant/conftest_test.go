package qdrant

import (
	"context"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

type fakePoints struct {
	upsertFn func(ctx context.Context, in *pb.UpsertPoints) (*pb.PointsOperationResponse, error)
	searchFn func(ctx context.Context, in *pb.SearchPoints) (*pb.SearchResponse, error)
	scrollFn func(ctx context.Context, in *pb.ScrollPoints) (*pb.ScrollResponse, error)
	countFn  func(ctx context.Context, in *pb.CountPoints) (*pb.CountResponse, error)
}

func (f *fakePoints) Upsert(ctx context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, in)
	}
	return &pb.PointsOperationResponse{}, nil
}

func (f *fakePoints) Search(ctx context.Context, in *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	if f.searchFn != nil {
		return f.searchFn(ctx, in)
	}
	return &pb.SearchResponse{}, nil
}

func (f *fakePoints) Scroll(ctx context.Context, in *pb.ScrollPoints, _ ...grpc.CallOption) (*pb.ScrollResponse, error) {
	if f.scrollFn != nil {
		return f.scrollFn(ctx, in)
	}
	return &pb.ScrollResponse{}, nil
}

func (f *fakePoints) Count(ctx context.Context, in *pb.CountPoints, _ ...grpc.CallOption) (*pb.CountResponse, error) {
	if f.countFn != nil {
		return f.countFn(ctx, in)
	}
	return &pb.CountResponse{Result: &pb.CountResult{}}, nil
}

type fakeCollections struct {
	names    []string
	listErr  error
	created  *pb.CreateCollection
	createFn func(in *pb.CreateCollection) error
}

func (f *fakeCollections) List(_ context.Context, _ *pb.ListCollectionsRequest, _ ...grpc.CallOption) (*pb.ListCollectionsResponse, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	resp := &pb.ListCollectionsResponse{}
	for _, n := range f.names {
		resp.Collections = append(resp.Collections, &pb.CollectionDescription{Name: n})
	}
	return resp, nil
}

func (f *fakeCollections) Create(_ context.Context, in *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	f.created = in
	if f.createFn != nil {
		if err := f.createFn(in); err != nil {
			return nil, err
		}
	}
	return &pb.CollectionOperationResponse{Result: true}, nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(_ context.Context, _ *pb.HealthCheckRequest, _ ...grpc.CallOption) (*pb.HealthCheckReply, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &pb.HealthCheckReply{Title: "qdrant", Version: "1.16.2"}, nil
}

func newTestRepo(t *testing.T) (*Repo, *fakePoints, *fakeCollections) {
	t.Helper()
	p := &fakePoints{}
	c := &fakeCollections{}
	return newRepo(p, c, fakeHealth{}, Config{Collection: "lookbook_items", Dimensions: 3}), p, c
}

func payloadOf(kv ...string) map[string]*pb.Value {
	m := make(map[string]*pb.Value, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = stringValue(kv[i+1])
	}
	return m
}

func uuidID(s string) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: s}}
}
