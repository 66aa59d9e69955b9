package qdrant

import (
	"context"
	"errors"
	"math"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"

	domitem "github.com/kailas-cloud/lookbook/internal/domain/item"
)

func TestEnsureIndex_CreatesEuclidCollection(t *testing.T) {
	repo, _, cols := newTestRepo(t)
	cols.names = []string{"other"}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cols.created == nil {
		t.Fatal("Create not called")
	}
	params := cols.created.GetVectorsConfig().GetParams()
	if params.GetSize() != 3 || params.GetDistance() != pb.Distance_Euclid {
		t.Errorf("params = size %d distance %v", params.GetSize(), params.GetDistance())
	}
	if cols.created.GetCollectionName() != "lookbook_items" {
		t.Errorf("collection = %q", cols.created.GetCollectionName())
	}
}

func TestEnsureIndex_Existing(t *testing.T) {
	repo, _, cols := newTestRepo(t)
	cols.names = []string{"lookbook_items"}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cols.created != nil {
		t.Error("Create must not be called for an existing collection")
	}
}

func TestEnsureIndex_ListError(t *testing.T) {
	repo, _, cols := newTestRepo(t)
	cols.listErr = errors.New("unavailable")

	if err := repo.EnsureIndex(context.Background()); !errors.Is(err, cols.listErr) {
		t.Errorf("expected wrapped list error, got %v", err)
	}
}

func TestAdd_Payload(t *testing.T) {
	repo, pts, _ := newTestRepo(t)
	var got *pb.UpsertPoints
	pts.upsertFn = func(_ context.Context, in *pb.UpsertPoints) (*pb.PointsOperationResponse, error) {
		got = in
		return &pb.PointsOperationResponse{}, nil
	}

	it := domitem.New("7f0c2f7e-3c1a-4f7e-9a43-2b1e5f6d7a88", "코트, 네이비", map[string]string{
		domitem.MetaBrand:  "TM",
		domitem.MetaSeason: "",
	})
	if err := repo.Add(context.Background(), it, []float32{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got.GetPoints()) != 1 {
		t.Fatalf("upsert = %+v", got)
	}
	pt := got.GetPoints()[0]
	if pt.GetId().GetUuid() != it.ID() {
		t.Errorf("id = %q", pt.GetId().GetUuid())
	}
	if pt.GetPayload()["content"].GetStringValue() != "코트, 네이비" {
		t.Errorf("content = %v", pt.GetPayload()["content"])
	}
	if pt.GetPayload()[domitem.MetaBrand].GetStringValue() != "TM" {
		t.Errorf("brand = %v", pt.GetPayload()[domitem.MetaBrand])
	}
	if _, ok := pt.GetPayload()[domitem.MetaSeason]; ok {
		t.Error("empty metadata must not be stored")
	}
	if len(pt.GetVectors().GetVector().GetData()) != 3 {
		t.Errorf("vector = %v", pt.GetVectors().GetVector().GetData())
	}
}

func TestAdd_DimensionMismatch(t *testing.T) {
	repo, pts, _ := newTestRepo(t)
	pts.upsertFn = func(_ context.Context, _ *pb.UpsertPoints) (*pb.PointsOperationResponse, error) {
		t.Error("Upsert must not be called")
		return nil, nil
	}
	if err := repo.Add(context.Background(), domitem.New("x", "", nil), []float32{1}); err == nil {
		t.Fatal("expected dimension error")
	}
}

func TestQuery_SquaresEuclidScore(t *testing.T) {
	repo, pts, _ := newTestRepo(t)
	var got *pb.SearchPoints
	pts.searchFn = func(_ context.Context, in *pb.SearchPoints) (*pb.SearchResponse, error) {
		got = in
		return &pb.SearchResponse{Result: []*pb.ScoredPoint{
			{Id: uuidID("a"), Score: 0.5, Payload: payloadOf("content", "니트", domitem.MetaBrand, "TM")},
			{Id: uuidID("b"), Score: 1.2, Payload: payloadOf("content", "셔츠")},
		}}, nil
	}

	hits, err := repo.Query(context.Background(), []float32{1, 2, 3}, 5, map[string]string{domitem.MetaBrand: "TM"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.GetLimit() != 5 {
		t.Errorf("limit = %d", got.GetLimit())
	}
	must := got.GetFilter().GetMust()
	if len(must) != 1 || must[0].GetField().GetKey() != domitem.MetaBrand ||
		must[0].GetField().GetMatch().GetKeyword() != "TM" {
		t.Errorf("filter = %+v", got.GetFilter())
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID() != "a" || hits[0].Content() != "니트" || hits[0].Meta(domitem.MetaBrand) != "TM" {
		t.Errorf("hit[0] = %+v", hits[0])
	}
	if math.Abs(hits[0].Distance()-0.25) > 1e-6 {
		t.Errorf("distance = %v, want 0.25", hits[0].Distance())
	}
	if math.Abs(hits[1].Distance()-1.44) > 1e-5 {
		t.Errorf("distance = %v, want 1.44", hits[1].Distance())
	}
}

func TestQuery_NoFilter(t *testing.T) {
	repo, pts, _ := newTestRepo(t)
	pts.searchFn = func(_ context.Context, in *pb.SearchPoints) (*pb.SearchResponse, error) {
		if in.GetFilter() != nil {
			t.Errorf("expected no filter, got %+v", in.GetFilter())
		}
		return &pb.SearchResponse{}, nil
	}
	hits, err := repo.Query(context.Background(), []float32{1, 2, 3}, 3, map[string]string{domitem.MetaBrand: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestCorpus_Pages(t *testing.T) {
	repo, pts, _ := newTestRepo(t)
	calls := 0
	pts.scrollFn = func(_ context.Context, in *pb.ScrollPoints) (*pb.ScrollResponse, error) {
		calls++
		if calls == 1 {
			if in.GetOffset() != nil {
				t.Error("first page must not carry an offset")
			}
			return &pb.ScrollResponse{
				Result:         []*pb.RetrievedPoint{{Id: uuidID("a"), Payload: payloadOf("content", "코트")}},
				NextPageOffset: uuidID("b"),
			}, nil
		}
		if in.GetOffset().GetUuid() != "b" {
			t.Errorf("offset = %v", in.GetOffset())
		}
		return &pb.ScrollResponse{
			Result: []*pb.RetrievedPoint{
				{Id: uuidID("b"), Payload: payloadOf("content", "니트")},
				{Id: uuidID("c"), Payload: payloadOf(domitem.MetaBrand, "TM")},
			},
		}, nil
	}

	corpus, err := repo.Corpus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("scroll calls = %d, want 2", calls)
	}
	if len(corpus) != 2 || corpus[0] != "코트" || corpus[1] != "니트" {
		t.Errorf("corpus = %v", corpus)
	}
}

func TestItems(t *testing.T) {
	repo, pts, _ := newTestRepo(t)
	pts.scrollFn = func(_ context.Context, _ *pb.ScrollPoints) (*pb.ScrollResponse, error) {
		return &pb.ScrollResponse{Result: []*pb.RetrievedPoint{
			{Id: uuidID("a"), Payload: payloadOf("content", "코트", domitem.MetaSeason, "24FW")},
			{Id: &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: 42}}, Payload: payloadOf("content", "셔츠")},
		}}, nil
	}

	items, err := repo.Items(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID() != "a" || items[0].Tags() != "코트" || items[0].Meta(domitem.MetaSeason) != "24FW" {
		t.Errorf("item[0] = %+v", items[0])
	}
	if items[1].ID() != "42" {
		t.Errorf("numeric id = %q", items[1].ID())
	}
}

func TestCount(t *testing.T) {
	repo, pts, _ := newTestRepo(t)
	pts.countFn = func(_ context.Context, in *pb.CountPoints) (*pb.CountResponse, error) {
		if !in.GetExact() {
			t.Error("expected exact count")
		}
		return &pb.CountResponse{Result: &pb.CountResult{Count: 12}}, nil
	}
	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 12 {
		t.Errorf("Count() = %d, want 12", n)
	}
}

func TestPing(t *testing.T) {
	repo := newRepo(&fakePoints{}, &fakeCollections{}, fakeHealth{err: errors.New("down")}, Config{})
	if err := repo.Ping(context.Background()); err == nil {
		t.Fatal("expected health error")
	}
	repo = newRepo(&fakePoints{}, &fakeCollections{}, fakeHealth{}, Config{})
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Errorf("Close without conn = %v", err)
	}
}

func TestDial_RequiresAddr(t *testing.T) {
	if _, err := Dial(Config{}); err == nil {
		t.Fatal("expected error for empty addr")
	}
}
