package repository

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
)

const (
	defaultVectorDimension = 1536

	// scrollPageSize bounds one scroll round-trip when walking a
	// channel's records.
	scrollPageSize = 256
)

// VideoStoreConfig holds configuration for the qdrant connection.
type VideoStoreConfig struct {
	Host            string
	Port            int
	Collection      string
	APIKey          string // Qdrant Cloud API key (enables TLS automatically)
	UseTLS          bool   // Explicitly enable TLS without API key
	VectorDimension int

	// RecreateOnMismatch drops and recreates the collection when its
	// vector size does not match VectorDimension. The collection is
	// rebuildable cache state, not a source of truth.
	RecreateOnMismatch bool
}

// apiKeyInterceptor creates a unary interceptor that adds the API key to metadata
func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// VideoVectorRepository is the vector store adapter: keyed upserts,
// filtered lookups and deletes, and nearest-neighbor search over the
// indexed video records.
type VideoVectorRepository struct {
	conn               *grpc.ClientConn
	pointsClient       pb.PointsClient
	collectClient      pb.CollectionsClient
	collectionName     string
	vectorDimension    int
	recreateOnMismatch bool
}

// NewVideoVectorRepository creates a new VideoVectorRepository.
// Supports both local qdrant (insecure) and Qdrant Cloud (TLS + API key).
func NewVideoVectorRepository(cfg *VideoStoreConfig) (*VideoVectorRepository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	vectorDimension := cfg.VectorDimension
	if vectorDimension <= 0 {
		vectorDimension = defaultVectorDimension
	}

	var opts []grpc.DialOption

	useTLS := cfg.UseTLS || cfg.APIKey != ""
	if useTLS {
		tlsConfig := &tls.Config{
			MinVersion: tls.VersionTLS13,
		}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
		if cfg.APIKey != "" {
			opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
		}
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &VideoVectorRepository{
		conn:               conn,
		pointsClient:       pb.NewPointsClient(conn),
		collectClient:      pb.NewCollectionsClient(conn),
		collectionName:     cfg.Collection,
		vectorDimension:    vectorDimension,
		recreateOnMismatch: cfg.RecreateOnMismatch,
	}, nil
}

// Close closes the gRPC connection.
func (r *VideoVectorRepository) Close() error {
	return r.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist and
// verifies the vector dimension when it does. A mismatch is an error
// unless RecreateOnMismatch is set, in which case the collection is
// dropped and rebuilt empty.
func (r *VideoVectorRepository) EnsureCollection(ctx context.Context) error {
	info, err := r.collectClient.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collectionName,
	})
	if err == nil {
		size, ok := collectionVectorSize(info.GetResult())
		if !ok || size == uint64(r.vectorDimension) {
			return nil
		}
		if !r.recreateOnMismatch {
			return fmt.Errorf("collection %s has vector size %d, expected %d", r.collectionName, size, r.vectorDimension)
		}
		if _, err := r.collectClient.Delete(ctx, &pb.DeleteCollection{
			CollectionName: r.collectionName,
		}); err != nil {
			return fmt.Errorf("failed to drop mismatched collection: %w", err)
		}
	}

	_, err = r.collectClient.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collectionName,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(r.vectorDimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
		HnswConfig: &pb.HnswConfigDiff{
			M:                 optionalUint64(16),
			EfConstruct:       optionalUint64(128),
			FullScanThreshold: optionalUint64(10000),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

func optionalUint64(v uint64) *uint64 {
	return &v
}

func optionalUint32(v uint32) *uint32 {
	return &v
}

func collectionVectorSize(info *pb.CollectionInfo) (uint64, bool) {
	if info == nil {
		return 0, false
	}

	config := info.GetConfig()
	if config == nil {
		return 0, false
	}

	params := config.GetParams()
	if params == nil {
		return 0, false
	}

	vectors := params.GetVectorsConfig()
	if vectors == nil {
		return 0, false
	}

	if single := vectors.GetParams(); single != nil {
		if size := single.GetSize(); size > 0 {
			return size, true
		}
	}

	return 0, false
}

// pointIDForVideo derives the qdrant point ID from a video id. The
// mapping is deterministic so re-indexing the same video always hits
// the same point (idempotent upsert).
func pointIDForVideo(videoID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://youtube.com/watch?v="+videoID)).String()
}

// VideoPayload is the payload stored with each vector. Optional fields
// are omitted from the stored payload when empty; feed-discovered
// records legitimately lack several of them.
type VideoPayload struct {
	VideoID      string `json:"video_id"`
	Document     string `json:"document"`
	VideoTitle   string `json:"video_title"`
	ChannelID    string `json:"channel_id"`
	ChannelTitle string `json:"channel_title"`
	ChannelURL   string `json:"channel_url"`
	Link         string `json:"link"`
	PublishedAt  string `json:"published_at"`
}

// PayloadForVideo builds the stored payload from a video record and
// its document text.
func PayloadForVideo(v domain.Video, document string) VideoPayload {
	p := VideoPayload{
		VideoID:      v.VideoID,
		Document:     document,
		VideoTitle:   v.Title,
		ChannelID:    v.ChannelID,
		ChannelTitle: v.ChannelTitle,
		ChannelURL:   v.ChannelURL,
		Link:         v.Link,
	}
	if v.PublishedAt != nil {
		p.PublishedAt = v.PublishedAt.Format(time.RFC3339)
	}
	return p
}

func payloadValues(p VideoPayload) map[string]*pb.Value {
	values := map[string]*pb.Value{
		"video_id": stringValue(p.VideoID),
		"document": stringValue(p.Document),
	}
	setIfPresent := func(key, val string) {
		if val != "" {
			values[key] = stringValue(val)
		}
	}
	setIfPresent("video_title", p.VideoTitle)
	setIfPresent("channel_id", p.ChannelID)
	setIfPresent("channel_title", p.ChannelTitle)
	setIfPresent("channel_url", p.ChannelURL)
	setIfPresent("link", p.Link)
	setIfPresent("published_at", p.PublishedAt)
	return values
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func parsePayload(payload map[string]*pb.Value) *VideoPayload {
	if payload == nil {
		return nil
	}

	p := &VideoPayload{}
	get := func(key string) string {
		if v, ok := payload[key]; ok {
			return v.GetStringValue()
		}
		return ""
	}
	p.VideoID = get("video_id")
	p.Document = get("document")
	p.VideoTitle = get("video_title")
	if p.VideoTitle == "" {
		// Records written before the explicit title field existed.
		p.VideoTitle = get("title")
	}
	p.ChannelID = get("channel_id")
	p.ChannelTitle = get("channel_title")
	p.ChannelURL = get("channel_url")
	p.Link = get("link")
	p.PublishedAt = get("published_at")

	return p
}

// ValidateBatch enforces the parallel-array invariant every upsert
// batch must satisfy.
func ValidateBatch(ids, documents []string, embeddings [][]float32, payloads []VideoPayload) error {
	if len(ids) != len(documents) || len(ids) != len(embeddings) || len(ids) != len(payloads) {
		return fmt.Errorf("batch arrays must have equal length: ids=%d documents=%d embeddings=%d payloads=%d",
			len(ids), len(documents), len(embeddings), len(payloads))
	}
	return nil
}

// buildPoints assembles the point structs for one batch. The stored
// payload carries the embedded document text; the caller's payload
// slice is left untouched.
func buildPoints(ids, documents []string, embeddings [][]float32, payloads []VideoPayload) []*pb.PointStruct {
	points := make([]*pb.PointStruct, len(ids))
	for i, id := range ids {
		payload := payloads[i]
		payload.Document = documents[i]
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: pointIDForVideo(id)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: embeddings[i]},
				},
			},
			Payload: payloadValues(payload),
		}
	}
	return points
}

// UpsertBatch writes one batch of records in a single call. Re-adding
// an existing video id overwrites its point rather than duplicating it.
func (r *VideoVectorRepository) UpsertBatch(ctx context.Context, ids, documents []string, embeddings [][]float32, payloads []VideoPayload) error {
	if err := ValidateBatch(ids, documents, embeddings, payloads); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	points := buildPoints(ids, documents, embeddings, payloads)

	_, err := r.pointsClient.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

func channelFilter(channelID string) *pb.Filter {
	return &pb.Filter{
		Must: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: "channel_id",
						Match: &pb.Match{
							MatchValue: &pb.Match_Keyword{Keyword: channelID},
						},
					},
				},
			},
		},
	}
}

func (r *VideoVectorRepository) scrollChannel(ctx context.Context, channelID string, includeFields []string, withVectors bool, visit func(*pb.RetrievedPoint)) error {
	var payloadSelector *pb.WithPayloadSelector
	if len(includeFields) > 0 {
		payloadSelector = &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Include{
				Include: &pb.PayloadIncludeSelector{Fields: includeFields},
			},
		}
	} else {
		payloadSelector = &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		}
	}

	var vectorsSelector *pb.WithVectorsSelector
	if withVectors {
		vectorsSelector = &pb.WithVectorsSelector{
			SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true},
		}
	}

	var filter *pb.Filter
	if channelID != "" {
		filter = channelFilter(channelID)
	}

	var offset *pb.PointId
	for {
		resp, err := r.pointsClient.Scroll(ctx, &pb.ScrollPoints{
			CollectionName: r.collectionName,
			Filter:         filter,
			Limit:          optionalUint32(scrollPageSize),
			Offset:         offset,
			WithPayload:    payloadSelector,
			WithVectors:    vectorsSelector,
		})
		if err != nil {
			return fmt.Errorf("failed to scroll points: %w", err)
		}

		for _, point := range resp.GetResult() {
			visit(point)
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			return nil
		}
	}
}

// GetChannelVideoIDs returns the set of video ids currently indexed
// for one channel. Used by the poller's set-difference.
func (r *VideoVectorRepository) GetChannelVideoIDs(ctx context.Context, channelID string) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	err := r.scrollChannel(ctx, channelID, []string{"video_id"}, false, func(point *pb.RetrievedPoint) {
		if p := parsePayload(point.GetPayload()); p != nil && p.VideoID != "" {
			ids[p.VideoID] = struct{}{}
		}
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetChannelVideos returns one page of a channel's indexed records.
func (r *VideoVectorRepository) GetChannelVideos(ctx context.Context, channelID string, limit, offset int) ([]VideoPayload, error) {
	var all []VideoPayload
	err := r.scrollChannel(ctx, channelID, nil, false, func(point *pb.RetrievedPoint) {
		if p := parsePayload(point.GetPayload()); p != nil {
			all = append(all, *p)
		}
	})
	if err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []VideoPayload{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

// ListChannels derives the known channels by grouping stored payloads.
// There is no separate channel table; a channel exists iff at least one
// of its videos is indexed.
func (r *VideoVectorRepository) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	counts := make(map[string]*domain.Channel)
	var order []string

	err := r.scrollChannel(ctx, "", []string{"channel_id", "channel_title"}, false, func(point *pb.RetrievedPoint) {
		p := parsePayload(point.GetPayload())
		if p == nil || p.ChannelID == "" {
			return
		}
		ch, ok := counts[p.ChannelID]
		if !ok {
			ch = &domain.Channel{ChannelID: p.ChannelID, ChannelTitle: "Unknown Channel"}
			counts[p.ChannelID] = ch
			order = append(order, p.ChannelID)
		}
		ch.VideoCount++
		if p.ChannelTitle != "" {
			ch.ChannelTitle = p.ChannelTitle
		}
	})
	if err != nil {
		return nil, err
	}

	channels := make([]domain.Channel, 0, len(order))
	for _, id := range order {
		channels = append(channels, *counts[id])
	}
	return channels, nil
}

// CountChannel returns the number of records stored for one channel.
func (r *VideoVectorRepository) CountChannel(ctx context.Context, channelID string) (int, error) {
	exact := true
	resp, err := r.pointsClient.Count(ctx, &pb.CountPoints{
		CollectionName: r.collectionName,
		Filter:         channelFilter(channelID),
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// DeleteChannel removes every record attributed to the channel.
// Records of other channels are untouched.
func (r *VideoVectorRepository) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := r.pointsClient.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collectionName,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: channelFilter(channelID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete channel points: %w", err)
	}
	return nil
}

// SearchResult represents one nearest-neighbor hit.
type SearchResult struct {
	Score   float32
	Payload *VideoPayload
}

// Search performs a vector similarity search. When channelID is
// non-empty the candidate set is restricted to that channel before
// ranking, so topK reflects the restricted population.
func (r *VideoVectorRepository) Search(ctx context.Context, vector []float32, topK int, channelID string) ([]SearchResult, error) {
	req := &pb.SearchPoints{
		CollectionName: r.collectionName,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if channelID != "" {
		req.Filter = channelFilter(channelID)
	}

	resp, err := r.pointsClient.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, len(resp.Result))
	for i, scored := range resp.Result {
		results[i] = SearchResult{
			Score:   scored.Score,
			Payload: parsePayload(scored.Payload),
		}
	}

	return results, nil
}

// ExportRecord is one record of a channel dump: the stored document,
// payload, and the embedding as a plain float slice.
type ExportRecord struct {
	ID        string       `json:"id"`
	Document  string       `json:"document"`
	Metadata  VideoPayload `json:"metadata"`
	Embedding []float32    `json:"embedding"`
}

// ExportChannel dumps every record of one channel, embeddings included.
func (r *VideoVectorRepository) ExportChannel(ctx context.Context, channelID string) ([]ExportRecord, error) {
	var records []ExportRecord
	err := r.scrollChannel(ctx, channelID, nil, true, func(point *pb.RetrievedPoint) {
		p := parsePayload(point.GetPayload())
		if p == nil {
			return
		}
		rec := ExportRecord{
			ID:       p.VideoID,
			Document: p.Document,
			Metadata: *p,
		}
		if vectors := point.GetVectors(); vectors != nil {
			if v := vectors.GetVector(); v != nil {
				rec.Embedding = v.GetData()
			}
		}
		records = append(records, rec)
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
