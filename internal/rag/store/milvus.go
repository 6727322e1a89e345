package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/findex-io/findex/pkg/component/milvus"
)

// MilvusStore 实现基于 Milvus 的向量存储，绑定到单个集合。
type MilvusStore struct {
	client     *milvus.Client
	collection string
	dimension  int
}

// NewMilvusStore 创建 Milvus 存储实例。
func NewMilvusStore(client *milvus.Client, collection string, dimension int) *MilvusStore {
	return &MilvusStore{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}
}

// EnsureCollection 创建财报文档集合和 IVF_FLAT/COSINE 索引。
func (s *MilvusStore) EnsureCollection(ctx context.Context) error {
	schema := &milvus.CollectionSchema{
		Name:        s.collection,
		Description: "Financial document chunks for question answering",
		Dimension:   s.dimension,
		MetricType:  entity.COSINE,
		MetaFields: []milvus.MetaField{
			{Name: "chunk_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "content", DataType: entity.FieldTypeVarChar, MaxLen: 65535},
			{Name: "company", DataType: entity.FieldTypeVarChar, MaxLen: 100},
			{Name: "year", DataType: entity.FieldTypeInt64},
			{Name: "quarter", DataType: entity.FieldTypeVarChar, MaxLen: 10},
			{Name: "source", DataType: entity.FieldTypeVarChar, MaxLen: 255},
			{Name: "page", DataType: entity.FieldTypeInt64},
			{Name: "doc_type", DataType: entity.FieldTypeVarChar, MaxLen: 50},
			{Name: "chunk_size", DataType: entity.FieldTypeInt64},
		},
	}
	return s.client.EnsureCollection(ctx, schema)
}

// insertBatchSize 单次写入 Milvus 的文档块上限。
const insertBatchSize = 100

// insertBatches 把文档块按固定大小切分，保持原有顺序。
func insertBatches(chunks []*Chunk, size int) [][]*Chunk {
	if size <= 0 {
		return [][]*Chunk{chunks}
	}
	batches := make([][]*Chunk, 0, (len(chunks)+size-1)/size)
	for start := 0; start < len(chunks); start += size {
		end := start + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}
	return batches
}

func buildInsertData(chunks []*Chunk) *milvus.InsertData {
	embeddings := make([][]float32, len(chunks))
	metadata := map[string][]any{
		"chunk_id":   make([]any, len(chunks)),
		"content":    make([]any, len(chunks)),
		"company":    make([]any, len(chunks)),
		"year":       make([]any, len(chunks)),
		"quarter":    make([]any, len(chunks)),
		"source":     make([]any, len(chunks)),
		"page":       make([]any, len(chunks)),
		"doc_type":   make([]any, len(chunks)),
		"chunk_size": make([]any, len(chunks)),
	}

	for i, chunk := range chunks {
		embeddings[i] = chunk.Embedding
		metadata["chunk_id"][i] = chunk.ID
		metadata["content"][i] = chunk.Content
		metadata["company"][i] = chunk.Metadata.Company
		metadata["year"][i] = int64(chunk.Metadata.Year)
		metadata["quarter"][i] = chunk.Metadata.Quarter
		metadata["source"][i] = chunk.Metadata.Source
		metadata["page"][i] = int64(chunk.Metadata.Page)
		metadata["doc_type"][i] = chunk.Metadata.DocType
		metadata["chunk_size"][i] = int64(chunk.Metadata.ChunkSize)
	}

	return &milvus.InsertData{
		Embeddings: embeddings,
		Metadata:   metadata,
	}
}

// Insert 分批写入文档块到 Milvus，任一批失败立即中止并返回错误。
func (s *MilvusStore) Insert(ctx context.Context, chunks []*Chunk) ([]int64, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(chunks))
	for _, batch := range insertBatches(chunks, insertBatchSize) {
		batchIDs, err := s.client.Insert(ctx, s.collection, buildInsertData(batch))
		if err != nil {
			return nil, fmt.Errorf("failed to insert into milvus: %w", err)
		}
		ids = append(ids, batchIDs...)
	}

	return ids, nil
}

var outputFields = []string{"chunk_id", "content", "company", "year", "quarter", "source", "page", "doc_type", "chunk_size"}

// Search 执行向量相似度搜索，filter 转换为 Milvus 布尔表达式。
func (s *MilvusStore) Search(ctx context.Context, embedding []float32, topK int, filter Filter) ([]*SearchResult, error) {
	results, err := s.client.Search(ctx, s.collection, embedding, topK, filter.Expr(), outputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	searchResults := make([]*SearchResult, 0, len(results))
	for _, r := range results {
		sr := &SearchResult{
			ID: r.ID,
			// COSINE 的 score 是相似度，转换为距离后越小越相似
			Distance: 1 - float64(r.Score),
		}
		if v, ok := r.Metadata["chunk_id"].(string); ok {
			sr.ChunkID = v
		}
		if v, ok := r.Metadata["content"].(string); ok {
			sr.Content = v
		}
		if v, ok := r.Metadata["company"].(string); ok {
			sr.Metadata.Company = v
		}
		if v, ok := r.Metadata["year"].(int64); ok {
			sr.Metadata.Year = int(v)
		}
		if v, ok := r.Metadata["quarter"].(string); ok {
			sr.Metadata.Quarter = v
		}
		if v, ok := r.Metadata["source"].(string); ok {
			sr.Metadata.Source = v
		}
		if v, ok := r.Metadata["page"].(int64); ok {
			sr.Metadata.Page = int(v)
		}
		if v, ok := r.Metadata["doc_type"].(string); ok {
			sr.Metadata.DocType = v
		}
		if v, ok := r.Metadata["chunk_size"].(int64); ok {
			sr.Metadata.ChunkSize = int(v)
		}
		searchResults = append(searchResults, sr)
	}

	return searchResults, nil
}

// companyScanLimit 去重公司名时的扫描行数上限。
const companyScanLimit = 16384

// Companies 返回集合中出现过的公司名，去重并按字典序排列。
func (s *MilvusStore) Companies(ctx context.Context) ([]string, error) {
	values, err := s.client.QueryStrings(ctx, s.collection, "company", `company != ""`, companyScanLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}

	seen := make(map[string]struct{}, len(values))
	companies := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		companies = append(companies, v)
	}
	sort.Strings(companies)
	return companies, nil
}

// Stats 获取集合中的实体数量。
func (s *MilvusStore) Stats(ctx context.Context) (int64, error) {
	return s.client.GetCollectionStats(ctx, s.collection)
}

// Drop 删除集合及其全部数据。
func (s *MilvusStore) Drop(ctx context.Context) error {
	return s.client.DropCollection(ctx, s.collection)
}

// Close 关闭 Milvus 连接。
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// 确保 MilvusStore 实现了 VectorStore 接口。
var _ VectorStore = (*MilvusStore)(nil)
