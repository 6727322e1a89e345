package store

import (
	"context"
	"fmt"
	"strings"
)

// Chunk 表示一个带元数据和向量的文档块。
type Chunk struct {
	// ID 文档块 ID，由内容哈希和序号构成。
	ID string
	// Content 文档块正文。
	Content string
	// Embedding 嵌入向量。
	Embedding []float32
	// Metadata 从文件名推断出的文档元数据。
	Metadata ChunkMetadata
}

// ChunkMetadata 描述文档块所属的公司、期间和来源。
// Year 和 Page 为 0 表示未知。
type ChunkMetadata struct {
	Company   string
	Year      int
	Quarter   string
	Source    string
	Page      int
	DocType   string
	ChunkSize int
}

// SearchResult 表示一条检索结果。
type SearchResult struct {
	// ID Milvus 主键。
	ID int64
	// ChunkID 文档块 ID。
	ChunkID string
	// Content 文档块正文。
	Content string
	// Distance 与查询向量的距离，越小越相似。
	Distance float64
	// Metadata 文档块元数据。
	Metadata ChunkMetadata
}

// Filter 限定检索范围的元数据条件，零值字段不参与过滤。
type Filter struct {
	Company string
	Year    int
	Quarter string
}

// Expr 构造 Milvus 布尔过滤表达式，没有条件时返回空串。
func (f Filter) Expr() string {
	var conds []string
	if f.Company != "" {
		company := strings.ReplaceAll(f.Company, `"`, ``)
		conds = append(conds, fmt.Sprintf(`company == "%s"`, company))
	}
	if f.Year != 0 {
		conds = append(conds, fmt.Sprintf("year == %d", f.Year))
	}
	if f.Quarter != "" {
		quarter := strings.ReplaceAll(f.Quarter, `"`, ``)
		conds = append(conds, fmt.Sprintf(`quarter == "%s"`, quarter))
	}
	return strings.Join(conds, " and ")
}

// IsZero 报告过滤条件是否为空。
func (f Filter) IsZero() bool {
	return f.Company == "" && f.Year == 0 && f.Quarter == ""
}

// VectorStore 定义向量存储接口。实现绑定到单个集合。
type VectorStore interface {
	// EnsureCollection 创建集合和索引，已存在时为空操作。
	EnsureCollection(ctx context.Context) error

	// Insert 批量插入文档块，返回 Milvus 主键。
	Insert(ctx context.Context, chunks []*Chunk) ([]int64, error)

	// Search 向量相似度搜索，filter 在 ANN 搜索前生效。
	Search(ctx context.Context, embedding []float32, topK int, filter Filter) ([]*SearchResult, error)

	// Companies 返回集合中出现过的公司名，去重、排序。
	Companies(ctx context.Context) ([]string, error)

	// Stats 返回集合中的实体数量。
	Stats(ctx context.Context) (int64, error)

	// Drop 删除集合及其全部数据。
	Drop(ctx context.Context) error

	// Close 关闭连接。
	Close(ctx context.Context) error
}
