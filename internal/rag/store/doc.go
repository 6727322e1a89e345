// Package store 提供财报文档块的向量存储层。
//
// 该包定义了向量存储的接口抽象和 Milvus 实现，
// 支持文档块的写入、带元数据过滤的相似度检索和统计。
package store
