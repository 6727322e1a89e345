// Package biz 实现财报问答服务的业务逻辑：
// 文档摄取、向量检索、答案生成、成本追踪和查询缓存。
package biz
