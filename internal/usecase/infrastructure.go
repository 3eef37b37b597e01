package usecase

import "context"

// Embedder превращает текст в вектор фиксированной размерности.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// MessageProducer публикует сырые сообщения в брокер.
type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

// EmbeddingBackfill — пакетная генерация недостающих эмбеддингов каталога.
// Алгоритм задачи живёт вне этого модуля; здесь только контракт.
type EmbeddingBackfill interface {
	GenerateMissingEmbeddings(ctx context.Context, batchSize int) (int, error)
}
