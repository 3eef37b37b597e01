package domain

// Embedding представляет эмбеддинг одного товара: не более одного вектора
// фиксированной размерности на товар. Создаётся внешним пайплайном.
type Embedding struct {
	ProductID int64
	Vector    []float32
}

func NewEmbedding(productID int64, vector []float32) *Embedding {
	return &Embedding{
		ProductID: productID,
		Vector:    vector,
	}
}
