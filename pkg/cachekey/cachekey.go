// Package cachekey строит детерминированные ключи кэша из имени операции
// и нормализованного набора её аргументов.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Args — нормализованный набор аргументов операции.
type Args map[string]any

// Key возвращает ключ вида "<family>:<sha256(args)>".
// encoding/json сериализует ключи map в отсортированном порядке, поэтому два
// логически одинаковых вызова всегда дают один и тот же ключ независимо от
// порядка аргументов.
func Key(family string, args Args) string {
	return family + ":" + digest(args)
}

// SubjectKey возвращает ключ вида "<family>:<subject>:<sha256(args)>".
// Сегмент subject позволяет инвалидировать кэш по префиксу для одного
// пользователя или продукта, не затрагивая остальное семейство.
func SubjectKey(family, subject string, args Args) string {
	return family + ":" + subject + ":" + digest(args)
}

func digest(args Args) string {
	data, err := json.Marshal(args)
	if err != nil {
		// Аргументы операций всегда JSON-сериализуемы; fmt.Sprint также
		// печатает map с отсортированными ключами.
		data = []byte(fmt.Sprint(args))
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
