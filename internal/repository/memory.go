package repository

import "sort"

// sortByID はID昇順でスライスを整列する。メモリ実装の共通ヘルパー。
func sortByID[T any](items []T, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool {
		return id(items[i]) < id(items[j])
	})
}
