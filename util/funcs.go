// Package util holds small generic containers and iterator helpers
package util

import (
	"iter"
)

// Reverse iterates over slice from its last element to its first
func Reverse[A any](slice []A) iter.Seq[A] {
	return func(yield func(A) bool) {
		for i := len(slice) - 1; i >= 0; i-- {
			if !yield(slice[i]) {
				return
			}
		}
	}
}
