package stream

import (
	"context"
)

// Slice, et al., taken from:
// https://betterprogramming.pub/writing-a-stream-api-in-go-afbc3c4350e2

func Slice[T any](ctx context.Context, in []T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

func Filter[T any](ctx context.Context, predicate func(T) bool, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for element := range in {
			if !predicate(element) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

// Collect drains in. It stops early if ctx is done.
func Collect[T any](ctx context.Context, in <-chan T) []T {
	out := make([]T, 0)
	for {
		select {
		case <-ctx.Done():
			return out
		case element, ok := <-in:
			if !ok {
				return out
			}
			out = append(out, element)
		}
	}
}
