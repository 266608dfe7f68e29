package pipeline

import (
	"context"
)

const streamBufferSize = 8

func Seq(ctx context.Context, from, to int) <-chan int {
	outputStream := make(chan int, streamBufferSize)
	go func() {
		defer close(outputStream)
		for i := from; i <= to; i++ {
			select {
			case <-ctx.Done():
				return
			case outputStream <- i:
			}
		}
	}()

	return outputStream
}

func Map[T any, U any](ctx context.Context, inputStream <-chan T, f func(T) U) <-chan U {
	outputStream := make(chan U, streamBufferSize)
	go func() {
		defer close(outputStream)
		for item := range OrDone(ctx, inputStream) {
			select {
			case <-ctx.Done():
				return
			case outputStream <- f(item):
			}
		}
	}()

	return outputStream
}

func ToSlice[T any](ctx context.Context, inputStream <-chan T) []T {
	output := make([]T, 0)
	for item := range OrDone(ctx, inputStream) {
		output = append(output, item)
	}

	return output
}

func OrDone[T any](ctx context.Context, inputStream <-chan T) <-chan T {
	outputStream := make(chan T, streamBufferSize)
	go func() {
		defer close(outputStream)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-inputStream:
				if !ok {
					return
				}

				select {
				case <-ctx.Done():
				case outputStream <- v:
				}
			}
		}
	}()

	return outputStream
}
