package models

import (
	"fmt"
	"math"

	"lovebox-backend/internal/apperr"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is a validated 0-based page index and page size
type PageRequest struct {
	Page int
	Size int
}

// NewPageRequest validates page and size. A non-positive size falls back to DefaultPageSize.
func NewPageRequest(page, size int) (PageRequest, error) {
	if page < 0 {
		return PageRequest{}, apperr.BadRequest("page number cannot be less than zero")
	}
	if size > MaxPageSize {
		return PageRequest{}, apperr.BadRequest(fmt.Sprintf("page size must not be greater than %d", MaxPageSize))
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	// Offset must stay representable
	if page > math.MaxInt32/size {
		return PageRequest{}, apperr.BadRequest(fmt.Sprintf("page number must not be greater than %d", math.MaxInt32/size))
	}
	return PageRequest{Page: page, Size: size}, nil
}

// Limit returns the SQL LIMIT for the page
func (p PageRequest) Limit() int {
	return p.Size
}

// Offset returns the SQL OFFSET for the page
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one slice of a larger ordered result
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// NewPage builds the envelope for content fetched with req out of total elements
func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         req.Page == 0,
		Last:          req.Page+1 >= totalPages,
	}
}

// MapPage converts the content of a page, keeping its pagination fields
func MapPage[T, R any](p Page[T], fn func(T) R) Page[R] {
	out := make([]R, 0, len(p.Content))
	for _, v := range p.Content {
		out = append(out, fn(v))
	}
	return Page[R]{
		Content:       out,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		First:         p.First,
		Last:          p.Last,
	}
}
