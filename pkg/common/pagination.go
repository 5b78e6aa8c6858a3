package common

import (
	"net/http"
	"strconv"
)

// Defaults for list endpoints.
const (
	DefaultPage  = 1
	DefaultLimit = 5
	MaxLimit     = 100
)

// PaginationParams represents pagination parameters
type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// DefaultPaginationParams returns default pagination parameters
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{
		Page:  DefaultPage,
		Limit: DefaultLimit,
	}
}

// ExtractPaginationParams reads page and limit from the query string.
// Values that are missing, malformed or below one fall back to the defaults.
func ExtractPaginationParams(r *http.Request) PaginationParams {
	params := DefaultPaginationParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			if l > MaxLimit {
				l = MaxLimit
			}
			params.Limit = l
		}
	}

	return params
}

// Normalize replaces non-positive values with the defaults.
func (p PaginationParams) Normalize() PaginationParams {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// CalculateOffset calculates the offset for database queries
func (p PaginationParams) CalculateOffset() int {
	return (p.Page - 1) * p.Limit
}

// CalculateTotalPages calculates total number of pages
func CalculateTotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := total / pageSize
	if total%pageSize > 0 {
		pages++
	}
	return pages
}

// PaginatedResult is the page shape returned by list endpoints.
type PaginatedResult[T any] struct {
	Results     []T `json:"results"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
}

// NewPaginatedResult creates a new paginated result
func NewPaginatedResult[T any](results []T, params PaginationParams, total int) *PaginatedResult[T] {
	if results == nil {
		results = []T{}
	}
	return &PaginatedResult[T]{
		Results:     results,
		CurrentPage: params.Page,
		PageSize:    params.Limit,
		TotalPages:  CalculateTotalPages(total, params.Limit),
		TotalItems:  total,
	}
}
