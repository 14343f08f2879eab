// Package pagination implements page-number pagination with a client
// adjustable page size.
package pagination

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"storefront/internal/model"
)

const lastPage = "last"

// Paginator holds the pagination settings for one list endpoint.
type Paginator struct {
	PageSize    int
	MaxPageSize int
	PageParam   string
	SizeParam   string
}

// New returns the catalogue paginator: two items per page, at most five.
func New() Paginator {
	return Paginator{
		PageSize:    2,
		MaxPageSize: 5,
		PageParam:   "page",
		SizeParam:   "size",
	}
}

// Request is a page request that has not been checked against a result count yet.
type Request struct {
	page string
	Size int
}

// Request reads the page number and size from the query. A non-positive or
// malformed size falls back to the default; larger sizes clamp to the maximum.
func (p Paginator) Request(params url.Values) Request {
	size := p.PageSize
	if raw := params.Get(p.SizeParam); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			size = min(n, p.MaxPageSize)
		}
	}
	return Request{page: strings.TrimSpace(params.Get(p.PageParam)), Size: size}
}

// Resolve validates the requested page against the total count. The first
// page of an empty result is always valid.
func (r Request) Resolve(count int) (Page, error) {
	pg := Page{Number: 1, Size: r.Size, Count: count}

	switch r.page {
	case "":
	case lastPage:
		pg.Number = pg.NumPages()
	default:
		n, err := strconv.Atoi(r.page)
		if err != nil || n < 1 || n > pg.NumPages() {
			return Page{}, model.ErrInvalidPage
		}
		pg.Number = n
	}
	return pg, nil
}

// Page is a resolved page within a counted result.
type Page struct {
	Number int
	Size   int
	Count  int
}

// NumPages returns the number of pages, at least one.
func (p Page) NumPages() int {
	if p.Count == 0 || p.Size <= 0 {
		return 1
	}
	return (p.Count + p.Size - 1) / p.Size
}

// Offset returns the number of rows preceding the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool {
	return p.Number < p.NumPages()
}

// HasPrevious reports whether an earlier page exists.
func (p Page) HasPrevious() bool {
	return p.Number > 1
}

// Envelope is the paginated response body.
type Envelope[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewEnvelope wraps a page of results with absolute links to the
// neighbouring pages, derived from the incoming request URL.
func NewEnvelope[T any](r *http.Request, p Paginator, pg Page, results []T) Envelope[T] {
	if results == nil {
		results = []T{}
	}

	env := Envelope[T]{Count: pg.Count, Results: results}
	if pg.HasNext() {
		link := pageURL(r, p.PageParam, pg.Number+1)
		env.Next = &link
	}
	if pg.HasPrevious() {
		link := pageURL(r, p.PageParam, pg.Number-1)
		env.Previous = &link
	}
	return env
}

func pageURL(r *http.Request, param string, number int) string {
	q := r.URL.Query()
	if number == 1 {
		q.Del(param)
	} else {
		q.Set(param, strconv.Itoa(number))
	}

	u := url.URL{
		Scheme:   scheme(r),
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func scheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
