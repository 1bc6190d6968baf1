package pagination_test

import (
	"net/url"
	"testing"

	"github.com/JaimeStill/docbridge/pkg/pagination"
)

func TestPageRequestFromQuery(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 10, MaxPageSize: 50}

	tests := []struct {
		name     string
		query    string
		page     int
		pageSize int
		search   string
		sort     []pagination.SortField
	}{
		{"defaults", "", 1, 10, "", nil},
		{"explicit", "page=3&page_size=25", 3, 25, "", nil},
		{"clamped", "page=-1&page_size=500", 1, 50, "", nil},
		{"search", "search=export", 1, 10, "export", nil},
		{
			"sort", "sort=-modified,name,", 1, 10, "",
			[]pagination.SortField{{Field: "modified", Descending: true}, {Field: "name"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req := pagination.PageRequestFromQuery(values, cfg)

			if req.Page != tt.page || req.PageSize != tt.pageSize {
				t.Errorf("page = %d/%d, want %d/%d", req.Page, req.PageSize, tt.page, tt.pageSize)
			}
			if tt.search == "" && req.Search != nil {
				t.Errorf("Search = %q, want nil", *req.Search)
			}
			if tt.search != "" && (req.Search == nil || *req.Search != tt.search) {
				t.Errorf("Search = %v, want %q", req.Search, tt.search)
			}
			if len(req.Sort) != len(tt.sort) {
				t.Fatalf("Sort = %+v, want %+v", req.Sort, tt.sort)
			}
			for i := range tt.sort {
				if req.Sort[i] != tt.sort[i] {
					t.Errorf("Sort[%d] = %+v, want %+v", i, req.Sort[i], tt.sort[i])
				}
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name       string
		page       int
		size       int
		want       []int
		totalPages int
	}{
		{"first", 1, 3, []int{1, 2, 3}, 3},
		{"last partial", 3, 3, []int{7}, 3},
		{"past end", 5, 3, []int{}, 3},
		{"single page", 1, 10, []int{1, 2, 3, 4, 5, 6, 7}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pagination.Paginate(items, pagination.PageRequest{Page: tt.page, PageSize: tt.size})

			if res.Total != 7 || res.TotalPages != tt.totalPages {
				t.Errorf("total = %d/%d pages, want 7/%d", res.Total, res.TotalPages, tt.totalPages)
			}
			if len(res.Data) != len(tt.want) {
				t.Fatalf("Data = %v, want %v", res.Data, tt.want)
			}
			for i := range tt.want {
				if res.Data[i] != tt.want[i] {
					t.Errorf("Data = %v, want %v", res.Data, tt.want)
					break
				}
			}
		})
	}
}

func TestConfig_Finalize(t *testing.T) {
	cfg := &pagination.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if cfg.DefaultPageSize != 50 || cfg.MaxPageSize != 500 {
		t.Errorf("defaults = %+v", cfg)
	}

	bad := &pagination.Config{DefaultPageSize: 100, MaxPageSize: 10}
	if err := bad.Finalize(nil); err == nil {
		t.Error("Finalize() accepted default_page_size above max_page_size")
	}
}
