package controllers

type StandardResponse struct {
	Success    bool            `json:"success"`
	Data       interface{}     `json:"data,omitempty"`
	Meta       interface{}     `json:"meta,omitempty"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
	Message    string          `json:"message,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
}

func newPagination(page, pageSize int, total int64) *PaginationMeta {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &PaginationMeta{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalItems:  total,
		TotalPages:  totalPages,
	}
}
