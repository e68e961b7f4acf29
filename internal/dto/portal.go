package dto

import (
	"time"

	"campus-portal/internal/authz"
	"campus-portal/internal/domain"
	"campus-portal/internal/table"
)

// NavigationResponse is the sidebar of the signed-in role.
type NavigationResponse struct {
	Role  domain.Role     `json:"role"`
	Items []authz.NavItem `json:"items"`
}

// NotificationsResponse drains the toast queue.
type NotificationsResponse struct {
	Items []domain.Notification `json:"items"`
}

// UploadAcceptedResponse is returned when an upload has been started.
// @Description Poll status_url for progress; DELETE it to abort.
type UploadAcceptedResponse struct {
	UploadID  string `json:"upload_id"`
	StatusURL string `json:"status_url"`
}

// AuditEntryResponse is one audit log row.
type AuditEntryResponse struct {
	ID         string      `json:"id"`
	ActorID    string      `json:"actor_id,omitempty"`
	ActorRole  domain.Role `json:"actor_role,omitempty"`
	Action     string      `json:"action"`
	Resource   string      `json:"resource"`
	ResourceID string      `json:"resource_id,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

func NewAuditEntryResponse(e domain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         e.ID,
		ActorID:    e.ActorID,
		ActorRole:  e.ActorRole,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Detail:     e.Detail,
		CreatedAt:  e.CreatedAt,
	}
}

// PaginationInfo defines pagination details for responses.
type PaginationInfo struct {
	TotalItems  int    `json:"total_items"`
	Limit       int    `json:"limit"`
	CurrentPage int    `json:"current_page"`
	TotalPages  int    `json:"total_pages"`
	SortBy      string `json:"sort_by,omitempty"`
	SortOrder   string `json:"sort_order,omitempty"`
}

// ListResponse wraps one page of any entity.
type ListResponse[T any] struct {
	Items          []T            `json:"items"`
	PaginationInfo PaginationInfo `json:"pagination_info"`
}

func pagination[T any](p table.Page[T]) PaginationInfo {
	return PaginationInfo{
		TotalItems:  p.Total,
		Limit:       p.Limit,
		CurrentPage: p.Page,
		TotalPages:  p.TotalPages,
		SortBy:      p.Sort.Key,
		SortOrder:   string(p.Sort.Direction),
	}
}

func NewListResponse[T any](p table.Page[T]) ListResponse[T] {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, PaginationInfo: pagination(p)}
}

// MapListResponse converts every item of p with f.
func MapListResponse[T any, R any](p table.Page[T], f func(T) R) ListResponse[R] {
	items := make([]R, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, f(it))
	}
	return ListResponse[R]{Items: items, PaginationInfo: pagination(p)}
}

// AuditListResponse is the audit log page.
type AuditListResponse = ListResponse[AuditEntryResponse]

// HealthResponse reports the portal's dependencies.
type HealthResponse struct {
	Status   string `json:"status"`
	Redis    string `json:"redis"`
	Database string `json:"database,omitempty"`
}
