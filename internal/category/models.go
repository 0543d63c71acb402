package category

import "time"

// Category represents a rental category (e.g. "apartments", "camper-vans")
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateCategoryRequest represents the request to create a new category.
// When Slug is empty it is derived from Name.
type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateCategoryRequest represents a partial category update. The slug is
// immutable after creation; listings and frontend routes reference it.
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ListResponse is the payload for category listings
type ListResponse struct {
	Success    bool       `json:"success"`
	Categories []Category `json:"categories"`
	Total      int        `json:"total"`
}
