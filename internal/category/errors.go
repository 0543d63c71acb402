package category

import "errors"

var (
	ErrMissingName      = errors.New("category name is required")
	ErrInvalidSlug      = errors.New("category slug may only contain lowercase letters, digits and hyphens")
	ErrSlugTaken        = errors.New("category with this slug already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category has listings and cannot be deleted")
	ErrNoFields         = errors.New("no fields to update")
)
