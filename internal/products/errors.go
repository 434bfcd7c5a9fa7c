package products

import pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"

var (
	ErrProductNotFound   = pkgerrors.Kind(pkgerrors.CodeNotFound, "PRODUCT_NOT_FOUND", "product not found")
	ErrStoreNotFound     = pkgerrors.Kind(pkgerrors.CodeNotFound, "STORE_NOT_FOUND", "store not found")
	ErrNotStoreOwner     = pkgerrors.Kind(pkgerrors.CodeForbidden, "NOT_STORE_OWNER", "only the store owner can change its products")
	ErrProductHasOrders  = pkgerrors.Kind(pkgerrors.CodeStateConflict, "PRODUCT_HAS_ORDERS", "product is referenced by existing orders")
	ErrInvalidName       = pkgerrors.Kind(pkgerrors.CodeValidation, "INVALID_PRODUCT_NAME", "product name must contain letters or digits")
	ErrReviewNotFound    = pkgerrors.Kind(pkgerrors.CodeNotFound, "REVIEW_NOT_FOUND", "review not found")
	ErrAlreadyReviewed   = pkgerrors.Kind(pkgerrors.CodeConflict, "ALREADY_REVIEWED", "you have already reviewed this product")
	ErrNotReviewAuthor   = pkgerrors.Kind(pkgerrors.CodeForbidden, "NOT_REVIEW_AUTHOR", "only the author can delete this review")
	ErrInvalidPriceRange = pkgerrors.Kind(pkgerrors.CodeValidation, "INVALID_PRICE_RANGE", "minPrice must not exceed maxPrice")
)
