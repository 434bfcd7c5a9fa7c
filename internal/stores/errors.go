package stores

import pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"

var (
	ErrStoreNotFound  = pkgerrors.Kind(pkgerrors.CodeNotFound, "STORE_NOT_FOUND", "store not found")
	ErrNoOwnedStores  = pkgerrors.Kind(pkgerrors.CodeNotFound, "NO_STORES_FOR_OWNER", "no stores found for this user")
	ErrNotStoreOwner  = pkgerrors.Kind(pkgerrors.CodeForbidden, "NOT_STORE_OWNER", "only the store owner can change this store")
	ErrStoreHasOrders = pkgerrors.Kind(pkgerrors.CodeStateConflict, "STORE_HAS_ORDERS", "store is referenced by existing orders")
	ErrInvalidName    = pkgerrors.Kind(pkgerrors.CodeValidation, "INVALID_STORE_NAME", "store name must contain letters or digits")
)
