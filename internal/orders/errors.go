package orders

import pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"

var (
	ErrOrderNotFound = pkgerrors.Kind(pkgerrors.CodeNotFound, "ORDER_NOT_FOUND", "order not found")
	ErrStoreNotFound = pkgerrors.Kind(pkgerrors.CodeNotFound, "STORE_NOT_FOUND", "store not found")
	// ErrOrderCreationFailed is a placement that referenced a missing address,
	// product or store. ErrOrderPersistFailed carries the same reason for any
	// other database failure. Nothing from the attempt is persisted either way.
	ErrOrderCreationFailed = pkgerrors.Kind(pkgerrors.CodeStateConflict, "ORDER_CREATION_FAILED", "failed to create order")
	ErrOrderPersistFailed  = pkgerrors.Kind(pkgerrors.CodeDependency, "ORDER_CREATION_FAILED", "failed to create order")
	ErrInvalidStatus       = pkgerrors.Kind(pkgerrors.CodeValidation, "INVALID_ORDER_STATUS", "invalid order status")
)
