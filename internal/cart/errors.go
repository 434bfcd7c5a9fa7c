package cart

import pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"

var (
	ErrInvalidQuantity      = pkgerrors.Kind(pkgerrors.CodeValidation, "INVALID_QUANTITY", "quantity must be greater than zero")
	ErrProductNotFound      = pkgerrors.Kind(pkgerrors.CodeNotFound, "PRODUCT_NOT_FOUND", "product not found")
	ErrCartNotFound         = pkgerrors.Kind(pkgerrors.CodeNotFound, "CART_NOT_FOUND", "cart not found")
	ErrItemNotFound         = pkgerrors.Kind(pkgerrors.CodeNotFound, "ITEM_NOT_FOUND", "product not found in cart")
	ErrDuplicateItem        = pkgerrors.Kind(pkgerrors.CodeConflict, "DUPLICATE_ITEM", "product already in cart, update the quantity instead")
	ErrQuantityExceedsStock = pkgerrors.Kind(pkgerrors.CodeStateConflict, "QUANTITY_EXCEEDS_STOCK", "requested quantity exceeds available stock")
)
