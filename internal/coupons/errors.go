package coupons

import pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"

var (
	ErrCouponNotFound      = pkgerrors.Kind(pkgerrors.CodeNotFound, "COUPON_NOT_FOUND", "coupon not found")
	ErrNoStoreCoupons      = pkgerrors.Kind(pkgerrors.CodeNotFound, "NO_STORE_COUPONS", "no coupons found for the store")
	ErrCartEmpty           = pkgerrors.Kind(pkgerrors.CodeStateConflict, "CART_EMPTY", "your cart is empty, add items to apply the coupon")
	ErrCouponNotApplicable = pkgerrors.Kind(pkgerrors.CodeStateConflict, "COUPON_NOT_APPLICABLE", "coupon is not applicable to your cart")
	ErrCouponInactive      = pkgerrors.Kind(pkgerrors.CodeStateConflict, "COUPON_INACTIVE", "coupon is inactive")
	ErrCouponExpired       = pkgerrors.Kind(pkgerrors.CodeStateConflict, "COUPON_EXPIRED", "coupon has expired")
	ErrCouponCodeTaken     = pkgerrors.Kind(pkgerrors.CodeConflict, "COUPON_CODE_EXISTS", "coupon code already exists")
	ErrUnknownProducts     = pkgerrors.Kind(pkgerrors.CodeValidation, "UNKNOWN_PRODUCTS", "one or more products do not exist")
)
