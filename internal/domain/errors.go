package domain

import "errors"

var (
	ErrMalformedDocument   = errors.New("document is not a valid NFe XML")
	ErrDuplicateInvoice    = errors.New("invoice already imported")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrSupplierNotFound    = errors.New("supplier not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrContactNotFound     = errors.New("supplier contact not found")
	ErrCertificateNotFound = errors.New("certificate not found for this tax id")
	ErrFeedUnavailable     = errors.New("fiscal document feed unavailable")
	ErrInvalidPackageQty   = errors.New("package quantity must be a positive integer")
)
