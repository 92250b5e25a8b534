package checkout

import (
	"errors"
	"fmt"
)

// Stage identifies which validation stage rejected a checkout attempt. The
// web layer maps stages to HTTP status codes and keeps commit-stage details
// out of client responses.
type Stage string

const (
	StageInput       Stage = "input"
	StageMaintenance Stage = "maintenance"
	StageCatalog     Stage = "catalog"
	StageStock       Stage = "stock"
	StageCoupon      Stage = "coupon"
	StageCommit      Stage = "commit"
)

// Error is a structured checkout rejection: the stage that produced it, a
// stable machine code and a human reason naming the offending reference.
type Error struct {
	Stage   Stage
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func errInput(msg string) *Error {
	return &Error{Stage: StageInput, Code: "INVALID_REQUEST", Message: msg}
}

func errMaintenance() *Error {
	return &Error{Stage: StageMaintenance, Code: "MAINTENANCE", Message: "store is under maintenance, try again later"}
}

func errUnknownProduct(id int64) *Error {
	return &Error{Stage: StageCatalog, Code: "PRODUCT_NOT_FOUND",
		Message: fmt.Sprintf("product %d does not exist", id)}
}

func errUnknownStorage(productName string, storageID int64) *Error {
	return &Error{Stage: StageCatalog, Code: "STORAGE_NOT_FOUND",
		Message: fmt.Sprintf("storage option %d is not available for %s", storageID, productName)}
}

func errStorageRequired(productName string) *Error {
	return &Error{Stage: StageCatalog, Code: "STORAGE_NOT_FOUND",
		Message: fmt.Sprintf("a storage option must be selected for %s", productName)}
}

func errUnknownColor(productName, color string) *Error {
	return &Error{Stage: StageCatalog, Code: "COLOR_NOT_FOUND",
		Message: fmt.Sprintf("color %q is not available for %s", color, productName)}
}

func errInsufficientStock(productName, color string) *Error {
	msg := fmt.Sprintf("insufficient stock for %s", productName)
	if color != "" {
		msg = fmt.Sprintf("insufficient stock for %s in %s", productName, color)
	}
	return &Error{Stage: StageStock, Code: "INSUFFICIENT_STOCK", Message: msg}
}

func errCoupon(code, msg string) *Error {
	return &Error{Stage: StageCoupon, Code: code, Message: msg}
}

func errCommit(cause error) *Error {
	return &Error{Stage: StageCommit, Code: "ORDER_FAILED",
		Message: "order could not be placed, please retry", cause: cause}
}

// IsStage reports whether err is a checkout Error from the given stage.
func IsStage(err error, stage Stage) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Stage == stage
}
