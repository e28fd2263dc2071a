package cmd

import (
	"context"

	recerrors "membership-reconciliation-service/pkg/errors"

	"github.com/pkg/errors"
)

// formatRunError turns a run failure into the message the operator sees.
// Fatal store failures name the failed operation; cancellation is reported
// as such rather than as a generic error.
func formatRunError(err error) error {
	if errors.Is(err, context.Canceled) {
		return errors.New("run cancelled; the workbook was not modified")
	}
	var fatal *recerrors.FatalError
	if errors.As(err, &fatal) {
		return errors.Errorf("%s failed: %v (the workbook may be out of date; re-run after fixing the cause)", fatal.Op, fatal.Cause)
	}
	return err
}
