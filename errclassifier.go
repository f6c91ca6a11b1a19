// SPDX-License-Identifier: GPL-3.0-or-later

package dot11seq

import (
	"errors"

	"github.com/bassosimone/errclass"
)

// ErrClassifier classifies errors into categorical strings for analysis.
//
// Implementations map errors to short, descriptive labels (e.g., "ETIMEDOUT",
// "EREJECTED") that make frame sequence outcomes easy to aggregate.
type ErrClassifier interface {
	Classify(err error) string
}

// ErrClassifierFunc adapts a function to the [ErrClassifier] interface.
//
// This allows using simple functions as classifiers:
//
//	handler.ErrClassifier = ErrClassifierFunc(errclass.New)
type ErrClassifierFunc func(error) string

var _ ErrClassifier = ErrClassifierFunc(nil)

// Classify implements [ErrClassifier].
func (f ErrClassifierFunc) Classify(err error) string {
	return f(err)
}

// Error classes for the frame sequence sentinel errors.
const (
	ErrClassRejected     = "EREJECTED"
	ErrClassInvalidFrame = "EINVALIDFRAME"
)

// DefaultErrClassifier maps the sentinel errors of this package to error
// classes and delegates any other error to [errclass.New].
//
// The nil error is classified as the empty string.
var DefaultErrClassifier = ErrClassifierFunc(func(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStepRejected):
		return ErrClassRejected
	case errors.Is(err, ErrRxTimeout):
		return errclass.ETIMEDOUT
	case errors.Is(err, ErrInvalidFrame):
		return ErrClassInvalidFrame
	default:
		return errclass.New(err)
	}
})
