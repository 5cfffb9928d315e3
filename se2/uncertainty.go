// SPDX-License-Identifier: MIT

package se2

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/lvslam/matrix"
)

// Sentinel errors for pose uncertainty algebra.
var (
	// ErrMixedForm indicates that two uncertainties of different Form met in one operation.
	ErrMixedForm = errors.New("se2: mixed information/covariance forms")

	// ErrBadUncertainty indicates a nil or non-3×3 uncertainty matrix.
	ErrBadUncertainty = errors.New("se2: uncertainty must be a 3x3 matrix")
)

// Form tags which representation an Uncertainty matrix holds.
type Form int

const (
	// Information is the inverse covariance. Larger determinant means more certain.
	Information Form = iota

	// Covariance is the second central moment. Smaller determinant means more certain.
	Covariance
)

// String implements fmt.Stringer.
func (f Form) String() string {
	switch f {
	case Information:
		return "information"
	case Covariance:
		return "covariance"
	default:
		return fmt.Sprintf("Form(%d)", int(f))
	}
}

// Uncertainty is a 3×3 matrix tagged with its Form.
type Uncertainty struct {
	Form Form
	M    *matrix.Dense
}

// NewUncertainty validates m as 3×3 and tags it with form.
// m is used as is; callers must not mutate it afterwards.
func NewUncertainty(form Form, m *matrix.Dense) (Uncertainty, error) {
	if m == nil || m.Rows() != 3 || m.Cols() != 3 {
		return Uncertainty{}, ErrBadUncertainty
	}

	return Uncertainty{Form: form, M: m}, nil
}

// Diagonal builds an Uncertainty with diag(a, b, c) in the given form.
func Diagonal(form Form, a, b, c float64) Uncertainty {
	return Uncertainty{Form: form, M: mat3(
		a, 0, 0,
		0, b, 0,
		0, 0, c,
	)}
}

// ScaledIdentity returns k·I in the given form.
func ScaledIdentity(form Form, k float64) Uncertainty {
	return Diagonal(form, k, k, k)
}

// validate checks the matrix is present and 3×3.
func (u Uncertainty) validate() error {
	if u.M == nil || u.M.Rows() != 3 || u.M.Cols() != 3 {
		return ErrBadUncertainty
	}

	return nil
}

// IsDegenerate reports whether the matrix is missing or all zeros.
func (u Uncertainty) IsDegenerate() bool {
	return u.M.IsZero()
}

// Regularize returns k·I (same Form) when u is degenerate, and u otherwise.
// This is the only place an all-zero matrix is repaired; it must run before
// any inversion or composition.
func (u Uncertainty) Regularize(k float64) Uncertainty {
	if u.IsDegenerate() {
		return ScaledIdentity(u.Form, k)
	}

	return u
}

// ToCovariance returns u in covariance form, inverting if necessary.
// Errors: ErrBadUncertainty, matrix.ErrSingular for a singular information matrix.
func (u Uncertainty) ToCovariance() (Uncertainty, error) {
	return u.To(Covariance)
}

// ToInformation returns u in information form, inverting if necessary.
func (u Uncertainty) ToInformation() (Uncertainty, error) {
	return u.To(Information)
}

// To returns u in the requested form, inverting if necessary.
func (u Uncertainty) To(to Form) (Uncertainty, error) {
	if err := u.validate(); err != nil {
		return Uncertainty{}, err
	}
	if u.Form == to {
		return u, nil
	}
	inv, err := matrix.Inverse(u.M)
	if err != nil {
		return Uncertainty{}, fmt.Errorf("se2: %s to %s: %w", u.Form, to, err)
	}

	return Uncertainty{Form: to, M: inv}, nil
}

// Confidence returns det(M). Its meaning depends on Form; compare with Better.
func (u Uncertainty) Confidence() (float64, error) {
	if err := u.validate(); err != nil {
		return 0, err
	}

	return matrix.Det(u.M)
}

// Better reports whether u is strictly more certain than o.
// Information: larger determinant wins. Covariance: smaller determinant wins.
// Errors: ErrMixedForm when the forms differ.
func (u Uncertainty) Better(o Uncertainty) (bool, error) {
	if u.Form != o.Form {
		return false, fmt.Errorf("%s vs %s: %w", u.Form, o.Form, ErrMixedForm)
	}
	du, err := u.Confidence()
	if err != nil {
		return false, err
	}
	do, err := o.Confidence()
	if err != nil {
		return false, err
	}

	return BetterConfidence(u.Form, du, do), nil
}

// BetterConfidence compares two cached determinants under the ordering of form.
func BetterConfidence(form Form, a, b float64) bool {
	if form == Covariance {
		return a < b
	}

	return a > b
}

// mat3 builds a 3×3 Dense from nine row-major values.
func mat3(v ...float64) *matrix.Dense {
	m, _ := matrix.NewFromRows([][]float64{v[0:3], v[3:6], v[6:9]})

	return m
}
