// SPDX-License-Identifier: MIT

package sim

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvslam/matrix"
	"github.com/katalvlaran/lvslam/se2"
)

// Loop returns poses spaced step metres apart along the counter-clockwise
// perimeter of the rectangle (x0,y0)-(x1,y1), lapping laps times and ending
// back at the start. Headings follow the direction of travel.
//
// Errors: returned when the rectangle is empty, step <= 0 or laps < 1.
//
// Complexity: O(laps · perimeter / step).
func Loop(x0, y0, x1, y1, step float64, laps int) ([]se2.Pose, error) {
	if x1 <= x0 || y1 <= y0 || step <= 0 || laps < 1 {
		return nil, fmt.Errorf("sim: Loop(%g,%g,%g,%g, step=%g, laps=%d): invalid parameters", x0, y0, x1, y1, step, laps)
	}
	w, h := x1-x0, y1-y0
	perim := 2 * (w + h)
	perLap := int(math.Round(perim / step))
	total := perLap*laps + 1

	out := make([]se2.Pose, 0, total)
	for k := 0; k < total; k++ {
		d := float64(k%perLap) * perim / float64(perLap)
		var p se2.Pose
		switch {
		case d < w:
			p = se2.Pose{X: x0 + d, Y: y0, Phi: 0}
		case d < w+h:
			p = se2.Pose{X: x1, Y: y0 + (d - w), Phi: math.Pi / 2}
		case d < 2*w+h:
			p = se2.Pose{X: x1 - (d - w - h), Y: y1, Phi: math.Pi}
		default:
			p = se2.Pose{X: x0, Y: y1 - (d - 2*w - h), Phi: -math.Pi / 2}
		}
		out = append(out, p)
	}

	return out, nil
}

// Odometry returns the constraint prev→curr as a PDF in the requested form.
// With a seed configured, the mean is perturbed by the configured noise;
// the uncertainty is always the configured diagonal. Zero sigmas yield an
// all-zero (degenerate) matrix in either form.
func (s *Simulator) Odometry(prev, curr se2.Pose, form se2.Form) (se2.PDF, error) {
	c := s.cfg
	rel := curr.Sub(prev)
	rel.X += c.gauss(c.odomXY)
	rel.Y += c.gauss(c.odomXY)
	rel.Phi = se2.WrapAngle(rel.Phi + c.gauss(c.odomPhi))

	if c.odomXY == 0 || c.odomPhi == 0 {
		zero, _ := matrix.NewDense(3, 3)

		return se2.PDF{Mean: rel, Unc: se2.Uncertainty{Form: form, M: zero}}, nil
	}
	cov := se2.Diagonal(se2.Covariance, c.odomXY*c.odomXY, c.odomXY*c.odomXY, c.odomPhi*c.odomPhi)
	unc, err := cov.ToInformation()
	if err != nil {
		return se2.PDF{}, err
	}
	if form == se2.Covariance {
		unc = cov
	}

	return se2.PDF{Mean: rel, Unc: unc}, nil
}
