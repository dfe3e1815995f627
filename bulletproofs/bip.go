/*
 * Copyright (C) 2019 ING BANK N.V.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package bulletproofs

import (
	"github.com/pkg/errors"

	"github.com/takakv/blsct/group"
	"github.com/takakv/blsct/transcript"
	. "github.com/takakv/blsct/util"
)

/*
InnerProductProof contains the round commitments L, R and the final folded
scalars a, b of the inner product argument.
*/
type InnerProductProof struct {
	L []group.Point
	R []group.Point
	A group.Scalar
	B group.Scalar
}

/*
proveInnerProduct runs the logarithmic reduction of Protocol 1 on (a, b). The
generators are Gi and Hi scaled by y^-i, with the scaling folded into Hi during
the first round. Each round's cross term is weighted by xIP and committed
under H.
*/
func (params *BulletProofSetupParams) proveInnerProduct(tr *transcript.Transcript, a, b []group.Scalar,
	y, xIP *group.Scalar, H *group.Point) (InnerProductProof, error) {
	n := len(a)
	if n != len(b) || !IsPowerOfTwo(n) || n > len(params.Gi) {
		return InnerProductProof{}, errors.Wrapf(ErrLengthMismatch, "inner product argument over %d/%d", len(a), len(b))
	}

	var yInv group.Scalar
	yInv.Inverse(y)
	scale := VectorPowers(&yInv, n)

	gp := params.Gi[:n]
	hp := params.Hi[:n]

	var ipp InnerProductProof
	for n > 1 {
		// (20)
		n /= 2

		// (21) & (22)
		cL, err := InnerProduct(a[:n], b[n:])
		if err != nil {
			return ipp, err
		}
		cR, err := InnerProduct(a[n:], b[:n])
		if err != nil {
			return ipp, err
		}
		cL.Mul(&cL, xIP)
		cR.Mul(&cR, xIP)

		// (23) & (24)
		L, err := CrossVectorExponent(n, gp, n, hp, 0, a, 0, b, n, scale, H, &cL)
		if err != nil {
			return ipp, err
		}
		R, err := CrossVectorExponent(n, gp, 0, hp, n, a, n, b, 0, scale, H, &cR)
		if err != nil {
			return ipp, err
		}
		ipp.L = append(ipp.L, L)
		ipp.R = append(ipp.R, R)

		// (25) - (27)
		tr.AddPoint(&L)
		tr.AddPoint(&R)
		w := tr.Challenge()
		if w.IsZero() {
			return ipp, errors.Wrapf(errRetry, "zero challenge in round %d", len(ipp.L))
		}
		var wInv group.Scalar
		wInv.Inverse(&w)

		// (29) - (31)
		if n > 1 {
			if gp, err = HadamardFold(gp, nil, &wInv, &w); err != nil {
				return ipp, err
			}
			if hp, err = HadamardFold(hp, scale, &w, &wInv); err != nil {
				return ipp, err
			}
		}

		// (33) & (34)
		if a, err = VectorAdd(VectorScalar(a[:n], &w), VectorScalar(a[n:], &wInv)); err != nil {
			return ipp, err
		}
		if b, err = VectorAdd(VectorScalar(b[:n], &wInv), VectorScalar(b[n:], &w)); err != nil {
			return ipp, err
		}

		scale = nil
	}

	ipp.A = a[0]
	ipp.B = b[0]
	return ipp, nil
}
