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

package util

import (
	"github.com/takakv/blsct/group"
)

/*
BitDecompose returns the n low bits of x as scalars, least significant first.
Lanes beyond 64 bits are zero.
*/
func BitDecompose(x uint64, n int) []group.Scalar {
	result := make([]group.Scalar, n)
	for i := 0; i < n && i < 64; i++ {
		result[i].SetUint64((x >> uint(i)) & 1)
	}
	return result
}

// PedersenCommit creates the commitment gamma·G + x·h.
func PedersenCommit(x, gamma *group.Scalar, h *group.Point) group.Point {
	var C, Hx group.Point
	C.BaseMul(gamma)
	Hx.Mul(h, x)
	C.Add(&C, &Hx)
	return C
}

// IsPowerOfTwo reports whether x is a positive power of two.
func IsPowerOfTwo(x int) bool {
	return x > 0 && x&(x-1) == 0
}
