package util

import (
	"github.com/pkg/errors"

	"github.com/takakv/blsct/group"
)

// ErrLengthMismatch is returned by vector operations on inputs of different
// or insufficient length.
var ErrLengthMismatch = errors.New("vector length mismatch")

func InnerProduct(a, b []group.Scalar) (group.Scalar, error) {
	var result group.Scalar
	if len(a) != len(b) {
		return result, errors.Wrapf(ErrLengthMismatch, "inner product %d/%d", len(a), len(b))
	}
	var tmp group.Scalar
	for i := range a {
		tmp.Mul(&a[i], &b[i])
		result.Add(&result, &tmp)
	}
	return result, nil
}

// Hadamard returns the entry-wise product a ∘ b.
func Hadamard(a, b []group.Scalar) ([]group.Scalar, error) {
	if len(a) != len(b) {
		return nil, errors.Wrapf(ErrLengthMismatch, "hadamard %d/%d", len(a), len(b))
	}
	result := make([]group.Scalar, len(a))
	for i := range a {
		result[i].Mul(&a[i], &b[i])
	}
	return result, nil
}

func VectorAdd(a, b []group.Scalar) ([]group.Scalar, error) {
	if len(a) != len(b) {
		return nil, errors.Wrapf(ErrLengthMismatch, "add %d/%d", len(a), len(b))
	}
	result := make([]group.Scalar, len(a))
	for i := range a {
		result[i].Add(&a[i], &b[i])
	}
	return result, nil
}

func VectorSubtract(a, b []group.Scalar) ([]group.Scalar, error) {
	if len(a) != len(b) {
		return nil, errors.Wrapf(ErrLengthMismatch, "subtract %d/%d", len(a), len(b))
	}
	result := make([]group.Scalar, len(a))
	for i := range a {
		result[i].Sub(&a[i], &b[i])
	}
	return result, nil
}

// VectorAddSingle adds c to every entry of a.
func VectorAddSingle(a []group.Scalar, c *group.Scalar) []group.Scalar {
	result := make([]group.Scalar, len(a))
	for i := range a {
		result[i].Add(&a[i], c)
	}
	return result
}

// VectorSubtractSingle subtracts c from every entry of a.
func VectorSubtractSingle(a []group.Scalar, c *group.Scalar) []group.Scalar {
	result := make([]group.Scalar, len(a))
	for i := range a {
		result[i].Sub(&a[i], c)
	}
	return result
}

// VectorScalar multiplies every entry of a by c.
func VectorScalar(a []group.Scalar, c *group.Scalar) []group.Scalar {
	result := make([]group.Scalar, len(a))
	for i := range a {
		result[i].Mul(&a[i], c)
	}
	return result
}

// VectorDup returns n copies of c.
func VectorDup(c *group.Scalar, n int) []group.Scalar {
	result := make([]group.Scalar, n)
	for i := range result {
		result[i].Set(c)
	}
	return result
}

// VectorPowers returns [1, x, x^2, ..., x^(n-1)].
func VectorPowers(x *group.Scalar, n int) []group.Scalar {
	result := make([]group.Scalar, n)
	if n == 0 {
		return result
	}
	result[0] = group.One()
	for i := 1; i < n; i++ {
		result[i].Mul(&result[i-1], x)
	}
	return result
}

// VectorPowerSum returns Σ_{i<n} x^i.
func VectorPowerSum(x *group.Scalar, n int) group.Scalar {
	var sum group.Scalar
	if n == 0 {
		return sum
	}
	pow := group.One()
	for i := 0; i < n; i++ {
		sum.Add(&sum, &pow)
		pow.Mul(&pow, x)
	}
	return sum
}

// VectorCommitment returns Σ a[i]·gi[i] + b[i]·hi[i]. The generator vectors
// may be longer than the exponent vectors.
func VectorCommitment(a, b []group.Scalar, gi, hi []group.Point) (group.Point, error) {
	if len(a) != len(b) || len(a) > len(gi) || len(a) > len(hi) {
		return group.Point{}, errors.Wrapf(ErrLengthMismatch, "vector commitment %d/%d over %d generators", len(a), len(b), len(gi))
	}
	points := make([]group.Point, 0, 2*len(a))
	scalars := make([]group.Scalar, 0, 2*len(a))
	points = append(points, gi[:len(a)]...)
	points = append(points, hi[:len(b)]...)
	scalars = append(scalars, a...)
	scalars = append(scalars, b...)
	return group.MultiExp(points, scalars)
}

// HadamardFold halves vec: out[n] = vec[n]·u·scale[n] + vec[k+n]·uInv·scale[k+n]
// where k = len(vec)/2. scale may be nil.
func HadamardFold(vec []group.Point, scale []group.Scalar, u, uInv *group.Scalar) ([]group.Point, error) {
	if len(vec)%2 != 0 {
		return nil, errors.Wrapf(ErrLengthMismatch, "fold of odd length %d", len(vec))
	}
	if scale != nil && len(scale) < len(vec) {
		return nil, errors.Wrapf(ErrLengthMismatch, "fold scale %d/%d", len(scale), len(vec))
	}
	k := len(vec) / 2
	out := make([]group.Point, k)
	var su, sv group.Scalar
	for n := 0; n < k; n++ {
		su.Set(u)
		sv.Set(uInv)
		if scale != nil {
			su.Mul(&su, &scale[n])
			sv.Mul(&sv, &scale[k+n])
		}
		var hi group.Point
		out[n].Mul(&vec[n], &su)
		hi.Mul(&vec[k+n], &sv)
		out[n].Add(&out[n], &hi)
	}
	return out, nil
}

// CrossVectorExponent computes
//
//	Σ_{i<size} a[ao+i]·A[Ao+i] + b[bo+i]·scale[Bo+i]·B[Bo+i] + extraScalar·extraPoint
//
// with the scale factor omitted when scale is nil.
func CrossVectorExponent(size int, A []group.Point, Ao int, B []group.Point, Bo int,
	a []group.Scalar, ao int, b []group.Scalar, bo int, scale []group.Scalar,
	extraPoint *group.Point, extraScalar *group.Scalar) (group.Point, error) {
	if size+Ao > len(A) || size+Bo > len(B) || size+ao > len(a) || size+bo > len(b) {
		return group.Point{}, errors.Wrapf(ErrLengthMismatch, "cross vector exponent of size %d", size)
	}
	if scale != nil && size+Bo > len(scale) {
		return group.Point{}, errors.Wrapf(ErrLengthMismatch, "cross vector scale %d", len(scale))
	}

	points := make([]group.Point, 0, 2*size+1)
	scalars := make([]group.Scalar, 0, 2*size+1)
	for i := 0; i < size; i++ {
		points = append(points, A[Ao+i])
		scalars = append(scalars, a[ao+i])

		var e group.Scalar
		e.Set(&b[bo+i])
		if scale != nil {
			e.Mul(&e, &scale[Bo+i])
		}
		points = append(points, B[Bo+i])
		scalars = append(scalars, e)
	}
	if extraPoint != nil && extraScalar != nil {
		points = append(points, *extraPoint)
		scalars = append(scalars, *extraScalar)
	}
	return group.MultiExp(points, scalars)
}
