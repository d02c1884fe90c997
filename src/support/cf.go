/*
 * Copyright 2025 Ted Dunning
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package support

import "math/bits"

/*
NearestFraction finds the best approximation c/d ≈ a/b such that d <= maxDenominator.

Returns c, d and the error a/b - c/d as floating point.

The answer is either the last convergent of the continued fraction of a/b
whose denominator still fits or the largest semiconvergent that follows it,
whichever is closer. This works directly on integers, which matters when
the ratio is something like (crystal * multiplier) / output where both sides
are exact: the remainder of a divider such as 800_000_000 / 14_097_100 is
approximated without ever rounding it through a float first. a and b times
maxDenominator must fit in 64 bits.

For the Si5351 the bound is FareyN. With a 25MHz crystal and an 800MHz PLL the
fractional MultiSynth then gets within a few µHz of any HF target, while a
fixed denominator of 2^20-1 is off by up to a few hundred µHz.
*/
func NearestFraction(a, b, maxDenominator uint64) (c, d uint64, eps float64) {
	c, d = bestFraction(a, b, maxDenominator)
	eps = float64(a)/float64(b) - float64(c)/float64(d)
	return c, d, eps
}

// bestFraction extends the last convergent h/k by the semiconvergent
// (t*h + h2)/(t*k + k2) with the largest t that keeps the denominator in
// bounds and returns the closer of the two.
func bestFraction(a, b, maxDenominator uint64) (h, k uint64) {
	h, k, h2, k2, exact := expand(a, b, maxDenominator)
	if exact || k == 0 {
		return h, k
	}
	t := (maxDenominator - k2) / k
	if t == 0 {
		return h, k
	}
	hs, ks := t*h+h2, t*k+k2
	// |a/b - hs/ks| < |a/b - h/k|  <=>  |a*ks - hs*b| * k < |a*k - h*b| * ks
	if lessProduct(absDiff(a*ks, hs*b), k, absDiff(a*k, h*b), ks) {
		return hs, ks
	}
	return h, k
}

func absDiff(x, y uint64) uint64 {
	if x > y {
		return x - y
	}
	return y - x
}

// lessProduct reports x1*y1 < x2*y2 without overflow.
func lessProduct(x1, y1, x2, y2 uint64) bool {
	hi1, lo1 := bits.Mul64(x1, y1)
	hi2, lo2 := bits.Mul64(x2, y2)
	return hi1 < hi2 || hi1 == hi2 && lo1 < lo2
}

/*
convergent expands a/b as a continued fraction [t0; t1, t2, ...] and keeps
the running convergent h/k using the usual recurrence

	h(n) = t(n)*h(n-1) + h(n-2)
	k(n) = t(n)*k(n-1) + k(n-2)

starting from h(-1)/k(-1) = 1/0 and h(-2)/k(-2) = 0/1. The expansion stops
when a/b is exhausted or when the next denominator would exceed the limit.
*/
func convergent(a, b, maxDenominator uint64) (h, k uint64) {
	h, k, _, _, _ = expand(a, b, maxDenominator)
	return h, k
}

// expand runs the recurrence and also returns the convergent before h/k and
// whether a/b was reached exactly.
func expand(a, b, maxDenominator uint64) (h, k, h2, k2 uint64, exact bool) {
	h, k = 1, 0
	h2, k2 = 0, 1
	for b != 0 {
		t := a / b
		hn, kn := t*h+h2, t*k+k2
		if kn > maxDenominator {
			return h, k, h2, k2, false
		}
		h, h2 = hn, h
		k, k2 = kn, k
		a, b = b, a-t*b
	}
	return h, k, h2, k2, true
}
