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

// FareyN is the largest denominator that fits the 20 bit fractional field of
// the PLL and MultiSynth dividers.
const FareyN = 1<<20 - 1

// Real is the arithmetic a mediant search can be carried out in.
type Real interface {
	~float32 | ~float64
}

// Policy selects which Farey neighbour the search returns once the mediant
// denominators run past the bound.
type Policy int

const (
	// Reference keeps the boundary selection of the AVR driver so that
	// devices see identical dividers.
	Reference Policy = iota
	// Nearest returns whichever of the two neighbours is closer to alpha.
	Nearest
)

func (p Policy) String() string {
	switch p {
	case Reference:
		return "reference"
	case Nearest:
		return "nearest"
	default:
		return "unknown"
	}
}

// Approximate returns x/y close to alpha with y <= n using the given policy.
// Alpha must be in [0, 1).
func Approximate[F Real](policy Policy, alpha F, n uint32) (x, y uint32) {
	if policy == Nearest {
		return FareyNearest(alpha, n)
	}
	return Farey(alpha, n)
}

/*
Farey finds a rational approximation x/y of alpha with y <= n by walking down
the Stern-Brocot tree. The interval [p/q, r/s] starts as [0/1, 1/1] and is
narrowed by the mediant (p+r)/(q+s) until one of the denominators passes n.

The comparison against the mediant is done as alpha*(q+s) versus p+r so that
no division is needed. When alpha lands exactly on a mediant that is too deep,
the bound with the larger denominator wins. When the search runs out, the
bound on the far side of the last mediant is returned, which is usually but
not always the closer of the two neighbours in the Farey sequence of order n.

The result can be 1/1 when alpha is within about 1/n of one.
*/
func Farey[F Real](alpha F, n uint32) (x, y uint32) {
	p, q := uint32(0), uint32(1)
	r, s := uint32(1), uint32(1)

	for q <= n && s <= n {
		m := alpha * F(q+s)
		switch {
		case m == F(p+r):
			if q+s <= n {
				return p + r, q + s
			}
			if s > q {
				return r, s
			}
			return p, q
		case m > F(p+r):
			p, q = p+r, q+s
		default:
			r, s = p+r, q+s
		}
	}

	if q > n {
		return r, s
	}
	return p, q
}

// FareyNearest is like Farey but stops while both bounds are still
// admissible and then picks the closer one. Ties go to the lower bound.
func FareyNearest[F Real](alpha F, n uint32) (x, y uint32) {
	p, q := uint32(0), uint32(1)
	r, s := uint32(1), uint32(1)

	for q+s <= n {
		m := alpha * F(q+s)
		switch {
		case m == F(p+r):
			return p + r, q + s
		case m > F(p+r):
			p, q = p+r, q+s
		default:
			r, s = p+r, q+s
		}
	}

	// (alpha - p/q) vs (r/s - alpha), both scaled by q*s
	below := (alpha*F(q) - F(p)) * F(s)
	above := (F(r) - alpha*F(s)) * F(q)
	if below <= above {
		return p, q
	}
	return r, s
}
