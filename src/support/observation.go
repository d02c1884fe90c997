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

/*
ReduceObservation rebuilds a 64 bit count from a counter that is only
readable as two halves: a high word kept by software (for instance the
number of wrap interrupts of a 16 bit PWM counter) and the hardware's low
word. The halves are read as th1, tl1, th2, tl2 and cannot be read
atomically, so a wrap can slip in between.

The count is assumed to advance by much less than half of scale between the
first and last read. That is easily true when the reads are a few hundred
nanoseconds apart and the counted clock is below about 100MHz.
*/
func ReduceObservation(scale uint64, th1 uint32, tl1 uint32, th2 uint32, tl2 uint32) uint64 {
	if th1 == th2 {
		// a wrap after tl1 would have shown up in th2
		return uint64(th1)*scale + uint64(tl1)
	}
	if tl1 < tl2 {
		// no rollover between tl1 and tl2, so both came after the wrap
		return uint64(th2)*scale + uint64(tl1)
	}
	// tl1 was taken just before the wrap
	return uint64(th1)*scale + uint64(tl1)
}
