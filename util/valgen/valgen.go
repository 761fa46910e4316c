// Some helpers using closures to generate values
package valgen

func MakeIncreasingGen(start int32) func() int32 {
	current := start
	return func() int32 {
		current++
		return current
	}
}

// MakeLCGGen returns a deterministic pseudo-random generator. Values wrap over
// the full int32 range.
func MakeLCGGen(seed uint32) func() int32 {
	x := seed
	return func() int32 {
		x = x*1664525 + 1013904223
		return int32(x)
	}
}

// MakeBoundedGen returns values from gen folded into [0, n). n must be
// positive.
func MakeBoundedGen(gen func() int32, n int32) func() int32 {
	if n <= 0 {
		panic("bound must be positive")
	}

	return func() int32 {
		v := gen() % n
		if v < 0 {
			v += n
		}
		return v
	}
}

// Fill writes len(buf) generated values into buf.
func Fill(buf []int32, gen func() int32) {
	for i := range buf {
		buf[i] = gen()
	}
}
