package device

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("workItemEmulator", func() {
	var (
		e workItemEmulator
		k *Kernel
	)

	BeforeEach(func() {
		// Each tile stores its east neighbour's word 0 plus its own word 1.
		k = MustParse(`
.grid 3 2
.tile 2
.regs 3
LOAD, $0, @0:1, 0
LOAD, $1, @0:0, 1
ADD, $2, $0, $1
STORE, 0, $2
STORE, 1, $1
`)
		e = workItemEmulator{}
		e.reserve(k.Regs)
	})

	It("should read the wrapped neighbour", func() {
		src := make([]int32, 2*k.SlotSize())
		for i := range src {
			src[i] = int32(i)
		}
		dst := make([]int32, len(src))

		// Slot 1, tile 2 sits on the east edge of row 0; its east neighbour
		// is tile 0.
		wi := 1*k.Tiles() + 2
		e.run(k, src, dst, wi)

		base := 1 * k.SlotSize()
		Expect(dst[base+2*2]).To(Equal(src[base+0] + src[base+2*2+1]))
		Expect(dst[base+2*2+1]).To(Equal(src[base+2*2+1]))
	})

	It("should leave other tiles untouched", func() {
		src := make([]int32, k.SlotSize())
		dst := make([]int32, k.SlotSize())
		for i := range dst {
			dst[i] = -1
		}

		e.run(k, src, dst, 4)

		for i, v := range dst {
			if i/2 == 4 {
				Expect(v).To(Equal(int32(0)))
			} else {
				Expect(v).To(Equal(int32(-1)))
			}
		}
	})

	It("should wrap vertically", func() {
		k.Insts[0].DRow, k.Insts[0].DCol = -1, 0
		src := make([]int32, k.SlotSize())
		src[3*2] = 40
		dst := make([]int32, k.SlotSize())

		e.run(k, src, dst, 0)

		Expect(dst[0]).To(Equal(int32(40)))
	})
})
