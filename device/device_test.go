package device

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"
)

var _ = Describe("Device", func() {
	var (
		d   *Device
		k   *Kernel
		a   *Buffer
		b   *Buffer
		buf []int32
	)

	const slots = 3

	BeforeEach(func() {
		d = NewBuilder().
			WithEngine(sim.NewSerialEngine()).
			WithFreq(1 * sim.GHz).
			WithComputeUnits(2).
			WithLanes(2).
			Build("Device")

		// Every word is incremented once per dispatch.
		k = MustParse(`
.grid 2 2
.tile 1
.regs 3
LOAD, $0, @0:0, 0
CONST, $1, #1
ADD, $2, $0, $1
STORE, 0, $2
`)
		a = d.NewBuffer("A", slots*k.SlotSize())
		b = d.NewBuffer("B", slots*k.SlotSize())
		buf = make([]int32, slots*k.SlotSize())
	})

	It("should run queued dispatches in order", func() {
		for i := range buf {
			buf[i] = int32(i * 10)
		}
		a.Write(buf)

		Expect(d.Enqueue(k, a, b, slots)).To(Succeed())
		Expect(d.Enqueue(k, b, a, slots)).To(Succeed())
		Expect(d.Enqueue(k, a, b, slots)).To(Succeed())
		Expect(d.Finish()).To(Succeed())
		Expect(d.Busy()).To(BeFalse())

		b.Read(buf)
		for i, v := range buf {
			Expect(v).To(Equal(int32(i*10 + 3)))
		}

		s := d.Stats()
		Expect(s.Dispatches).To(Equal(3))
		Expect(s.WorkItems).To(Equal(3 * slots * 4))
		Expect(s.Ticks).To(Equal(3 * 3))
	})

	It("should refuse buffer access while busy", func() {
		Expect(d.Enqueue(k, a, b, slots)).To(Succeed())
		Expect(func() { a.Write(buf) }).To(Panic())
		Expect(func() { b.Read(buf) }).To(Panic())
		Expect(d.Finish()).To(Succeed())
		Expect(func() { b.Read(buf) }).NotTo(Panic())
	})

	It("should reject mismatched dispatches", func() {
		small := d.NewBuffer("C", 4)
		Expect(d.Enqueue(k, a, small, slots)).To(MatchError(ErrDispatch))
		Expect(d.Enqueue(k, a, a, slots)).To(MatchError(ErrDispatch))

		other := NewBuilder().Build("Other")
		foreign := other.NewBuffer("D", slots*k.SlotSize())
		Expect(d.Enqueue(k, a, foreign, slots)).To(MatchError(ErrDispatch))
		Expect(d.Busy()).To(BeFalse())
	})

	It("should reuse the dispatch queue across rounds", func() {
		a.Write(buf)

		for round := 0; round < 5; round++ {
			Expect(d.Enqueue(k, a, b, slots)).To(Succeed())
			Expect(d.Enqueue(k, b, a, slots)).To(Succeed())
			Expect(d.Finish()).To(Succeed())
			Expect(d.queue).To(HaveCap(2))
		}

		a.Read(buf)
		for _, v := range buf {
			Expect(v).To(Equal(int32(10)))
		}
		Expect(d.Stats().Dispatches).To(Equal(10))
	})

	It("should finish immediately with an empty queue", func() {
		Expect(d.Finish()).To(Succeed())
		Expect(d.Stats().Ticks).To(Equal(0))
	})

	It("should render stats", func() {
		Expect(StatsTable(d)).To(ContainSubstring("Device"))
	})
})
