package simulator_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tilebrain/routine"
	"github.com/sarchlab/tilebrain/simulator"
	"github.com/sarchlab/tilebrain/util/brains"
)

// hostArtifact is the fixed interface of a compiled host routine.
type hostArtifact interface {
	StateSize() int
	State(slot int, buf []int32)
	SetState(slot int, buf []int32)
	SetInput(slot int, buf []int32)
	SetOutputMap(slot int, m []int)
	Output(slot int, buf []int32)
	Update() error
}

var _ hostArtifact = (*simulator.HostSimulator)(nil)

var _ = DescribeTable("micro-iterations",
	func(build factory) {
		m := resolve(brains.Accumulator(3))
		s := build(m, 2)
		defer func() { Expect(s.Close()).To(Succeed()) }()

		for slot := 0; slot < 2; slot++ {
			s.SetInputMap(slot, []int{1})
			s.SetOutputMap(slot, []int{0})
		}
		s.SetInput(0, []int32{5})
		s.SetInput(1, []int32{-7})

		Expect(s.Update()).To(Succeed())

		out := make([]int32, 1)
		s.Output(0, out)
		Expect(out[0]).To(Equal(int32(15)))
		s.Output(1, out)
		Expect(out[0]).To(Equal(int32(-21)))

		Expect(s.Update()).To(Succeed())
		s.Output(0, out)
		Expect(out[0]).To(Equal(int32(30)))
	},
	Entry("host", factory(newHost)),
	Entry("kernel", factory(newKernel)),
)

var _ = DescribeTable("unconnected maps",
	func(build factory) {
		m := resolve(brains.Accumulator(1))
		s := build(m, 1)
		defer func() { Expect(s.Close()).To(Succeed()) }()

		s.SetState(0, []int32{4, 2})
		s.SetInput(0, []int32{100})
		Expect(s.Update()).To(Succeed())

		out := make([]int32, 1)
		s.Output(0, out)
		Expect(out[0]).To(Equal(int32(0)))

		state := make([]int32, 2)
		s.State(0, state)
		Expect(state).To(Equal([]int32{6, 2}))
	},
	Entry("host", factory(newHost)),
	Entry("kernel", factory(newKernel)),
)

var _ = DescribeTable("misuse",
	func(build factory) {
		m := resolve(brains.Accumulator(1))
		s := build(m, 2)

		Expect(func() { s.SetState(2, make([]int32, 2)) }).To(Panic())
		Expect(func() { s.SetState(0, make([]int32, 3)) }).To(Panic())
		Expect(func() { s.SetInputMap(0, []int{2}) }).To(Panic())
		Expect(func() { s.SetOutputMap(0, []int{0, 1}) }).To(Panic())

		Expect(s.Close()).To(Succeed())
		Expect(func() { _ = s.Update() }).To(Panic())
		Expect(func() { s.Output(0, make([]int32, 1)) }).To(Panic())
	},
	Entry("host", factory(newHost)),
	Entry("kernel", factory(newKernel)),
)

var _ = Describe("HostSimulator", func() {
	const failing = `
SLOT_STATE = 2
STAGE = 0

def update(state, stage, iterations):
    state[0] = 99
    fail("boom")
`

	It("should keep state when the routine fails", func() {
		m := resolve(brains.Accumulator(1))
		r, err := routine.Compile("failing.star", failing)
		Expect(err).NotTo(HaveOccurred())

		s, err := simulator.HostBuilder{}.
			WithModel(m).
			WithRoutine(r).
			WithSlots(3).
			Build("Host")
		Expect(err).NotTo(HaveOccurred())

		s.SetState(1, []int32{8, 9})
		s.SetOutputMap(1, []int{0})

		err = s.Update()
		Expect(err).To(MatchError(simulator.ErrFailed))
		Expect(err.Error()).To(ContainSubstring("boom"))
		Expect(s.Failed()).To(BeTrue())

		state := make([]int32, 2)
		s.State(1, state)
		Expect(state).To(Equal([]int32{8, 9}))

		out := make([]int32, 1)
		s.Output(1, out)
		Expect(out[0]).To(Equal(int32(0)))

		Expect(s.Update()).To(MatchError(simulator.ErrFailed))
		Expect(s.Close()).To(Succeed())
	})

	It("should reject a routine of another size", func() {
		m := resolve(brains.Router(2, 1))
		r, err := routine.Compile("failing.star", failing)
		Expect(err).NotTo(HaveOccurred())

		_, err = simulator.HostBuilder{}.WithModel(m).WithRoutine(r).WithSlots(1).Build("Host")
		Expect(err).To(HaveOccurred())
	})

	It("should compile once through a cache", func() {
		cache := routine.NewCache()
		m := resolve(brains.Router(2, 2))

		for i := 0; i < 3; i++ {
			s, err := simulator.HostBuilder{}.
				WithModel(m).
				WithCache(cache).
				WithSlots(1).
				Build("Host")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Close()).To(Succeed())
		}

		Expect(cache.Len()).To(Equal(1))
	})
})

var _ = Describe("KernelSimulator", func() {
	It("should dispatch once per iteration", func() {
		m := resolve(brains.Diffusion(2, 2))
		s, err := simulator.KernelBuilder{}.
			WithModel(m).
			WithSlots(3).
			WithLanes(7).
			Build("Kernel")
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Update()).To(Succeed())
		Expect(s.Update()).To(Succeed())

		stats := s.Device().Stats()
		Expect(stats.Dispatches).To(Equal(2 * m.IterationsPerUpdate))
		Expect(stats.WorkItems).To(Equal(2 * m.IterationsPerUpdate * 3 * m.Tiles))
		Expect(s.Close()).To(Succeed())
	})
})
