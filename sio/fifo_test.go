package sio

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ReceiveFIFO", func() {
	var fifo *ReceiveFIFO

	BeforeEach(func() {
		fifo = NewReceiveFIFO("FIFO")
		for i := 1; i <= ReceiveFIFOCapacity; i++ {
			Expect(fifo.Push(byte(i), EvictOldest)).To(BeFalse())
		}
	})

	It("should be full at capacity", func() {
		Expect(fifo.IsFull()).To(BeTrue())
		Expect(fifo.Size()).To(Equal(fifo.Capacity()))
	})

	It("should evict the oldest byte", func() {
		Expect(fifo.Push(9, EvictOldest)).To(BeTrue())
		Expect(fifo.Bytes()).To(Equal([]byte{2, 3, 4, 5, 6, 7, 8, 9}))
	})

	It("should drop the newest byte", func() {
		Expect(fifo.Push(9, DropNewest)).To(BeTrue())
		Expect(fifo.Bytes()).To(Equal([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
	})

	It("should remove from the front", func() {
		fifo.RemoveOne()
		Expect(fifo.Peek(0)).To(Equal(byte(2)))

		fifo.Clear()
		Expect(fifo.IsEmpty()).To(BeTrue())
		fifo.RemoveOne()
		Expect(fifo.IsEmpty()).To(BeTrue())
	})
})

var _ = Describe("TransmitBuffer", func() {
	It("should report the byte it overwrites", func() {
		var tx TransmitBuffer

		_, overwritten := tx.Store(0x41)
		Expect(overwritten).To(BeFalse())

		lost, overwritten := tx.Store(0x42)
		Expect(overwritten).To(BeTrue())
		Expect(lost).To(Equal(byte(0x41)))

		Expect(tx.Take()).To(Equal(byte(0x42)))
		Expect(tx.IsFull()).To(BeFalse())
	})
})
