package sio

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("State", func() {
	It("should marshal registers little-endian in a fixed order", func() {
		s := State{
			Control:  0x1C05,
			Status:   0x0003_0185,
			Mode:     0x004E,
			BaudRate: 0x00DC,
		}

		data, err := s.MarshalBinary()

		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte{
			0x05, 0x1C,
			0x85, 0x01, 0x03, 0x00,
			0x4E, 0x00,
			0xDC, 0x00,
		}))

		var back State
		Expect(back.UnmarshalBinary(data)).To(Succeed())
		Expect(back).To(Equal(s))
	})

	It("should reject a truncated state", func() {
		var s State

		err := s.UnmarshalBinary(make([]byte, StateSize-1))

		Expect(err).To(MatchError(ErrShortState))
	})
})
