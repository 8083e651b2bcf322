package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingHook struct {
	count int
}

func (h *countingHook) Func(HookCtx) {
	h.count++
}

var _ = Describe("HookableBase", func() {
	var (
		base *HookableBase
		pos  *HookPos
	)

	BeforeEach(func() {
		base = NewHookableBase()
		pos = &HookPos{Name: "Test"}
	})

	It("should invoke hooks in registration order", func() {
		var order []string

		base.AcceptHook(HookFunc(func(ctx HookCtx) { order = append(order, "first") }))
		base.AcceptHook(HookFunc(func(ctx HookCtx) {
			Expect(ctx.Pos).To(BeIdenticalTo(pos))
			Expect(ctx.Item).To(Equal(42))
			order = append(order, "second")
		}))
		base.InvokeHook(HookCtx{Domain: base, Pos: pos, Item: 42})

		Expect(order).To(Equal([]string{"first", "second"}))
		Expect(base.NumHooks()).To(Equal(2))
		Expect(base.Hooks()).To(HaveLen(2))
	})

	It("should accept a function value directly", func() {
		var items []any

		var hook Hook = HookFunc(func(ctx HookCtx) { items = append(items, ctx.Item) })
		base.AcceptHook(hook)
		base.InvokeHook(HookCtx{Domain: base, Pos: pos, Item: "x"})

		Expect(items).To(Equal([]any{"x"}))
	})

	It("should panic on a duplicated hook", func() {
		h := &countingHook{}
		base.AcceptHook(h)

		Expect(func() { base.AcceptHook(h) }).To(Panic())

		base.InvokeHook(HookCtx{Domain: base, Pos: pos})
		Expect(h.count).To(Equal(1))
	})
})
