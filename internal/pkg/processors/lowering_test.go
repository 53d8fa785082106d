package processors

import (
	"mvir-compiler/internal/pkg/ast"
	"mvir-compiler/internal/pkg/ast/bytecode"
	"mvir-compiler/internal/pkg/ast/ir"
	"mvir-compiler/internal/pkg/common"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func block(statements ...ir.Statement) *ir.Block {
	return &ir.Block{Statements: statements}
}

func copyLocal(name ast.Identifier) ir.Exp {
	return &ir.ECopy{Name: name}
}

func assign(name ast.Identifier, value ir.Exp) ir.Statement {
	return &ir.Assign{LValues: []ast.Identifier{name}, Value: value}
}

func constU64(v uint64) ir.Exp {
	return &ir.EConst{Value: ast.CU64{Value: v}}
}

func terminatorOf(b *bytecode.Block) bytecode.Op {
	term, ok := b.Terminator()
	Expect(ok).To(BeTrue(), "block %s has no terminator", b.Label)
	return term
}

var _ = Describe("Lowering", func() {
	It("lowers a straight-line body into a single block", func() {
		blocks, err := LowerBlocks(block(
			assign("x", constU64(1)),
			&ir.Return{Values: []ir.Exp{copyLocal("x")}},
		))
		Expect(err).NotTo(HaveOccurred())
		Expect(blocks).To(HaveLen(1))
		Expect(blocks[0].Ops).To(Equal([]bytecode.Op{
			bytecode.LdConst{Value: ast.CU64{Value: 1}},
			bytecode.StLoc{Name: "x"},
			bytecode.CopyLoc{Name: "x"},
			bytecode.Ret{},
		}))
	})

	It("lowers if/else into branch arms joining on a fresh block", func() {
		blocks, err := LowerBlocks(block(
			&ir.IfElse{
				Condition: copyLocal("c"),
				Then:      block(assign("x", constU64(1))),
				Else:      block(assign("x", constU64(2))),
			},
			&ir.Return{},
		))
		Expect(err).NotTo(HaveOccurred())
		Expect(blocks).To(HaveLen(4))

		Expect(terminatorOf(blocks[0])).To(Equal(bytecode.CondBranch{True: 1, False: 2}))
		Expect(terminatorOf(blocks[1])).To(Equal(bytecode.Jump{Target: 3}))
		Expect(terminatorOf(blocks[2])).To(Equal(bytecode.Jump{Target: 3}))
		Expect(blocks[3].Label).To(Equal(bytecode.BlockLabel(3)))
		Expect(blocks[3].Ops).To(Equal([]bytecode.Op{bytecode.Ret{}}))
	})

	It("emits no fallthrough jump for a branch arm that returns", func() {
		blocks, err := LowerBlocks(block(
			&ir.IfElse{
				Condition: copyLocal("c"),
				Then:      block(&ir.Return{}),
				Else:      block(&ir.Return{}),
			},
		))
		Expect(err).NotTo(HaveOccurred())
		// the join block is never referenced and is not emitted
		Expect(blocks).To(HaveLen(3))
		Expect(terminatorOf(blocks[1])).To(Equal(bytecode.Ret{}))
		Expect(terminatorOf(blocks[2])).To(Equal(bytecode.Ret{}))
	})

	It("lowers while with a head re-evaluating the condition", func() {
		blocks, err := LowerBlocks(block(
			&ir.While{
				Condition: copyLocal("c"),
				Body:      block(assign("x", constU64(1))),
			},
			&ir.Return{},
		))
		Expect(err).NotTo(HaveOccurred())
		Expect(blocks).To(HaveLen(4))

		// entry jumps to the head, head branches body/exit, body jumps back
		Expect(terminatorOf(blocks[0])).To(Equal(bytecode.Jump{Target: 1}))
		Expect(blocks[1].Ops).To(Equal([]bytecode.Op{
			bytecode.CopyLoc{Name: "c"},
			bytecode.CondBranch{True: 2, False: 3},
		}))
		Expect(terminatorOf(blocks[2])).To(Equal(bytecode.Jump{Target: 1}))
		Expect(blocks[3].Ops).To(Equal([]bytecode.Op{bytecode.Ret{}}))
	})

	It("targets the labeled outer loop from an inner continue", func() {
		blocks, err := LowerBlocks(block(
			&ir.While{
				Label:     "outer",
				Condition: copyLocal("c1"),
				Body: block(
					&ir.While{
						Condition: copyLocal("c2"),
						Body:      block(&ir.Continue{Label: "outer"}),
					},
				),
			},
			&ir.Return{},
		))
		Expect(err).NotTo(HaveOccurred())

		outerHead := blocks[1]
		Expect(outerHead.Ops[0]).To(Equal(bytecode.CopyLoc{Name: "c1"}))

		innerHead := blocks[3]
		Expect(innerHead.Ops[0]).To(Equal(bytecode.CopyLoc{Name: "c2"}))
		innerBody := blocks[4]

		// `continue outer` jumps to the outer head, not the inner one
		Expect(terminatorOf(innerBody)).To(Equal(bytecode.Jump{Target: outerHead.Label}))
		Expect(terminatorOf(innerBody)).NotTo(Equal(bytecode.Jump{Target: innerHead.Label}))
	})

	It("targets the innermost loop from an unlabeled continue", func() {
		blocks, err := LowerBlocks(block(
			&ir.While{
				Label:     "outer",
				Condition: copyLocal("c1"),
				Body: block(
					&ir.While{
						Condition: copyLocal("c2"),
						Body:      block(&ir.Continue{}),
					},
				),
			},
			&ir.Return{},
		))
		Expect(err).NotTo(HaveOccurred())
		innerHead := blocks[3]
		innerBody := blocks[4]
		Expect(terminatorOf(innerBody)).To(Equal(bytecode.Jump{Target: innerHead.Label}))
	})

	It("materializes a nop placeholder for a break-only loop exit", func() {
		blocks, err := LowerBlocks(block(
			&ir.Loop{Body: block(&ir.Break{})},
		))
		Expect(err).NotTo(HaveOccurred())
		Expect(blocks).To(HaveLen(3))

		head := blocks[1]
		Expect(head.Ops).To(Equal([]bytecode.Op{bytecode.Jump{Target: 2}}))

		exit := blocks[2]
		Expect(exit.Ops).To(HaveLen(2))
		nop, ok := exit.Ops[0].(bytecode.Nop)
		Expect(ok).To(BeTrue())
		Expect(nop.Label).NotTo(BeNil())
		Expect(*nop.Label).To(Equal(bytecode.NopLabel(exit.Label)))
		Expect(terminatorOf(exit)).To(Equal(bytecode.Ret{}))
	})

	It("jumps back to the loop head when the body falls through", func() {
		blocks, err := LowerBlocks(block(
			&ir.Loop{Body: block(
				&ir.IfElse{
					Condition: copyLocal("done"),
					Then:      block(&ir.Break{}),
					Else:      nil,
				},
			)},
			&ir.Return{},
		))
		Expect(err).NotTo(HaveOccurred())
		head := blocks[1]
		// join of the if/else jumps back to the head
		last := blocks[len(blocks)-2]
		Expect(terminatorOf(last)).To(Equal(bytecode.Jump{Target: head.Label}))
	})

	It("lowers an empty body to a lone returning block", func() {
		blocks, err := LowerBlocks(block())
		Expect(err).NotTo(HaveOccurred())
		Expect(blocks).To(HaveLen(1))
		Expect(blocks[0].Ops).To(Equal([]bytecode.Op{bytecode.Ret{}}))
	})

	It("lowers a body of empty nested blocks to a lone returning block", func() {
		blocks, err := LowerBlocks(block(&ir.Block{}, &ir.Block{Statements: []ir.Statement{&ir.Block{}}}))
		Expect(err).NotTo(HaveOccurred())
		Expect(blocks).To(HaveLen(1))
		Expect(blocks[0].Ops).To(Equal([]bytecode.Op{bytecode.Ret{}}))
	})

	It("drops statements after a terminator without error", func() {
		blocks, err := LowerBlocks(block(
			&ir.Return{},
			assign("x", constU64(1)),
		))
		Expect(err).NotTo(HaveOccurred())
		Expect(blocks).To(HaveLen(1))
		Expect(blocks[0].Ops).To(Equal([]bytecode.Op{bytecode.Ret{}}))
	})

	It("rejects break at function top level", func() {
		loc := ast.NewLocation("script.mvir", 3, 5)
		_, err := LowerBlocks(block(&ir.Break{Loc: loc}))
		Expect(err).To(HaveOccurred())
		Expect(common.KindOf(err)).To(Equal(common.BreakOutsideLoop))
		Expect(err.(common.Error).Location).To(Equal(loc))
	})

	It("rejects continue at function top level", func() {
		_, err := LowerBlocks(block(&ir.Continue{}))
		Expect(common.KindOf(err)).To(Equal(common.ContinueOutsideLoop))
	})

	It("rejects break to an unknown label", func() {
		_, err := LowerBlocks(block(
			&ir.While{
				Condition: copyLocal("c"),
				Body:      block(&ir.Break{Label: "missing"}),
			},
		))
		Expect(common.KindOf(err)).To(Equal(common.LabelNotFound))
	})

	It("treats a labeled non-loop block as an invalid target", func() {
		_, err := LowerBlocks(block(
			&ir.While{
				Condition: copyLocal("c"),
				Body: block(
					&ir.Block{Label: "inner", Statements: []ir.Statement{
						&ir.Break{Label: "inner"},
					}},
				),
			},
		))
		Expect(common.KindOf(err)).To(Equal(common.LabelNotFound))
	})

	It("lowers abort with an explicit code", func() {
		blocks, err := LowerBlocks(block(&ir.Abort{Code: constU64(42)}))
		Expect(err).NotTo(HaveOccurred())
		Expect(blocks).To(HaveLen(1))
		Expect(blocks[0].Ops).To(Equal([]bytecode.Op{
			bytecode.LdConst{Value: ast.CU64{Value: 42}},
			bytecode.Abort{},
		}))
	})

	It("lowers unpack into field stores in reverse declaration order", func() {
		blocks, err := LowerBlocks(block(
			&ir.Unpack{
				Struct:   "Pair",
				Bindings: []ast.Identifier{"a", "b"},
				Value:    &ir.EMove{Name: "p"},
			},
			&ir.Return{},
		))
		Expect(err).NotTo(HaveOccurred())
		Expect(blocks[0].Ops).To(Equal([]bytecode.Op{
			bytecode.MoveLoc{Name: "p"},
			bytecode.Unpack{Name: "Pair"},
			bytecode.StLoc{Name: "b"},
			bytecode.StLoc{Name: "a"},
			bytecode.Ret{},
		}))
	})

	It("produces bodies whose every jump target resolves", func() {
		blocks, err := LowerBlocks(block(
			&ir.While{
				Label:     "outer",
				Condition: copyLocal("c"),
				Body: block(
					&ir.IfElse{
						Condition: copyLocal("x"),
						Then:      block(&ir.Break{Label: "outer"}),
						Else:      block(&ir.Continue{}),
					},
				),
			},
			&ir.Return{},
		))
		Expect(err).NotTo(HaveOccurred())
		Expect(blocks.Validate()).To(Succeed())
	})

	It("passes native and lowered bodies through unchanged", func() {
		native := &ir.Function{Name: "emit", Body: ir.NativeBody{}}
		out, err := LowerFunction(native)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeIdenticalTo(native))
	})

	It("does not mutate the source function when lowering", func() {
		fn := &ir.Function{
			Name: "main",
			Body: ir.SourceBody{Block: block(&ir.Return{})},
		}
		out, err := LowerFunction(fn)
		Expect(err).NotTo(HaveOccurred())
		Expect(fn.Body).To(BeAssignableToTypeOf(ir.SourceBody{}))
		Expect(out.Body).To(BeAssignableToTypeOf(ir.LoweredBody{}))
	})
})
