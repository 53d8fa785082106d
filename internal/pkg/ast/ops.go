package ast

type BinaryOp uint8

const (
	binaryOpNone BinaryOp = iota
	BinaryAdd
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryMod
	BinaryBitAnd
	BinaryBitOr
	BinaryXor
	BinaryAnd
	BinaryOr
	BinaryEq
	BinaryNeq
	BinaryLt
	BinaryGt
	BinaryLe
	BinaryGe
)

var binaryOpNames = map[BinaryOp]string{
	BinaryAdd:    "+",
	BinarySub:    "-",
	BinaryMul:    "*",
	BinaryDiv:    "/",
	BinaryMod:    "%",
	BinaryBitAnd: "&",
	BinaryBitOr:  "|",
	BinaryXor:    "^",
	BinaryAnd:    "&&",
	BinaryOr:     "||",
	BinaryEq:     "==",
	BinaryNeq:    "!=",
	BinaryLt:     "<",
	BinaryGt:     ">",
	BinaryLe:     "<=",
	BinaryGe:     ">=",
}

func (op BinaryOp) String() string {
	return binaryOpNames[op]
}
