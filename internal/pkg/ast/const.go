package ast

import (
	"encoding/hex"
	"fmt"
)

type ConstValue interface {
	EqualsTo(o ConstValue) bool
	String() string
}

type CBool struct {
	Value bool
}

func (c CBool) EqualsTo(o ConstValue) bool {
	if y, ok := o.(CBool); ok {
		return c.Value == y.Value
	}
	return false
}

func (c CBool) String() string {
	return fmt.Sprintf("%t", c.Value)
}

type CU8 struct {
	Value uint8
}

func (c CU8) EqualsTo(o ConstValue) bool {
	if y, ok := o.(CU8); ok {
		return c.Value == y.Value
	}
	return false
}

func (c CU8) String() string {
	return fmt.Sprintf("%du8", c.Value)
}

type CU64 struct {
	Value uint64
}

func (c CU64) EqualsTo(o ConstValue) bool {
	if y, ok := o.(CU64); ok {
		return c.Value == y.Value
	}
	return false
}

func (c CU64) String() string {
	return fmt.Sprintf("%d", c.Value)
}

type CU128 struct {
	High uint64
	Low  uint64
}

func (c CU128) EqualsTo(o ConstValue) bool {
	if y, ok := o.(CU128); ok {
		return c.High == y.High && c.Low == y.Low
	}
	return false
}

func (c CU128) String() string {
	if c.High == 0 {
		return fmt.Sprintf("%du128", c.Low)
	}
	return fmt.Sprintf("0x%x%016xu128", c.High, c.Low)
}

type CAddress struct {
	Value Address
}

func (c CAddress) EqualsTo(o ConstValue) bool {
	if y, ok := o.(CAddress); ok {
		return c.Value == y.Value
	}
	return false
}

func (c CAddress) String() string {
	return c.Value.String()
}

type CBytes struct {
	Value []byte
}

func (c CBytes) EqualsTo(o ConstValue) bool {
	if y, ok := o.(CBytes); ok {
		return string(c.Value) == string(y.Value)
	}
	return false
}

func (c CBytes) String() string {
	return "b\"" + hex.EncodeToString(c.Value) + "\""
}
