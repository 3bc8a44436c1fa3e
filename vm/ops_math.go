package vm

import (
	"math"

	"github.com/aisl-lang/aisl/op"
)

func (vm *VM) execMath(code op.Code) {
	switch code {
	case op.MathSqrtFloat:
		v := vm.pop()
		vm.push(FloatValue(math.Sqrt(v.Float)))
	case op.MathPowFloat:
		exp := vm.pop()
		base := vm.pop()
		vm.push(FloatValue(math.Pow(base.Float, exp.Float)))
	case op.MathAbsInt:
		v := vm.pop()
		if v.Int < 0 {
			vm.push(IntValue(-v.Int))
		} else {
			vm.push(v)
		}
	case op.MathAbsFloat:
		v := vm.pop()
		vm.push(FloatValue(math.Abs(v.Float)))
	case op.MathMinInt:
		b := vm.pop()
		a := vm.pop()
		vm.push(IntValue(min(a.Int, b.Int)))
	case op.MathMinFloat:
		b := vm.pop()
		a := vm.pop()
		vm.push(FloatValue(math.Min(a.Float, b.Float)))
	case op.MathMaxInt:
		b := vm.pop()
		a := vm.pop()
		vm.push(IntValue(max(a.Int, b.Int)))
	case op.MathMaxFloat:
		b := vm.pop()
		a := vm.pop()
		vm.push(FloatValue(math.Max(a.Float, b.Float)))
	}
}
