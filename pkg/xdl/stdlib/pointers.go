package stdlib

import (
	"github.com/xdl-lang/xdl/pkg/xdl/evaluator"
)

// ptrNew allocates a heap cell. With no argument the pointer refers
// to an undefined value; with /ALLOCATE_HEAP likewise.
func ptrNew(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	if len(args) > 1 {
		return argCountError("PTR_NEW", 1, len(args))
	}
	var val evaluator.Object = evaluator.UNDEFINED
	if len(args) == 1 {
		val = evaluator.CopyValue(args[0])
	}
	return i.Heap().Alloc(val)
}

// ptrValid: 1 when the argument is a live pointer
func ptrValid(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	if len(args) != 1 {
		return argCountError("PTR_VALID", 1, len(args))
	}
	ptr, ok := args[0].(*evaluator.Pointer)
	if !ok {
		return evaluator.BoolLong(false)
	}
	return evaluator.BoolLong(i.Heap().Valid(ptr.ID))
}

// ptrFree releases the heap cells of its pointer arguments. Freed and
// null pointers are ignored.
func ptrFree(i *evaluator.Interp, args []evaluator.Object, kws map[string]evaluator.Object) evaluator.Object {
	for _, a := range args {
		ptr, ok := a.(*evaluator.Pointer)
		if !ok {
			return typeError("a pointer", a)
		}
		i.Heap().Free(ptr.ID)
	}
	return evaluator.UNDEFINED
}
