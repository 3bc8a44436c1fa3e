package ast

// Visitor has a Visit method invoked for each expression encountered by
// Walk. If the result visitor w is not nil, Walk visits each child of the
// expression with w.
type Visitor interface {
	Visit(Expr) (w Visitor)
}

// Walk traverses an expression tree in depth-first order, calling
// v.Visit(expr) for expr and each of its children.
func Walk(v Visitor, expr Expr) {
	if expr == nil {
		return
	}
	if v = v.Visit(expr); v == nil {
		return
	}
	switch e := expr.(type) {
	case *Call:
		for _, arg := range e.Args {
			Walk(v, arg)
		}
	case *Binary:
		Walk(v, e.Left)
		Walk(v, e.Right)
	case *If:
		Walk(v, e.Cond)
		Walk(v, e.Then)
		Walk(v, e.Else)
	case *Let:
		Walk(v, e.Value)
		Walk(v, e.Body)
	case *Seq:
		for _, child := range e.Exprs {
			Walk(v, child)
		}
	case *While:
		Walk(v, e.Cond)
		for _, child := range e.Body {
			Walk(v, child)
		}
	case *Return:
		Walk(v, e.Value)
	case *Spawn:
		Walk(v, e.Call)
	case *Await:
		Walk(v, e.Value)
	case *ChannelSend:
		Walk(v, e.Channel)
		Walk(v, e.Value)
	case *ChannelRecv:
		Walk(v, e.Channel)
	case *IOOpen:
		Walk(v, e.Path)
		Walk(v, e.Mode)
	case *IORead:
		Walk(v, e.Handle)
	case *IOWrite:
		Walk(v, e.Handle)
		Walk(v, e.Data)
	case *IOClose:
		Walk(v, e.Handle)
	}
}

type inspector func(Expr) bool

func (f inspector) Visit(expr Expr) Visitor {
	if f(expr) {
		return f
	}
	return nil
}

// Inspect traverses an expression tree, calling f for each expression. If f
// returns false, children of the current expression are skipped.
func Inspect(expr Expr, f func(Expr) bool) {
	Walk(inspector(f), expr)
}

// ContainsSurfaceLoops reports whether any while, break, or continue node
// remains in the expression. Desugared function bodies must report false.
func ContainsSurfaceLoops(expr Expr) bool {
	found := false
	Inspect(expr, func(e Expr) bool {
		switch e.(type) {
		case *While, *Break, *Continue:
			found = true
			return false
		}
		return !found
	})
	return found
}
