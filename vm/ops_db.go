package vm

import "github.com/aisl-lang/aisl/op"

// execDB handles the embedded database operations. Queries come back as a
// JSON array of row objects; prepared statements step one row at a time.
func (vm *VM) execDB(code op.Code) {
	switch code {
	case op.SQLiteOpen:
		path := vm.pop().Str
		vm.pushHandle(vm.sys.DBOpen(path))

	case op.SQLiteClose:
		db := vm.pop().Int
		vm.push(BoolValue(vm.sys.DBClose(db) == nil))

	case op.SQLiteExec:
		query := vm.pop().Str
		db := vm.pop().Int
		affected, err := vm.sys.DBExec(db, query)
		if err != nil {
			vm.push(IntValue(-1))
			return
		}
		vm.push(IntValue(affected))

	case op.SQLiteQuery:
		query := vm.pop().Str
		db := vm.pop().Int
		rows, err := vm.sys.DBQuery(db, query)
		if err != nil {
			vm.push(StringValue(""))
			return
		}
		vm.push(StringValue(rows))

	case op.SQLitePrepare:
		query := vm.pop().Str
		db := vm.pop().Int
		vm.pushHandle(vm.sys.DBPrepare(db, query))

	case op.SQLiteBind:
		value := vm.pop()
		index := vm.pop().Int
		stmt := vm.pop().Int
		vm.push(BoolValue(vm.sys.DBBind(stmt, index, value.AsString()) == nil))

	case op.SQLiteStep:
		stmt := vm.pop().Int
		more, err := vm.sys.DBStep(stmt)
		if err != nil {
			vm.push(BoolValue(false))
			return
		}
		vm.push(BoolValue(more))

	case op.SQLiteColumn:
		index := vm.pop().Int
		stmt := vm.pop().Int
		value, err := vm.sys.DBColumn(stmt, index)
		if err != nil {
			vm.push(StringValue(""))
			return
		}
		vm.push(StringValue(value))

	case op.SQLiteReset:
		stmt := vm.pop().Int
		vm.push(BoolValue(vm.sys.DBReset(stmt) == nil))

	case op.SQLiteFinalize:
		stmt := vm.pop().Int
		vm.push(BoolValue(vm.sys.DBFinalize(stmt) == nil))
	}
}
