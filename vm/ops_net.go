package vm

import "github.com/aisl-lang/aisl/op"

// execNet handles the socket, HTTP client, and WebSocket families. Handle
// values are ints; failures yield -1 handles, empty strings, or false.
func (vm *VM) execNet(code op.Code) {
	switch code {
	case op.TCPListen:
		port := vm.pop().Int
		vm.pushHandle(vm.sys.TCPListen(port))
	case op.TCPAccept:
		listener := vm.pop().Int
		vm.pushHandle(vm.sys.TCPAccept(listener))
	case op.TCPConnect:
		port := vm.pop().Int
		host := vm.pop().Str
		vm.pushHandle(vm.sys.TCPConnect(host, port))
	case op.TCPTLSConnect:
		port := vm.pop().Int
		host := vm.pop().Str
		vm.pushHandle(vm.sys.TCPTLSConnect(host, port))
	case op.TCPSend:
		data := vm.pop().Str
		conn := vm.pop().Int
		n, err := vm.sys.TCPSend(conn, data)
		if err != nil {
			vm.push(IntValue(-1))
			return
		}
		vm.push(IntValue(n))
	case op.TCPReceive:
		maxBytes := vm.pop().Int
		conn := vm.pop().Int
		data, err := vm.sys.TCPReceive(conn, maxBytes)
		if err != nil {
			vm.push(StringValue(""))
			return
		}
		vm.push(StringValue(data))
	case op.TCPClose:
		conn := vm.pop().Int
		vm.sys.TCPClose(conn) //nolint:errcheck
		vm.push(UnitValue())

	case op.UDPSocket:
		vm.pushHandle(vm.sys.UDPSocket())
	case op.UDPBind:
		port := vm.pop().Int
		sock := vm.pop().Int
		vm.push(BoolValue(vm.sys.UDPBind(sock, port) == nil))
	case op.UDPSendTo:
		data := vm.pop().Str
		port := vm.pop().Int
		host := vm.pop().Str
		sock := vm.pop().Int
		n, err := vm.sys.UDPSendTo(sock, host, port, data)
		if err != nil {
			vm.push(IntValue(-1))
			return
		}
		vm.push(IntValue(n))
	case op.UDPReceiveFrom:
		maxBytes := vm.pop().Int
		sock := vm.pop().Int
		data, err := vm.sys.UDPReceiveFrom(sock, maxBytes)
		if err != nil {
			vm.push(StringValue(""))
			return
		}
		vm.push(StringValue(data))

	case op.HTTPGet:
		url := vm.pop().Str
		vm.pushHandle(vm.sys.HTTPRequest("GET", url, ""))
	case op.HTTPPost:
		body := vm.pop().Str
		url := vm.pop().Str
		vm.pushHandle(vm.sys.HTTPRequest("POST", url, body))
	case op.HTTPPut:
		body := vm.pop().Str
		url := vm.pop().Str
		vm.pushHandle(vm.sys.HTTPRequest("PUT", url, body))
	case op.HTTPDelete:
		url := vm.pop().Str
		vm.pushHandle(vm.sys.HTTPRequest("DELETE", url, ""))
	case op.HTTPRequest:
		body := vm.pop().Str
		url := vm.pop().Str
		method := vm.pop().Str
		vm.pushHandle(vm.sys.HTTPRequest(method, url, body))
	case op.HTTPGetStatus:
		resp := vm.pop().Int
		status, err := vm.sys.HTTPStatus(resp)
		if err != nil {
			vm.push(IntValue(-1))
			return
		}
		vm.push(IntValue(status))
	case op.HTTPGetBody:
		resp := vm.pop().Int
		body, err := vm.sys.HTTPBody(resp)
		if err != nil {
			vm.push(StringValue(""))
			return
		}
		vm.push(StringValue(body))
	case op.HTTPGetHeader:
		name := vm.pop().Str
		resp := vm.pop().Int
		value, err := vm.sys.HTTPHeader(resp, name)
		if err != nil {
			vm.push(StringValue(""))
			return
		}
		vm.push(StringValue(value))
	case op.HTTPSetHeader:
		value := vm.pop().Str
		name := vm.pop().Str
		vm.pop() // request builder slot, unused
		vm.sys.HTTPSetHeader(name, value)
		vm.push(UnitValue())

	case op.WSConnect:
		url := vm.pop().Str
		vm.pushHandle(vm.sys.WSConnect(url))
	case op.WSSend:
		msg := vm.pop().Str
		conn := vm.pop().Int
		vm.push(BoolValue(vm.sys.WSSend(conn, msg) == nil))
	case op.WSReceive:
		conn := vm.pop().Int
		msg, err := vm.sys.WSReceive(conn)
		if err != nil {
			vm.push(StringValue(""))
			return
		}
		vm.push(StringValue(msg))
	case op.WSClose:
		conn := vm.pop().Int
		vm.sys.WSClose(conn) //nolint:errcheck
		vm.push(UnitValue())
	}
}

func (vm *VM) pushHandle(h int64, err error) {
	if err != nil {
		vm.push(IntValue(-1))
		return
	}
	vm.push(IntValue(h))
}
