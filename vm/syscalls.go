package vm

import (
	"bufio"
	"crypto/tls"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/gorilla/websocket"
	_ "github.com/mattn/go-sqlite3"
)

// Syscalls is the host surface the VM uses for every operation with an OS
// effect. Handles are opaque int values owned by the implementation. The VM
// core never touches the OS directly, so tests can substitute a fake.
type Syscalls interface {
	// Byte-stream handles backing the io_file_* operations.
	Open(path, mode string) (int64, error)
	Read(h int64, maxBytes int64) (string, error)
	Write(h int64, data string) (int64, error)
	CloseHandle(h int64) error

	// Whole-file and directory operations.
	FileRead(path string) (string, error)
	FileWrite(path, data string) error
	FileAppend(path, data string) error
	FileExists(path string) bool
	FileDelete(path string) error
	FileSize(path string) (int64, error)
	FileMtime(path string) (int64, error)
	DirCreate(path string) error
	DirDelete(path string) error
	DirList(path string) ([]string, error)

	StdinRead() (string, error)
	StdinReadAll() (string, error)

	TCPListen(port int64) (int64, error)
	TCPAccept(listener int64) (int64, error)
	TCPConnect(host string, port int64) (int64, error)
	TCPTLSConnect(host string, port int64) (int64, error)
	TCPSend(conn int64, data string) (int64, error)
	TCPReceive(conn int64, maxBytes int64) (string, error)
	TCPClose(conn int64) error
	UDPSocket() (int64, error)
	UDPBind(sock, port int64) error
	UDPSendTo(sock int64, host string, port int64, data string) (int64, error)
	UDPReceiveFrom(sock, maxBytes int64) (string, error)

	HTTPSetHeader(name, value string)
	HTTPRequest(method, url, body string) (int64, error)
	HTTPStatus(resp int64) (int64, error)
	HTTPBody(resp int64) (string, error)
	HTTPHeader(resp int64, name string) (string, error)

	WSConnect(url string) (int64, error)
	WSSend(conn int64, msg string) error
	WSReceive(conn int64) (string, error)
	WSClose(conn int64) error

	ProcessExec(cmd, args string) (int64, error)
	ProcessSpawn(cmd, args string) (int64, error)
	ProcessRead(proc int64) (string, error)
	ProcessWrite(proc int64, data string) error
	ProcessWait(proc int64) (int64, error)
	ProcessKill(proc int64, signal int64) error
	ProcessPipe() (int64, error)

	DBOpen(path string) (int64, error)
	DBClose(db int64) error
	DBExec(db int64, query string) (int64, error)
	DBQuery(db int64, query string) (string, error)
	DBPrepare(db int64, query string) (int64, error)
	DBBind(stmt, index int64, value string) error
	DBStep(stmt int64) (bool, error)
	DBColumn(stmt, index int64) (string, error)
	DBReset(stmt int64) error
	DBFinalize(stmt int64) error
}

// hostSyscalls is the production Syscalls implementation over the local OS.
type hostSyscalls struct {
	mu      sync.Mutex
	next    int64
	handles map[int64]any

	httpHeaders http.Header
	httpClient  *http.Client

	stdin *bufio.Reader
}

// NewHostSyscalls returns a Syscalls backed by the local OS, network, and an
// SQLite driver.
func NewHostSyscalls() Syscalls {
	return &hostSyscalls{
		handles:     make(map[int64]any),
		httpHeaders: make(http.Header),
		httpClient:  http.DefaultClient,
		stdin:       bufio.NewReader(os.Stdin),
	}
}

func (h *hostSyscalls) put(v any) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	h.handles[h.next] = v
	return h.next
}

func (h *hostSyscalls) get(id int64) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.handles[id]
	if !ok {
		return nil, fmt.Errorf("invalid handle %d", id)
	}
	return v, nil
}

func (h *hostSyscalls) drop(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.handles, id)
}

type httpResponse struct {
	status int
	body   string
	header http.Header
}

type hostProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

type hostPipe struct {
	r *os.File
	w *os.File
}

type hostStmt struct {
	db    *sql.DB
	query string
	args  []any
	rows  *sql.Rows
	row   []string
}

// --- Files ---

func (h *hostSyscalls) Open(path, mode string) (int64, error) {
	var flag int
	switch mode {
	case "r":
		flag = os.O_RDONLY
	case "w":
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case "a":
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case "rw":
		flag = os.O_RDWR | os.O_CREATE
	default:
		return 0, fmt.Errorf("invalid open mode %q", mode)
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return 0, err
	}
	return h.put(f), nil
}

func (h *hostSyscalls) Read(id int64, maxBytes int64) (string, error) {
	v, err := h.get(id)
	if err != nil {
		return "", err
	}
	f, ok := v.(*os.File)
	if !ok {
		return "", fmt.Errorf("handle %d is not a file", id)
	}
	buf := make([]byte, maxBytes)
	n, err := f.Read(buf)
	if n > 0 {
		return string(buf[:n]), nil
	}
	if err == io.EOF {
		return "", nil
	}
	return "", err
}

func (h *hostSyscalls) Write(id int64, data string) (int64, error) {
	v, err := h.get(id)
	if err != nil {
		return 0, err
	}
	f, ok := v.(*os.File)
	if !ok {
		return 0, fmt.Errorf("handle %d is not a file", id)
	}
	n, err := f.WriteString(data)
	return int64(n), err
}

func (h *hostSyscalls) CloseHandle(id int64) error {
	v, err := h.get(id)
	if err != nil {
		return err
	}
	h.drop(id)
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (h *hostSyscalls) FileRead(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func (h *hostSyscalls) FileWrite(path, data string) error {
	return os.WriteFile(path, []byte(data), 0o644)
}

func (h *hostSyscalls) FileAppend(path, data string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(data)
	return err
}

func (h *hostSyscalls) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (h *hostSyscalls) FileDelete(path string) error { return os.Remove(path) }

func (h *hostSyscalls) FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (h *hostSyscalls) FileMtime(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.ModTime().Unix(), nil
}

func (h *hostSyscalls) DirCreate(path string) error { return os.MkdirAll(path, 0o755) }
func (h *hostSyscalls) DirDelete(path string) error { return os.Remove(path) }

func (h *hostSyscalls) DirList(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// --- Stdin ---

func (h *hostSyscalls) StdinRead() (string, error) {
	line, err := h.stdin.ReadString('\n')
	return strings.TrimRight(line, "\n"), err
}

func (h *hostSyscalls) StdinReadAll() (string, error) {
	data, err := io.ReadAll(h.stdin)
	return string(data), err
}

// --- TCP / UDP ---

func (h *hostSyscalls) TCPListen(port int64) (int64, error) {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, err
	}
	return h.put(l), nil
}

func (h *hostSyscalls) TCPAccept(id int64) (int64, error) {
	v, err := h.get(id)
	if err != nil {
		return 0, err
	}
	l, ok := v.(net.Listener)
	if !ok {
		return 0, fmt.Errorf("handle %d is not a listener", id)
	}
	conn, err := l.Accept()
	if err != nil {
		return 0, err
	}
	return h.put(conn), nil
}

func (h *hostSyscalls) TCPConnect(host string, port int64) (int64, error) {
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return 0, err
	}
	return h.put(conn), nil
}

func (h *hostSyscalls) TCPTLSConnect(host string, port int64) (int64, error) {
	conn, err := tls.Dial("tcp", fmt.Sprintf("%s:%d", host, port), &tls.Config{ServerName: host})
	if err != nil {
		return 0, err
	}
	return h.put(conn), nil
}

func (h *hostSyscalls) tcpConn(id int64) (net.Conn, error) {
	v, err := h.get(id)
	if err != nil {
		return nil, err
	}
	conn, ok := v.(net.Conn)
	if !ok {
		return nil, fmt.Errorf("handle %d is not a connection", id)
	}
	return conn, nil
}

func (h *hostSyscalls) TCPSend(id int64, data string) (int64, error) {
	conn, err := h.tcpConn(id)
	if err != nil {
		return 0, err
	}
	n, err := conn.Write([]byte(data))
	return int64(n), err
}

func (h *hostSyscalls) TCPReceive(id int64, maxBytes int64) (string, error) {
	conn, err := h.tcpConn(id)
	if err != nil {
		return "", err
	}
	buf := make([]byte, maxBytes)
	n, err := conn.Read(buf)
	if n > 0 {
		return string(buf[:n]), nil
	}
	if err == io.EOF {
		return "", nil
	}
	return "", err
}

func (h *hostSyscalls) TCPClose(id int64) error { return h.CloseHandle(id) }

func (h *hostSyscalls) UDPSocket() (int64, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return 0, err
	}
	return h.put(conn), nil
}

func (h *hostSyscalls) udpConn(id int64) (*net.UDPConn, error) {
	v, err := h.get(id)
	if err != nil {
		return nil, err
	}
	conn, ok := v.(*net.UDPConn)
	if !ok {
		return nil, fmt.Errorf("handle %d is not a UDP socket", id)
	}
	return conn, nil
}

func (h *hostSyscalls) UDPBind(id, port int64) error {
	conn, err := h.udpConn(id)
	if err != nil {
		return err
	}
	conn.Close()
	bound, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(port)})
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.handles[id] = bound
	h.mu.Unlock()
	return nil
}

func (h *hostSyscalls) UDPSendTo(id int64, host string, port int64, data string) (int64, error) {
	conn, err := h.udpConn(id)
	if err != nil {
		return 0, err
	}
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return 0, err
	}
	n, err := conn.WriteToUDP([]byte(data), addr)
	return int64(n), err
}

func (h *hostSyscalls) UDPReceiveFrom(id, maxBytes int64) (string, error) {
	conn, err := h.udpConn(id)
	if err != nil {
		return "", err
	}
	buf := make([]byte, maxBytes)
	n, _, err := conn.ReadFromUDP(buf)
	if n > 0 {
		return string(buf[:n]), nil
	}
	return "", err
}

// --- HTTP client ---

func (h *hostSyscalls) HTTPSetHeader(name, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.httpHeaders.Set(name, value)
}

func (h *hostSyscalls) HTTPRequest(method, url, body string) (int64, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, err
	}
	h.mu.Lock()
	for name, values := range h.httpHeaders {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	h.mu.Unlock()
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	return h.put(&httpResponse{
		status: resp.StatusCode,
		body:   string(data),
		header: resp.Header,
	}), nil
}

func (h *hostSyscalls) httpResp(id int64) (*httpResponse, error) {
	v, err := h.get(id)
	if err != nil {
		return nil, err
	}
	resp, ok := v.(*httpResponse)
	if !ok {
		return nil, fmt.Errorf("handle %d is not an HTTP response", id)
	}
	return resp, nil
}

func (h *hostSyscalls) HTTPStatus(id int64) (int64, error) {
	resp, err := h.httpResp(id)
	if err != nil {
		return 0, err
	}
	return int64(resp.status), nil
}

func (h *hostSyscalls) HTTPBody(id int64) (string, error) {
	resp, err := h.httpResp(id)
	if err != nil {
		return "", err
	}
	return resp.body, nil
}

func (h *hostSyscalls) HTTPHeader(id int64, name string) (string, error) {
	resp, err := h.httpResp(id)
	if err != nil {
		return "", err
	}
	return resp.header.Get(name), nil
}

// --- WebSocket client ---

func (h *hostSyscalls) WSConnect(url string) (int64, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return 0, err
	}
	return h.put(conn), nil
}

func (h *hostSyscalls) wsConn(id int64) (*websocket.Conn, error) {
	v, err := h.get(id)
	if err != nil {
		return nil, err
	}
	conn, ok := v.(*websocket.Conn)
	if !ok {
		return nil, fmt.Errorf("handle %d is not a websocket", id)
	}
	return conn, nil
}

func (h *hostSyscalls) WSSend(id int64, msg string) error {
	conn, err := h.wsConn(id)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

func (h *hostSyscalls) WSReceive(id int64) (string, error) {
	conn, err := h.wsConn(id)
	if err != nil {
		return "", err
	}
	_, data, err := conn.ReadMessage()
	return string(data), err
}

func (h *hostSyscalls) WSClose(id int64) error {
	conn, err := h.wsConn(id)
	if err != nil {
		return err
	}
	h.drop(id)
	return conn.Close()
}

// --- Processes ---

func splitArgs(args string) []string {
	if args == "" {
		return nil
	}
	return strings.Fields(args)
}

func (h *hostSyscalls) ProcessExec(cmd, args string) (int64, error) {
	c := exec.Command(cmd, splitArgs(args)...)
	if err := c.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return int64(exitErr.ExitCode()), nil
		}
		return -1, err
	}
	return 0, nil
}

func (h *hostSyscalls) ProcessSpawn(cmd, args string) (int64, error) {
	c := exec.Command(cmd, splitArgs(args)...)
	stdin, err := c.StdinPipe()
	if err != nil {
		return 0, err
	}
	stdout, err := c.StdoutPipe()
	if err != nil {
		return 0, err
	}
	if err := c.Start(); err != nil {
		return 0, err
	}
	return h.put(&hostProcess{cmd: c, stdin: stdin, stdout: stdout}), nil
}

func (h *hostSyscalls) proc(id int64) (*hostProcess, error) {
	v, err := h.get(id)
	if err != nil {
		return nil, err
	}
	p, ok := v.(*hostProcess)
	if !ok {
		return nil, fmt.Errorf("handle %d is not a process", id)
	}
	return p, nil
}

func (h *hostSyscalls) ProcessRead(id int64) (string, error) {
	p, err := h.proc(id)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 4096)
	n, err := p.stdout.Read(buf)
	if n > 0 {
		return string(buf[:n]), nil
	}
	if err == io.EOF {
		return "", nil
	}
	return "", err
}

func (h *hostSyscalls) ProcessWrite(id int64, data string) error {
	p, err := h.proc(id)
	if err != nil {
		return err
	}
	_, err = io.WriteString(p.stdin, data)
	return err
}

func (h *hostSyscalls) ProcessWait(id int64) (int64, error) {
	p, err := h.proc(id)
	if err != nil {
		return -1, err
	}
	h.drop(id)
	p.stdin.Close()
	if err := p.cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return int64(exitErr.ExitCode()), nil
		}
		return -1, err
	}
	return 0, nil
}

func (h *hostSyscalls) ProcessKill(id, signal int64) error {
	p, err := h.proc(id)
	if err != nil {
		return err
	}
	return p.cmd.Process.Signal(syscall.Signal(signal))
}

func (h *hostSyscalls) ProcessPipe() (int64, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return 0, err
	}
	return h.put(&hostPipe{r: r, w: w}), nil
}

// --- SQLite ---

func (h *hostSyscalls) DBOpen(path string) (int64, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return 0, err
	}
	return h.put(db), nil
}

func (h *hostSyscalls) db(id int64) (*sql.DB, error) {
	v, err := h.get(id)
	if err != nil {
		return nil, err
	}
	db, ok := v.(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("handle %d is not a database", id)
	}
	return db, nil
}

func (h *hostSyscalls) DBClose(id int64) error {
	db, err := h.db(id)
	if err != nil {
		return err
	}
	h.drop(id)
	return db.Close()
}

func (h *hostSyscalls) DBExec(id int64, query string) (int64, error) {
	db, err := h.db(id)
	if err != nil {
		return 0, err
	}
	res, err := db.Exec(query)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}

// DBQuery runs a query and returns the rows as a JSON array of objects.
func (h *hostSyscalls) DBQuery(id int64, query string) (string, error) {
	db, err := h.db(id)
	if err != nil {
		return "", err
	}
	rows, err := db.Query(query)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}
	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	data, err := json.Marshal(out)
	return string(data), err
}

func (h *hostSyscalls) DBPrepare(id int64, query string) (int64, error) {
	db, err := h.db(id)
	if err != nil {
		return 0, err
	}
	return h.put(&hostStmt{db: db, query: query}), nil
}

func (h *hostSyscalls) stmt(id int64) (*hostStmt, error) {
	v, err := h.get(id)
	if err != nil {
		return nil, err
	}
	s, ok := v.(*hostStmt)
	if !ok {
		return nil, fmt.Errorf("handle %d is not a statement", id)
	}
	return s, nil
}

func (h *hostSyscalls) DBBind(id, index int64, value string) error {
	s, err := h.stmt(id)
	if err != nil {
		return err
	}
	for int64(len(s.args)) < index {
		s.args = append(s.args, nil)
	}
	s.args[index-1] = value
	return nil
}

// DBStep advances a prepared statement one row, running the query on the
// first call. Returns false when no rows remain.
func (h *hostSyscalls) DBStep(id int64) (bool, error) {
	s, err := h.stmt(id)
	if err != nil {
		return false, err
	}
	if s.rows == nil {
		rows, err := s.db.Query(s.query, s.args...)
		if err != nil {
			return false, err
		}
		s.rows = rows
	}
	if !s.rows.Next() {
		return false, s.rows.Err()
	}
	cols, err := s.rows.Columns()
	if err != nil {
		return false, err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		return false, err
	}
	s.row = make([]string, len(cols))
	for i, v := range values {
		switch val := v.(type) {
		case nil:
			s.row[i] = ""
		case []byte:
			s.row[i] = string(val)
		default:
			s.row[i] = fmt.Sprint(val)
		}
	}
	return true, nil
}

func (h *hostSyscalls) DBColumn(id, index int64) (string, error) {
	s, err := h.stmt(id)
	if err != nil {
		return "", err
	}
	if index < 0 || int(index) >= len(s.row) {
		return "", fmt.Errorf("column index %d out of range", index)
	}
	return s.row[index], nil
}

func (h *hostSyscalls) DBReset(id int64) error {
	s, err := h.stmt(id)
	if err != nil {
		return err
	}
	if s.rows != nil {
		s.rows.Close()
		s.rows = nil
	}
	s.row = nil
	return nil
}

func (h *hostSyscalls) DBFinalize(id int64) error {
	if err := h.DBReset(id); err != nil {
		return err
	}
	h.drop(id)
	return nil
}
