package compiler

import "github.com/aisl-lang/aisl/op"

// builtin is one entry in the builtin operation table: a fixed opcode and the
// argument count the compiler enforces at the call site.
type builtin struct {
	Op    op.Code
	Arity int
}

// builtins maps source-level operation names onto opcodes. Names resolved by
// typed dispatch (see typedOperation) land here after resolution, so the
// table only contains fully suffixed names.
var builtins = map[string]builtin{
	// Boolean logic.
	"and": {op.AndBool, 2},
	"or":  {op.OrBool, 2},
	"not": {op.NotBool, 1},

	// Integer arithmetic and comparison.
	"op_add_i64": {op.AddInt, 2},
	"op_sub_i64": {op.SubInt, 2},
	"op_mul_i64": {op.MulInt, 2},
	"op_div_i64": {op.DivInt, 2},
	"op_mod_i64": {op.ModInt, 2},
	"op_neg_i64": {op.NegInt, 1},
	"op_eq_i64":  {op.EqInt, 2},
	"op_ne_i64":  {op.NeInt, 2},
	"op_lt_i64":  {op.LtInt, 2},
	"op_gt_i64":  {op.GtInt, 2},
	"op_le_i64":  {op.LeInt, 2},
	"op_ge_i64":  {op.GeInt, 2},

	// Float arithmetic and comparison.
	"op_add_f64": {op.AddFloat, 2},
	"op_sub_f64": {op.SubFloat, 2},
	"op_mul_f64": {op.MulFloat, 2},
	"op_div_f64": {op.DivFloat, 2},
	"op_neg_f64": {op.NegFloat, 1},
	"op_eq_f64":  {op.EqFloat, 2},
	"op_ne_f64":  {op.NeFloat, 2},
	"op_lt_f64":  {op.LtFloat, 2},
	"op_gt_f64":  {op.GtFloat, 2},
	"op_le_f64":  {op.LeFloat, 2},
	"op_ge_f64":  {op.GeFloat, 2},

	// Decimal arithmetic and comparison.
	"op_add_decimal": {op.AddDecimal, 2},
	"op_sub_decimal": {op.SubDecimal, 2},
	"op_mul_decimal": {op.MulDecimal, 2},
	"op_div_decimal": {op.DivDecimal, 2},
	"op_neg_decimal": {op.NegDecimal, 1},
	"op_eq_decimal":  {op.EqDecimal, 2},
	"op_ne_decimal":  {op.NeDecimal, 2},
	"op_lt_decimal":  {op.LtDecimal, 2},
	"op_gt_decimal":  {op.GtDecimal, 2},
	"op_le_decimal":  {op.LeDecimal, 2},
	"op_ge_decimal":  {op.GeDecimal, 2},

	// Casts.
	"cast_i64_f64":       {op.CastIntFloat, 1},
	"cast_f64_i64":       {op.CastFloatInt, 1},
	"cast_int_decimal":   {op.CastIntDecimal, 1},
	"cast_decimal_int":   {op.CastDecimalInt, 1},
	"cast_float_decimal": {op.CastFloatDecimal, 1},
	"cast_decimal_float": {op.CastDecimalFloat, 1},

	// Math.
	"math_abs_i64": {op.MathAbsInt, 1},
	"math_abs_f64": {op.MathAbsFloat, 1},
	"math_min_i64": {op.MathMinInt, 2},
	"math_min_f64": {op.MathMinFloat, 2},
	"math_max_i64": {op.MathMaxInt, 2},
	"math_max_f64": {op.MathMaxFloat, 2},
	"math_sqrt":    {op.MathSqrtFloat, 1},
	"math_sqrt_f64": {op.MathSqrtFloat, 1},
	"math_pow":     {op.MathPowFloat, 2},
	"math_pow_f64": {op.MathPowFloat, 2},

	// Typed prints. Each pops its value and pushes unit.
	"io_print_i64":     {op.PrintInt, 1},
	"io_print_f64":     {op.PrintFloat, 1},
	"io_print_bool":    {op.PrintBool, 1},
	"io_print_str":     {op.PrintStr, 1},
	"io_print_array":   {op.PrintArray, 1},
	"io_print_map":     {op.PrintMap, 1},
	"io_print_decimal": {op.PrintDecimal, 1},
	"print_int":        {op.PrintDebug, 1},

	// Strings.
	"string_concat":      {op.StrConcat, 2},
	"string_slice":       {op.StrSlice, 3},
	"string_length":      {op.StrLen, 1},
	"string_get":         {op.StrGet, 2},
	"string_equals":      {op.EqStr, 2},
	"string_from_i64":    {op.StrFromInt, 1},
	"string_from_f64":    {op.StrFromFloat, 1},
	"string_from_decimal": {op.StrFromDecimal, 1},
	"string_split":       {op.StrSplit, 2},
	"string_trim":        {op.StrTrim, 1},
	"string_contains":    {op.StrContains, 2},
	"string_replace":     {op.StrReplace, 3},
	"string_starts_with": {op.StrStartsWith, 2},
	"string_ends_with":   {op.StrEndsWith, 2},
	"string_to_upper":    {op.StrToUpper, 1},
	"string_to_lower":    {op.StrToLower, 1},

	// Arrays. array_new is a special form (it takes no arguments and pushes
	// a default capacity); the legacy capitalized names take the capacity
	// explicitly.
	"array_push":   {op.ArrayPush, 2},
	"array_get":    {op.ArrayGet, 2},
	"array_set":    {op.ArraySet, 3},
	"array_length": {op.ArrayLen, 1},
	"ArrayNew":     {op.ArrayNew, 1},
	"ArrayPush":    {op.ArrayPush, 2},
	"ArrayGet":     {op.ArrayGet, 2},
	"ArraySet":     {op.ArraySet, 3},
	"ArrayLen":     {op.ArrayLen, 1},

	// Maps.
	"map_new":    {op.MapNew, 0},
	"map_set":    {op.MapSet, 3},
	"map_get":    {op.MapGet, 2},
	"map_has":    {op.MapHas, 2},
	"map_delete": {op.MapDelete, 2},
	"map_length": {op.MapLen, 1},
	"map_keys":   {op.MapKeys, 1},

	// JSON.
	"json_parse":      {op.JSONParse, 1},
	"json_stringify":  {op.JSONStringify, 1},
	"json_new_object": {op.JSONNewObject, 0},
	"json_new_array":  {op.JSONNewArray, 0},
	"json_get":        {op.JSONGet, 2},
	"json_set":        {op.JSONSet, 3},
	"json_has":        {op.JSONHas, 2},
	"json_delete":     {op.JSONDelete, 2},
	"json_push":       {op.JSONPush, 2},
	"json_length":     {op.JSONLength, 1},
	"json_type":       {op.JSONType, 1},

	// Results.
	"result_ok":         {op.ResultOk, 1},
	"result_err":        {op.ResultErr, 2},
	"result_is_ok":      {op.ResultIsOk, 1},
	"result_is_err":     {op.ResultIsErr, 1},
	"result_unwrap":     {op.ResultUnwrap, 1},
	"result_unwrap_or":  {op.ResultUnwrapOr, 2},
	"result_error_code": {op.ResultErrorCode, 1},
	"result_error_msg":  {op.ResultErrorMsg, 1},

	// File handles (legacy io_file_* names share the handle opcodes).
	"io_file_open":  {op.IOOpen, 2},
	"io_file_read":  {op.IORead, 1},
	"io_file_write": {op.IOWrite, 2},
	"io_file_close": {op.IOClose, 1},

	// Whole-file and directory operations.
	"file_read":          {op.FileRead, 1},
	"file_write":         {op.FileWrite, 2},
	"file_append":        {op.FileAppend, 2},
	"file_exists":        {op.FileExists, 1},
	"file_delete":        {op.FileDelete, 1},
	"file_size":          {op.FileSize, 1},
	"file_mtime":         {op.FileMtime, 1},
	"file_read_result":   {op.FileReadResult, 1},
	"file_write_result":  {op.FileWriteResult, 2},
	"file_append_result": {op.FileAppendResult, 2},
	"dir_create":         {op.DirCreate, 1},
	"dir_delete":         {op.DirDelete, 1},
	"dir_list":           {op.DirList, 1},

	// HTTP client.
	"http_get":        {op.HTTPGet, 1},
	"http_post":       {op.HTTPPost, 2},
	"http_put":        {op.HTTPPut, 2},
	"http_delete":     {op.HTTPDelete, 1},
	"http_request":    {op.HTTPRequest, 3},
	"http_get_status": {op.HTTPGetStatus, 1},
	"http_get_body":   {op.HTTPGetBody, 1},
	"http_get_header": {op.HTTPGetHeader, 2},
	"http_set_header": {op.HTTPSetHeader, 3},

	// WebSocket client.
	"ws_connect": {op.WSConnect, 1},
	"ws_send":    {op.WSSend, 2},
	"ws_receive": {op.WSReceive, 1},
	"ws_close":   {op.WSClose, 1},

	// Regex.
	"regex_compile":  {op.RegexCompile, 1},
	"regex_match":    {op.RegexMatch, 2},
	"regex_find":     {op.RegexFind, 2},
	"regex_find_all": {op.RegexFindAll, 2},
	"regex_replace":  {op.RegexReplace, 3},

	// Crypto and encoding.
	"sha256":        {op.CryptoSHA256, 1},
	"md5":           {op.CryptoMD5, 1},
	"hmac_sha256":   {op.CryptoHMACSHA256, 2},
	"base64_encode": {op.Base64Encode, 1},
	"base64_decode": {op.Base64Decode, 1},

	// Time.
	"time_now":    {op.TimeNow, 0},
	"time_format": {op.TimeFormat, 2},
	"time_parse":  {op.TimeParse, 2},

	// SQLite-shaped database access.
	"sqlite_open":     {op.SQLiteOpen, 1},
	"sqlite_close":    {op.SQLiteClose, 1},
	"sqlite_exec":     {op.SQLiteExec, 2},
	"sqlite_query":    {op.SQLiteQuery, 2},
	"sqlite_prepare":  {op.SQLitePrepare, 2},
	"sqlite_bind":     {op.SQLiteBind, 3},
	"sqlite_step":     {op.SQLiteStep, 1},
	"sqlite_column":   {op.SQLiteColumn, 2},
	"sqlite_reset":    {op.SQLiteReset, 1},
	"sqlite_finalize": {op.SQLiteFinalize, 1},

	// Processes.
	"process_exec":  {op.ProcessExec, 2},
	"process_spawn": {op.ProcessSpawn, 2},
	"process_kill":  {op.ProcessKill, 2},
	"process_read":  {op.ProcessRead, 1},
	"process_write": {op.ProcessWrite, 2},
	"process_wait":  {op.ProcessWait, 1},
	"process_pipe":  {op.ProcessPipe, 0},

	// TCP/UDP sockets.
	"tcp_listen":       {op.TCPListen, 1},
	"tcp_accept":       {op.TCPAccept, 1},
	"tcp_connect":      {op.TCPConnect, 2},
	"tcp_tls_connect":  {op.TCPTLSConnect, 2},
	"tcp_send":         {op.TCPSend, 2},
	"tcp_receive":      {op.TCPReceive, 2},
	"tcp_close":        {op.TCPClose, 1},
	"udp_socket":       {op.UDPSocket, 0},
	"udp_bind":         {op.UDPBind, 2},
	"udp_send_to":      {op.UDPSendTo, 4},
	"udp_receive_from": {op.UDPReceiveFrom, 2},

	// Stdin.
	"stdin_read":     {op.StdinRead, 0},
	"stdin_read_all": {op.StdinReadAll, 0},

	// Channels.
	"channel_new":  {op.ChannelNew, 1},
	"channel_send": {op.ChannelSend, 2},
	"channel_recv": {op.ChannelRecv, 1},

	// Async helpers. Spawn and await compile from their AST forms.
	"async_sleep": {op.AsyncSleep, 1},

	// Garbage collector introspection.
	"gc_collect": {op.GCCollect, 0},
	"gc_stats":   {op.GCStats, 0},

	// FFI. ffi_call is a special form (variadic argument count).
	"ffi_load":      {op.FFILoad, 1},
	"ffi_available": {op.FFIAvailable, 1},
	"ffi_close":     {op.FFIClose, 1},
}
