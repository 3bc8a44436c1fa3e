package vm

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aisl-lang/aisl/op"
)

// strftimeToLayout converts the %-directive subset of strftime to a Go
// reference layout. Unknown directives pass through literally.
var strftimeRepl = strings.NewReplacer(
	"%Y", "2006",
	"%m", "01",
	"%d", "02",
	"%H", "15",
	"%M", "04",
	"%S", "05",
	"%y", "06",
	"%b", "Jan",
	"%B", "January",
	"%a", "Mon",
	"%A", "Monday",
	"%p", "PM",
	"%z", "-0700",
	"%Z", "MST",
	"%%", "%",
)

func strftimeToLayout(format string) string {
	return strftimeRepl.Replace(format)
}

// execUtil handles regex, hashing, base64, time, and GC operations.
func (vm *VM) execUtil(code op.Code) error {
	switch code {
	case op.RegexCompile:
		// Bad patterns yield unit; regex values are first-class.
		pattern := vm.pop().Str
		re, err := regexp.Compile(pattern)
		if err != nil {
			vm.push(UnitValue())
			return nil
		}
		vm.push(RegexValue(re))

	case op.RegexMatch:
		text := vm.pop().Str
		reVal := vm.pop()
		if reVal.Kind != RegexKind {
			vm.push(BoolValue(false))
			return nil
		}
		vm.push(BoolValue(reVal.Re.MatchString(text)))

	case op.RegexFind:
		text := vm.pop().Str
		reVal := vm.pop()
		if reVal.Kind != RegexKind {
			vm.push(StringValue(""))
			return nil
		}
		vm.push(StringValue(reVal.Re.FindString(text)))

	case op.RegexFindAll:
		text := vm.pop().Str
		reVal := vm.pop()
		arr := &Array{}
		if reVal.Kind == RegexKind {
			for _, m := range reVal.Re.FindAllString(text, -1) {
				arr.Elems = append(arr.Elems, StringValue(m))
			}
		}
		vm.push(ArrayValue(arr))

	case op.RegexReplace:
		replacement := vm.pop().Str
		text := vm.pop().Str
		reVal := vm.pop()
		if reVal.Kind != RegexKind {
			vm.push(StringValue(text))
			return nil
		}
		vm.push(StringValue(reVal.Re.ReplaceAllString(text, replacement)))

	case op.CryptoSHA256:
		data := vm.pop().Str
		sum := sha256.Sum256([]byte(data))
		vm.push(StringValue(hex.EncodeToString(sum[:])))

	case op.CryptoMD5:
		data := vm.pop().Str
		sum := md5.Sum([]byte(data))
		vm.push(StringValue(hex.EncodeToString(sum[:])))

	case op.CryptoHMACSHA256:
		message := vm.pop().Str
		key := vm.pop().Str
		mac := hmac.New(sha256.New, []byte(key))
		mac.Write([]byte(message))
		vm.push(StringValue(hex.EncodeToString(mac.Sum(nil))))

	case op.Base64Encode:
		data := vm.pop().Str
		vm.push(StringValue(base64.StdEncoding.EncodeToString([]byte(data))))

	case op.Base64Decode:
		// Malformed input yields the empty string.
		data := vm.pop().Str
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			vm.push(StringValue(""))
			return nil
		}
		vm.push(StringValue(string(decoded)))

	case op.TimeNow:
		vm.push(IntValue(time.Now().Unix()))

	case op.TimeFormat:
		format := vm.pop().Str
		ts := vm.pop().Int
		t := time.Unix(ts, 0).UTC()
		vm.push(StringValue(t.Format(strftimeToLayout(format))))

	case op.TimeParse:
		format := vm.pop().Str
		text := vm.pop().Str
		t, err := time.Parse(strftimeToLayout(format), text)
		if err != nil {
			vm.push(IntValue(-1))
			return nil
		}
		vm.push(IntValue(t.Unix()))

	case op.GCCollect:
		runtime.GC()
		atomic.AddInt64(&vm.gcRuns, 1)
		vm.push(UnitValue())

	case op.GCStats:
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		m := NewMap()
		m.Set("alloc", IntValue(int64(stats.HeapAlloc)))
		m.Set("collections", IntValue(atomic.LoadInt64(&vm.gcRuns)))
		vm.push(MapValue(m))
	}
	return nil
}
