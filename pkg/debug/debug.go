package debug

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// ModulePath is trimmed from caller package names.
const ModulePath = "github.com/walteh/jsemit/"

func callerSkipFrameCount(e *zerolog.Event) int {
	// zerolog keeps CallerSkipFrame in an unexported field
	v := reflect.ValueOf(e).Elem()
	field := v.FieldByName("skipFrame")

	if field.IsValid() && field.CanInt() {
		return int(field.Int())
	}

	return 0
}

type CustomTimeHook struct {
	WithColor bool
	Format    string
}

func (t CustomTimeHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	format := t.Format
	if format == "" {
		// millisecond precision, no timezone
		format = "15:04:05.000"
	}

	str := time.Now().Format(format)
	if t.WithColor {
		str = color.New(color.Faint).Sprint(str)
	}
	e.Str("time", str)
}

type CustomCallerHook struct {
	WithColor bool
}

func (c CustomCallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pc, file, line, ok := runtime.Caller(callerSkipFrameCount(e) + 3)
	if !ok {
		return
	}

	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return
	}

	pkg, _ := GetPackageAndFuncFromFuncName(fn.Name())

	e.Str("caller", FormatCaller(pkg, file, line, c.WithColor))
}

func GetPackageAndFuncFromFuncName(name string) (pkg, function string) {
	lastSlash := strings.LastIndexByte(name, '/')
	if lastSlash < 0 {
		lastSlash = 0
	}

	firstDot := strings.IndexByte(name[lastSlash:], '.') + lastSlash
	if firstDot < lastSlash {
		return strings.TrimPrefix(name, ModulePath), ""
	}

	pkg = name[:firstDot]
	function = name[firstDot+1:]

	if strings.Contains(pkg, ".(") {
		splt := strings.Split(pkg, ".(")
		pkg = splt[0]
		function = "(" + splt[1] + "." + function
	}

	return strings.TrimPrefix(pkg, ModulePath), function
}

func FormatCaller(pkg, path string, number int, colorize bool) string {
	p := FileNameOfPath(path)
	if colorize {
		p = color.New(color.Bold).Sprint(p)
		num := color.New(color.FgHiRed, color.Bold).Sprintf("%d", number)
		sep := color.New(color.Faint).Sprint(":")

		return fmt.Sprintf("%s%s%s%s%s", pkg, sep, p, sep, num)
	}

	return fmt.Sprintf("%s:%s:%d", pkg, p, number)
}

func FileNameOfPath(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
