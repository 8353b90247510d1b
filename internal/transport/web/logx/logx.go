package logx

import (
	"fmt"
	"log"
	"strings"
)

// Info пишет строку вида: lvl=info req_id=... op=... msg="..." k=v ...
func Info(l *log.Logger, reqID, op, msg string, kv ...any) {
	l.Print(line("info", reqID, op, msg, nil, kv))
}

// Error — то же, плюс err=
func Error(l *log.Logger, reqID, op, msg string, err error, kv ...any) {
	l.Print(line("error", reqID, op, msg, err, kv))
}

func line(lvl, reqID, op, msg string, err error, kv []any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "lvl=%s req_id=%s op=%s msg=%q", lvl, reqID, op, msg)
	if err != nil {
		fmt.Fprintf(&b, " err=%q", err.Error())
	}
	for i := 0; i < len(kv); i += 2 {
		if i+1 >= len(kv) {
			fmt.Fprintf(&b, " %v=<missing>", kv[i])
			break
		}
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}
