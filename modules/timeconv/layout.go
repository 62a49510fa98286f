package timeconv

import (
	"fmt"
	"strings"
)

var directives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'f': "999999",
	'p': "PM",
	'b': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'j': "002",
	'z': "-0700",
	'Z': "MST",
	'%': "%",
}

// Layout translates a strftime format into a Go time layout.
func Layout(format string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(format) {
			return "", fmt.Errorf("format '%s' ends with a bare '%%'", format)
		}
		i++
		switch format[i] {
		case 'T':
			b.WriteString("15:04:05")
		case 'D':
			b.WriteString("01/02/06")
		case 'F':
			b.WriteString("2006-01-02")
		default:
			layout, ok := directives[format[i]]
			if !ok {
				return "", fmt.Errorf("format '%s': unsupported directive '%%%c'", format, format[i])
			}
			b.WriteString(layout)
		}
	}
	return b.String(), nil
}
