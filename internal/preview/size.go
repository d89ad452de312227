package preview

import "fmt"

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count in the largest of Bytes/KB/MB/GB that does not
// exceed it, using base 1024 and two decimals. Zero is "0 Bytes".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	unit := 0
	for scaled := bytes; scaled >= 1024 && unit < len(sizeUnits)-1; scaled /= 1024 {
		unit++
	}

	divisor := int64(1) << (10 * unit)
	return fmt.Sprintf("%.2f %s", float64(bytes)/float64(divisor), sizeUnits[unit])
}
