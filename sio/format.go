package sio

import "fmt"

func hex8(v byte) string {
	return fmt.Sprintf("0x%02X", v)
}

func hex16(v uint16) string {
	return fmt.Sprintf("0x%04X", v)
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}
