package message

import "github.com/sigurn/crc16"

// The protocol appends CRC-16/CCITT-FALSE to every plaintext message:
// poly 0x1021, init 0xFFFF, no reflection, xorout 0x0000.
var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// CRC computes the CRC-16/CCITT-FALSE checksum of data.
func CRC(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// crcValid checks the trailing little-endian CRC of a decoded message.
func crcValid(data []byte) bool {
	if len(data) < CRCSize {
		return false
	}
	body := data[:len(data)-CRCSize]
	received := uint16(data[len(data)-2]) | uint16(data[len(data)-1])<<8
	return CRC(body) == received
}
