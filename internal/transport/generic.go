package transport

// GenericCodec handles devices bridged in over plain JSON, for endpoints
// that are neither the BLE dongle nor the Zigbee coordinator. It shares
// the envelope format with ZigbeeCodec.
type GenericCodec struct{}

func (GenericCodec) Decode(raw []byte) (Event, error) { return decodeEnvelope(raw) }

func (GenericCodec) Encode(cmd Command) ([]byte, error) { return encodeEnvelope(cmd) }
