package wire

import "github.com/tutu-network/gossipd/internal/domain"

// Field numbers for the Envelope record.
const (
	envelopeEncrypted = 1
	envelopeNonce     = 2
	envelopePayload   = 3
)

// Envelope wraps every on-wire datagram/message. When Encrypted is false,
// Payload is the raw protobuf body; when true, Payload is the ciphertext
// under a pre-shared symmetric key with Nonce (internal/crypto owns the
// actual seal/open).
type Envelope struct {
	Encrypted bool
	Nonce     []byte
	Payload   []byte
}

// EncodeEnvelope encodes an Envelope record.
func EncodeEnvelope(e Envelope) []byte {
	var b []byte
	b = appendBoolField(b, envelopeEncrypted, e.Encrypted)
	if len(e.Nonce) > 0 {
		b = appendBytesField(b, envelopeNonce, e.Nonce)
	}
	b = appendBytesField(b, envelopePayload, e.Payload)
	return b
}

// DecodeEnvelope decodes an Envelope record.
func DecodeEnvelope(b []byte) (Envelope, error) {
	fields, err := parseFields(b)
	if err != nil {
		return Envelope{}, err
	}
	payload, ok := oneBytes(fields, envelopePayload)
	if !ok {
		return Envelope{}, domain.NewProtocolMismatch("envelope.payload")
	}
	nonce, _ := oneBytes(fields, envelopeNonce)
	return Envelope{
		Encrypted: oneBool(fields, envelopeEncrypted),
		Nonce:     nonce,
		Payload:   payload,
	}, nil
}
