// Package transform implements the composable byte<->byte and
// byte<->object transform pipeline of spec §4.B: compression, encryption,
// and serialization layered outward from a raw bytemap.ByteMap. Each
// layer is transparent (decode(encode(x)) == x) and a layer configured
// with "none" is the identity. Layers compose by plain function
// composition, never by inheritance, per spec §9.
package transform

import "github.com/jmosbacher/igit-go/igiterr"

// Compressor is the innermost byte<->byte layer (spec §4.B, layer 1).
type Compressor interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// Encryptor is the middle byte<->byte layer (spec §4.B, layer 2), applied
// OUTSIDE compression so ciphertext is incompressible.
type Encryptor interface {
	Name() string
	Encrypt(data []byte) ([]byte, error)
	Decrypt(data []byte) ([]byte, error)
}

// Serializer is the outermost layer: it turns an arbitrary object value
// into bytes and back (spec §4.B, layer 3). Deserialize returns a generic
// value (map[string]interface{}, []interface{}, or a primitive) that the
// caller (objectdb) interprets against its own typed wire schema.
type Serializer interface {
	Name() string
	Serialize(obj interface{}) ([]byte, error)
	Deserialize(data []byte) (interface{}, error)
}

// Pipeline composes the three layers in the fixed order the spec
// mandates: serialize -> compress -> encrypt (outward from the raw byte
// map means: on encode, serialize first, then compress, then encrypt; on
// decode, reverse).
type Pipeline struct {
	Compressor Compressor
	Encryptor  Encryptor
	Serializer Serializer
}

// New builds a Pipeline from the recognized option names in spec §4.B /
// §6 ("serializer", "compression", "encryption" in the Config record).
// The "authenticated" encryption option needs a 32-byte key: with a nil
// or wrong-length key, New returns an error.
func New(serializer, compression, encryption string, encryptionKey []byte) (*Pipeline, error) {
	c, err := NewCompressor(compression)
	if err != nil {
		return nil, err
	}
	e, err := NewEncryptor(encryption, encryptionKey)
	if err != nil {
		return nil, err
	}
	s, err := NewSerializer(serializer)
	if err != nil {
		return nil, err
	}
	return &Pipeline{Compressor: c, Encryptor: e, Serializer: s}, nil
}

// Encode turns obj into the final on-disk byte payload:
// encrypt(compress(serialize(obj))).
func (p *Pipeline) Encode(obj interface{}) ([]byte, error) {
	data, err := p.Serializer.Serialize(obj)
	if err != nil {
		return nil, err
	}
	data, err = p.Compressor.Compress(data)
	if err != nil {
		return nil, err
	}
	data, err = p.Encryptor.Encrypt(data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Decode reverses Encode: deserialize(decompress(decrypt(data))).
func (p *Pipeline) Decode(data []byte) (interface{}, error) {
	data, err := p.Encryptor.Decrypt(data)
	if err != nil {
		return nil, err
	}
	data, err = p.Compressor.Decompress(data)
	if err != nil {
		return nil, err
	}
	obj, err := p.Serializer.Deserialize(data)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// NewCompressor resolves one of the recognized compression options:
// "none", "zlib".
func NewCompressor(name string) (Compressor, error) {
	switch name {
	case "", "none":
		return noopCompressor{}, nil
	case "zlib":
		return newZlibCompressor(), nil
	default:
		return nil, igiterr.UnsupportedVariant("compression:" + name)
	}
}

// NewEncryptor resolves one of the recognized encryption options: "none",
// "authenticated" (ChaCha20-Poly1305 with a 32-byte key).
func NewEncryptor(name string, key []byte) (Encryptor, error) {
	switch name {
	case "", "none":
		return noopEncryptor{}, nil
	case "authenticated":
		return newChaCha20Poly1305Encryptor(key)
	default:
		return nil, igiterr.UnsupportedVariant("encryption:" + name)
	}
}

// NewSerializer resolves one of the recognized serializer options:
// "json", "messagepack", "messagepack-with-structured-fallback".
func NewSerializer(name string) (Serializer, error) {
	switch name {
	case "", "json":
		return jsonSerializer{}, nil
	case "messagepack":
		return newMsgpackSerializer(false), nil
	case "messagepack-with-structured-fallback":
		return newMsgpackSerializer(true), nil
	default:
		return nil, igiterr.UnsupportedVariant("serializer:" + name)
	}
}

type noopCompressor struct{}

func (noopCompressor) Name() string                           { return "none" }
func (noopCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (noopCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }

type noopEncryptor struct{}

func (noopEncryptor) Name() string                        { return "none" }
func (noopEncryptor) Encrypt(data []byte) ([]byte, error) { return data, nil }
func (noopEncryptor) Decrypt(data []byte) ([]byte, error) { return data, nil }
