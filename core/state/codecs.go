package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"

	"github.com/glacieros/lumen/core/tables"
)

// jsonCodec adapts encoding/json to tables.Codec for structured row
// values. Canonical byte-wise key ordering, the only ordering guarantee the
// tables make, is handled by the dedicated key codecs below, not by this
// value codec.
type jsonCodec[T any] struct{}

func (jsonCodec[T]) Encode(v T) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic("state: marshal: " + err.Error())
	}
	return b
}

func (jsonCodec[T]) Decode(b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}

// accountAddrCodec encodes AccountAddr as its raw 32 bytes, so byte-wise
// ordering of encoded keys matches natural AccountAddr ordering.
type accountAddrCodec struct{}

func (accountAddrCodec) Encode(a AccountAddr) []byte { return a[:] }
func (accountAddrCodec) Decode(b []byte) (AccountAddr, error) {
	var a AccountAddr
	if len(b) != AccountAddrSize {
		return a, errors.New("state: bad account address length")
	}
	copy(a[:], b)
	return a, nil
}

// nodeKeyCodec encodes NodeKey as its raw 96 bytes.
type nodeKeyCodec struct{}

func (nodeKeyCodec) Encode(k NodeKey) []byte { return k[:] }
func (nodeKeyCodec) Decode(b []byte) (NodeKey, error) {
	var k NodeKey
	if len(b) != NodeKeySize {
		return k, errors.New("state: bad node key length")
	}
	copy(k[:], b)
	return k, nil
}

// epochCodec encodes Epoch as 8 big-endian bytes, preserving numeric
// ordering under byte-wise comparison.
type epochCodec struct{}

func (epochCodec) Encode(e Epoch) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(e))
	return b
}

func (epochCodec) Decode(b []byte) (Epoch, error) {
	if len(b) != 8 {
		return 0, errors.New("state: bad epoch length")
	}
	return Epoch(binary.BigEndian.Uint64(b)), nil
}

// servedKeyCodec encodes the composite (Epoch, NodeKey) key of ServedInfo as
// Epoch's 8 big-endian bytes followed by the node key's 96 bytes, so entries
// iterate ordered first by epoch, then by node key.
type servedKeyCodec struct{}

func (servedKeyCodec) Encode(k ServedKey) []byte {
	out := make([]byte, 8+NodeKeySize)
	binary.BigEndian.PutUint64(out[:8], uint64(k.Epoch))
	copy(out[8:], k.Node[:])
	return out
}

func (servedKeyCodec) Decode(b []byte) (ServedKey, error) {
	if len(b) != 8+NodeKeySize {
		return ServedKey{}, errors.New("state: bad served-key length")
	}
	var k ServedKey
	k.Epoch = Epoch(binary.BigEndian.Uint64(b[:8]))
	copy(k.Node[:], b[8:])
	return k, nil
}

// metadataTagCodec and paramTagCodec encode their single-byte enum as one
// byte each.
type metadataTagCodec struct{}

func (metadataTagCodec) Encode(t MetadataTag) []byte { return []byte{byte(t)} }
func (metadataTagCodec) Decode(b []byte) (MetadataTag, error) {
	if len(b) != 1 {
		return 0, errors.New("state: bad metadata tag length")
	}
	return MetadataTag(b[0]), nil
}

type paramTagCodec struct{}

func (paramTagCodec) Encode(t ParamTag) []byte { return []byte{byte(t)} }
func (paramTagCodec) Decode(b []byte) (ParamTag, error) {
	if len(b) != 1 {
		return 0, errors.New("state: bad param tag length")
	}
	return ParamTag(b[0]), nil
}

// serviceIDCodec encodes ServiceID as 4 big-endian bytes.
type serviceIDCodec struct{}

func (serviceIDCodec) Encode(id ServiceID) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(id))
	return b
}

func (serviceIDCodec) Decode(b []byte) (ServiceID, error) {
	if len(b) != 4 {
		return 0, errors.New("state: bad service id length")
	}
	return ServiceID(binary.BigEndian.Uint32(b)), nil
}

// singletonKeyCodec encodes the unit key of a one-row table (AuthorityList).
type singletonKeyCodec struct{}

func (singletonKeyCodec) Encode(struct{}) []byte          { return []byte{0} }
func (singletonKeyCodec) Decode([]byte) (struct{}, error) { return struct{}{}, nil }

var (
	_ tables.Codec[AccountAddr] = accountAddrCodec{}
	_ tables.Codec[NodeKey]     = nodeKeyCodec{}
	_ tables.Codec[Epoch]       = epochCodec{}
	_ tables.Codec[ServedKey]   = servedKeyCodec{}
	_ tables.Codec[MetadataTag] = metadataTagCodec{}
	_ tables.Codec[ParamTag]    = paramTagCodec{}
	_ tables.Codec[ServiceID]   = serviceIDCodec{}
)
