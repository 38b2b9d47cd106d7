package memoize

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// canonicalKey derives a deterministic key for an argument tuple. The
// arguments are walked recursively into a canonical form — sequences keep
// their element order, maps are encoded in sorted key order — then encoded
// with msgpack and digested with xxhash. Two structurally equal argument
// trees always produce the same key regardless of object identity.
func canonicalKey(args []any) (string, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encodeCanonical(enc, args); err != nil {
		return "", err
	}
	return strconv.FormatUint(xxhash.Sum64(buf.Bytes()), 16), nil
}

func encodeCanonical(enc *msgpack.Encoder, v any) error {
	if v == nil {
		return enc.EncodeNil()
	}
	switch val := v.(type) {
	case []any:
		if err := enc.EncodeArrayLen(len(val)); err != nil {
			return err
		}
		for _, elem := range val {
			if err := encodeCanonical(enc, elem); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if err := enc.EncodeMapLen(len(val)); err != nil {
			return err
		}
		for _, k := range keys {
			if err := enc.EncodeString(k); err != nil {
				return err
			}
			if err := encodeCanonical(enc, val[k]); err != nil {
				return err
			}
		}
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if err := enc.EncodeArrayLen(rv.Len()); err != nil {
			return err
		}
		for i := 0; i < rv.Len(); i++ {
			if err := encodeCanonical(enc, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		// Sort keys by their printed form so iteration order never leaks
		// into the encoding.
		mapKeys := rv.MapKeys()
		sort.Slice(mapKeys, func(i, j int) bool {
			return fmt.Sprint(mapKeys[i].Interface()) < fmt.Sprint(mapKeys[j].Interface())
		})
		if err := enc.EncodeMapLen(len(mapKeys)); err != nil {
			return err
		}
		for _, k := range mapKeys {
			if err := encodeCanonical(enc, k.Interface()); err != nil {
				return err
			}
			if err := encodeCanonical(enc, rv.MapIndex(k).Interface()); err != nil {
				return err
			}
		}
		return nil
	}
	return enc.Encode(v)
}

// deriveKey maps an argument tuple to this cache's storage key. Single-slot
// caches have exactly one slot so no key is derived. Shared map caches
// prefix the digest with the owning cache's name so two caches with the same
// arguments never collide in one store.
func (c *Cache) deriveKey(args []any) (string, error) {
	if c.kind == KindSingleSlot {
		return "", nil
	}
	digest, err := canonicalKey(args)
	if err != nil {
		return "", err
	}
	if c.shared {
		return c.name + ":" + digest, nil
	}
	return digest, nil
}
