package realtime

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"support-desk/internal/backend"
)

// Change events cross instances as deterministic CBOR so identical
// events produce identical payloads.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("realtime: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("realtime: CBOR decoder initialization failed: " + err.Error())
	}
}

func EncodeEvent(ev backend.ChangeEvent) ([]byte, error) {
	data, err := encMode.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encoding change event: %w", err)
	}
	return data, nil
}

func DecodeEvent(data []byte) (backend.ChangeEvent, error) {
	var ev backend.ChangeEvent
	if err := decMode.Unmarshal(data, &ev); err != nil {
		return backend.ChangeEvent{}, fmt.Errorf("decoding change event: %w", err)
	}
	if ev.Collection != backend.CollectionTickets && ev.Collection != backend.CollectionMessages {
		return backend.ChangeEvent{}, fmt.Errorf("decoding change event: unknown collection %q", ev.Collection)
	}
	return ev, nil
}
