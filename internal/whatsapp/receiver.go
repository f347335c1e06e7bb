package whatsapp

import "context"

// Receiver delivers inbound events in batches, mirroring how the transport
// upserts them. The channel closes when the receiver shuts down or ctx is
// cancelled.
type Receiver interface {
	Listen(ctx context.Context) <-chan []Event
}
