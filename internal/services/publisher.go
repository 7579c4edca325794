package services

// Publisher fans events out on the live channel. Delivery is best effort:
// an error only means the event could not be encoded.
type Publisher interface {
	PublishToRoom(room, event string, data interface{}) error
	Broadcast(event string, data interface{}) error
	BroadcastExceptUser(userID, event string, data interface{}) error
}

type nopPublisher struct{}

func (nopPublisher) PublishToRoom(string, string, interface{}) error { return nil }
func (nopPublisher) Broadcast(string, interface{}) error { return nil }
func (nopPublisher) BroadcastExceptUser(string, string, interface{}) error { return nil }

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
